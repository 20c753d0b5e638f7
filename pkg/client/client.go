// Package client is the Go-side participant of a devroom workspace: it
// dials the realtime channel, exchanges chat events, and keeps a local
// per-participant chat history cache.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/odvcencio/devroom/pkg/realtime"
	"github.com/odvcencio/devroom/pkg/workspace"
)

// Event is one decoded client-bound realtime event. Exactly one of Chat and
// FileTree is set, according to Type.
type Event struct {
	Type     string
	Chat     *realtime.ChatPayload
	FileTree workspace.FileTree
}

// Client is a live connection to one workspace room.
type Client struct {
	conn   *websocket.Conn
	events chan Event
}

// Dial connects and authenticates to the realtime channel of the given
// workspace. baseURL is the http(s) address of the server.
func Dial(ctx context.Context, baseURL, workspaceID, token string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("workspaceId", workspaceID)
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial realtime channel: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial realtime channel: %w", err)
	}
	if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
		conn.Close()
		return nil, fmt.Errorf("unexpected handshake status: %s", resp.Status)
	}

	c := &Client{
		conn:   conn,
		events: make(chan Event, 64),
	}
	go c.readLoop()
	return c, nil
}

// SendChat sends a chat message body to the room.
func (c *Client) SendChat(body string) error {
	return c.conn.WriteJSON(realtime.Envelope{
		Type:    realtime.EventChatMessage,
		Payload: realtime.ChatPayload{Body: body},
	})
}

// Events returns the stream of decoded events. The channel closes when the
// connection drops.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		switch env.Type {
		case realtime.EventChatMessage:
			var chat realtime.ChatPayload
			if err := json.Unmarshal(env.Payload, &chat); err != nil {
				continue
			}
			c.events <- Event{Type: env.Type, Chat: &chat}

		case realtime.EventFileTreeUpdated:
			var payload realtime.FileTreePayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				continue
			}
			c.events <- Event{Type: env.Type, FileTree: payload.FileTree}
		}
	}
}
