package realtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/odvcencio/devroom/pkg/ai"
)

// Router handles inbound chat events: immediate rebroadcast to the room,
// directive detection, and hand-off to the AI pipeline.
type Router struct {
	registry *Registry
	pipeline *ai.Pipeline
	logger   *slog.Logger

	// wg tracks in-flight directive continuations so shutdown and tests
	// can wait for them.
	wg sync.WaitGroup
}

// NewRouter constructs a router.
func NewRouter(registry *Registry, pipeline *ai.Pipeline, logger *slog.Logger) *Router {
	return &Router{registry: registry, pipeline: pipeline, logger: logger}
}

// HandleChat processes one inbound chat message. The message is rebroadcast
// to every other room member before any AI handling, so chat latency never
// waits on the model. When the body carries the trigger token, exactly one
// pipeline invocation runs as a detached continuation; further inbound
// messages are never blocked behind it.
func (r *Router) HandleChat(s *Session, body string) {
	payload := ChatPayload{
		Body:      body,
		Sender:    Sender{ID: s.claims.UserID, Label: s.claims.Label},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	r.registry.BroadcastExcept(s.roomID, s, Envelope{Type: EventChatMessage, Payload: payload})

	if !strings.Contains(body, TriggerToken) {
		return
	}

	// First occurrence only; repeated tokens stay in the prompt.
	prompt := strings.Replace(body, TriggerToken, "", 1)

	AIInvocations.Inc()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runDirective(s.roomID, prompt)
	}()
}

// runDirective completes an AI invocation. It uses a background context:
// the invocation is uncancelable by design, and on completion it still
// broadcasts to a room that may have emptied (a no-op, not an error). The
// AI reply goes to ALL room members including the original sender, unlike
// the human rebroadcast.
func (r *Router) runDirective(roomID, prompt string) {
	result, err := r.pipeline.Invoke(context.Background(), roomID, prompt)
	if err != nil {
		AIFailures.WithLabelValues("generate").Inc()
		r.logger.Error("generation service call failed",
			"room_id", roomID, "error", err)
		r.broadcastAssistant(roomID, "The assistant could not be reached. Please try again.")
		return
	}

	if result.SaveErr != nil {
		AIFailures.WithLabelValues("persist").Inc()
		r.broadcastAssistant(roomID, "The assistant produced an updated file tree, but saving it failed.")
	}

	if result.TreeSaved {
		r.registry.BroadcastAll(roomID, Envelope{
			Type:    EventFileTreeUpdated,
			Payload: FileTreePayload{FileTree: result.Reply.FileTree},
		})
	}

	r.broadcastAssistant(roomID, result.Reply.Text)
}

func (r *Router) broadcastAssistant(roomID, body string) {
	r.registry.BroadcastAll(roomID, Envelope{
		Type: EventChatMessage,
		Payload: ChatPayload{
			Body:      body,
			Sender:    AssistantSender,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Wait blocks until all in-flight directive continuations finish.
func (r *Router) Wait() {
	r.wg.Wait()
}
