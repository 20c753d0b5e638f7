// Package realtime implements the collaboration core: websocket admission,
// room-scoped broadcast, and routing of chat events including AI
// directives.
package realtime

import (
	"encoding/json"

	"github.com/odvcencio/devroom/pkg/workspace"
)

// Event types on the realtime channel.
const (
	EventChatMessage     = "chat-message"
	EventFileTreeUpdated = "file-tree-updated"
)

// TriggerToken marks a chat message as addressed to the assistant.
// Matching is case-sensitive, anywhere in the body.
const TriggerToken = "@ai"

// Envelope is the wire frame for every client-bound realtime event.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// inboundEnvelope defers payload decoding until the type is known.
type inboundEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Sender identifies the author of a chat message.
type Sender struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// AssistantSender is the sentinel identity attached to AI replies.
var AssistantSender = Sender{ID: "ai", Label: "AI"}

// ChatPayload is the chat-message payload. Server-bound messages carry only
// Body; the server stamps Sender and Timestamp on the way out.
type ChatPayload struct {
	Body      string `json:"body"`
	Sender    Sender `json:"sender,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// FileTreePayload is the file-tree-updated payload.
type FileTreePayload struct {
	FileTree workspace.FileTree `json:"fileTree"`
}
