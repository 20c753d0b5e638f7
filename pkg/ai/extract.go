package ai

import (
	"encoding/json"
	"strings"

	"github.com/odvcencio/devroom/pkg/workspace"
)

// Reply is the interpreted form of a raw model reply. Structured reports
// whether a JSON object was decoded; when false, Text carries the raw reply
// untouched and FileTree is nil.
type Reply struct {
	Text       string
	FileTree   workspace.FileTree
	Structured bool
}

type structuredReply struct {
	Text     string             `json:"text"`
	FileTree workspace.FileTree `json:"fileTree"`
}

// Interpret decodes a structured reply from raw model output. The model is
// not guaranteed to honor the strict-JSON contract, so after a direct parse
// fails it falls back to slicing out the outermost brace-delimited span and
// parsing that. It never fails: unparseable input degrades to a plain-text
// reply with no mutation.
func Interpret(raw string) Reply {
	cleaned := strings.TrimSpace(raw)

	if reply, ok := decode(cleaned); ok {
		return reply
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if reply, ok := decode(cleaned[start : end+1]); ok {
			return reply
		}
	}

	return Reply{Text: raw}
}

func decode(candidate string) (Reply, bool) {
	var parsed structuredReply
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return Reply{}, false
	}
	text := parsed.Text
	if text == "" {
		// No text field: the cleaned string itself is the visible message.
		text = candidate
	}
	return Reply{Text: text, FileTree: parsed.FileTree, Structured: true}, true
}
