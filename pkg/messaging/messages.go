// Package messaging carries cross-context messages from the coordinator to
// page sessions, addressed by tab id.
package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/japaniel/wordlens/pkg/vocab"
)

// Action names as they appear on the wire.
const (
	ActionUpdateHighlight  = "update_highlight"
	ActionRefreshHighlight = "refresh_highlight"
)

// Message is one of UpdateHighlight or RefreshHighlight.
type Message interface {
	Action() string
}

// UpdateHighlight tells a page that a word was just added. It carries the
// entry so the page does not have to read the store again.
type UpdateHighlight struct {
	NewWord string      `json:"newWord"`
	Data    vocab.Entry `json:"data"`
}

func (UpdateHighlight) Action() string { return ActionUpdateHighlight }

// RefreshHighlight asks a page to reload completely. Reserved: nothing in
// the add workflow sends it.
type RefreshHighlight struct{}

func (RefreshHighlight) Action() string { return ActionRefreshHighlight }

type envelope struct {
	Action  string       `json:"action"`
	NewWord string       `json:"newWord,omitempty"`
	Data    *vocab.Entry `json:"data,omitempty"`
}

// Encode renders msg as {"action": ..., ...}.
func Encode(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case UpdateHighlight:
		data := m.Data
		return json.Marshal(envelope{Action: m.Action(), NewWord: m.NewWord, Data: &data})
	case RefreshHighlight:
		return json.Marshal(envelope{Action: m.Action()})
	default:
		return nil, fmt.Errorf("unknown message type %T", msg)
	}
}

// Decode parses a wire message.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	switch env.Action {
	case ActionUpdateHighlight:
		if env.NewWord == "" || env.Data == nil {
			return nil, fmt.Errorf("%s requires newWord and data", env.Action)
		}
		return UpdateHighlight{NewWord: env.NewWord, Data: *env.Data}, nil
	case ActionRefreshHighlight:
		return RefreshHighlight{}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", env.Action)
	}
}
