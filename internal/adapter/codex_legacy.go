package adapter

import (
	"encoding/json"
	"strings"

	"github.com/anthropic/worklog/internal/session"
)

// codexLegacyAdapter decodes the flat pre-rollout Codex format. The first
// record is a header with an id and timestamp but no type discriminator;
// subsequent records are flat response items. Tool invocations appear as
// top-level shell-command records whose arguments are a JSON-encoded string
// that may itself contain an apply_patch here-document.
type codexLegacyAdapter struct {
	index int
}

func newCodexLegacyAdapter() *codexLegacyAdapter { return &codexLegacyAdapter{} }

func (a *codexLegacyAdapter) Source() session.Source { return session.SourceCodex }
func (a *codexLegacyAdapter) Generation() string     { return "legacy" }

type codexLegacyRecord struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`

	// header
	Instructions string `json:"instructions"`
	CWD          string `json:"cwd"`

	// message
	Role    string         `json:"role"`
	Content []codexContent `json:"content"`

	// function_call
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	CallID    string `json:"call_id"`
}

func (a *codexLegacyAdapter) Parse(raw json.RawMessage) (*Record, error) {
	idx := a.index
	a.index++

	var lr codexLegacyRecord
	if err := json.Unmarshal(raw, &lr); err != nil {
		return nil, nil
	}

	// The header is the only record without a type.
	if lr.Type == "" {
		if idx != 0 || lr.ID == "" {
			return nil, nil
		}
		return &Record{
			Timestamp: lr.Timestamp,
			Meta:      &Meta{SessionID: lr.ID, WorkingDir: lr.CWD},
		}, nil
	}

	switch lr.Type {
	case "message":
		if lr.Role != "user" && lr.Role != "assistant" {
			return nil, nil
		}
		var texts []string
		for _, c := range lr.Content {
			if (c.Type == "input_text" || c.Type == "output_text" || c.Type == "text") && c.Text != "" {
				texts = append(texts, c.Text)
			}
		}
		if len(texts) == 0 {
			return nil, nil
		}
		return &Record{
			DedupKey:  lr.ID,
			Timestamp: lr.Timestamp,
			Message: &session.ParsedMessage{
				Role:      lr.Role,
				Timestamp: lr.Timestamp,
				Text:      strings.Join(texts, "\n"),
			},
		}, nil

	case "function_call", "local_shell_call":
		tool, files := codexToolCall(lr.Name, lr.Arguments)
		return &Record{
			DedupKey:  lr.CallID,
			Timestamp: lr.Timestamp,
			Message: &session.ParsedMessage{
				Role:      "assistant",
				Timestamp: lr.Timestamp,
				Tools:     []session.ToolUse{tool},
			},
			Files: files,
		}, nil
	}
	return nil, nil
}
