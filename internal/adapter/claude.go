package adapter

import (
	"encoding/json"

	"github.com/anthropic/worklog/internal/session"
)

// claudeAdapter decodes the modern Claude Code JSONL format. Every record is
// a typed envelope; session metadata (working directory, session id, branch)
// rides along on conversation records rather than in a dedicated header.
//
// Observed shape (no stability contract):
//
//	{"type":"user","uuid":"...","timestamp":"...","sessionId":"...","cwd":"...",
//	 "gitBranch":"...","message":{"role":"user","content":"..."}}
//	{"type":"assistant","uuid":"...","timestamp":"...",
//	 "message":{"role":"assistant","content":[{"type":"tool_use",...}],"usage":{...}}}
type claudeAdapter struct{}

func newClaudeAdapter() *claudeAdapter { return &claudeAdapter{} }

func (a *claudeAdapter) Source() session.Source { return session.SourceClaude }
func (a *claudeAdapter) Generation() string     { return "modern" }

// claudeEnvelope is the top-level structure of a modern Claude Code line.
type claudeEnvelope struct {
	Type      string          `json:"type"`
	UUID      string          `json:"uuid"`
	Timestamp string          `json:"timestamp"`
	SessionID string          `json:"sessionId"`
	CWD       string          `json:"cwd"`
	GitBranch string          `json:"gitBranch"`
	Message   json.RawMessage `json:"message"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Usage   *claudeUsage    `json:"usage"`
}

type claudeUsage struct {
	InputTokens              int `json:"input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	OutputTokens             int `json:"output_tokens"`
}

func (a *claudeAdapter) Parse(raw json.RawMessage) (*Record, error) {
	var env claudeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil
	}

	rec := &Record{
		DedupKey:  env.UUID,
		Timestamp: env.Timestamp,
	}

	if env.SessionID != "" || env.CWD != "" || env.GitBranch != "" {
		rec.Meta = &Meta{
			SessionID:  env.SessionID,
			WorkingDir: env.CWD,
			Branch:     env.GitBranch,
		}
	}

	switch env.Type {
	case "user", "assistant":
	default:
		// summary, file-history-snapshot, system, etc. Metadata (if any) is
		// still surfaced; there is no conversation turn to extract.
		if rec.Meta == nil {
			return nil, nil
		}
		return rec, nil
	}

	var msg claudeMessage
	if len(env.Message) == 0 || json.Unmarshal(env.Message, &msg) != nil {
		if rec.Meta == nil {
			return nil, nil
		}
		return rec, nil
	}

	role := msg.Role
	if role == "" {
		role = env.Type
	}

	text, tools, files := parseClaudeContent(msg.Content)
	if text != "" || len(tools) > 0 {
		rec.Message = &session.ParsedMessage{
			Role:      role,
			Timestamp: env.Timestamp,
			Text:      text,
			Tools:     tools,
		}
	}
	rec.Files = files

	// Only assistant-turn usage blocks contribute to token totals.
	if role == "assistant" && msg.Usage != nil {
		rec.Usage = &TokenUsage{
			Input: msg.Usage.InputTokens +
				msg.Usage.CacheCreationInputTokens +
				msg.Usage.CacheReadInputTokens,
			Output: msg.Usage.OutputTokens,
		}
	}

	if rec.Message == nil && rec.Meta == nil && rec.Usage == nil && len(rec.Files) == 0 {
		return nil, nil
	}
	return rec, nil
}
