package adapter

import (
	"encoding/json"
	"strings"

	"github.com/anthropic/worklog/internal/session"
)

// codexAdapter decodes the modern Codex CLI rollout format: a typed envelope
// stream where each record is session metadata, an event message, or a
// response item.
//
// Observed shape (no stability contract):
//
//	{"timestamp":"...","type":"session_meta","payload":{"id":"...","cwd":"...","git":{...}}}
//	{"timestamp":"...","type":"event_msg","payload":{"type":"token_count","info":{...}}}
//	{"timestamp":"...","type":"response_item","payload":{"type":"function_call",...}}
type codexAdapter struct{}

func newCodexAdapter() *codexAdapter { return &codexAdapter{} }

func (a *codexAdapter) Source() session.Source { return session.SourceCodex }
func (a *codexAdapter) Generation() string     { return "modern" }

type codexEnvelope struct {
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Payload   codexPayload `json:"payload"`
}

type codexPayload struct {
	Type string `json:"type"`

	// session_meta
	ID  string    `json:"id"`
	CWD string    `json:"cwd"`
	Git *codexGit `json:"git"`

	// response_item: function_call / custom_tool_call
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Input     string `json:"input"`
	CallID    string `json:"call_id"`

	// response_item: message
	Role    string         `json:"role"`
	Content []codexContent `json:"content"`

	// event_msg: user_message / agent_message
	Message string `json:"message"`
	Text    string `json:"text"`

	// event_msg: token_count
	Info *codexTokenInfo `json:"info"`
}

type codexGit struct {
	Branch string `json:"branch"`
}

type codexContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type codexTokenInfo struct {
	TotalTokenUsage codexTokenUsage `json:"total_token_usage"`
}

type codexTokenUsage struct {
	InputTokens       int `json:"input_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
	OutputTokens      int `json:"output_tokens"`
}

func (a *codexAdapter) Parse(raw json.RawMessage) (*Record, error) {
	var env codexEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil
	}

	switch env.Type {
	case "session_meta":
		meta := &Meta{SessionID: env.Payload.ID, WorkingDir: env.Payload.CWD}
		if env.Payload.Git != nil {
			meta.Branch = env.Payload.Git.Branch
		}
		return &Record{Timestamp: env.Timestamp, Meta: meta}, nil

	case "event_msg":
		return a.parseEvent(&env)

	case "response_item":
		return a.parseResponseItem(&env)
	}
	return nil, nil
}

// parseEvent handles the event_msg envelope: user text, agent text, or a
// token-count snapshot. Token counts report session totals, so they replace
// rather than increment prior values.
func (a *codexAdapter) parseEvent(env *codexEnvelope) (*Record, error) {
	p := &env.Payload
	switch p.Type {
	case "user_message":
		text := p.Message
		if text == "" {
			text = p.Text
		}
		if text == "" {
			return nil, nil
		}
		return &Record{
			Timestamp: env.Timestamp,
			Message: &session.ParsedMessage{
				Role:      "user",
				Timestamp: env.Timestamp,
				Text:      text,
			},
		}, nil

	case "agent_message":
		text := p.Message
		if text == "" {
			text = p.Text
		}
		if text == "" {
			return nil, nil
		}
		return &Record{
			Timestamp: env.Timestamp,
			Message: &session.ParsedMessage{
				Role:      "assistant",
				Timestamp: env.Timestamp,
				Text:      text,
			},
		}, nil

	case "token_count":
		if p.Info == nil {
			return nil, nil
		}
		u := p.Info.TotalTokenUsage
		return &Record{
			Timestamp: env.Timestamp,
			Usage: &TokenUsage{
				// input_tokens already includes the cached portion.
				Input:   u.InputTokens,
				Output:  u.OutputTokens,
				Replace: true,
			},
		}, nil
	}
	return nil, nil
}

// parseResponseItem handles the response_item envelope: a function call, a
// custom tool call, or an assistant message with structured content blocks.
func (a *codexAdapter) parseResponseItem(env *codexEnvelope) (*Record, error) {
	p := &env.Payload
	switch p.Type {
	case "message":
		if p.Role != "user" && p.Role != "assistant" {
			return nil, nil
		}
		var texts []string
		for _, c := range p.Content {
			if (c.Type == "input_text" || c.Type == "output_text") && c.Text != "" {
				texts = append(texts, c.Text)
			}
		}
		if len(texts) == 0 {
			return nil, nil
		}
		return &Record{
			DedupKey:  p.ID,
			Timestamp: env.Timestamp,
			Message: &session.ParsedMessage{
				Role:      p.Role,
				Timestamp: env.Timestamp,
				Text:      strings.Join(texts, "\n"),
			},
		}, nil

	case "function_call":
		tool, files := codexToolCall(p.Name, p.Arguments)
		return &Record{
			DedupKey:  p.CallID,
			Timestamp: env.Timestamp,
			Message: &session.ParsedMessage{
				Role:      "assistant",
				Timestamp: env.Timestamp,
				Tools:     []session.ToolUse{tool},
			},
			Files: files,
		}, nil

	case "custom_tool_call":
		name := normalizeToolName(p.Name)
		var files []string
		if name == "Edit" {
			files = extractPatchFiles(p.Input)
		}
		return &Record{
			DedupKey:  p.CallID,
			Timestamp: env.Timestamp,
			Message: &session.ParsedMessage{
				Role:      "assistant",
				Timestamp: env.Timestamp,
				Tools: []session.ToolUse{{
					Name:    name,
					Summary: truncate(name+": "+p.Input, maxSummaryLen),
					Input:   json.RawMessage(p.Input),
				}},
			},
			Files: files,
		}, nil
	}
	return nil, nil
}

// codexToolCall normalizes a Codex function call. The arguments value is a
// JSON-encoded string whose command may embed an apply_patch here-document;
// those calls are surfaced as Edit with the patch's changed files.
func codexToolCall(name, arguments string) (session.ToolUse, []string) {
	command := codexCommandString(arguments)

	if containsApplyPatch(command) {
		var files []string
		if body := extractHeredocPatch(command); body != "" {
			files = extractPatchFiles(body)
		} else {
			files = extractPatchFiles(command)
		}
		return session.ToolUse{
			Name:    "Edit",
			Summary: truncate("Edit: "+command, maxSummaryLen),
			Input:   json.RawMessage(arguments),
		}, files
	}

	normalized := normalizeToolName(name)
	summary := normalized
	if command != "" {
		summary = normalized + ": " + command
	}
	return session.ToolUse{
		Name:    normalized,
		Summary: truncate(summary, maxSummaryLen),
		Input:   json.RawMessage(arguments),
	}, nil
}

// codexCommandString decodes the arguments JSON string and renders its
// command field, which is either a string or an argv array.
func codexCommandString(arguments string) string {
	if arguments == "" {
		return ""
	}
	var args struct {
		Command json.RawMessage `json:"command"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || len(args.Command) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(args.Command, &s); err == nil {
		return s
	}
	var argv []string
	if err := json.Unmarshal(args.Command, &argv); err == nil {
		return strings.Join(argv, " ")
	}
	return ""
}
