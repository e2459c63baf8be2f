package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/anthropic/worklog/internal/session"
	"github.com/anthropic/worklog/internal/worktype"
)

const (
	defaultModel = "claude-3-5-haiku-latest"

	// maxPromptMessages bounds how much of the transcript is sent; long
	// sessions are summarized from their head, which carries the intent.
	maxPromptMessages = 40

	maxMessageChars = 600
	maxOutputTokens = 400
)

const systemPrompt = "You summarize AI coding assistant sessions. " +
	"Given a transcript excerpt, the files changed, and the tools used, " +
	"write 1-3 sentences describing what was accomplished. " +
	"Be concrete; mention the project area worked on. No preamble."

// AnthropicSummarizer implements Summarizer against the Anthropic Messages API.
type AnthropicSummarizer struct {
	client *anthropic.Client
	model  string
}

// NewAnthropic creates a summarizer with the given API key and model.
// An empty model selects the default.
func NewAnthropic(apiKey, model string) *AnthropicSummarizer {
	if model == "" {
		model = defaultModel
	}
	return &AnthropicSummarizer{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

// Summarize renders the session into a prompt and asks the model for prose
// accomplishments.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, ps *session.ParsedSession, work worktype.Classification) (*Summary, error) {
	tools := toolNames(ps.Stats.ToolCalls)

	temperature := float32(0.2)
	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(s.model),
		MaxTokens:   maxOutputTokens,
		Temperature: &temperature,
		MultiSystem: []anthropic.MessageSystemPart{{Type: "text", Text: systemPrompt}},
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewTextMessageContent(buildPrompt(ps, work, tools)),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("summarize session %s: %w", ps.SessionID, err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text += *block.Text
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("summarize session %s: empty response", ps.SessionID)
	}

	return &Summary{
		Accomplishments: text,
		FilesChanged:    ps.ChangedFiles,
		ToolsUsed:       tools,
	}, nil
}

// buildPrompt renders the session context the model sees.
func buildPrompt(ps *session.ParsedSession, work worktype.Classification, tools []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s (branch %s)\n", ps.ProjectName, orDash(ps.Branch))
	fmt.Fprintf(&b, "Work type: %s, scope: %s\n", work.Type, work.Scope)
	if len(ps.ChangedFiles) > 0 {
		fmt.Fprintf(&b, "Files changed: %s\n", strings.Join(ps.ChangedFiles, ", "))
	}
	if len(tools) > 0 {
		fmt.Fprintf(&b, "Tools used: %s\n", strings.Join(tools, ", "))
	}
	b.WriteString("\nTranscript excerpt:\n")

	n := 0
	for _, m := range ps.Messages {
		if m.Text == "" {
			continue
		}
		if n >= maxPromptMessages {
			b.WriteString("[...truncated...]\n")
			break
		}
		text := m.Text
		if len(text) > maxMessageChars {
			text = text[:maxMessageChars] + "..."
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, text)
		n++
	}
	return b.String()
}

// toolNames returns the histogram's keys sorted by descending count.
func toolNames(calls map[string]int) []string {
	names := make([]string, 0, len(calls))
	for name := range calls {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if calls[names[i]] != calls[names[j]] {
			return calls[names[i]] > calls[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
