// Package summarize defines the boundary to the external summarization
// collaborator: the pipeline hands over one normalized session and receives
// prose accomplishments back. The pipeline works identically with a nil
// Summarizer; summarization failures degrade to an unsummarized session.
package summarize

import (
	"context"

	"github.com/anthropic/worklog/internal/session"
	"github.com/anthropic/worklog/internal/worktype"
)

// Summary is the prose result produced for one session.
type Summary struct {
	// Accomplishments is a short prose description of what the session did.
	Accomplishments string

	// FilesChanged echoes the changed files the summarizer considered.
	FilesChanged []string

	// ToolsUsed lists the normalized tool names the summarizer considered.
	ToolsUsed []string
}

// Summarizer turns a normalized session into prose accomplishments.
type Summarizer interface {
	Summarize(ctx context.Context, ps *session.ParsedSession, work worktype.Classification) (*Summary, error)
}
