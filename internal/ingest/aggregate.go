// Package ingest drives the session pipeline: directory discovery, the
// per-file fold from raw records into a ParsedSession, and the bounded
// worker pool that processes batches with per-file error isolation.
package ingest

import (
	"encoding/json"
	"time"

	"github.com/anthropic/worklog/internal/adapter"
	"github.com/anthropic/worklog/internal/session"
)

// codexDateBoundary shifts Codex sessions' effective date: work finished
// between midnight and 3 AM attributes to the previous day. Claude sessions
// bucket by plain start date. The asymmetry is inherited from the source
// tools and deliberately preserved; see DESIGN.md.
const codexDateBoundary = 3 * time.Hour

// Aggregator folds an ordered sequence of raw source records into one
// ParsedSession. It must see records in file order: the seen-id dedup and
// timestamp bounds are order-sensitive. Not safe for concurrent use.
type Aggregator struct {
	file session.SessionFile
	now  func() time.Time

	seen      map[string]bool
	seenFiles map[string]bool

	meta     adapter.Meta
	messages []session.ParsedMessage
	files    []string
	stats    session.SessionStats

	start, end time.Time
}

// NewAggregator creates an aggregator for one session file. now supplies the
// wall clock used when a session carries no recoverable timestamp.
func NewAggregator(sf session.SessionFile, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		file:      sf,
		now:       now,
		seen:      make(map[string]bool),
		seenFiles: make(map[string]bool),
		stats:     session.SessionStats{ToolCalls: make(map[string]int)},
	}
}

// Fold feeds one raw record through the adapter into the running aggregate.
// Records the adapter cannot shape are skipped; records whose dedup key was
// already seen are discarded.
func (g *Aggregator) Fold(a adapter.Adapter, raw json.RawMessage) {
	rec, err := a.Parse(raw)
	if err != nil || rec == nil {
		return
	}

	if rec.DedupKey != "" {
		if g.seen[rec.DedupKey] {
			return
		}
		g.seen[rec.DedupKey] = true
	}

	if rec.Meta != nil {
		if g.meta.SessionID == "" {
			g.meta.SessionID = rec.Meta.SessionID
		}
		if g.meta.WorkingDir == "" {
			g.meta.WorkingDir = rec.Meta.WorkingDir
		}
		if g.meta.Branch == "" {
			g.meta.Branch = rec.Meta.Branch
		}
	}

	g.observeTime(rec.Timestamp)

	if m := rec.Message; m != nil {
		g.observeTime(m.Timestamp)
		g.messages = append(g.messages, *m)
		switch m.Role {
		case "user":
			g.stats.UserMessages++
		case "assistant":
			g.stats.AssistantMessages++
		}
		for _, t := range m.Tools {
			g.stats.ToolCalls[t.Name]++
		}
	}

	if u := rec.Usage; u != nil {
		if u.Replace {
			g.stats.InputTokens = u.Input
			g.stats.OutputTokens = u.Output
		} else {
			g.stats.InputTokens += u.Input
			g.stats.OutputTokens += u.Output
		}
	}

	for _, f := range rec.Files {
		if !g.seenFiles[f] {
			g.seenFiles[f] = true
			g.files = append(g.files, f)
		}
	}
}

// Finish assembles the ParsedSession. When no timestamp was recoverable,
// both bounds default to the current wall clock (a documented
// non-determinism, preserved from the source system).
func (g *Aggregator) Finish() *session.ParsedSession {
	start, end := g.start, g.end
	if start.IsZero() {
		now := g.now()
		start, end = now, now
	}

	sessionID := g.meta.SessionID
	if sessionID == "" {
		sessionID = g.file.SessionID
	}

	ps := &session.ParsedSession{
		SessionID:    sessionID,
		FilePath:     g.file.Path,
		Source:       g.file.Source,
		ProjectPath:  g.file.ProjectPath,
		ProjectName:  g.file.ProjectName,
		Branch:       g.meta.Branch,
		StartTime:    start,
		EndTime:      end,
		Date:         effectiveDate(g.file.Source, start, end),
		Messages:     g.messages,
		Stats:        g.stats,
		ChangedFiles: g.files,
		FirstPrompt:  firstPrompt(g.messages),
	}
	return ps
}

// WorkingDir returns the working directory recorded in the stream, if any.
func (g *Aggregator) WorkingDir() string {
	return g.meta.WorkingDir
}

// observeTime widens the session's start/end bounds. Records without a
// parseable timestamp do not affect the bounds.
func (g *Aggregator) observeTime(ts string) {
	t, ok := parseTime(ts)
	if !ok {
		return
	}
	if g.start.IsZero() || t.Before(g.start) {
		g.start = t
	}
	if g.end.IsZero() || t.After(g.end) {
		g.end = t
	}
}

// effectiveDate buckets a session to a calendar date. Claude sessions use
// the start time's date; Codex sessions use the end time shifted back by
// the 3-hour boundary.
func effectiveDate(src session.Source, start, end time.Time) string {
	if src == session.SourceCodex {
		return end.Add(-codexDateBoundary).Format("2006-01-02")
	}
	return start.Format("2006-01-02")
}

// firstPrompt returns the first user message that was actually typed by the
// user rather than injected by tooling.
func firstPrompt(messages []session.ParsedMessage) string {
	for _, m := range messages {
		if m.Role != "user" || m.Text == "" {
			continue
		}
		if adapter.IsSyntheticUserText(m.Text) {
			continue
		}
		return m.Text
	}
	return ""
}

// parseTime accepts the timestamp layouts the four formats emit.
func parseTime(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
