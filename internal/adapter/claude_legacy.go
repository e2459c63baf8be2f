package adapter

import (
	"encoding/json"
	"regexp"

	"github.com/anthropic/worklog/internal/session"
)

// cwdMarkerRe recovers the working directory from the synthetic
// "environment context" user message that legacy Claude Code injected at the
// start of a session. Legacy files carry no metadata envelope, so this is
// the only place the path is recorded.
var cwdMarkerRe = regexp.MustCompile(`Current working directory:\s*(\S+)`)

// cwdScanLimit is how many leading records to scan for the marker.
const cwdScanLimit = 10

// claudeLegacyAdapter decodes the flat pre-envelope Claude Code format.
// The first record carries an id and optional branch at the top level with
// no discriminator field; subsequent records carry role and content directly
// and frequently omit timestamps.
type claudeLegacyAdapter struct {
	index    int
	cwdFound bool
}

func newClaudeLegacyAdapter() *claudeLegacyAdapter { return &claudeLegacyAdapter{} }

func (a *claudeLegacyAdapter) Source() session.Source { return session.SourceClaude }
func (a *claudeLegacyAdapter) Generation() string     { return "legacy" }

type claudeLegacyRecord struct {
	SessionID string `json:"sessionId"`
	ID        string `json:"id"`
	GitBranch string `json:"gitBranch"`
	Branch    string `json:"branch"`

	UUID      string          `json:"uuid"`
	Timestamp string          `json:"timestamp"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
}

func (a *claudeLegacyAdapter) Parse(raw json.RawMessage) (*Record, error) {
	idx := a.index
	a.index++

	var lr claudeLegacyRecord
	if err := json.Unmarshal(raw, &lr); err != nil {
		return nil, nil
	}

	rec := &Record{
		DedupKey:  lr.UUID,
		Timestamp: lr.Timestamp,
	}

	if idx == 0 {
		sessionID := lr.SessionID
		if sessionID == "" {
			sessionID = lr.ID
		}
		branch := lr.GitBranch
		if branch == "" {
			branch = lr.Branch
		}
		if sessionID != "" || branch != "" {
			rec.Meta = &Meta{SessionID: sessionID, Branch: branch}
		}
	}

	if lr.Role != "user" && lr.Role != "assistant" {
		if rec.Meta == nil {
			return nil, nil
		}
		return rec, nil
	}

	text, tools, files := parseClaudeContent(lr.Content)
	if text != "" || len(tools) > 0 {
		rec.Message = &session.ParsedMessage{
			Role:      lr.Role,
			Timestamp: lr.Timestamp,
			Text:      text,
			Tools:     tools,
		}
	}
	rec.Files = files

	// Recover the working directory from the environment-context message.
	if !a.cwdFound && idx < cwdScanLimit && lr.Role == "user" {
		if m := cwdMarkerRe.FindStringSubmatch(text); m != nil {
			a.cwdFound = true
			if rec.Meta == nil {
				rec.Meta = &Meta{}
			}
			rec.Meta.WorkingDir = m[1]
		}
	}

	if rec.Message == nil && rec.Meta == nil && len(rec.Files) == 0 {
		return nil, nil
	}
	return rec, nil
}
