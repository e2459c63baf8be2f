// Package session defines the canonical in-memory records produced by the
// ingestion pipeline. Every source tool and format generation is normalized
// into these types; nothing downstream (classification, summarization,
// storage) ever sees a raw transcript line.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// Source identifies which tool recorded a session file.
type Source string

const (
	// SourceClaude is Claude Code: one JSONL file per session under
	// <config-root>/projects/<encoded-folder>/.
	SourceClaude Source = "claude"

	// SourceCodex is Codex CLI: one JSONL file per session under
	// <config-root>/sessions/YYYY/MM/DD/.
	SourceCodex Source = "codex"
)

// SessionFile is a discovery record for one candidate transcript file.
// It is created by directory discovery and never mutated afterwards;
// the content hash is computed lazily because most files are skipped
// by the processing ledger without ever being read.
type SessionFile struct {
	Path        string    // Absolute path to the transcript.
	ProjectPath string    // Resolved canonical project path ("" until resolved).
	ProjectName string    // Resolved display name ("" until resolved).
	SessionID   string    // Derived from the file name (sans extension).
	ModTime     time.Time // Filesystem modification time at discovery.
	Source      Source

	hash string
}

// ContentHash returns the SHA-256 hex digest of the file contents,
// reading the file at most once per SessionFile.
func (f *SessionFile) ContentHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", f.Path, err)
	}
	defer fh.Close()

	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return "", fmt.Errorf("hash %s: %w", f.Path, err)
	}
	f.hash = hex.EncodeToString(h.Sum(nil))
	return f.hash, nil
}

// ToolUse is one normalized tool invocation inside an assistant turn.
type ToolUse struct {
	// Name is drawn from the shared vocabulary (Bash, Edit, Write, ...),
	// never a raw source-tool-specific name.
	Name string

	// Summary is a human-readable rendering of the input, at most 200 chars.
	Summary string

	// Input is the untruncated structured input when the adapter kept it,
	// used for downstream file-path extraction. May be nil.
	Input []byte
}

// ParsedMessage is one normalized conversation turn. It is produced by a
// format adapter and never mutated after creation.
type ParsedMessage struct {
	Role      string // "user" or "assistant"
	Timestamp string // ISO-8601; may be empty for legacy formats
	Text      string
	Tools     []ToolUse
}

// SessionStats holds the aggregate counters for one session.
type SessionStats struct {
	UserMessages      int
	AssistantMessages int

	// ToolCalls maps normalized tool name to invocation count.
	ToolCalls map[string]int

	// InputTokens includes cache-creation and cache-read tokens.
	InputTokens  int
	OutputTokens int
}

// ParsedSession is the canonical unit handed to summarization and storage.
type ParsedSession struct {
	SessionID   string
	FilePath    string
	Source      Source
	ProjectPath string
	ProjectName string
	Branch      string

	StartTime time.Time
	EndTime   time.Time

	// Date is the effective calendar date (YYYY-MM-DD) the session is
	// attributed to. The bucketing rule differs per source family.
	Date string

	Messages []ParsedMessage
	Stats    SessionStats

	// ChangedFiles are the unique file paths touched by tool invocations,
	// in first-seen order.
	ChangedFiles []string

	// FirstPrompt is the first non-synthetic user message, used as the
	// session title seed by the summarizer.
	FirstPrompt string
}

// ProjectIdentity is the canonical path + display name for the repository
// (or directory) a session was recorded against.
type ProjectIdentity struct {
	Path string
	Name string
}
