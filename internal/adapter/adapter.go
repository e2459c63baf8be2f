// Package adapter decodes raw transcript records into the canonical message
// stream. There is one adapter per (source tool, schema generation) pair --
// four in total -- behind a single Adapter contract, dispatched by source tag
// plus a probe of the first record's shape. No adapter can be chosen purely
// from a file-path convention.
package adapter

import (
	"encoding/json"

	"github.com/anthropic/worklog/internal/session"
)

// Meta carries session-level metadata discovered inside a record.
// Fields are empty when the record did not declare them.
type Meta struct {
	SessionID  string
	WorkingDir string
	Branch     string
}

// TokenUsage is the token contribution of one record. Cache-creation and
// cache-read tokens are already folded into Input by the adapter.
type TokenUsage struct {
	Input  int
	Output int

	// Replace indicates the counts are a snapshot of session totals and must
	// overwrite prior totals instead of accumulating (Codex token_count
	// events behave this way).
	Replace bool
}

// Record is the normalized view of one source record. Any field may be
// unset; a record that matches no known shape yields a nil Record.
type Record struct {
	// DedupKey is the record's unique identifier. Records sharing a
	// non-empty key with an earlier record are discarded by the aggregator.
	DedupKey string

	// Timestamp is the record's own ISO-8601 timestamp, if it carried one.
	Timestamp string

	Message *session.ParsedMessage
	Meta    *Meta
	Usage   *TokenUsage

	// Files are changed file paths extracted from patch payloads or
	// structured tool inputs.
	Files []string
}

// Adapter decodes one source format. Adapters are constructed per file and
// may keep per-file state (the legacy Claude adapter scans early records for
// a working-directory marker). They are not safe for concurrent use; the
// pipeline parses each file sequentially.
type Adapter interface {
	// Source returns the tool family this adapter decodes.
	Source() session.Source

	// Generation names the on-disk schema generation ("modern" or "legacy").
	Generation() string

	// Parse decodes a single raw record. A record that does not match any
	// known shape returns (nil, nil): skipped, never fatal.
	Parse(raw json.RawMessage) (*Record, error)
}

// Detect chooses the adapter for a file given its source tag and first
// decoded record. Both tools moved from a flat legacy layout to a typed
// envelope carrying a top-level "type" discriminator, so the probe is the
// same for both families.
func Detect(src session.Source, first json.RawMessage) Adapter {
	var probe struct {
		Type string `json:"type"`
	}
	typed := json.Unmarshal(first, &probe) == nil && probe.Type != ""

	switch src {
	case session.SourceCodex:
		if typed {
			return newCodexAdapter()
		}
		return newCodexLegacyAdapter()
	default:
		if typed {
			return newClaudeAdapter()
		}
		return newClaudeLegacyAdapter()
	}
}
