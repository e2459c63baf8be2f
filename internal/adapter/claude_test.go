package adapter

import (
	"encoding/json"
	"testing"

	"github.com/anthropic/worklog/internal/session"
)

// ---------------------------------------------------------------------------
// Modern Claude adapter
// ---------------------------------------------------------------------------

func TestClaudeParseUserMessage(t *testing.T) {
	a := newClaudeAdapter()

	raw := `{"type":"user","uuid":"u1","timestamp":"2025-03-01T10:00:00Z",
		"sessionId":"s1","cwd":"/Users/alice/proj","gitBranch":"main",
		"message":{"role":"user","content":"fix the login bug"}}`

	rec, err := a.Parse(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.DedupKey != "u1" {
		t.Errorf("DedupKey = %q, want u1", rec.DedupKey)
	}
	if rec.Meta == nil {
		t.Fatal("expected metadata")
	}
	if rec.Meta.SessionID != "s1" || rec.Meta.WorkingDir != "/Users/alice/proj" || rec.Meta.Branch != "main" {
		t.Errorf("meta = %+v", rec.Meta)
	}
	if rec.Message == nil || rec.Message.Role != "user" || rec.Message.Text != "fix the login bug" {
		t.Errorf("message = %+v", rec.Message)
	}
}

func TestClaudeParseAssistantUsageAccumulates(t *testing.T) {
	a := newClaudeAdapter()

	raw := `{"type":"assistant","uuid":"a1","timestamp":"2025-03-01T10:01:00Z",
		"message":{"role":"assistant",
			"content":[{"type":"text","text":"done"}],
			"usage":{"input_tokens":10,"cache_creation_input_tokens":5,"cache_read_input_tokens":85,"output_tokens":40}}}`

	rec, err := a.Parse(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Usage == nil {
		t.Fatal("expected usage")
	}
	if rec.Usage.Input != 100 {
		t.Errorf("Input = %d, want 100 (cache tokens included)", rec.Usage.Input)
	}
	if rec.Usage.Output != 40 {
		t.Errorf("Output = %d, want 40", rec.Usage.Output)
	}
	if rec.Usage.Replace {
		t.Error("Claude usage must accumulate, not replace")
	}
}

func TestClaudeParseContentBlocks(t *testing.T) {
	a := newClaudeAdapter()

	// Block text may live under "text" or "content"; both are accepted.
	raw := `{"type":"assistant","uuid":"a2","message":{"role":"assistant","content":[
		{"type":"text","text":"part one"},
		{"type":"text","content":"part two"},
		{"type":"thinking","text":"hidden"},
		{"type":"tool_use","name":"Edit","input":{"file_path":"internal/auth/login.go"}}
	]}}`

	rec, err := a.Parse(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Message == nil {
		t.Fatal("expected a message")
	}
	if rec.Message.Text != "part one\npart two" {
		t.Errorf("Text = %q", rec.Message.Text)
	}
	if len(rec.Message.Tools) != 1 || rec.Message.Tools[0].Name != "Edit" {
		t.Errorf("Tools = %+v", rec.Message.Tools)
	}
	if len(rec.Files) != 1 || rec.Files[0] != "internal/auth/login.go" {
		t.Errorf("Files = %v", rec.Files)
	}
}

func TestClaudeParseBashApplyPatch(t *testing.T) {
	a := newClaudeAdapter()

	cmd := "apply_patch <<'EOF'\n*** Begin Patch\n*** Update File: src/main.go\n*** End Patch\nEOF"
	env := map[string]any{
		"type": "assistant",
		"uuid": "a3",
		"message": map[string]any{
			"role": "assistant",
			"content": []map[string]any{
				{"type": "tool_use", "name": "Bash", "input": map[string]any{"command": cmd}},
			},
		},
	}
	raw, _ := json.Marshal(env)

	rec, err := a.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rec.Files) != 1 || rec.Files[0] != "src/main.go" {
		t.Errorf("Files = %v, want [src/main.go]", rec.Files)
	}
}

func TestClaudeParseNonConversationRecords(t *testing.T) {
	a := newClaudeAdapter()

	cases := []struct {
		name     string
		raw      string
		wantMeta bool
	}{
		{"summary record", `{"type":"summary","summary":"a title"}`, false},
		{"snapshot with cwd", `{"type":"file-history-snapshot","cwd":"/tmp/p"}`, true},
		{"string content user", `{"type":"user","uuid":"u9","message":{"role":"user","content":"hi"}}`, false},
	}

	for _, tc := range cases {
		rec, err := a.Parse(json.RawMessage(tc.raw))
		if err != nil {
			t.Fatalf("%s: Parse: %v", tc.name, err)
		}
		if tc.wantMeta && (rec == nil || rec.Meta == nil) {
			t.Errorf("%s: expected metadata, got %+v", tc.name, rec)
		}
		if !tc.wantMeta && rec != nil && rec.Meta != nil && tc.name == "summary record" {
			t.Errorf("%s: unexpected metadata %+v", tc.name, rec.Meta)
		}
	}
}

// ---------------------------------------------------------------------------
// Legacy Claude adapter
// ---------------------------------------------------------------------------

func TestClaudeLegacyHeaderAndCWDMarker(t *testing.T) {
	a := newClaudeLegacyAdapter()

	header := `{"sessionId":"legacy-1","gitBranch":"dev"}`
	rec, err := a.Parse(json.RawMessage(header))
	if err != nil {
		t.Fatalf("Parse header: %v", err)
	}
	if rec == nil || rec.Meta == nil {
		t.Fatal("expected header metadata")
	}
	if rec.Meta.SessionID != "legacy-1" || rec.Meta.Branch != "dev" {
		t.Errorf("meta = %+v", rec.Meta)
	}

	envMsg := `{"role":"user","content":"<environment_context>\nCurrent working directory: /home/bob/tool\n</environment_context>"}`
	rec, err = a.Parse(json.RawMessage(envMsg))
	if err != nil {
		t.Fatalf("Parse env message: %v", err)
	}
	if rec == nil || rec.Meta == nil || rec.Meta.WorkingDir != "/home/bob/tool" {
		t.Fatalf("expected working dir from marker, got %+v", rec)
	}
}

func TestClaudeLegacyCWDScanLimit(t *testing.T) {
	a := newClaudeLegacyAdapter()

	// Burn through the scan window with plain messages.
	for i := 0; i < cwdScanLimit; i++ {
		_, _ = a.Parse(json.RawMessage(`{"role":"user","content":"hello"}`))
	}

	late := `{"role":"user","content":"Current working directory: /too/late"}`
	rec, err := a.Parse(json.RawMessage(late))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec != nil && rec.Meta != nil && rec.Meta.WorkingDir != "" {
		t.Errorf("marker past the scan window must be ignored, got %q", rec.Meta.WorkingDir)
	}
}

func TestClaudeLegacyConversation(t *testing.T) {
	a := newClaudeLegacyAdapter()

	_, _ = a.Parse(json.RawMessage(`{"id":"legacy-2"}`))

	rec, err := a.Parse(json.RawMessage(`{"uuid":"m1","role":"assistant","content":[{"type":"text","text":"sure"}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec == nil || rec.Message == nil {
		t.Fatal("expected a message")
	}
	if rec.DedupKey != "m1" {
		t.Errorf("DedupKey = %q, want m1", rec.DedupKey)
	}
	if rec.Message.Role != "assistant" || rec.Message.Text != "sure" {
		t.Errorf("message = %+v", rec.Message)
	}
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func TestDetect(t *testing.T) {
	cases := []struct {
		name     string
		src      string
		first    string
		wantGen  string
		wantTool string
	}{
		{"claude typed", "claude", `{"type":"user","uuid":"x"}`, "modern", "claude"},
		{"claude flat", "claude", `{"sessionId":"x","gitBranch":"main"}`, "legacy", "claude"},
		{"codex typed", "codex", `{"type":"session_meta","payload":{}}`, "modern", "codex"},
		{"codex flat", "codex", `{"id":"x","timestamp":"2024-01-01T00:00:00Z"}`, "legacy", "codex"},
	}

	for _, tc := range cases {
		a := Detect(session.Source(tc.src), json.RawMessage(tc.first))
		if a.Generation() != tc.wantGen {
			t.Errorf("%s: Generation = %q, want %q", tc.name, a.Generation(), tc.wantGen)
		}
		if string(a.Source()) != tc.wantTool {
			t.Errorf("%s: Source = %q, want %q", tc.name, a.Source(), tc.wantTool)
		}
	}
}
