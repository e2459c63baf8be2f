package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/anthropic/worklog/internal/projectid"
	"github.com/anthropic/worklog/internal/session"
	"github.com/anthropic/worklog/internal/worktype"
)

// fakeLedger tracks processed hashes in memory.
type fakeLedger struct {
	mu     sync.Mutex
	hashes map[string]string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{hashes: make(map[string]string)}
}

func (l *fakeLedger) IsFileProcessed(path, hash string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hashes[path] == hash, nil
}

func (l *fakeLedger) MarkFileProcessed(path, hash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hashes[path] = hash
	return nil
}

// fakeSink collects results; optionally fails for a given session id.
type fakeSink struct {
	mu      sync.Mutex
	results []*Result
	failID  string
}

func (s *fakeSink) SaveResult(_ context.Context, res *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failID != "" && res.Session.SessionID == s.failID {
		return errors.New("sink unavailable")
	}
	s.results = append(s.results, res)
	return nil
}

// emptyFS makes every path-probe fail so identity resolution is exercised
// without touching the real filesystem.
type emptyFS struct{}

func (emptyFS) DirExists(string) bool { return false }
func (emptyFS) Exists(string) bool    { return false }

func writeSession(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testPipeline(ledger Ledger, sink Sink) *Pipeline {
	return &Pipeline{
		Ledger:     ledger,
		Sink:       sink,
		Resolver:   projectid.NewWithFS(emptyFS{}, "/home/test"),
		Classifier: worktype.NewClassifier(),
		Workers:    2,
	}
}

const claudeTranscript = `{"type":"user","uuid":"u1","timestamp":"2025-03-01T10:00:00Z","sessionId":"sess-1","cwd":"/home/test/proj","gitBranch":"main","message":{"role":"user","content":"add pagination"}}
{"type":"assistant","uuid":"a1","timestamp":"2025-03-01T10:02:00Z","message":{"role":"assistant","content":[{"type":"tool_use","name":"Edit","input":{"file_path":"internal/api/list.go"}}],"usage":{"input_tokens":10,"output_tokens":20}}}
`

func TestPipelineProcessesAndMarks(t *testing.T) {
	dir := t.TempDir()
	path := writeSession(t, dir, "sess-1.jsonl", claudeTranscript)

	ledger := newFakeLedger()
	sink := &fakeSink{}
	pipe := testPipeline(ledger, sink)

	files := []session.SessionFile{{Path: path, SessionID: "sess-1", Source: session.SourceClaude}}
	rep, err := pipe.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Processed != 1 || rep.Skipped != 0 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.RunID == "" {
		t.Error("expected a run id")
	}
	if len(sink.results) != 1 {
		t.Fatalf("sink received %d results", len(sink.results))
	}

	ps := sink.results[0].Session
	if ps.SessionID != "sess-1" || ps.Branch != "main" {
		t.Errorf("session = %+v", ps)
	}
	if sink.results[0].Work.Type != worktype.Feature {
		t.Errorf("Work.Type = %q, want feature", sink.results[0].Work.Type)
	}
}

func TestPipelineSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeSession(t, dir, "sess-1.jsonl", claudeTranscript)

	ledger := newFakeLedger()
	sink := &fakeSink{}
	pipe := testPipeline(ledger, sink)

	files := []session.SessionFile{{Path: path, SessionID: "sess-1", Source: session.SourceClaude}}
	if _, err := pipe.Run(context.Background(), files); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run over the same file: ledger gate skips it.
	files = []session.SessionFile{{Path: path, SessionID: "sess-1", Source: session.SourceClaude}}
	rep, err := pipe.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rep.Skipped != 1 || rep.Processed != 0 {
		t.Errorf("report = %+v, want the file skipped", rep)
	}

	// Appending to the file changes its hash; it becomes eligible again.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"type":"user","uuid":"u2","timestamp":"2025-03-01T10:05:00Z","message":{"role":"user","content":"also add sorting"}}` + "\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	files = []session.SessionFile{{Path: path, SessionID: "sess-1", Source: session.SourceClaude}}
	rep, err = pipe.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if rep.Processed != 1 {
		t.Errorf("report = %+v, want the grown file reprocessed", rep)
	}
}

func TestPipelineIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeSession(t, dir, "good.jsonl", claudeTranscript)
	empty := writeSession(t, dir, "empty.jsonl", "not json\n")

	ledger := newFakeLedger()
	sink := &fakeSink{}
	pipe := testPipeline(ledger, sink)

	files := []session.SessionFile{
		{Path: empty, SessionID: "empty", Source: session.SourceClaude},
		{Path: good, SessionID: "sess-1", Source: session.SourceClaude},
		{Path: filepath.Join(dir, "missing.jsonl"), SessionID: "missing", Source: session.SourceClaude},
	}
	rep, err := pipe.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Processed != 1 {
		t.Errorf("Processed = %d, want 1", rep.Processed)
	}
	if rep.Failed != 2 {
		t.Errorf("Failed = %d, want 2: %v", rep.Failed, rep.Errors)
	}
	if len(rep.Errors) != 2 {
		t.Errorf("Errors = %v", rep.Errors)
	}
}

func TestPipelineSinkFailureNotMarked(t *testing.T) {
	dir := t.TempDir()
	path := writeSession(t, dir, "sess-1.jsonl", claudeTranscript)

	ledger := newFakeLedger()
	sink := &fakeSink{failID: "sess-1"}
	pipe := testPipeline(ledger, sink)

	files := []session.SessionFile{{Path: path, SessionID: "sess-1", Source: session.SourceClaude}}
	rep, err := pipe.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Failed != 1 {
		t.Fatalf("report = %+v", rep)
	}

	// The file stays eligible after a storage failure.
	sink.failID = ""
	files = []session.SessionFile{{Path: path, SessionID: "sess-1", Source: session.SourceClaude}}
	rep, err = pipe.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if rep.Processed != 1 {
		t.Errorf("report = %+v, want successful retry", rep)
	}
}

func TestPipelineCodexIdentityFromRecordedCWD(t *testing.T) {
	dir := t.TempDir()
	transcript := `{"timestamp":"2025-04-01T09:00:00Z","type":"session_meta","payload":{"id":"cx-1","cwd":"/home/test/svc"}}
{"timestamp":"2025-04-01T09:01:00Z","type":"event_msg","payload":{"type":"user_message","message":"hello"}}
`
	path := writeSession(t, dir, "cx-1.jsonl", transcript)

	ledger := newFakeLedger()
	sink := &fakeSink{}
	pipe := testPipeline(ledger, sink)

	files := []session.SessionFile{{Path: path, SessionID: "cx-1", Source: session.SourceCodex}}
	if _, err := pipe.Run(context.Background(), files); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.results) != 1 {
		t.Fatal("expected one result")
	}

	ps := sink.results[0].Session
	if ps.ProjectPath != "/home/test/svc" || ps.ProjectName != "svc" {
		t.Errorf("identity = %q/%q, want /home/test/svc / svc", ps.ProjectPath, ps.ProjectName)
	}
}
