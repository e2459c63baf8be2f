package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anthropic/worklog/internal/adapter"
	"github.com/anthropic/worklog/internal/jsonl"
	"github.com/anthropic/worklog/internal/projectid"
	"github.com/anthropic/worklog/internal/session"
	"github.com/anthropic/worklog/internal/summarize"
	"github.com/anthropic/worklog/internal/worktype"
)

// defaultWorkers bounds concurrent file parsing. Transcript files are
// independent, so parallelism is limited only to keep file handles and
// memory in check.
const defaultWorkers = 10

// Ledger records which files have already been ingested so unchanged files
// are skipped on subsequent runs.
type Ledger interface {
	IsFileProcessed(path, contentHash string) (bool, error)
	MarkFileProcessed(path, contentHash string) error
}

// Sink receives fully processed sessions.
type Sink interface {
	SaveResult(ctx context.Context, res *Result) error
}

// Result is one file's pipeline output.
type Result struct {
	Session *session.ParsedSession
	Work    worktype.Classification
	Summary *summarize.Summary
}

// Report summarizes one pipeline run.
type Report struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	Errors    []error
}

// Pipeline ingests discovered session files: gate on the ledger, parse,
// resolve project identity, classify, optionally summarize, persist.
type Pipeline struct {
	Ledger     Ledger
	Sink       Sink
	Resolver   *projectid.Resolver
	Classifier *worktype.Classifier

	// Summarizer is optional; when nil, sessions are stored without prose
	// summaries. Summarization failures are logged, never fatal.
	Summarizer summarize.Summarizer

	// Workers defaults to defaultWorkers when zero.
	Workers int

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Run processes the given files with bounded parallelism. A failure in one
// file is recorded in the report and does not stop the others. The returned
// error is non-nil only when the run could not start at all.
func (p *Pipeline) Run(ctx context.Context, files []session.SessionFile) (*Report, error) {
	if p.Ledger == nil || p.Sink == nil || p.Resolver == nil || p.Classifier == nil {
		return nil, fmt.Errorf("pipeline: ledger, sink, resolver and classifier are required")
	}

	workers := p.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	report := &Report{RunID: uuid.NewString()}
	var mu sync.Mutex

	jobs := make(chan session.SessionFile)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sf := range jobs {
				status, err := p.processFile(ctx, sf)
				mu.Lock()
				switch {
				case err != nil:
					report.Failed++
					report.Errors = append(report.Errors, fmt.Errorf("%s: %w", sf.Path, err))
					log.Printf("ingest: %s: %v", sf.Path, err)
				case status == statusSkipped:
					report.Skipped++
				default:
					report.Processed++
				}
				mu.Unlock()
			}
		}()
	}

	for _, sf := range files {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return report, ctx.Err()
		case jobs <- sf:
		}
	}
	close(jobs)
	wg.Wait()

	return report, nil
}

type fileStatus int

const (
	statusProcessed fileStatus = iota
	statusSkipped
)

func (p *Pipeline) processFile(ctx context.Context, sf session.SessionFile) (fileStatus, error) {
	hash, err := sf.ContentHash()
	if err != nil {
		return statusProcessed, fmt.Errorf("hash: %w", err)
	}
	done, err := p.Ledger.IsFileProcessed(sf.Path, hash)
	if err != nil {
		return statusProcessed, fmt.Errorf("ledger check: %w", err)
	}
	if done {
		return statusSkipped, nil
	}

	ps, agg, err := p.parseFile(sf)
	if err != nil {
		return statusProcessed, err
	}

	// Codex files live under date-partitioned paths that carry no project
	// identity; resolve it from the working directory the records declared.
	if ps.ProjectPath == "" {
		if cwd := agg.WorkingDir(); cwd != "" {
			id := p.Resolver.ResolveWorkingDir(cwd)
			ps.ProjectPath = id.Path
			ps.ProjectName = id.Name
		}
	}
	if ps.Branch == "" && agg.WorkingDir() != "" {
		ps.Branch = p.Resolver.HeadBranch(agg.WorkingDir())
	}

	work := p.Classifier.Classify(ps.ChangedFiles)

	res := &Result{Session: ps, Work: work}
	if p.Summarizer != nil {
		sum, err := p.Summarizer.Summarize(ctx, ps, work)
		if err != nil {
			log.Printf("ingest: summarize %s: %v", ps.SessionID, err)
		} else {
			res.Summary = sum
		}
	}

	if err := p.Sink.SaveResult(ctx, res); err != nil {
		return statusProcessed, fmt.Errorf("save: %w", err)
	}
	if err := p.Ledger.MarkFileProcessed(sf.Path, hash); err != nil {
		return statusProcessed, fmt.Errorf("ledger mark: %w", err)
	}
	return statusProcessed, nil
}

// parseFile decodes one transcript file through its detected adapter and
// folds every record into an aggregator.
func (p *Pipeline) parseFile(sf session.SessionFile) (*session.ParsedSession, *Aggregator, error) {
	f, err := os.Open(sf.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	dec := jsonl.NewDecoder(f)
	first, ok := dec.Next()
	if !ok {
		if err := dec.Err(); err != nil {
			return nil, nil, fmt.Errorf("read: %w", err)
		}
		return nil, nil, fmt.Errorf("no decodable records")
	}

	ad := adapter.Detect(sf.Source, first)
	now := p.Now
	if now == nil {
		now = time.Now
	}
	agg := NewAggregator(sf, now)

	agg.Fold(ad, first)
	for {
		raw, ok := dec.Next()
		if !ok {
			break
		}
		agg.Fold(ad, raw)
	}
	if err := dec.Err(); err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	if n := dec.Skipped(); n > 0 {
		log.Printf("ingest: %s: skipped %d malformed lines", sf.Path, n)
	}

	return agg.Finish(), agg, nil
}
