// Package watch monitors the Claude and Codex session directories and
// re-ingests transcript files as their tools append to them.
package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/anthropic/worklog/internal/ingest"
	"github.com/anthropic/worklog/internal/projectid"
	"github.com/anthropic/worklog/internal/session"
)

// debounceWindow is how long a transcript must be quiet before it is
// re-ingested. Sessions append continuously, so the window is generous.
const debounceWindow = 5 * time.Second

// Handler receives a session file whose transcript settled after a change.
type Handler func(sf session.SessionFile)

// Watcher monitors both session roots for JSONL changes, debounces
// per-file, and hands settled files to the handler.
type Watcher struct {
	claudeRoot string
	codexRoot  string
	resolver   *projectid.Resolver
	handler    Handler

	fsw       *fsnotify.Watcher
	debouncer *Debouncer
}

// New creates a Watcher over the given session roots.
func New(claudeRoot, codexRoot string, resolver *projectid.Resolver, handler Handler) *Watcher {
	return &Watcher{
		claudeRoot: claudeRoot,
		codexRoot:  codexRoot,
		resolver:   resolver,
		handler:    handler,
	}
}

// Start begins watching. It blocks until ctx is cancelled. Call Stop for
// ordered teardown.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	w.debouncer = NewDebouncer(debounceWindow, func(path string) {
		sf, ok := ingest.FileFromPath(path, w.claudeRoot, w.codexRoot, w.resolver)
		if !ok {
			return
		}
		w.handler(sf)
	})

	for _, root := range []string{
		filepath.Join(w.claudeRoot, "projects"),
		filepath.Join(w.codexRoot, "sessions"),
	} {
		if err := w.addRecursive(root); err != nil {
			log.Printf("watch: walk %s: %v", root, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: fsnotify error: %v", err)
		}
	}
}

// Stop drains the debouncer (ingesting pending files) and closes fsnotify.
func (w *Watcher) Stop() {
	if w.debouncer != nil {
		w.debouncer.Stop()
	}
	if w.fsw != nil {
		_ = w.fsw.Close()
	}
}

// handleEvent processes a single fsnotify event.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	// New project folders and date partitions appear while watching.
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(ev.Name)
			return
		}
	}

	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !strings.HasSuffix(ev.Name, ".jsonl") {
		return
	}
	w.debouncer.Feed(ev.Name)
}

// addRecursive walks root and adds every directory.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if !d.IsDir() {
			return nil
		}
		_ = w.fsw.Add(path)
		return nil
	})
}
