package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anthropic/worklog/internal/jsonl"
	"github.com/anthropic/worklog/internal/projectid"
	"github.com/anthropic/worklog/internal/session"
)

// probeRecordLimit bounds how many leading records the working-directory
// probe reads from a session file.
const probeRecordLimit = 10

// DiscoverClaude scans <root>/projects/<encoded-folder>/*.jsonl for Claude
// sessions. The project identity is resolved once per encoded folder and
// stamped onto every session file found under it; the resolver's fallback
// probe lazily reads the folder's newest session file for a recorded
// working directory.
func DiscoverClaude(root string, resolver *projectid.Resolver) ([]session.SessionFile, error) {
	projectsDir := filepath.Join(root, "projects")
	folders, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", projectsDir, err)
	}

	var files []session.SessionFile
	for _, folder := range folders {
		if !folder.IsDir() {
			continue
		}
		folderPath := filepath.Join(projectsDir, folder.Name())

		entries, err := os.ReadDir(folderPath)
		if err != nil {
			continue
		}

		var paths []string
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
				continue
			}
			// Subagent transcripts are fragments of their parent session.
			if strings.HasPrefix(e.Name(), "agent-") {
				continue
			}
			paths = append(paths, filepath.Join(folderPath, e.Name()))
		}
		if len(paths) == 0 {
			continue
		}
		sort.Strings(paths)

		id := resolver.ResolveFolder(folder.Name(), func() string {
			return probeWorkingDir(paths[len(paths)-1])
		})

		for _, p := range paths {
			info, err := os.Stat(p)
			if err != nil {
				continue
			}
			files = append(files, session.SessionFile{
				Path:        p,
				ProjectPath: id.Path,
				ProjectName: id.Name,
				SessionID:   strings.TrimSuffix(filepath.Base(p), ".jsonl"),
				ModTime:     info.ModTime(),
				Source:      session.SourceClaude,
			})
		}
	}
	return files, nil
}

// DiscoverCodex scans <root>/sessions/YYYY/MM/DD/*.jsonl for Codex sessions.
// Codex files do not encode a project in their path; the identity is
// resolved from the working directory recorded inside the file, after
// parsing.
func DiscoverCodex(root string) ([]session.SessionFile, error) {
	sessionsDir := filepath.Join(root, "sessions")
	var files []session.SessionFile

	err := filepath.WalkDir(sessionsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // inaccessible entries are skipped, not fatal
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, session.SessionFile{
			Path:      path,
			SessionID: strings.TrimSuffix(d.Name(), ".jsonl"),
			ModTime:   info.ModTime(),
			Source:    session.SourceCodex,
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return files, fmt.Errorf("discover sessions in %s: %w", sessionsDir, err)
	}
	return files, nil
}

// FileFromPath builds a SessionFile for a single transcript path, used when
// the watcher reports a change rather than a full discovery scan. Returns
// false for paths that are not ingestable session files.
func FileFromPath(path, claudeRoot, codexRoot string, resolver *projectid.Resolver) (session.SessionFile, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".jsonl") {
		return session.SessionFile{}, false
	}

	info, err := os.Stat(path)
	if err != nil {
		return session.SessionFile{}, false
	}

	claudeProjects := filepath.Join(claudeRoot, "projects")
	if rel, err := filepath.Rel(claudeProjects, path); err == nil && !strings.HasPrefix(rel, "..") {
		if strings.HasPrefix(base, "agent-") {
			return session.SessionFile{}, false
		}
		folder := filepath.Base(filepath.Dir(path))
		id := resolver.ResolveFolder(folder, func() string {
			return probeWorkingDir(path)
		})
		return session.SessionFile{
			Path:        path,
			ProjectPath: id.Path,
			ProjectName: id.Name,
			SessionID:   strings.TrimSuffix(base, ".jsonl"),
			ModTime:     info.ModTime(),
			Source:      session.SourceClaude,
		}, true
	}

	codexSessions := filepath.Join(codexRoot, "sessions")
	if rel, err := filepath.Rel(codexSessions, path); err == nil && !strings.HasPrefix(rel, "..") {
		return session.SessionFile{
			Path:      path,
			SessionID: strings.TrimSuffix(base, ".jsonl"),
			ModTime:   info.ModTime(),
			Source:    session.SourceCodex,
		}, true
	}

	return session.SessionFile{}, false
}

// probeWorkingDir reads the leading records of a session file looking for a
// top-level cwd field. Used only when folder-name decoding finds nothing on
// disk.
func probeWorkingDir(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	dec := jsonl.NewDecoder(f)
	for i := 0; i < probeRecordLimit; i++ {
		raw, ok := dec.Next()
		if !ok {
			return ""
		}
		var rec struct {
			CWD string `json:"cwd"`
		}
		if err := json.Unmarshal(raw, &rec); err == nil && rec.CWD != "" {
			return rec.CWD
		}
	}
	return ""
}
