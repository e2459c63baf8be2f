// Package projectid resolves session folder names and recorded working
// directories into canonical project identities. Claude Code encodes the
// working directory into a folder name by replacing path separators with
// dashes, which is lossy when the real path itself contains a dash; the
// resolver probes the filesystem across progressively split
// reinterpretations to recover the original path, then canonicalizes to the
// enclosing version-control root so sessions recorded from different
// subdirectories (or by different tools) of the same repository share one
// identity.
package projectid

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"

	"github.com/anthropic/worklog/internal/session"
)

// FS is the filesystem probe used during path decoding. Production code uses
// the real filesystem; tests inject a fake so the candidate order is
// verifiable without real paths.
type FS interface {
	// DirExists reports whether path exists and is a directory.
	DirExists(path string) bool

	// Exists reports whether path exists at all. Used for version-control
	// markers, which may be a directory or (in worktrees) a file.
	Exists(path string) bool
}

type osFS struct{}

func (osFS) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (osFS) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// homeName is the display name used when a project resolves to the user's
// home directory itself.
const homeName = "~"

// datePrefixRe matches a leading YYYY-MM-DD- date prefix on project names
// under an experiments directory convention.
var datePrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// Resolver maps encoded folder names and working directories to canonical
// project identities. Resolution is a pure function of folder name plus an
// optional probe of one session file, so results are cached per folder and
// reused for every session file discovered under it. Safe for concurrent use.
type Resolver struct {
	fs   FS
	home string

	mu    sync.Mutex
	cache map[string]session.ProjectIdentity
}

// New creates a Resolver backed by the real filesystem.
func New() *Resolver {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return NewWithFS(osFS{}, home)
}

// NewWithFS creates a Resolver with an injected filesystem probe and home
// directory. Used by tests.
func NewWithFS(fs FS, home string) *Resolver {
	return &Resolver{
		fs:    fs,
		home:  home,
		cache: make(map[string]session.ProjectIdentity),
	}
}

// ResolveFolder decodes an encoded session folder name into a project
// identity. probeCWD, when non-nil, lazily reads the working directory
// recorded inside one of the folder's session files; it is only invoked if
// no filesystem candidate exists. Results are cached by folder name.
func (r *Resolver) ResolveFolder(encoded string, probeCWD func() string) session.ProjectIdentity {
	r.mu.Lock()
	if id, ok := r.cache[encoded]; ok {
		r.mu.Unlock()
		return id
	}
	r.mu.Unlock()

	path := r.decode(encoded, probeCWD)
	id := r.identityFor(path)

	r.mu.Lock()
	r.cache[encoded] = id
	r.mu.Unlock()
	return id
}

// ResolveWorkingDir canonicalizes a declared working directory.
func (r *Resolver) ResolveWorkingDir(cwd string) session.ProjectIdentity {
	if cwd == "" {
		return session.ProjectIdentity{}
	}
	return r.identityFor(cwd)
}

// decode reinterprets an encoded folder name as a filesystem path. The
// candidates run from "every dash is literal" to "every dash is a
// separator"; the first that exists on disk wins. If none exist, the
// session file's own recorded working directory is consulted before falling
// back to the fully split interpretation.
func (r *Resolver) decode(encoded string, probeCWD func() string) string {
	cands := candidates(encoded)
	for _, c := range cands {
		if r.fs.DirExists(c) {
			return c
		}
	}

	if probeCWD != nil {
		if cwd := probeCWD(); cwd != "" {
			return cwd
		}
	}

	if len(cands) == 0 {
		return encoded
	}
	return cands[len(cands)-1]
}

// Encode renders a working directory the way Claude Code names its session
// folders: every path separator becomes a dash. The encoding is lossy --
// dashes already in the path are indistinguishable from separators, which
// is why decode probes multiple candidates.
func Encode(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "/", "-")
}

// candidates generates the ordered reinterpretations of an encoded folder
// name. For "-Users-alice-my-app" it yields:
//
//	/Users-alice-my-app
//	/Users/alice-my-app
//	/Users/alice/my-app
//	/Users/alice/my/app
func candidates(encoded string) []string {
	trimmed := strings.TrimPrefix(encoded, "-")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "-")

	out := make([]string, 0, len(parts))
	for k := 1; k <= len(parts); k++ {
		path := "/" + strings.Join(parts[:k], "/")
		if k < len(parts) {
			path += "-" + strings.Join(parts[k:], "-")
		}
		out = append(out, path)
	}
	return out
}

// identityFor canonicalizes a decoded path: if an enclosing version-control
// root exists, the root becomes the project path and its base name the
// project name. The home directory maps to the "~" sentinel.
func (r *Resolver) identityFor(path string) session.ProjectIdentity {
	path = filepath.Clean(path)

	if root := r.vcsRoot(path); root != "" {
		path = root
	}

	name := filepath.Base(path)
	if r.home != "" && path == filepath.Clean(r.home) {
		name = homeName
	} else if underExperiments(path) {
		name = datePrefixRe.ReplaceAllString(name, "")
	}

	return session.ProjectIdentity{Path: path, Name: name}
}

// vcsRoot walks upward from path looking for a version-control marker and
// returns the nearest ancestor that carries one, or "".
func (r *Resolver) vcsRoot(path string) string {
	if !r.fs.DirExists(path) {
		return ""
	}
	for p := path; ; {
		if r.fs.Exists(filepath.Join(p, ".git")) {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return ""
		}
		p = parent
	}
}

// HeadBranch returns the short name of the HEAD branch of the repository at
// root, or "" when root is not a repository or HEAD is detached. Used as a
// fallback when the transcript recorded no branch.
func (r *Resolver) HeadBranch(root string) string {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}

// underExperiments reports whether path lives under a directory named
// "experiments", the convention for dated scratch projects.
func underExperiments(path string) bool {
	dir := filepath.Dir(path)
	for _, seg := range strings.Split(dir, string(filepath.Separator)) {
		if seg == "experiments" {
			return true
		}
	}
	return false
}
