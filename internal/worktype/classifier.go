package worktype

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Classification is the result of classifying one session's changed files.
type Classification struct {
	Type  Type
	Scope Scope
}

// Classifier applies heuristic pattern rules per file, then picks the work
// type by majority rule across all changed files. Ties and the no-files case
// resolve to the neutral Mixed, never an error.
type Classifier struct {
	rules []PatternRule
}

// NewClassifier creates a Classifier with the default rules.
func NewClassifier() *Classifier {
	rules := DefaultRules()
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return &Classifier{rules: rules}
}

// Classify buckets a set of changed file paths into a work type and derives
// the scope summary for presentation to the summarizer.
func (c *Classifier) Classify(files []string) Classification {
	return Classification{
		Type:  c.classifyType(files),
		Scope: classifyScope(files),
	}
}

// classifyType classifies each file individually and takes the majority.
func (c *Classifier) classifyType(files []string) Type {
	if len(files) == 0 {
		return Mixed
	}

	counts := make(map[Type]int)
	for _, f := range files {
		counts[c.classifyFile(f)]++
	}

	var best Type
	bestCount := 0
	tie := false
	for t, n := range counts {
		switch {
		case n > bestCount:
			best, bestCount, tie = t, n, false
		case n == bestCount:
			tie = true
		}
	}
	if tie {
		return Mixed
	}
	return best
}

// classifyFile determines the work type of a single file from its path.
func (c *Classifier) classifyFile(filePath string) Type {
	baseName := path.Base(filePath)
	lowerPath := strings.ToLower(filepath.ToSlash(filePath))
	if !strings.HasPrefix(lowerPath, "/") {
		lowerPath = "/" + lowerPath
	}

	for _, rule := range c.rules {
		if matchGlobs(rule.FileGlobs, baseName) || matchSegments(rule.PathSegments, lowerPath) {
			return rule.Type
		}
	}
	return Feature
}

// classifyScope derives the frontend/backend summary across all files.
func classifyScope(files []string) Scope {
	var frontend, backend bool
	for _, f := range files {
		lowerPath := strings.ToLower(filepath.ToSlash(f))
		if !strings.HasPrefix(lowerPath, "/") {
			lowerPath = "/" + lowerPath
		}
		ext := strings.ToLower(path.Ext(lowerPath))

		if frontendExts[ext] || matchSegments(frontendSegments, lowerPath) {
			frontend = true
		}
		// .ts/.js are frontend only when nothing marks the path as backend.
		if backendExts[ext] || matchSegments(backendSegments, lowerPath) {
			backend = true
		} else if ext == ".ts" || ext == ".js" || ext == ".mjs" {
			frontend = true
		}
	}

	switch {
	case frontend && backend:
		return ScopeFullstack
	case frontend:
		return ScopeFrontend
	case backend:
		return ScopeBackend
	default:
		return ScopeOther
	}
}

func matchGlobs(globs []string, baseName string) bool {
	for _, g := range globs {
		if matched, _ := path.Match(g, baseName); matched {
			return true
		}
	}
	return false
}

func matchSegments(segments []string, lowerPath string) bool {
	for _, seg := range segments {
		if strings.Contains(lowerPath, seg) {
			return true
		}
	}
	return false
}
