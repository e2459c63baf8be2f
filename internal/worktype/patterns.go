// Package worktype categorizes a session's changed files into a work type
// and a scope summary using file path heuristics (extension and
// directory-name patterns) rather than LLM inference.
package worktype

// Type is the category of work a session's file changes fall into.
type Type string

const (
	// Feature is product/application source code. This is the default for
	// source files no other pattern claims.
	Feature Type = "feature"

	// Infrastructure is build, CI, deployment, and configuration work:
	// manifests, lock files, Dockerfiles, pipeline definitions.
	Infrastructure Type = "infrastructure"

	// Tests is test files identified by naming conventions and path patterns.
	Tests Type = "tests"

	// Docs is documentation: markdown, rst, plain text, docs/ trees.
	Docs Type = "docs"

	// Mixed is the neutral result: no changed files, or no majority.
	Mixed Type = "mixed"
)

// Scope summarizes which side of the stack a session touched.
type Scope string

const (
	ScopeFrontend  Scope = "frontend"
	ScopeBackend   Scope = "backend"
	ScopeFullstack Scope = "frontend, backend"
	ScopeOther     Scope = "other"
)

// PatternRule matches file paths to a work type. Rules are evaluated in
// descending priority order; the first match wins.
type PatternRule struct {
	Type         Type
	FileGlobs    []string // matched against the path base name
	PathSegments []string // matched as substrings of the lowercased path
	Priority     int
}

// DefaultRules returns the built-in per-file classification rules.
//
// Priority tiers:
//
//	40 - tests (naming conventions beat everything)
//	30 - docs
//	20 - infrastructure (config/lock/manifest/CI)
//	feature is the default for anything else, not a rule
func DefaultRules() []PatternRule {
	return []PatternRule{
		{
			Type: Tests,
			FileGlobs: []string{
				"*_test.go",
				"*_test.py",
				"test_*.py",
				"*.test.js",
				"*.test.ts",
				"*.test.tsx",
				"*.spec.js",
				"*.spec.ts",
				"*.spec.tsx",
				"conftest.py",
			},
			PathSegments: []string{
				"/test/",
				"/tests/",
				"/__tests__/",
				"/testing/",
				"/testdata/",
			},
			Priority: 40,
		},
		{
			Type: Docs,
			FileGlobs: []string{
				"*.md",
				"*.rst",
				"*.adoc",
				"*.txt",
			},
			PathSegments: []string{
				"/docs/",
				"/doc/",
			},
			Priority: 30,
		},
		{
			Type: Infrastructure,
			FileGlobs: []string{
				"go.mod",
				"go.sum",
				"package.json",
				"package-lock.json",
				"*.lock",
				"Makefile",
				"Dockerfile",
				"*.yml",
				"*.yaml",
				"*.toml",
				"*.tf",
				"*.ini",
				".gitignore",
				".dockerignore",
				".editorconfig",
			},
			PathSegments: []string{
				"/.github/",
				"/ci/",
				"/deploy/",
				"/infra/",
				"/scripts/",
			},
			Priority: 20,
		},
	}
}

// frontendSegments and frontendExts mark paths as frontend scope.
var frontendSegments = []string{
	"/frontend/",
	"/web/",
	"/ui/",
	"/components/",
	"/pages/",
	"/styles/",
	"/public/",
}

var frontendExts = map[string]bool{
	".tsx":    true,
	".jsx":    true,
	".vue":    true,
	".svelte": true,
	".css":    true,
	".scss":   true,
	".html":   true,
}

// backendSegments and backendExts mark paths as backend scope.
var backendSegments = []string{
	"/backend/",
	"/server/",
	"/api/",
	"/internal/",
	"/cmd/",
	"/services/",
	"/handlers/",
	"/db/",
	"/migrations/",
}

var backendExts = map[string]bool{
	".go":   true,
	".py":   true,
	".rs":   true,
	".java": true,
	".rb":   true,
	".php":  true,
	".sql":  true,
	".ex":   true,
	".kt":   true,
}
