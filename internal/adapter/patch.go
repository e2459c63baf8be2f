package adapter

import (
	"regexp"
	"strings"
)

// patchFileRe matches the per-file headers inside an apply_patch payload:
//
//	*** Add File: path/to/file
//	*** Update File: path/to/file
//	*** Delete File: path/to/file
var patchFileRe = regexp.MustCompile(`(?m)^\*\*\* (?:Add|Update|Delete) File: (.+)$`)

// heredocStartRe matches the opening of a shell here-document feeding
// apply_patch, e.g. `apply_patch <<'EOF'`. Legacy Codex transcripts embed
// patches this way inside a JSON-encoded shell command string. Go's regexp
// has no backreferences, so the closing delimiter is located with a string
// search in extractHeredocPatch.
var heredocStartRe = regexp.MustCompile(`apply_patch\s*<<\s*['"]?(\w+)['"]?\n`)

// extractPatchFiles scans a patch payload line-by-line for file markers and
// returns every unique path in first-seen order. All four adapters share
// this rule.
func extractPatchFiles(patch string) []string {
	matches := patchFileRe.FindAllStringSubmatch(patch, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var files []string
	for _, m := range matches {
		path := strings.TrimSpace(m[1])
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		files = append(files, path)
	}
	return files
}

// extractHeredocPatch returns the apply_patch here-document body embedded in
// a shell command, or "" if there is none.
func extractHeredocPatch(command string) string {
	m := heredocStartRe.FindStringSubmatchIndex(command)
	if m == nil {
		return ""
	}
	delim := command[m[2]:m[3]]
	body := command[m[1]:]
	end := strings.Index(body, "\n"+delim)
	if end < 0 {
		return ""
	}
	return body[:end]
}

// containsApplyPatch is a fast check before the heredoc regex runs.
func containsApplyPatch(command string) bool {
	return strings.Contains(command, "apply_patch")
}
