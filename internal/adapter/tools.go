package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxSummaryLen caps the human-readable tool input summary.
const maxSummaryLen = 200

// normalizeToolName maps source-tool-specific names into the shared
// vocabulary so the aggregator's tool histogram is source-agnostic.
// Unknown names pass through unchanged.
func normalizeToolName(name string) string {
	switch name {
	case "shell", "shell_command", "local_shell_call", "exec_command":
		return "Bash"
	case "apply_patch", "str_replace_editor":
		return "Edit"
	case "read_file", "view":
		return "Read"
	case "write_file", "create_file":
		return "Write"
	case "web_search":
		return "WebSearch"
	case "update_plan":
		return "Task"
	default:
		return name
	}
}

// summarizeToolInput renders a short human-readable summary of a tool input.
// It prefers the field that best characterizes the call (file path, command,
// pattern), falls back to the first non-empty string parameter, and always
// truncates to maxSummaryLen.
func summarizeToolInput(name string, input json.RawMessage) string {
	var params map[string]any
	if err := json.Unmarshal(input, &params); err != nil {
		return truncate(name, maxSummaryLen)
	}

	for _, key := range []string{"file_path", "path", "command", "pattern", "query", "url", "description", "prompt"} {
		if s, ok := params[key].(string); ok && s != "" {
			return truncate(fmt.Sprintf("%s: %s", name, s), maxSummaryLen)
		}
	}

	for _, v := range params {
		if s, ok := v.(string); ok && s != "" {
			return truncate(fmt.Sprintf("%s: %s", name, s), maxSummaryLen)
		}
	}
	return truncate(name, maxSummaryLen)
}

// truncate collapses newlines and clips s to maxLen runes.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-2]) + ".."
}

// IsSyntheticUserText reports whether a user message is tool- or
// system-generated rather than typed by the user. Such messages never become
// the session's first prompt.
func IsSyntheticUserText(text string) bool {
	return strings.HasPrefix(text, "<local-command-") ||
		strings.HasPrefix(text, "<command-name>") ||
		strings.HasPrefix(text, "<environment_context>") ||
		strings.Contains(text, "<system-reminder>") ||
		strings.Contains(text, "Caveat: the messages below")
}
