package adapter

import (
	"encoding/json"
	"strings"

	"github.com/anthropic/worklog/internal/session"
)

// claudeBlock is one content block inside a Claude message. Depending on the
// producer version, block text appears under either "text" or "content";
// both are accepted.
type claudeBlock struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Content string          `json:"content"`
	Name    string          `json:"name"`
	Input   json.RawMessage `json:"input"`
}

func (b *claudeBlock) blockText() string {
	if b.Text != "" {
		return b.Text
	}
	return b.Content
}

// parseClaudeContent extracts text, tool invocations, and changed files from
// a Claude message content value, which is either a plain string or an array
// of content blocks. Both Claude generations share this shape.
func parseClaudeContent(raw json.RawMessage) (text string, tools []session.ToolUse, files []string) {
	if len(raw) == 0 {
		return "", nil, nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil, nil
	}

	var blocks []claudeBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", nil, nil
	}

	var texts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if t := b.blockText(); t != "" {
				texts = append(texts, t)
			}
		case "tool_use":
			name := normalizeToolName(b.Name)
			tools = append(tools, session.ToolUse{
				Name:    name,
				Summary: summarizeToolInput(name, b.Input),
				Input:   b.Input,
			})
			files = append(files, filesFromToolInput(name, b.Input)...)
		case "tool_result", "thinking":
			// Tool results repeat content already counted on the assistant
			// side; thinking blocks carry no user-visible text.
		}
	}
	return strings.Join(texts, "\n"), tools, files
}

// filesFromToolInput extracts changed file paths from a structured tool
// input: file-editing tools carry a file_path field, and shell commands may
// embed an apply_patch here-document.
func filesFromToolInput(name string, input json.RawMessage) []string {
	switch name {
	case "Write", "Edit", "MultiEdit", "NotebookEdit":
		var inp struct {
			FilePath string `json:"file_path"`
		}
		if err := json.Unmarshal(input, &inp); err == nil && inp.FilePath != "" {
			return []string{inp.FilePath}
		}
	case "Bash":
		var inp struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(input, &inp); err == nil && containsApplyPatch(inp.Command) {
			if body := extractHeredocPatch(inp.Command); body != "" {
				return extractPatchFiles(body)
			}
		}
	}
	return nil
}
