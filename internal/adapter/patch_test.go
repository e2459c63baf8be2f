package adapter

import (
	"strings"
	"testing"
)

func TestExtractPatchFilesUniqueOrdered(t *testing.T) {
	patch := `*** Begin Patch
*** Add File: a.go
+package a
*** Update File: b.go
@@ -1 +1 @@
*** Update File: a.go
@@ -2 +2 @@
*** End Patch`

	got := extractPatchFiles(patch)
	want := []string{"a.go", "b.go"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractPatchFilesMarkers(t *testing.T) {
	cases := []struct {
		name  string
		patch string
		want  int
	}{
		{"add", "*** Add File: x.py\n", 1},
		{"update", "*** Update File: y.py\n", 1},
		{"delete", "*** Delete File: z.py\n", 1},
		{"mid-line marker ignored", "text *** Add File: nope.py\n", 0},
		{"no markers", "just some diff content\n+added line\n", 0},
	}

	for _, tc := range cases {
		if got := extractPatchFiles(tc.patch); len(got) != tc.want {
			t.Errorf("%s: got %v, want %d files", tc.name, got, tc.want)
		}
	}
}

func TestExtractHeredocPatch(t *testing.T) {
	cases := []struct {
		name    string
		command string
		want    string
	}{
		{
			"single quoted delimiter",
			"apply_patch <<'EOF'\nbody line\nEOF",
			"body line",
		},
		{
			"bare delimiter",
			"apply_patch <<EOF\nbody\nEOF",
			"body",
		},
		{
			"no heredoc",
			"apply_patch something inline",
			"",
		},
		{
			"embedded in larger command",
			"cd /tmp && apply_patch <<'DONE'\n*** Update File: f\nDONE\necho ok",
			"*** Update File: f",
		},
	}

	for _, tc := range cases {
		if got := extractHeredocPatch(tc.command); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestNormalizeToolName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"shell", "Bash"},
		{"local_shell_call", "Bash"},
		{"exec_command", "Bash"},
		{"apply_patch", "Edit"},
		{"str_replace_editor", "Edit"},
		{"read_file", "Read"},
		{"write_file", "Write"},
		{"web_search", "WebSearch"},
		{"update_plan", "Task"},
		{"Bash", "Bash"},
		{"SomethingNew", "SomethingNew"},
	}

	for _, tc := range cases {
		if got := normalizeToolName(tc.in); got != tc.want {
			t.Errorf("normalizeToolName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSummarizeToolInput(t *testing.T) {
	got := summarizeToolInput("Edit", []byte(`{"file_path":"a/b.go","old_string":"x"}`))
	if got != "Edit: a/b.go" {
		t.Errorf("summary = %q, want %q", got, "Edit: a/b.go")
	}

	long := `{"command":"echo ` + strings.Repeat("x", 500) + `"}`
	got = summarizeToolInput("Bash", []byte(long))
	if len([]rune(got)) > maxSummaryLen {
		t.Errorf("summary length %d exceeds %d", len([]rune(got)), maxSummaryLen)
	}
}

func TestIsSyntheticUserText(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"<local-command-stdout>ok</local-command-stdout>", true},
		{"<command-name>/clear</command-name>", true},
		{"<environment_context>...</environment_context>", true},
		{"please fix this <system-reminder>note</system-reminder>", true},
		{"Caveat: the messages below were generated...", true},
		{"fix the flaky test in ci", false},
	}

	for _, tc := range cases {
		if got := IsSyntheticUserText(tc.text); got != tc.want {
			t.Errorf("IsSyntheticUserText(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
