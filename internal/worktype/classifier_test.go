package worktype

import "testing"

func TestClassifyFileByPattern(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		path string
		want Type
	}{
		{"internal/store/store_test.go", Tests},
		{"tests/fixtures/data.json", Tests},
		{"src/__tests__/app.test.tsx", Tests},
		{"README.md", Docs},
		{"docs/guide.html", Docs},
		{"Dockerfile", Infrastructure},
		{".github/workflows/ci.yml", Infrastructure},
		{"go.mod", Infrastructure},
		{"package-lock.json", Infrastructure},
		{"internal/api/handler.go", Feature},
		{"src/components/Button.tsx", Feature},
	}

	for _, tc := range cases {
		if got := c.classifyFile(tc.path); got != tc.want {
			t.Errorf("classifyFile(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestClassifyMajorityRule(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		name  string
		files []string
		want  Type
	}{
		{
			"tests majority",
			[]string{"a_test.go", "b_test.go", "main.go"},
			Tests,
		},
		{
			"feature majority",
			[]string{"api.go", "handler.go", "README.md"},
			Feature,
		},
		{
			"tie is mixed",
			[]string{"a_test.go", "main.go"},
			Mixed,
		},
		{
			"no files is mixed",
			nil,
			Mixed,
		},
		{
			"all docs",
			[]string{"README.md", "CHANGELOG.md"},
			Docs,
		},
	}

	for _, tc := range cases {
		if got := c.Classify(tc.files).Type; got != tc.want {
			t.Errorf("%s: Type = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestClassifyScope(t *testing.T) {
	cases := []struct {
		name  string
		files []string
		want  Scope
	}{
		{
			"backend only",
			[]string{"internal/store/db.go", "cmd/api/main.go"},
			ScopeBackend,
		},
		{
			"frontend only",
			[]string{"src/components/App.tsx", "styles/main.css"},
			ScopeFrontend,
		},
		{
			"fullstack",
			[]string{"internal/api/routes.go", "web/index.html"},
			ScopeFullstack,
		},
		{
			"plain ts without backend markers is frontend",
			[]string{"src/utils/format.ts"},
			ScopeFrontend,
		},
		{
			"ts under a backend path is backend",
			[]string{"server/handlers/auth.ts"},
			ScopeBackend,
		},
		{
			"neither",
			[]string{"README.md", "LICENSE"},
			ScopeOther,
		},
		{
			"no files",
			nil,
			ScopeOther,
		},
	}

	for _, tc := range cases {
		if got := classifyScope(tc.files); got != tc.want {
			t.Errorf("%s: Scope = %q, want %q", tc.name, got, tc.want)
		}
	}
}
