package jsonl

import (
	"strings"
	"testing"
)

func TestDecoderYieldsEveryValidLine(t *testing.T) {
	input := `{"a":1}
{"b":2}
{"c":3}
`
	d := NewDecoder(strings.NewReader(input))

	var got []string
	for {
		raw, ok := d.Next()
		if !ok {
			break
		}
		got = append(got, string(raw))
	}

	if d.Err() != nil {
		t.Fatalf("unexpected error: %v", d.Err())
	}
	want := []string{`{"a":1}`, `{"b":2}`, `{"c":3}`}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDecoderSkipsMalformedLines(t *testing.T) {
	input := `{"ok":1}
{truncated
not json at all
{"ok":2}
`
	d := NewDecoder(strings.NewReader(input))

	count := 0
	for {
		raw, ok := d.Next()
		if !ok {
			break
		}
		if !strings.Contains(string(raw), "ok") {
			t.Errorf("unexpected record %q", raw)
		}
		count++
	}

	if count != 2 {
		t.Fatalf("expected 2 valid records, got %d", count)
	}
	if d.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", d.Skipped())
	}
	if d.Err() != nil {
		t.Errorf("unexpected error: %v", d.Err())
	}
}

func TestDecoderBlankLinesAreNotSkips(t *testing.T) {
	input := "\n\n{\"a\":1}\n\n   \n{\"b\":2}\n\n"
	d := NewDecoder(strings.NewReader(input))

	count := 0
	for {
		if _, ok := d.Next(); !ok {
			break
		}
		count++
	}

	if count != 2 {
		t.Fatalf("expected 2 records, got %d", count)
	}
	// Blank lines are structural, not corruption.
	if d.Skipped() != 0 {
		t.Errorf("Skipped() = %d, want 0", d.Skipped())
	}
}

func TestDecoderStripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBF{\"a\":1}\n"
	d := NewDecoder(strings.NewReader(input))

	raw, ok := d.Next()
	if !ok {
		t.Fatal("expected one record")
	}
	if string(raw) != `{"a":1}` {
		t.Errorf("record = %q, want %q", raw, `{"a":1}`)
	}
}

func TestDecoderReturnedSliceIsACopy(t *testing.T) {
	input := `{"a":1}
{"bbbbbbb":2}
`
	d := NewDecoder(strings.NewReader(input))

	first, ok := d.Next()
	if !ok {
		t.Fatal("expected first record")
	}
	snapshot := string(first)

	// Advancing must not clobber the previously returned slice.
	if _, ok := d.Next(); !ok {
		t.Fatal("expected second record")
	}
	if string(first) != snapshot {
		t.Errorf("first record mutated after Next: %q", first)
	}
}

func TestDecoderHandlesLongLines(t *testing.T) {
	// Well past the default bufio.Scanner 64KB limit.
	big := `{"text":"` + strings.Repeat("x", 200*1024) + `"}`
	d := NewDecoder(strings.NewReader(big + "\n"))

	if _, ok := d.Next(); !ok {
		t.Fatalf("expected the long line to decode, err=%v", d.Err())
	}
}
