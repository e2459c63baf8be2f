// Package jsonl reads newline-delimited JSON streams with per-line failure
// tolerance: a corrupt line never aborts an otherwise-good transcript.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

// maxLineBytes bounds a single transcript line. Tool outputs embedded in
// assistant turns can run to megabytes, so the default 64KB scanner buffer
// is far too small.
const maxLineBytes = 10 * 1024 * 1024

// Decoder yields successfully-decoded JSON values from a byte stream,
// one per line. Blank lines and lines that fail to parse are skipped.
// The sequence is consumed exactly once; a Decoder is not reusable.
type Decoder struct {
	sc      *bufio.Scanner
	err     error
	skipped int
}

// NewDecoder wraps r in a line-oriented JSON decoder.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256*1024), maxLineBytes)
	return &Decoder{sc: sc}
}

// Next returns the next decodable line as raw JSON, or ok=false at end of
// stream. The returned slice is a copy the caller owns.
func (d *Decoder) Next() (raw json.RawMessage, ok bool) {
	if d.err != nil {
		return nil, false
	}

	for d.sc.Scan() {
		line := trimLine(d.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			d.skipped++
			continue
		}
		raw = make(json.RawMessage, len(line))
		copy(raw, line)
		return raw, true
	}

	d.err = d.sc.Err()
	return nil, false
}

// Err returns the first underlying read error, if any. Line-level decode
// failures are not errors; see Skipped.
func (d *Decoder) Err() error {
	return d.err
}

// Skipped returns the number of lines dropped because they were not valid JSON.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// trimLine removes surrounding whitespace and a UTF-8 BOM if present.
func trimLine(line []byte) []byte {
	if len(line) >= 3 && line[0] == 0xEF && line[1] == 0xBB && line[2] == 0xBF {
		line = line[3:]
	}
	return bytes.TrimSpace(line)
}
