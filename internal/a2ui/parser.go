package a2ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

var (
	errNotObject    = errors.New("line is not a JSON object")
	errTrailingData = errors.New("trailing data after JSON object")
)

// LineParser splits an arbitrarily chunked text stream into JSONL records.
// A line is only parsed once its newline has arrived; lines that are not a
// single JSON object are dropped without error. A LineParser belongs to one
// run and is not safe for concurrent use.
type LineParser struct {
	surfaceID string
	buf       bytes.Buffer
}

func NewLineParser(surfaceID string) *LineParser {
	return &LineParser{surfaceID: surfaceID}
}

// Feed appends chunk and returns the records completed by it, in order.
func (p *LineParser) Feed(chunk string) []Record {
	p.buf.WriteString(chunk)

	var out []Record
	for {
		i := bytes.IndexByte(p.buf.Bytes(), '\n')
		if i < 0 {
			return out
		}
		line := p.buf.Next(i + 1)
		if rec, ok := p.parse(line); ok {
			out = append(out, rec)
		}
	}
}

// Flush parses whatever is left after the stream ended and empties the buffer.
func (p *LineParser) Flush() []Record {
	rest := p.buf.Bytes()
	defer p.buf.Reset()
	if rec, ok := p.parse(rest); ok {
		return []Record{rec}
	}
	return nil
}

func (p *LineParser) parse(line []byte) (Record, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}
	rec, err := decodeRecord(line)
	if err != nil {
		return nil, false
	}
	if _, ok := rec["surfaceId"]; !ok {
		if _, typed := rec["type"]; typed {
			rec["surfaceId"] = p.surfaceID
		}
	}
	return rec, true
}

// decodeRecord accepts exactly one JSON object. Numbers stay json.Number so
// re-encoding does not change them.
func decodeRecord(line []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errNotObject
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return rec, nil
}
