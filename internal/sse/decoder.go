// Package sse decodes server-sent-event byte streams into discrete events.
//
// The decoder is transport-agnostic: it reads any io.Reader and splits on
// the blank-line event separator, so chunk boundaries never affect the
// decoded sequence. It knows nothing about chat semantics.
package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// maxEventSize bounds a single event; final payloads carry full job
// listings so the limit is generous.
const maxEventSize = 1 << 20

// Event is one decoded server-sent event. Type is empty when the segment
// carried only data lines.
type Event struct {
	Type string
	Data string
}

// Decoder reads an SSE stream event by event:
//
//	dec := sse.NewDecoder(body)
//	for dec.Next() {
//		ev := dec.Event()
//		...
//	}
//	if err := dec.Err(); err != nil { ... }
//
// A Decoder is driven by a single consumer and is not safe for concurrent
// use.
type Decoder struct {
	scanner *bufio.Scanner
	event   Event
	err     error
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	sc.Split(scanEvents)
	return &Decoder{scanner: sc}
}

// Next advances to the next event, skipping segments that carry neither an
// event-type nor a data line. It returns false at end of stream or on a
// read error.
func (d *Decoder) Next() bool {
	if d.err != nil {
		return false
	}
	for d.scanner.Scan() {
		if ev, ok := parseEvent(d.scanner.Text()); ok {
			d.event = ev
			return true
		}
	}
	d.err = d.scanner.Err()
	return false
}

// Event returns the event decoded by the last successful call to Next.
func (d *Decoder) Event() Event {
	return d.event
}

// Err returns the first read error encountered, if any. End of stream is
// not an error; a stream that ends without a terminal event is the
// caller's problem to detect.
func (d *Decoder) Err() error {
	return d.err
}

// scanEvents is a bufio.SplitFunc delimiting events on blank lines. A
// trailing segment without its separator at EOF is an incomplete event and
// is dropped.
func scanEvents(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}

// parseEvent parses one segment. Lines prefixed event: set the type (last
// one wins); data: payloads are taken verbatim after the prefix and joined
// with newlines, so token whitespace survives intact. Everything else,
// comment lines included, is ignored.
func parseEvent(raw string) (Event, bool) {
	var ev Event
	var dataLines []string
	hasData := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.Type = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data:"))
			hasData = true
		}
	}

	if ev.Type == "" && !hasData {
		return Event{}, false
	}
	ev.Data = strings.Join(dataLines, "\n")
	return ev, true
}
