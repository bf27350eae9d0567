package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format represents the encoding for trace events.
type Format uint8

const (
	// FormatAuto picks a format from the output path extension.
	FormatAuto Format = iota
	// FormatText is human-readable text.
	FormatText
	// FormatNDJSON is newline-delimited JSON.
	FormatNDJSON
	// FormatMsgpack is a stream of msgpack-encoded events.
	FormatMsgpack
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatNDJSON:
		return "ndjson"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson":
		return FormatNDJSON, nil
	case "msgpack":
		return FormatMsgpack, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson|msgpack)", s)
	}
}

// FormatEvent encodes an event according to the specified format.
// Msgpack events should be written through an Encoder instead; FormatEvent
// falls back to text for them.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	default:
		return formatText(ev)
	}
}

type jsonEvent struct {
	Time   string `json:"time"`
	Seq    uint64 `json:"seq"`
	Kind   string `json:"kind"`
	Scope  string `json:"scope"`
	Name   string `json:"name"`
	FD     int    `json:"fd"`
	Detail string `json:"detail,omitempty"`
}

func formatNDJSON(ev *Event) []byte {
	j := jsonEvent{
		Time:   ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Name:   ev.Name,
		FD:     ev.FD,
		Detail: ev.Detail,
	}
	data, _ := json.Marshal(j)
	data = append(data, '\n')
	return data
}

// formatText renders an event as one human-readable line:
//
//	[     seq] scope  → name (fd 3) detail
func formatText(ev *Event) []byte {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%8d] %-6s ", ev.Seq, ev.Scope))

	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("→ ")
	case KindSpanEnd:
		sb.WriteString("← ")
	default:
		sb.WriteString("· ")
	}

	sb.WriteString(ev.Name)
	if ev.FD >= 0 {
		sb.WriteString(fmt.Sprintf(" (fd %d)", ev.FD))
	}
	if ev.Detail != "" {
		sb.WriteString(" ")
		sb.WriteString(ev.Detail)
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

// ReadEvents decodes a recorded event stream. FormatAuto sniffs the first
// byte: NDJSON streams start with '{', anything else is treated as msgpack.
func ReadEvents(r io.Reader, format Format) ([]Event, error) {
	br := bufio.NewReader(r)
	if format == FormatAuto {
		first, err := br.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("peek trace stream: %w", err)
		}
		if first[0] == '{' {
			format = FormatNDJSON
		} else {
			format = FormatMsgpack
		}
	}

	switch format {
	case FormatNDJSON:
		return readNDJSON(br)
	case FormatMsgpack:
		return readMsgpack(br)
	default:
		return nil, fmt.Errorf("cannot decode trace format %v", format)
	}
}

func readNDJSON(r *bufio.Reader) ([]Event, error) {
	var events []Event
	dec := json.NewDecoder(r)
	for {
		var j jsonEvent
		if err := dec.Decode(&j); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, fmt.Errorf("decode trace event: %w", err)
		}
		ev := Event{
			Seq:    j.Seq,
			Name:   j.Name,
			FD:     j.FD,
			Detail: j.Detail,
		}
		switch j.Kind {
		case "begin":
			ev.Kind = KindSpanBegin
		case "end":
			ev.Kind = KindSpanEnd
		default:
			ev.Kind = KindPoint
		}
		switch j.Scope {
		case "engine":
			ev.Scope = ScopeEngine
		case "drain":
			ev.Scope = ScopeDrain
		default:
			ev.Scope = ScopeOp
		}
		events = append(events, ev)
	}
}

func readMsgpack(r io.Reader) ([]Event, error) {
	var events []Event
	dec := msgpack.NewDecoder(r)
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, fmt.Errorf("decode trace event: %w", err)
		}
		events = append(events, ev)
	}
}

// DumpText writes events as text lines to w.
func DumpText(w io.Writer, events []Event) error {
	var buf bytes.Buffer
	for i := range events {
		buf.Write(formatText(&events[i]))
	}
	_, err := w.Write(buf.Bytes())
	return err
}
