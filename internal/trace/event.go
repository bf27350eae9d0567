package trace

import (
	"sync/atomic"
	"time"
)

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent higher-level/coarser events.
type Scope uint8

const (
	// ScopeEngine represents engine lifecycle events (creation, shutdown).
	ScopeEngine Scope = iota + 1
	// ScopeDrain represents drain cycle boundaries and query outcomes.
	ScopeDrain
	// ScopeOp represents per-operation events (register, resume).
	ScopeOp
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeEngine:
		return "engine"
	case ScopeDrain:
		return "drain"
	case ScopeOp:
		return "op"
	default:
		return "unknown"
	}
}

// Event is a single trace record emitted by the engine.
type Event struct {
	Time   time.Time `msgpack:"time" json:"time"`
	Seq    uint64    `msgpack:"seq" json:"seq"`
	Kind   Kind      `msgpack:"kind" json:"kind"`
	Scope  Scope     `msgpack:"scope" json:"scope"`
	Name   string    `msgpack:"name" json:"name"`
	FD     int       `msgpack:"fd" json:"fd"` // -1 when the event has no descriptor
	Detail string    `msgpack:"detail,omitempty" json:"detail,omitempty"`
}

var seqCounter atomic.Uint64

// NextSeq returns the next global event sequence number.
func NextSeq() uint64 {
	return seqCounter.Add(1)
}
