package trace

import "fmt"

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff Level = iota
	// LevelDrain emits engine lifecycle and drain cycle boundaries.
	LevelDrain
	// LevelOp emits everything including per-operation events.
	LevelOp
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelDrain:
		return "drain"
	case LevelOp:
		return "op"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off", "OFF":
		return LevelOff, nil
	case "drain", "DRAIN":
		return LevelDrain, nil
	case "op", "OP":
		return LevelOp, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|drain|op)", s)
	}
}

// ShouldEmit returns true if the given scope should emit at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelDrain:
		return scope <= ScopeDrain
	case LevelOp:
		return true
	}
	return false
}
