package engine

import "fmt"

// ActionKind is what a player asked for.
type ActionKind uint8

const (
	Press ActionKind = iota
	Release
	Checkpoint
	Retry
)

func (k ActionKind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	case Checkpoint:
		return "checkpoint"
	case Retry:
		return "retry"
	}
	return "unknown"
}

// Action is an input event delivered to the logic goroutine. Column is only
// meaningful for Press and Release.
type Action struct {
	Kind   ActionKind
	Column uint8
}

func (a Action) String() string {
	if a.Kind == Press || a.Kind == Release {
		return fmt.Sprintf("%v %d", a.Kind, a.Column)
	}
	return a.Kind.String()
}
