package pipeline

import (
	"fmt"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
)

// State is a pipeline run's position in its lifecycle.
type State int

const (
	NotStarted State = iota
	ResolvingVersion
	Generating
	PostProcessing
	Done
	Failed
)

var stateNames = [...]string{
	NotStarted:       "NotStarted",
	ResolvingVersion: "ResolvingVersion",
	Generating:       "Generating",
	PostProcessing:   "PostProcessing",
	Done:             "Done",
	Failed:           "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Done || s == Failed }

// transitions lists the legal successors of each state. Failed is reachable from
// every non-terminal state.
var transitions = map[State][]State{
	NotStarted:       {ResolvingVersion, Failed},
	ResolvingVersion: {Generating, Failed},
	Generating:       {PostProcessing, Failed},
	PostProcessing:   {Done, Failed},
}

// CanTransition reports whether from → to is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if CanTransition(from, to) {
		return nil
	}
	return errors.InternalError(fmt.Sprintf("illegal pipeline transition %s → %s", from, to)).
		WithContext("from", from.String()).
		WithContext("to", to.String()).
		Build()
}
