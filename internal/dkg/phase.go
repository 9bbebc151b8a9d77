package dkg

import "fmt"

// Phase is the position of a tick within an epoch's schedule.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseRound0
	PhaseRound1
	PhaseRound2
	PhaseConclusion
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseRound0:
		return "round0"
	case PhaseRound1:
		return "round1"
	case PhaseRound2:
		return "round2"
	case PhaseConclusion:
		return "conclusion"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Schedule places the rounds of one epoch on the tick axis of the round clock.
type Schedule struct {
	Epoch      uint64
	StartTick  uint64
	Boundaries Boundaries
}

// PhaseAt is the transition guard of the round state machine: a pure function of the tick.
func (s Schedule) PhaseAt(tick uint64) Phase {
	if tick < s.StartTick {
		return PhaseNotStarted
	}
	relative := tick - s.StartTick
	switch {
	case relative < s.Boundaries.EndRound0:
		return PhaseRound0
	case relative < s.Boundaries.EndRound1:
		return PhaseRound1
	case relative < s.Boundaries.EndRound2:
		return PhaseRound2
	default:
		return PhaseConclusion
	}
}

// EndTick returns the absolute tick at which the epoch concludes.
func (s Schedule) EndTick() uint64 {
	return s.StartTick + s.Boundaries.EndRound2
}

// State of a participant's round state machine.
type State int

const (
	StateAwaitingRound0 State = iota
	StateAwaitingRound1
	StateAwaitingRound2
	StateConcluded
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateAwaitingRound0:
		return "AwaitingRound0"
	case StateAwaitingRound1:
		return "AwaitingRound1"
	case StateAwaitingRound2:
		return "AwaitingRound2"
	case StateConcluded:
		return "Concluded"
	case StateAbandoned:
		return "Abandoned"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) Terminal() bool {
	return s == StateConcluded || s == StateAbandoned
}
