package rules

import "fmt"

// EvalState represents every state a single evaluation can pass through
// (§4.7). Modeled on pkg/fsm's RuleLifecycleFSM: an explicit transition
// table keyed by (state, event) rather than ad hoc boolean flags.
type EvalState int

const (
	StateParsing EvalState = iota
	StateConstantsLoading
	StateEvaluating
	StateCircuitBroken
	StateCompleting
	StateDone
)

func (s EvalState) String() string {
	switch s {
	case StateParsing:
		return "parsing"
	case StateConstantsLoading:
		return "constants_loading"
	case StateEvaluating:
		return "evaluating"
	case StateCircuitBroken:
		return "circuit_broken"
	case StateCompleting:
		return "completing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// EvalEvent triggers a state transition during one evaluation.
type EvalEvent int

const (
	EventParsed EvalEvent = iota
	EventParseFailed
	EventConstantsLoaded
	EventConstantsFailed
	EventEvaluated
	EventCircuitBroken
	EventEvalFailed
	EventCompleted
)

func (e EvalEvent) String() string {
	switch e {
	case EventParsed:
		return "parsed"
	case EventParseFailed:
		return "parse_failed"
	case EventConstantsLoaded:
		return "constants_loaded"
	case EventConstantsFailed:
		return "constants_failed"
	case EventEvaluated:
		return "evaluated"
	case EventCircuitBroken:
		return "circuit_broken"
	case EventEvalFailed:
		return "eval_failed"
	case EventCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown_event(%d)", e)
	}
}

// InvalidEvalTransitionError indicates an illegal state transition within
// one evaluation's lifecycle.
type InvalidEvalTransitionError struct {
	OperationID string
	From        EvalState
	Event       EvalEvent
}

func (e *InvalidEvalTransitionError) Error() string {
	return fmt.Sprintf("evaluation %s: invalid transition from %s via event %s",
		e.OperationID, e.From, e.Event)
}

// EvalFSM tracks the lifecycle of a single rule evaluation. Unlike
// pkg/fsm's registry-of-many-rules shape, one EvalFSM is scoped to one
// evaluation and discarded afterward — there is no shared registry because
// evaluations never outlive the call that created them (§5).
type EvalFSM struct {
	operationID string
	state       EvalState
}

// NewEvalFSM starts a fresh evaluation lifecycle in StateParsing.
func NewEvalFSM(operationID string) *EvalFSM {
	return &EvalFSM{operationID: operationID, state: StateParsing}
}

// State returns the current lifecycle state.
func (f *EvalFSM) State() EvalState { return f.state }

// Transition attempts to move to the next state via event, returning
// InvalidEvalTransitionError if the transition table has no entry for
// (current state, event).
func (f *EvalFSM) Transition(event EvalEvent) error {
	next, valid := f.validTransitions()[f.state][event]
	if !valid {
		return &InvalidEvalTransitionError{OperationID: f.operationID, From: f.state, Event: event}
	}
	f.state = next
	return nil
}

func (f *EvalFSM) validTransitions() map[EvalState]map[EvalEvent]EvalState {
	return map[EvalState]map[EvalEvent]EvalState{
		StateParsing: {
			EventParsed:      StateConstantsLoading,
			EventParseFailed: StateDone,
		},
		StateConstantsLoading: {
			EventConstantsLoaded: StateEvaluating,
			EventConstantsFailed: StateDone,
		},
		StateEvaluating: {
			EventEvaluated:     StateCompleting,
			EventCircuitBroken: StateCircuitBroken,
			EventEvalFailed:    StateDone,
		},
		StateCircuitBroken: {
			EventCompleted: StateCompleting,
		},
		StateCompleting: {
			EventCompleted: StateDone,
		},
	}
}
