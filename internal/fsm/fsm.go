package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateCleaning     State = "cleaning"
	StatePasting      State = "pasting"
	StateSuccess      State = "success"
	StateError        State = "error"
)

const (
	EventPress       Event = "press"
	EventRelease     Event = "release"
	EventCancel      Event = "cancel"
	EventTranscribed Event = "transcribed"
	EventCleaned     Event = "cleaned"
	EventPasted      Event = "pasted"
	EventPasteLast   Event = "paste_last"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
)

// Transition returns the next state for event, or an error when the event is
// not valid in the current state.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		if _, ok := known[current]; !ok {
			return current, fmt.Errorf("unknown state %q", current)
		}
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventPress:
			return StateRecording, nil
		case EventPasteLast:
			return StatePasting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventRelease:
			return StateTranscribing, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTranscribing:
		switch event {
		case EventTranscribed:
			return StateCleaning, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCleaning:
		switch event {
		case EventCleaned:
			return StatePasting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePasting:
		switch event {
		case EventPasted:
			return StateSuccess, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSuccess, StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// Busy reports whether a session currently owns the pipeline.
func Busy(state State) bool {
	return state != StateIdle
}

var known = map[State]struct{}{
	StateIdle:         {},
	StateRecording:    {},
	StateTranscribing: {},
	StateCleaning:     {},
	StatePasting:      {},
	StateSuccess:      {},
	StateError:        {},
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
