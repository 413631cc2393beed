// Package fsm defines the session phase machine and its transition table.
package fsm

import "fmt"

type Phase string

type Event string

const (
	PhaseAwaitingWake Phase = "awaiting_wake"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing"
	PhaseReasoning    Phase = "reasoning"
	PhaseSpeaking     Phase = "speaking"
	PhaseDraining     Phase = "draining"
	PhaseRearming     Phase = "rearming"
	PhaseStopped      Phase = "stopped"
)

const (
	EventWake        Event = "wake"
	EventCaptured    Event = "captured"
	EventEmpty       Event = "empty"
	EventTranscribed Event = "transcribed"
	EventResolved    Event = "resolved"
	EventSpoken      Event = "spoken"
	EventDrained     Event = "drained"
	EventRearmed     Event = "rearmed"
	EventFail        Event = "fail"
	EventShutdown    Event = "shutdown"
)

// Transition applies one event to the current phase. Every phase has exactly
// one success path; EventFail routes back to awaiting_wake and EventShutdown
// routes to stopped from anywhere. Stopped is terminal.
func Transition(current Phase, event Event) (Phase, error) {
	if current == PhaseStopped {
		return current, invalidTransition(current, event)
	}
	if event == EventShutdown {
		return PhaseStopped, nil
	}
	if event == EventFail {
		return PhaseAwaitingWake, nil
	}

	switch current {
	case PhaseAwaitingWake:
		switch event {
		case EventWake:
			return PhaseRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseRecording:
		switch event {
		case EventCaptured:
			return PhaseTranscribing, nil
		case EventEmpty:
			return PhaseAwaitingWake, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseTranscribing:
		switch event {
		case EventTranscribed:
			return PhaseReasoning, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseReasoning:
		switch event {
		case EventResolved:
			return PhaseSpeaking, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseSpeaking:
		switch event {
		case EventSpoken:
			return PhaseDraining, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseDraining:
		switch event {
		case EventDrained:
			return PhaseRearming, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseRearming:
		switch event {
		case EventRearmed:
			return PhaseAwaitingWake, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown phase %q", current)
	}
}

func invalidTransition(phase Phase, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", phase, event)
}
