package fsm

import "testing"

func TestFullCycleSuccessPath(t *testing.T) {
	steps := []struct {
		event Event
		want  Phase
	}{
		{EventWake, PhaseRecording},
		{EventCaptured, PhaseTranscribing},
		{EventTranscribed, PhaseReasoning},
		{EventResolved, PhaseSpeaking},
		{EventSpoken, PhaseDraining},
		{EventDrained, PhaseRearming},
		{EventRearmed, PhaseAwaitingWake},
	}

	phase := PhaseAwaitingWake
	for _, step := range steps {
		next, err := Transition(phase, step.event)
		if err != nil {
			t.Fatalf("transition %s --(%s)--> failed: %v", phase, step.event, err)
		}
		if next != step.want {
			t.Fatalf("transition %s --(%s)--> got %s, want %s", phase, step.event, next, step.want)
		}
		phase = next
	}
}

func TestEmptyRecordingReturnsToAwaitingWake(t *testing.T) {
	next, err := Transition(PhaseRecording, EventEmpty)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != PhaseAwaitingWake {
		t.Fatalf("got %s, want %s", next, PhaseAwaitingWake)
	}
}

func TestFailRoutesBackToAwaitingWakeFromEveryPhase(t *testing.T) {
	phases := []Phase{
		PhaseAwaitingWake, PhaseRecording, PhaseTranscribing,
		PhaseReasoning, PhaseSpeaking, PhaseDraining, PhaseRearming,
	}
	for _, phase := range phases {
		next, err := Transition(phase, EventFail)
		if err != nil {
			t.Fatalf("fail from %s errored: %v", phase, err)
		}
		if next != PhaseAwaitingWake {
			t.Fatalf("fail from %s got %s, want %s", phase, next, PhaseAwaitingWake)
		}
	}
}

func TestShutdownRoutesToStoppedFromEveryPhase(t *testing.T) {
	phases := []Phase{
		PhaseAwaitingWake, PhaseRecording, PhaseTranscribing,
		PhaseReasoning, PhaseSpeaking, PhaseDraining, PhaseRearming,
	}
	for _, phase := range phases {
		next, err := Transition(phase, EventShutdown)
		if err != nil {
			t.Fatalf("shutdown from %s errored: %v", phase, err)
		}
		if next != PhaseStopped {
			t.Fatalf("shutdown from %s got %s, want %s", phase, next, PhaseStopped)
		}
	}
}

func TestStoppedIsTerminal(t *testing.T) {
	for _, event := range []Event{EventWake, EventFail, EventShutdown, EventRearmed} {
		if _, err := Transition(PhaseStopped, event); err == nil {
			t.Fatalf("expected error for %s from stopped", event)
		}
	}
}

func TestInvalidEventKeepsPhase(t *testing.T) {
	next, err := Transition(PhaseAwaitingWake, EventSpoken)
	if err == nil {
		t.Fatalf("expected invalid transition error")
	}
	if next != PhaseAwaitingWake {
		t.Fatalf("phase changed on invalid event: %s", next)
	}
}
