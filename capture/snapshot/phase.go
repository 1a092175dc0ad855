package snapshot

// Phase is a state of the capture lifecycle. Transitions are linear:
// idle → navigated → settled → extracted → fetched → compiled → closed.
// A fatal error in any phase jumps straight to closed.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseNavigated Phase = "navigated"
	PhaseSettled   Phase = "settled"
	PhaseExtracted Phase = "extracted"
	PhaseFetched   Phase = "fetched"
	PhaseCompiled  Phase = "compiled"
	PhaseClosed    Phase = "closed"
)

var phaseOrder = map[Phase]int{
	PhaseIdle:      0,
	PhaseNavigated: 1,
	PhaseSettled:   2,
	PhaseExtracted: 3,
	PhaseFetched:   4,
	PhaseCompiled:  5,
	PhaseClosed:    6,
}

// CanAdvance reports whether from → to is a legal transition.
func CanAdvance(from, to Phase) bool {
	a, ok1 := phaseOrder[from]
	b, ok2 := phaseOrder[to]
	if !ok1 || !ok2 {
		return false
	}
	if to == PhaseClosed {
		return from != PhaseClosed
	}
	return b == a+1
}
