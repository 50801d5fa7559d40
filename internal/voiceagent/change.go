package voiceagent

import "context"

// ChangeKind tags the variants of Change.
type ChangeKind int

const (
	Added ChangeKind = iota + 1
	Removed
	ActivationChanged
	DefaultChanged
	WakewordChanged
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case ActivationChanged:
		return "activation_changed"
	case DefaultChanged:
		return "default_changed"
	case WakewordChanged:
		return "wakeword_changed"
	default:
		return "unknown"
	}
}

// Change describes one mutation of the registry.
//
// Agent is a copy of the affected agent after the change. For DefaultChanged it
// is the new default, nil when the default was cleared. Previous and Current
// carry the old and new default id or active wakeword.
type Change struct {
	Kind     ChangeKind
	Agent    *VoiceAgent
	Previous string
	Current  string
}

// Observer is notified synchronously of every registry change, on the goroutine
// that made the change. Observers are kept in a set, so implementations must be
// comparable (pointer receivers are the norm).
type Observer interface {
	OnVoiceAgentsChange(ctx context.Context, change Change)
}
