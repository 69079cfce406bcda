package proctoring

import "time"

type ViolationKind string

const (
	LookingAway  ViolationKind = "LOOKING_AWAY"
	NoFace       ViolationKind = "NO_FACE"
	TabHidden    ViolationKind = "TAB_HIDDEN"
	ClipboardUse ViolationKind = "CLIPBOARD_USE"
)

// ViolationEvent is ephemeral, only its count survives in the session.
type ViolationEvent struct {
	Kind       ViolationKind `json:"kind"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// ViolationSink receives violations emitted by a detector.
type ViolationSink interface {
	RecordViolation(kind ViolationKind, at time.Time) bool
}
