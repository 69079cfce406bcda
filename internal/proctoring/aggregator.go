package proctoring

import (
	"strings"
	"sync"
	"time"
)

const (
	VisibilityWarning = "You left the test page. This activity is recorded for the integrity assessment."
	ClipboardWarning  = "Copy, cut and the context menu are disabled during the test."
)

// RestrictedAction is a browser-level action the candidate may attempt.
type RestrictedAction string

const (
	ActionCopy        RestrictedAction = "copy"
	ActionCut         RestrictedAction = "cut"
	ActionContextMenu RestrictedAction = "contextmenu"
	ActionPaste       RestrictedAction = "paste"
)

func ParseRestrictedAction(s string) RestrictedAction {
	return RestrictedAction(strings.ToLower(strings.TrimSpace(s)))
}

// RestrictedOutcome tells the client whether to suppress the action.
type RestrictedOutcome struct {
	Blocked bool   `json:"blocked"`
	Warning string `json:"warning,omitempty"`
}

// Aggregator fuses every integrity signal into a single monotonic suspicion count.
// Signals only count while the aggregator is active, i.e. during a monitored stage.
type Aggregator struct {
	mu          sync.Mutex
	active      bool
	count       int
	pageHidden  bool
	onViolation func(ViolationEvent)
	onBlocked   func(RestrictedAction)
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// OnViolation registers a callback invoked after every counted violation.
func (a *Aggregator) OnViolation(fn func(ViolationEvent)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onViolation = fn
}

func (a *Aggregator) OnBlocked(fn func(RestrictedAction)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onBlocked = fn
}

func (a *Aggregator) SetActive(active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = active
	if !active {
		a.pageHidden = false
	}
}

func (a *Aggregator) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// RecordViolation adds exactly one regardless of kind. Repeated calls all count.
func (a *Aggregator) RecordViolation(kind ViolationKind, at time.Time) bool {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return false
	}
	a.count++
	hook := a.onViolation
	a.mu.Unlock()

	if hook != nil {
		hook(ViolationEvent{Kind: kind, OccurredAt: at})
	}
	return true
}

// VisibilityChanged counts each visible-to-hidden transition and returns the warning
// the candidate must see. Returning to visible only re-arms the transition.
func (a *Aggregator) VisibilityChanged(hidden bool, at time.Time) (warning string, counted bool) {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return "", false
	}
	wasHidden := a.pageHidden
	a.pageHidden = hidden
	a.mu.Unlock()

	if !hidden || wasHidden {
		return "", false
	}
	if !a.RecordViolation(TabHidden, at) {
		return "", false
	}
	return VisibilityWarning, true
}

// RestrictedAction blocks copy, cut and the context menu while active. It warns but
// never increments the count. Paste stays allowed.
func (a *Aggregator) RestrictedAction(action RestrictedAction) RestrictedOutcome {
	a.mu.Lock()
	active := a.active
	hook := a.onBlocked
	a.mu.Unlock()

	if !active {
		return RestrictedOutcome{}
	}
	switch action {
	case ActionCopy, ActionCut, ActionContextMenu:
		if hook != nil {
			hook(action)
		}
		return RestrictedOutcome{Blocked: true, Warning: ClipboardWarning}
	default:
		return RestrictedOutcome{}
	}
}

// Count is read once at submission time and frozen into the record.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// Reset zeroes the aggregator when the whole session is discarded.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count = 0
	a.active = false
	a.pageHidden = false
}
