package proctoring

import (
	"math"
	"sync"
	"time"
)

type Status string

const (
	StatusOK      Status = "OK"
	StatusWarning Status = "WARNING"
	StatusNoFace  Status = "NO_FACE"
)

// Point is a normalized landmark coordinate as produced by the face-mesh extractor.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Landmarks holds the three points the head-pose heuristic needs.
type Landmarks struct {
	NoseTip       Point `json:"nose_tip"`
	LeftEyeOuter  Point `json:"left_eye_outer"`
	RightEyeOuter Point `json:"right_eye_outer"`
}

// Frame is one capture-driver sample. Nil Landmarks means no face was found.
type Frame struct {
	Landmarks  *Landmarks
	CapturedAt time.Time
}

// Thresholds are the tunables of the gaze heuristic.
type Thresholds struct {
	YawLowerBound       float64
	YawUpperBound       float64
	LookAwayStreakLimit int
	NoFaceStreakLimit   int
	LookAwayCooldown    time.Duration
	NoFaceCooldown      time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		YawLowerBound:       0.25,
		YawUpperBound:       0.75,
		LookAwayStreakLimit: 20,
		NoFaceStreakLimit:   30,
		LookAwayCooldown:    3 * time.Second,
		NoFaceCooldown:      5 * time.Second,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.YawLowerBound <= 0 || t.YawUpperBound <= 0 || t.YawLowerBound >= t.YawUpperBound {
		t.YawLowerBound, t.YawUpperBound = d.YawLowerBound, d.YawUpperBound
	}
	if t.LookAwayStreakLimit <= 0 {
		t.LookAwayStreakLimit = d.LookAwayStreakLimit
	}
	if t.NoFaceStreakLimit <= 0 {
		t.NoFaceStreakLimit = d.NoFaceStreakLimit
	}
	if t.LookAwayCooldown <= 0 {
		t.LookAwayCooldown = d.LookAwayCooldown
	}
	if t.NoFaceCooldown <= 0 {
		t.NoFaceCooldown = d.NoFaceCooldown
	}
	return t
}

// FrameResult describes how a single frame was classified.
type FrameResult struct {
	Status    Status          `json:"status"`
	YawRatio  float64         `json:"yaw_ratio,omitempty"`
	Streak    int             `json:"streak"`
	Violation *ViolationEvent `json:"violation,omitempty"`
}

// GazeDetector is a debounced, leaky-bucket head-pose classifier. Sustained deviation
// is needed before anything is emitted, and each kind has its own cooldown window.
type GazeDetector struct {
	mu            sync.Mutex
	thresholds    Thresholds
	sink          ViolationSink
	status        Status
	streak        int
	lastEmittedAt map[ViolationKind]time.Time
}

func NewGazeDetector(thresholds Thresholds, sink ViolationSink) *GazeDetector {
	return &GazeDetector{
		thresholds:    thresholds.withDefaults(),
		sink:          sink,
		status:        StatusOK,
		lastEmittedAt: make(map[ViolationKind]time.Time),
	}
}

// Process classifies one frame. Calls are serialized; the capture driver is expected
// not to overlap frames, the mutex only guards against a misbehaving client.
func (d *GazeDetector) Process(frame Frame) FrameResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := frame.CapturedAt
	if now.IsZero() {
		now = time.Now()
	}

	if frame.Landmarks == nil {
		return d.noFace(now)
	}

	ratio, ok := YawRatio(*frame.Landmarks)
	if !ok {
		return d.noFace(now)
	}

	if ratio < d.thresholds.YawLowerBound || ratio > d.thresholds.YawUpperBound {
		d.status = StatusWarning
		d.streak++
		res := FrameResult{Status: d.status, YawRatio: ratio}
		if d.streak > d.thresholds.LookAwayStreakLimit && d.cooledDown(LookingAway, now, d.thresholds.LookAwayCooldown) {
			res.Violation = d.emit(LookingAway, now)
			d.streak = 0
		}
		res.Streak = d.streak
		return res
	}

	d.status = StatusOK
	if d.streak > 0 {
		d.streak--
	}
	return FrameResult{Status: d.status, YawRatio: ratio, Streak: d.streak}
}

func (d *GazeDetector) noFace(now time.Time) FrameResult {
	d.status = StatusNoFace
	d.streak++
	res := FrameResult{Status: d.status}
	if d.streak > d.thresholds.NoFaceStreakLimit && d.cooledDown(NoFace, now, d.thresholds.NoFaceCooldown) {
		res.Violation = d.emit(NoFace, now)
	}
	res.Streak = d.streak
	return res
}

func (d *GazeDetector) cooledDown(kind ViolationKind, now time.Time, window time.Duration) bool {
	last, ok := d.lastEmittedAt[kind]
	if !ok {
		return true
	}
	return now.Sub(last) > window
}

func (d *GazeDetector) emit(kind ViolationKind, now time.Time) *ViolationEvent {
	d.lastEmittedAt[kind] = now
	ev := &ViolationEvent{Kind: kind, OccurredAt: now}
	if d.sink != nil {
		d.sink.RecordViolation(kind, now)
	}
	return ev
}

func (d *GazeDetector) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *GazeDetector) Streak() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streak
}

// Reset clears classification state, used when a monitored stage is re-entered.
func (d *GazeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = StatusOK
	d.streak = 0
	d.lastEmittedAt = make(map[ViolationKind]time.Time)
}

// YawRatio is the share of the horizontal nose-to-eye distance on the left side. 0.5 is
// centered. Only x is used; the eye corners sit above the nose and y would pull every
// ratio toward the middle. ok is false when the three points share one x.
func YawRatio(l Landmarks) (ratio float64, ok bool) {
	toLeft := horizontalDistance(l.NoseTip, l.LeftEyeOuter)
	toRight := horizontalDistance(l.NoseTip, l.RightEyeOuter)
	total := toLeft + toRight
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, false
	}
	return toLeft / total, true
}

func horizontalDistance(a, b Point) float64 {
	return math.Abs(a.X - b.X)
}
