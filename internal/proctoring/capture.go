package proctoring

import (
	"context"
	"sync"
)

// CaptureDriver owns the physical camera. Stop must release the device.
type CaptureDriver interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Capabilities says which monitoring channels a deployment requires.
type Capabilities struct {
	CameraRequired     bool `json:"camera_required"`
	MicrophoneRequired bool `json:"microphone_required"`
}

type ChannelMode string

const (
	ModeMonitored   ChannelMode = "monitored"
	ModeUnmonitored ChannelMode = "unmonitored"
	ModeDisabled    ChannelMode = "disabled"
)

// RemoteCaptureDriver is used when the camera lives in the candidate's browser. It only
// records the requested state; the client reads it and acquires or releases the device.
type RemoteCaptureDriver struct {
	mu      sync.Mutex
	running bool
}

func NewRemoteCaptureDriver() *RemoteCaptureDriver {
	return &RemoteCaptureDriver{}
}

func (d *RemoteCaptureDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}
	d.running = true
	return nil
}

func (d *RemoteCaptureDriver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	d.running = false
	return nil
}

func (d *RemoteCaptureDriver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
