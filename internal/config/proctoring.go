package config

import (
	"sync"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/proctoring"
)

type ProctoringConfig struct {
	CameraRequired     bool `env:"PROCTOR_CAMERA_REQUIRED" envDefault:"true"`
	MicrophoneRequired bool `env:"PROCTOR_MICROPHONE_REQUIRED" envDefault:"false"`

	YawLower         float64       `env:"PROCTOR_YAW_LOWER" envDefault:"0.25"`
	YawUpper         float64       `env:"PROCTOR_YAW_UPPER" envDefault:"0.75"`
	LookAwayStreak   int           `env:"PROCTOR_LOOK_AWAY_STREAK" envDefault:"20"`
	NoFaceStreak     int           `env:"PROCTOR_NO_FACE_STREAK" envDefault:"30"`
	LookAwayCooldown time.Duration `env:"PROCTOR_LOOK_AWAY_COOLDOWN" envDefault:"3s"`
	NoFaceCooldown   time.Duration `env:"PROCTOR_NO_FACE_COOLDOWN" envDefault:"5s"`
}

func (c *ProctoringConfig) Thresholds() proctoring.Thresholds {
	return proctoring.Thresholds{
		YawLowerBound:       c.YawLower,
		YawUpperBound:       c.YawUpper,
		LookAwayStreakLimit: c.LookAwayStreak,
		NoFaceStreakLimit:   c.NoFaceStreak,
		LookAwayCooldown:    c.LookAwayCooldown,
		NoFaceCooldown:      c.NoFaceCooldown,
	}
}

func (c *ProctoringConfig) Capabilities() proctoring.Capabilities {
	return proctoring.Capabilities{
		CameraRequired:     c.CameraRequired,
		MicrophoneRequired: c.MicrophoneRequired,
	}
}

var (
	proctoringConfig *ProctoringConfig
	proctoringOnce   sync.Once
)

func LoadProctoringConfig() *ProctoringConfig {
	proctoringOnce.Do(func() {
		proctoringConfig = &ProctoringConfig{}
		mustParse(proctoringConfig)
	})
	return proctoringConfig
}
