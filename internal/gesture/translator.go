// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gesture turns raw accelerometer samples into encoder events.
//
// Tilting the cube sideways past the rotate threshold produces one detent;
// the lateral axis must return to the neutral band before another detent can
// fire. Tilting it forward past the press threshold holds the button down.
package gesture

import (
	"sync"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/imu"
	"github.com/relabs-tech/holocube/internal/input"
)

// Config holds the translator thresholds, in raw accelerometer LSBs.
type Config struct {
	SampleInterval  int // milliseconds between evaluated samples
	RotateThreshold int
	PressThreshold  int
	PressConfirm    int  // consecutive evaluated samples above PressThreshold
	Invert          bool // swap the rotation sign
}

// ConfigFrom extracts translator settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		SampleInterval:  cfg.GestureSampleInterval,
		RotateThreshold: cfg.GestureRotateThreshold,
		PressThreshold:  cfg.GesturePressThreshold,
		PressConfirm:    cfg.GesturePressConfirm,
		Invert:          cfg.GestureInvert,
	}
}

// Translator emulates a rotary encoder with push button. Update is called by
// the sampling path, Consume/Poll by exactly one reader.
type Translator struct {
	cfg Config

	mu        sync.Mutex
	armed     bool
	sinceEval int // ms accumulated since the last evaluated sample
	pressRun  int
	diff      int
	button    input.ButtonState
}

// New returns an armed translator. The first Update is always evaluated.
func New(cfg Config) *Translator {
	if cfg.PressConfirm < 1 {
		cfg.PressConfirm = 1
	}
	return &Translator{
		cfg:       cfg,
		armed:     true,
		sinceEval: cfg.SampleInterval,
	}
}

// Update feeds one sample. elapsedMS is the time since the previous Update.
// Calls arriving before the sampling interval has accumulated are no-ops.
// It reports whether the sample was evaluated.
func (t *Translator) Update(s imu.Sample, elapsedMS int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if elapsedMS > 0 {
		t.sinceEval += elapsedMS
	}
	if t.sinceEval < t.cfg.SampleInterval {
		return false
	}
	t.sinceEval = 0

	t.evalRotation(int(s.Ay))
	t.evalPress(int(s.Ax))
	return true
}

func (t *Translator) evalRotation(ay int) {
	step := 1
	if t.cfg.Invert {
		step = -1
	}

	switch {
	case ay > t.cfg.RotateThreshold:
		if t.armed {
			t.diff -= step
			t.armed = false
		}
	case ay < -t.cfg.RotateThreshold:
		if t.armed {
			t.diff += step
			t.armed = false
		}
	default:
		t.armed = true
	}
}

// evalPress is level triggered. With PressConfirm == 1 a single sample above
// the threshold presses the button.
func (t *Translator) evalPress(ax int) {
	if ax > t.cfg.PressThreshold {
		t.pressRun++
	} else {
		t.pressRun = 0
	}
	if t.pressRun >= t.cfg.PressConfirm {
		t.button = input.Pressed
	} else {
		t.button = input.Released
	}
}

// Consume returns the accumulated rotation and the current button level,
// then clears the rotation.
func (t *Translator) Consume() input.EncoderEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	ev := input.EncoderEvent{RotationDelta: t.diff, Button: t.button}
	t.diff = 0
	return ev
}

// Poll implements input.InputSource.
func (t *Translator) Poll() input.EncoderEvent {
	return t.Consume()
}

// Armed reports whether the next threshold crossing will fire.
func (t *Translator) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}
