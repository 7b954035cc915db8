// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/holocube/internal/imu"
)

// mockPressEvery is the period of the simulated forward tilt.
const mockPressEvery = 10 * time.Second

type mockSampler struct {
	start time.Time
	peak  float64
	press int16
}

// NewMockSampler creates a sampler that tilts the cube slowly left and right,
// peaking at twice the rotation threshold (capped at full scale), and tips it forward past the
// press threshold for half a second every ten seconds.
func NewMockSampler(rotateThreshold, pressThreshold int) imu.Sampler {
	press := pressThreshold + pressThreshold/2
	if press > math.MaxInt16 {
		press = math.MaxInt16
	}
	peak := 2 * float64(rotateThreshold)
	if peak > math.MaxInt16 {
		peak = math.MaxInt16
	}
	return &mockSampler{start: time.Now(), peak: peak, press: int16(press)}
}

func (m *mockSampler) Poll() (imu.Sample, error) {
	return m.at(time.Since(m.start)), nil
}

func (m *mockSampler) at(elapsed time.Duration) imu.Sample {
	secs := elapsed.Seconds()
	s := imu.Sample{
		Ay:          int16(m.peak * math.Sin(secs*0.8)),
		Az:          16384, // 1g at ±2g range
		Gz:          int16(200 * math.Cos(secs*0.8)),
		TimestampMS: elapsed.Milliseconds(),
	}
	if elapsed%mockPressEvery < mockPressEvery/20 {
		s.Ax = m.press
	}
	return s
}

// Step is one scripted poll result.
type Step struct {
	Sample imu.Sample
	Err    error
}

// Scripted replays a fixed sequence of poll results and then keeps
// returning the last one. It is safe for concurrent use.
type Scripted struct {
	mu    sync.Mutex
	steps []Step
	next  int
	polls int
}

// NewScripted builds a Scripted sampler from steps.
func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

// LateralSteps is a helper producing one step per lateral acceleration value.
func LateralSteps(ay ...int16) []Step {
	steps := make([]Step, len(ay))
	for i, v := range ay {
		steps[i] = Step{Sample: imu.Sample{Ay: v}}
	}
	return steps
}

func (s *Scripted) Poll() (imu.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.polls++
	if len(s.steps) == 0 {
		return imu.Sample{}, nil
	}
	st := s.steps[s.next]
	if s.next < len(s.steps)-1 {
		s.next++
	}
	return st.Sample, st.Err
}

// Polls reports how many times Poll was called.
func (s *Scripted) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}
