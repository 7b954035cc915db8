// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/holocube/internal/frames"
	"github.com/relabs-tech/holocube/internal/gesture"
	"github.com/relabs-tech/holocube/internal/gui"
	"github.com/relabs-tech/holocube/internal/imu"
	"github.com/relabs-tech/holocube/internal/render"
	"github.com/relabs-tech/holocube/internal/telemetry"
)

// StatusPublisher receives periodic playback status.
type StatusPublisher interface {
	PublishStatus(telemetry.PlaybackStatus)
}

// Orchestrator runs one main-loop iteration per Tick: GUI servicing, the
// gesture sensor path, animation playback and telemetry, in that order.
// Tick must be called from a single goroutine; Status may be called from any.
type Orchestrator struct {
	gui        *gui.GUI
	pipe       *render.Pipeline
	sampler    imu.Sampler // nil when the sensor never came up
	translator *gesture.Translator
	source     *frames.Source

	frameInterval time.Duration
	retryLimit    int
	telemetryEach time.Duration
	publisher     StatusPublisher

	staging    []byte
	flushing   bool
	next       int
	failures   int
	// framesFailing is set from the first failed load until the next success
	framesFailing bool
	skippedRun    int
	lastTick   time.Time
	lastFrame  time.Time
	lastStatus time.Time
	sensorDown bool

	mu     sync.RWMutex
	status telemetry.PlaybackStatus
}

// Options configures the orchestrator's pacing.
type Options struct {
	FrameInterval     time.Duration
	RetryLimit        int
	TelemetryInterval time.Duration
}

func NewOrchestrator(g *gui.GUI, pipe *render.Pipeline, sampler imu.Sampler, tr *gesture.Translator, src *frames.Source, opts Options) *Orchestrator {
	if opts.RetryLimit < 0 {
		opts.RetryLimit = 0
	}
	o := &Orchestrator{
		gui:           g,
		pipe:          pipe,
		sampler:       sampler,
		translator:    tr,
		source:        src,
		frameInterval: opts.FrameInterval,
		retryLimit:    opts.RetryLimit,
		telemetryEach: opts.TelemetryInterval,
		sensorDown:    sampler == nil,
	}
	if src != nil {
		o.staging = make([]byte, src.FrameSize())
	}
	o.status.SensorOK = sampler != nil
	o.status.Screen = g.Screen().String()
	return o
}

// SetPublisher enables periodic status publishing.
func (o *Orchestrator) SetPublisher(p StatusPublisher) { o.publisher = p }

// Tick runs one loop iteration at time now.
func (o *Orchestrator) Tick(now time.Time) {
	// queued rendering first, so slow storage only delays the next frame
	o.gui.ServiceQueue()

	o.sensorTick(now)
	o.animationTick(now)
	o.telemetryTick(now)

	o.lastTick = now
}

func (o *Orchestrator) sensorTick(now time.Time) {
	elapsed := 0
	if !o.lastTick.IsZero() {
		elapsed = int(now.Sub(o.lastTick).Milliseconds())
	}

	sample := imu.Neutral(now.UnixMilli())
	if o.sampler != nil {
		s, err := o.sampler.Poll()
		switch {
		case err != nil && !o.sensorDown:
			log.Printf("holocube: sensor read failed, using neutral sample: %v", err)
			o.setSensor(false)
		case err == nil && o.sensorDown:
			log.Printf("holocube: sensor recovered")
			o.setSensor(true)
		}
		if err == nil {
			sample = s
		}
	}
	o.translator.Update(sample, elapsed)
}

func (o *Orchestrator) setSensor(ok bool) {
	o.sensorDown = !ok
	o.mu.Lock()
	o.status.SensorOK = ok
	o.mu.Unlock()
}

// animationTick loads the next frame and queues it. A failed load keeps the
// previous frame on screen and retries the same index; after retryLimit
// retries the index is skipped.
func (o *Orchestrator) animationTick(now time.Time) {
	active := o.gui.AnimationActive() && o.source != nil
	o.mu.Lock()
	o.status.Active = active
	o.status.Screen = o.gui.Screen().String()
	o.mu.Unlock()
	if !active {
		return
	}
	if !o.lastFrame.IsZero() && now.Sub(o.lastFrame) < o.frameInterval {
		return
	}
	if o.flushing {
		// staging is still owned by the pipeline
		return
	}
	o.lastFrame = now

	idx := o.next
	if _, err := o.source.LoadFrame(idx, o.staging); err != nil {
		o.loadFailed(idx, err)
		return
	}
	o.failures = 0
	o.next = o.source.Normalize(idx + 1)
	if o.framesFailing {
		log.Printf("holocube: frames recovered at %d/%d, %d skipped", idx, o.source.Count(), o.skippedRun)
		o.framesFailing = false
		o.skippedRun = 0
	}

	o.flushing = true
	o.gui.RequestFlush(o.pipe.Bounds(), o.staging, func() {
		o.flushing = false
		o.mu.Lock()
		o.status.Index = idx
		o.status.Displayed++
		o.mu.Unlock()
	})
}

func (o *Orchestrator) loadFailed(idx int, err error) {
	o.failures++
	o.mu.Lock()
	o.status.Errors++
	o.mu.Unlock()

	if !o.framesFailing {
		o.framesFailing = true
		kind := "read error"
		switch {
		case errors.Is(err, frames.ErrNotFound):
			kind = "missing"
		case errors.Is(err, frames.ErrShortRead):
			kind = "corrupt"
		}
		log.Printf("holocube: frame %d/%d %s, holding previous frame: %v", idx, o.source.Count(), kind, err)
	}
	if o.failures <= o.retryLimit {
		return
	}

	o.failures = 0
	o.skippedRun++
	o.next = o.source.Normalize(idx + 1)
	o.mu.Lock()
	o.status.Skipped++
	o.mu.Unlock()
}

func (o *Orchestrator) telemetryTick(now time.Time) {
	if o.publisher == nil || o.telemetryEach <= 0 {
		return
	}
	if !o.lastStatus.IsZero() && now.Sub(o.lastStatus) < o.telemetryEach {
		return
	}
	o.lastStatus = now
	o.publisher.PublishStatus(o.Status())
}

// Status returns a copy of the playback state.
func (o *Orchestrator) Status() telemetry.PlaybackStatus {
	o.mu.RLock()
	st := o.status
	o.mu.RUnlock()
	st.Brightness = o.pipe.Intensity()
	return st
}
