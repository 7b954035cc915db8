// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gui is the small screen layer on top of the render pipeline. It
// reads the encoder-style input device, runs the home and scenes screens and
// drains queued flush requests once per ServiceQueue call.
package gui

import (
	"log"

	"github.com/relabs-tech/holocube/internal/input"
	"github.com/relabs-tech/holocube/internal/render"
)

// Screen identifies the active screen.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenScenes
)

func (s Screen) String() string {
	if s == ScreenScenes {
		return "scenes"
	}
	return "home"
}

// BrightnessStep is the intensity change per rotation detent on the home
// screen.
const BrightnessStep = 0.1

type flushRequest struct {
	region     render.Region
	pixels     []byte
	onComplete func()
}

// GUI owns the draw buffer and the flush queue. It is not safe for
// concurrent use; everything runs from the main loop.
type GUI struct {
	pipe    *render.Pipeline
	canvas  *render.RGB565
	queue   []flushRequest
	indev   input.InputSource
	onEvent func(input.EncoderEvent)

	screen     Screen
	dirty      bool
	lastButton input.ButtonState
}

// New creates a GUI on the home screen.
func New(pipe *render.Pipeline) *GUI {
	return &GUI{
		pipe:   pipe,
		canvas: render.NewRGB565(pipe.Width(), pipe.Height()),
		screen: ScreenHome,
	}
}

// RegisterInputDevice installs the encoder source polled on every
// ServiceQueue call. Events produced before registration are never seen.
func (g *GUI) RegisterInputDevice(src input.InputSource) {
	g.indev = src
	g.dirty = true
	log.Printf("gui: input device registered")
}

// OnEvent sets a hook called with every non-idle encoder event.
func (g *GUI) OnEvent(fn func(input.EncoderEvent)) { g.onEvent = fn }

// RequestFlush queues a transfer. pixels stay owned by the pipeline until
// onComplete runs.
func (g *GUI) RequestFlush(region render.Region, pixels []byte, onComplete func()) {
	g.queue = append(g.queue, flushRequest{region: region, pixels: pixels, onComplete: onComplete})
}

// Pending is the number of queued flushes.
func (g *GUI) Pending() int { return len(g.queue) }

// Screen returns the active screen.
func (g *GUI) Screen() Screen { return g.screen }

// AnimationActive reports whether frame playback should run.
func (g *GUI) AnimationActive() bool { return g.screen == ScreenScenes }

// ShowSplash draws the boot screen and queues it.
func (g *GUI) ShowSplash(version string) {
	drawSplash(g.canvas, version)
	g.RequestFlush(g.pipe.Bounds(), g.canvas.Pix, nil)
}

// ServiceQueue drains flushes queued since the last call, reads the input
// device, updates the active screen and drains whatever that queued.
func (g *GUI) ServiceQueue() {
	g.drain()

	if g.indev != nil {
		g.handle(g.indev.Poll())
	}
	if g.dirty {
		g.redraw()
		g.dirty = false
	}

	g.drain()
}

// drain runs the requests queued so far. Requests queued by a completion
// callback wait for the next drain.
func (g *GUI) drain() {
	pending := g.queue
	g.queue = nil
	for _, req := range pending {
		if req.region == g.pipe.Bounds() {
			g.pipe.FlushFrame(req.pixels, req.onComplete)
		} else {
			g.pipe.Flush(req.region, req.pixels, req.onComplete)
		}
	}
}

func (g *GUI) handle(ev input.EncoderEvent) {
	pressed := ev.Button == input.Pressed && g.lastButton == input.Released
	if ev.RotationDelta != 0 || ev.Button != g.lastButton {
		if g.onEvent != nil {
			g.onEvent(ev)
		}
	}
	g.lastButton = ev.Button

	switch g.screen {
	case ScreenHome:
		if ev.RotationDelta != 0 {
			g.pipe.SetIntensity(g.pipe.Intensity() + float64(ev.RotationDelta)*BrightnessStep)
			g.dirty = true
		}
		if pressed {
			g.setScreen(ScreenScenes)
		}
	case ScreenScenes:
		if pressed {
			g.setScreen(ScreenHome)
		}
	}
}

func (g *GUI) setScreen(s Screen) {
	if g.screen == s {
		return
	}
	log.Printf("gui: screen %s -> %s", g.screen, s)
	g.screen = s
	g.dirty = true
}

func (g *GUI) redraw() {
	switch g.screen {
	case ScreenHome:
		drawHome(g.canvas, g.pipe.Intensity())
	case ScreenScenes:
		drawBlank(g.canvas)
	}
	g.RequestFlush(g.pipe.Bounds(), g.canvas.Pix, nil)
}
