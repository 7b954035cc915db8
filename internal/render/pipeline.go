// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package render pushes pixel data to the display controller and drives the
// backlight.
package render

import (
	"log"
	"sync"
)

// Pipeline transfers pixel rectangles to a Panel and keeps a shadow copy of
// what the panel shows. A caller handing pixels to Flush must not touch them
// until the completion callback runs.
type Pipeline struct {
	panel     Panel
	backlight Backlight
	bandLines int

	mu        sync.RWMutex
	shadow    *RGB565
	intensity float64
	flushes   int
	rejected  int
}

// NewPipeline wires a panel and backlight. bandLines bounds the height of each
// partial transfer made by FlushFrame.
func NewPipeline(panel Panel, backlight Backlight, bandLines int) *Pipeline {
	if backlight == nil {
		backlight = NopBacklight{}
	}
	if bandLines <= 0 {
		bandLines = panel.Height()
	}
	return &Pipeline{
		panel:     panel,
		backlight: backlight,
		bandLines: bandLines,
		shadow:    NewRGB565(panel.Width(), panel.Height()),
	}
}

func (p *Pipeline) Width() int  { return p.panel.Width() }
func (p *Pipeline) Height() int { return p.panel.Height() }

// Bounds is the full-panel region.
func (p *Pipeline) Bounds() Region { return Full(p.panel.Width(), p.panel.Height()) }

// Flush transfers pixels (row-major, region.Width()*2 bytes per row) into
// region and then calls done exactly once. It never fails from the caller's
// point of view: a region that is empty, outside the panel or short of pixel
// data is dropped and logged.
func (p *Pipeline) Flush(region Region, pixels []byte, done func()) {
	defer func() {
		if done != nil {
			done()
		}
	}()

	w, h := p.panel.Width(), p.panel.Height()
	if !region.Within(w, h) {
		p.reject("region %s outside %dx%d panel", region, w, h)
		return
	}

	need := region.Pixels() * BytesPerPixel
	if len(pixels) < need {
		p.reject("region %s needs %d bytes, got %d", region, need, len(pixels))
		return
	}

	p.panel.BeginTransfer()
	p.panel.SetWindow(region)
	p.panel.PushPixels(pixels[:need])
	p.panel.EndTransfer()

	p.mirror(region, pixels[:need])
}

// FlushFrame transfers a full-panel frame in bands of bandLines rows, then
// calls done once after the last band.
func (p *Pipeline) FlushFrame(pixels []byte, done func()) {
	w, h := p.panel.Width(), p.panel.Height()
	rowBytes := w * BytesPerPixel
	if len(pixels) < rowBytes*h {
		p.Flush(Full(w, h), pixels, done)
		return
	}
	for y := 0; y < h; y += p.bandLines {
		y2 := y + p.bandLines - 1
		if y2 > h-1 {
			y2 = h - 1
		}
		band := Region{X1: 0, Y1: y, X2: w - 1, Y2: y2}
		p.Flush(band, pixels[y*rowBytes:(y2+1)*rowBytes], nil)
	}
	if done != nil {
		done()
	}
}

// Rejected counts flushes dropped for a bad region or short pixel data.
func (p *Pipeline) Rejected() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rejected
}

func (p *Pipeline) reject(format string, args ...any) {
	p.mu.Lock()
	p.rejected++
	p.mu.Unlock()
	log.Printf("render: dropped flush: "+format, args...)
}

// mirror copies a completed transfer into the shadow buffer.
func (p *Pipeline) mirror(r Region, pixels []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.flushes++
	rowBytes := r.Width() * BytesPerPixel
	for row := 0; row < r.Height(); row++ {
		dst := p.shadow.offset(r.X1, r.Y1+row)
		copy(p.shadow.Pix[dst:dst+rowBytes], pixels[row*rowBytes:(row+1)*rowBytes])
	}
}

// Snapshot copies what the panel currently shows.
func (p *Pipeline) Snapshot() *RGB565 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := NewRGB565(p.shadow.Rect.Dx(), p.shadow.Rect.Dy())
	copy(cp.Pix, p.shadow.Pix)
	return cp
}

// Flushes counts transfers that reached the panel.
func (p *Pipeline) Flushes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.flushes
}

// SetIntensity sets the backlight. duty is clamped to [0, 1].
func (p *Pipeline) SetIntensity(duty float64) {
	duty = Clamp01(duty)

	p.mu.Lock()
	p.intensity = duty
	p.mu.Unlock()

	if err := p.backlight.SetDuty(duty); err != nil {
		log.Printf("render: backlight: %v", err)
	}
}

// Intensity returns the last intensity set.
func (p *Pipeline) Intensity() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.intensity
}

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
