// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"fmt"
	"io"
	"log"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/holocube/internal/config"
)

// ST7789 command set used here.
const (
	cmdSWRESET = 0x01
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVON   = 0x21
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A

	colmod16bit = 0x55

	// controller RAM is 240x320; rotated 240x240 panels sit at the far end
	ramOffset = 80

	defaultMaxTx = 4096
)

var madctl = [4]byte{0x00, 0x60, 0xC0, 0xA0}

type txConn interface {
	Tx(w, r []byte) error
}

// ST7789 is an SPI TFT controller with a data/command pin and an optional
// reset pin.
type ST7789 struct {
	conn     txConn
	dc       gpio.PinOut
	rst      gpio.PinOut
	closer   io.Closer
	w, h     int
	rotation byte
	maxTx    int

	errs    int
	lastLog time.Time
	lastErr error
}

// OpenST7789 brings up the SPI port and pins named in cfg and initialises
// the controller.
func OpenST7789(cfg *config.Config) (*ST7789, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}

	port, err := spireg.Open(cfg.DisplaySPIDevice)
	if err != nil {
		return nil, fmt.Errorf("open spi %s: %w", cfg.DisplaySPIDevice, err)
	}
	c, err := port.Connect(physic.Frequency(cfg.DisplaySPISpeedMHz)*physic.MegaHertz, spi.Mode3, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi: %w", err)
	}

	dc := gpioreg.ByName(cfg.DisplayDCPin)
	if dc == nil {
		port.Close()
		return nil, fmt.Errorf("dc pin %q not found", cfg.DisplayDCPin)
	}
	var rst gpio.PinOut
	if cfg.DisplayRSTPin != "" {
		if p := gpioreg.ByName(cfg.DisplayRSTPin); p != nil {
			rst = p
		} else {
			log.Printf("display: reset pin %q not found, using software reset only", cfg.DisplayRSTPin)
		}
	}

	d := NewST7789(c, dc, rst, cfg.DisplayWidth, cfg.DisplayHeight, cfg.DisplayRotation)
	d.closer = port
	if err := d.Init(); err != nil {
		port.Close()
		return nil, err
	}
	log.Printf("display: st7789 %dx%d on %s at %d MHz", cfg.DisplayWidth, cfg.DisplayHeight, cfg.DisplaySPIDevice, cfg.DisplaySPISpeedMHz)
	return d, nil
}

// NewST7789 wraps an already connected bus. rst may be nil.
func NewST7789(c txConn, dc, rst gpio.PinOut, w, h int, rotation byte) *ST7789 {
	maxTx := defaultMaxTx
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		maxTx = l.MaxTxSize()
	}
	return &ST7789{conn: c, dc: dc, rst: rst, w: w, h: h, rotation: rotation % 4, maxTx: maxTx}
}

func (d *ST7789) Width() int  { return d.w }
func (d *ST7789) Height() int { return d.h }

// Init resets the controller and configures 16-bit colour.
func (d *ST7789) Init() error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("display reset: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("display reset: %w", err)
		}
		time.Sleep(120 * time.Millisecond)
	}

	seq := []struct {
		cmd   byte
		data  []byte
		delay time.Duration
	}{
		{cmdSWRESET, nil, 150 * time.Millisecond},
		{cmdSLPOUT, nil, 120 * time.Millisecond},
		{cmdCOLMOD, []byte{colmod16bit}, 10 * time.Millisecond},
		{cmdMADCTL, []byte{madctl[d.rotation]}, 0},
		{cmdINVON, nil, 10 * time.Millisecond},
		{cmdNORON, nil, 10 * time.Millisecond},
		{cmdDISPON, nil, 10 * time.Millisecond},
	}
	for _, s := range seq {
		if err := d.command(s.cmd, s.data...); err != nil {
			return fmt.Errorf("display init 0x%02X: %w", s.cmd, err)
		}
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
	}
	return nil
}

func (d *ST7789) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.data(data)
}

func (d *ST7789) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(b) > 0 {
		n := len(b)
		if n > d.maxTx {
			n = d.maxTx
		}
		if err := d.conn.Tx(b[:n], nil); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// offsets returns the column and row shift for the current rotation.
func (d *ST7789) offsets() (int, int) {
	switch d.rotation {
	case 2:
		return 0, ramOffset
	case 3:
		return ramOffset, 0
	}
	return 0, 0
}

func (d *ST7789) BeginTransfer() { d.lastErr = nil }

func (d *ST7789) SetWindow(r Region) {
	if d.lastErr != nil {
		return
	}
	ox, oy := d.offsets()
	x1, x2 := uint16(r.X1+ox), uint16(r.X2+ox)
	y1, y2 := uint16(r.Y1+oy), uint16(r.Y2+oy)
	if err := d.command(cmdCASET, byte(x1>>8), byte(x1), byte(x2>>8), byte(x2)); err != nil {
		d.lastErr = err
		return
	}
	if err := d.command(cmdRASET, byte(y1>>8), byte(y1), byte(y2>>8), byte(y2)); err != nil {
		d.lastErr = err
		return
	}
	d.lastErr = d.command(cmdRAMWR)
}

func (d *ST7789) PushPixels(b []byte) {
	if d.lastErr != nil {
		return
	}
	d.lastErr = d.data(b)
}

// EndTransfer logs a failed transfer, at most once a second.
func (d *ST7789) EndTransfer() {
	if d.lastErr == nil {
		return
	}
	d.errs++
	if time.Since(d.lastLog) >= time.Second {
		log.Printf("display: transfer failed (%d so far): %v", d.errs, d.lastErr)
		d.lastLog = time.Now()
	}
}

// Errors counts failed transfers.
func (d *ST7789) Errors() int { return d.errs }

func (d *ST7789) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
