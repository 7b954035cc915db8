package render

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// Backlight drives panel brightness. duty is already clamped to [0, 1].
type Backlight interface {
	SetDuty(duty float64) error
}

// NopBacklight ignores every request.
type NopBacklight struct{}

func (NopBacklight) SetDuty(float64) error { return nil }

// RecordingBacklight remembers the duties it was given.
type RecordingBacklight struct {
	mu     sync.Mutex
	duties []float64
}

func (r *RecordingBacklight) SetDuty(d float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duties = append(r.duties, d)
	return nil
}

// Duties returns every duty set so far.
func (r *RecordingBacklight) Duties() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.duties...)
}

// Last returns the most recent duty, or 0.
func (r *RecordingBacklight) Last() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.duties) == 0 {
		return 0
	}
	return r.duties[len(r.duties)-1]
}

// pwmLevels is the resolution of the backlight channel.
const pwmLevels = 255

// PWMBacklight drives a GPIO pin with hardware PWM at 8-bit resolution.
// With activeLow set the pin is low for the "on" part of the cycle.
type PWMBacklight struct {
	pin       gpio.PinOut
	freq      physic.Frequency
	activeLow bool
	level     int
}

// NewPWMBacklight wraps an already resolved pin.
func NewPWMBacklight(pin gpio.PinOut, freqHz int, activeLow bool) *PWMBacklight {
	return &PWMBacklight{
		pin:       pin,
		freq:      physic.Frequency(freqHz) * physic.Hertz,
		activeLow: activeLow,
		level:     -1,
	}
}

// OpenPWMBacklight looks up name in the gpio registry.
func OpenPWMBacklight(name string, freqHz int, activeLow bool) (*PWMBacklight, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("backlight pin %q not found", name)
	}
	return NewPWMBacklight(pin, freqHz, activeLow), nil
}

// Level quantises duty to 0..255.
func Level(duty float64) int {
	return int(math.Round(Clamp01(duty) * pwmLevels))
}

func (b *PWMBacklight) SetDuty(duty float64) error {
	level := Level(duty)
	if level == b.level {
		return nil
	}
	out := level
	if b.activeLow {
		out = pwmLevels - level
	}
	d := gpio.Duty(int64(out) * int64(gpio.DutyMax) / pwmLevels)
	if err := b.pin.PWM(d, b.freq); err != nil {
		return fmt.Errorf("pwm %s: %w", b.pin, err)
	}
	b.level = level
	return nil
}

// SysfsBacklight writes /sys/class/backlight/<name>/brightness.
type SysfsBacklight struct {
	BrightnessPath string
	MaxPath        string
}

// DiscoverSysfsBacklight picks the first usable device under root
// (normally /sys/class/backlight).
func DiscoverSysfsBacklight(root string) (*SysfsBacklight, error) {
	ents, err := filepath.Glob(filepath.Join(root, "*"))
	if err != nil || len(ents) == 0 {
		return nil, errors.New("no backlight device under " + root)
	}
	for _, d := range ents {
		bp := filepath.Join(d, "brightness")
		mp := filepath.Join(d, "max_brightness")
		if _, err := os.Stat(bp); err != nil {
			continue
		}
		if _, err := os.Stat(mp); err != nil {
			continue
		}
		return &SysfsBacklight{BrightnessPath: bp, MaxPath: mp}, nil
	}
	return nil, errors.New("no backlight with brightness/max_brightness under " + root)
}

func (b *SysfsBacklight) Max() (int, error) {
	v, err := readInt(b.MaxPath)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid max_brightness %d", v)
	}
	return v, nil
}

func (b *SysfsBacklight) SetDuty(duty float64) error {
	maxV, err := b.Max()
	if err != nil {
		return err
	}
	raw := int(math.Round(Clamp01(duty) * float64(maxV)))
	return os.WriteFile(b.BrightnessPath, []byte(strconv.Itoa(raw)), 0o644)
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}
