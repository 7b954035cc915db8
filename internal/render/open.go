package render

import (
	"fmt"
	"log"

	"github.com/relabs-tech/holocube/internal/config"
)

const sysfsBacklightRoot = "/sys/class/backlight"

// OpenPanel returns the display named by DISPLAY_DRIVER.
func OpenPanel(cfg *config.Config) (Panel, error) {
	switch cfg.DisplayDriver {
	case "st7789":
		return OpenST7789(cfg)
	case "memory":
		return NewMemoryPanel(cfg.DisplayWidth, cfg.DisplayHeight), nil
	default:
		return nil, fmt.Errorf("unknown display driver %q", cfg.DisplayDriver)
	}
}

// OpenBacklight returns the backlight named by BACKLIGHT_DRIVER.
func OpenBacklight(cfg *config.Config) (Backlight, error) {
	switch cfg.BacklightDriver {
	case "pwm":
		return OpenPWMBacklight(cfg.BacklightPin, cfg.BacklightPWMHz, cfg.BacklightActiveLow)
	case "sysfs":
		return DiscoverSysfsBacklight(sysfsBacklightRoot)
	case "none":
		return NopBacklight{}, nil
	default:
		return nil, fmt.Errorf("unknown backlight driver %q", cfg.BacklightDriver)
	}
}

// Open builds the pipeline from cfg and applies the boot intensity. A missing
// backlight is logged and the panel still comes up.
func Open(cfg *config.Config) (*Pipeline, error) {
	panel, err := OpenPanel(cfg)
	if err != nil {
		return nil, err
	}
	bl, err := OpenBacklight(cfg)
	if err != nil {
		log.Printf("render: backlight unavailable: %v", err)
		bl = NopBacklight{}
	}
	p := NewPipeline(panel, bl, cfg.DisplayBandLines)
	p.SetIntensity(cfg.BacklightDefault)
	return p, nil
}
