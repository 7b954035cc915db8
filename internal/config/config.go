// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// IMU Hardware
	IMUDriver    string // "mpu6050", "mpu9250" or "mock"
	IMUI2CBus    string
	IMUI2CAddr   uint16
	IMUSPIDevice string
	IMUCSPin     string

	// IMU bring-up
	IMUInitTimeout       int // milliseconds
	IMUInitRetryInterval int // milliseconds

	// Gesture translation (raw accelerometer LSBs)
	GestureSampleInterval  int // milliseconds
	GestureRotateThreshold int
	GesturePressThreshold  int
	GesturePressConfirm    int // consecutive samples above the press threshold
	GestureInvert          bool

	// Display
	DisplayDriver      string // "st7789" or "memory"
	DisplayWidth       int
	DisplayHeight      int
	DisplaySPIDevice   string
	DisplaySPISpeedMHz int
	DisplayDCPin       string
	DisplayRSTPin      string
	DisplayRotation    byte
	DisplayBandLines   int

	// Backlight
	BacklightDriver    string // "pwm", "sysfs" or "none"
	BacklightPin       string
	BacklightPWMHz     int
	BacklightActiveLow bool
	BacklightDefault   float64

	// Frames
	FrameDir        string
	FramePrefix     string
	FrameExt        string
	FrameCount      int
	FrameChunkSize  int
	FrameInterval   int // milliseconds
	FrameRetryLimit int

	// MQTT
	MQTTBroker   string
	MQTTClientID string

	// Topics
	TopicEncoder  string
	TopicPlayback string
	TopicIMU      string

	// Timing
	TelemetryInterval int // milliseconds

	// Preview
	PreviewAddr     string
	PreviewInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: set once by InitGlobal, read through Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration the HoloCubic firmware ships with.
// A config file only needs to name the keys it overrides.
func Default() *Config {
	return &Config{
		IMUDriver:            "mpu6050",
		IMUI2CAddr:           0x68,
		IMUSPIDevice:         "/dev/spidev0.1",
		IMUInitTimeout:       2000,
		IMUInitRetryInterval: 100,

		GestureSampleInterval:  200,
		GestureRotateThreshold: 3000,
		GesturePressThreshold:  10000,
		GesturePressConfirm:    1,

		DisplayDriver:      "st7789",
		DisplayWidth:       240,
		DisplayHeight:      240,
		DisplaySPIDevice:   "SPI0.0",
		DisplaySPISpeedMHz: 40,
		DisplayDCPin:       "GPIO25",
		DisplayRSTPin:      "GPIO27",
		DisplayBandLines:   10,

		BacklightDriver:    "pwm",
		BacklightPin:       "GPIO18",
		BacklightPWMHz:     5000,
		BacklightActiveLow: true,
		BacklightDefault:   0.2,

		FrameDir:        "/sd/Scenes/Holo3D",
		FramePrefix:     "frame",
		FrameExt:        ".bin",
		FrameCount:      138,
		FrameChunkSize:  512,
		FrameInterval:   33,
		FrameRetryLimit: 3,

		MQTTClientID:  "holocube",
		TopicEncoder:  "holocube/encoder",
		TopicPlayback: "holocube/playback",
		TopicIMU:      "holocube/imu",

		TelemetryInterval: 1000,
		PreviewInterval:   200,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error

	switch key {
	// IMU Hardware
	case "IMU_DRIVER":
		c.IMUDriver = value
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		c.IMUI2CAddr, err = parseAddr(key, value)
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_INIT_TIMEOUT":
		c.IMUInitTimeout, err = parseInt(key, value)
	case "IMU_INIT_RETRY_INTERVAL":
		c.IMUInitRetryInterval, err = parseInt(key, value)

	// Gesture
	case "GESTURE_SAMPLE_INTERVAL":
		c.GestureSampleInterval, err = parseInt(key, value)
	case "GESTURE_ROTATE_THRESHOLD":
		c.GestureRotateThreshold, err = parseInt(key, value)
	case "GESTURE_PRESS_THRESHOLD":
		c.GesturePressThreshold, err = parseInt(key, value)
	case "GESTURE_PRESS_CONFIRM":
		c.GesturePressConfirm, err = parseInt(key, value)
	case "GESTURE_INVERT":
		c.GestureInvert, err = parseBool(key, value)

	// Display
	case "DISPLAY_DRIVER":
		c.DisplayDriver = value
	case "DISPLAY_WIDTH":
		c.DisplayWidth, err = parseInt(key, value)
	case "DISPLAY_HEIGHT":
		c.DisplayHeight, err = parseInt(key, value)
	case "DISPLAY_SPI_DEVICE":
		c.DisplaySPIDevice = value
	case "DISPLAY_SPI_SPEED_MHZ":
		c.DisplaySPISpeedMHz, err = parseInt(key, value)
	case "DISPLAY_DC_PIN":
		c.DisplayDCPin = value
	case "DISPLAY_RST_PIN":
		c.DisplayRSTPin = value
	case "DISPLAY_ROTATION":
		rot, perr := strconv.Atoi(value)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_ROTATION %q: %w", value, perr)
		}
		if rot < 0 || rot > 3 {
			return fmt.Errorf("DISPLAY_ROTATION must be 0-3, got %d", rot)
		}
		c.DisplayRotation = byte(rot)
	case "DISPLAY_BAND_LINES":
		c.DisplayBandLines, err = parseInt(key, value)

	// Backlight
	case "BACKLIGHT_DRIVER":
		c.BacklightDriver = value
	case "BACKLIGHT_PIN":
		c.BacklightPin = value
	case "BACKLIGHT_PWM_HZ":
		c.BacklightPWMHz, err = parseInt(key, value)
	case "BACKLIGHT_ACTIVE_LOW":
		c.BacklightActiveLow, err = parseBool(key, value)
	case "BACKLIGHT_DEFAULT":
		duty, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			return fmt.Errorf("invalid BACKLIGHT_DEFAULT %q: %w", value, perr)
		}
		c.BacklightDefault = duty

	// Frames
	case "FRAME_DIR":
		c.FrameDir = value
	case "FRAME_PREFIX":
		c.FramePrefix = value
	case "FRAME_EXT":
		c.FrameExt = value
	case "FRAME_COUNT":
		c.FrameCount, err = parseInt(key, value)
	case "FRAME_CHUNK_SIZE":
		c.FrameChunkSize, err = parseInt(key, value)
	case "FRAME_INTERVAL":
		c.FrameInterval, err = parseInt(key, value)
	case "FRAME_RETRY_LIMIT":
		c.FrameRetryLimit, err = parseInt(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value

	// Topics
	case "TOPIC_ENCODER":
		c.TopicEncoder = value
	case "TOPIC_PLAYBACK":
		c.TopicPlayback = value
	case "TOPIC_IMU":
		c.TopicIMU = value

	// Timing
	case "TELEMETRY_INTERVAL":
		c.TelemetryInterval, err = parseInt(key, value)

	// Preview
	case "PREVIEW_ADDR":
		c.PreviewAddr = value
	case "PREVIEW_INTERVAL":
		c.PreviewInterval, err = parseInt(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return uint16(addr), nil
}

// validate checks ranges and driver names.
func (c *Config) validate() error {
	switch c.IMUDriver {
	case "mpu6050", "mpu9250", "mock":
	default:
		return fmt.Errorf("IMU_DRIVER must be mpu6050, mpu9250 or mock, got %q", c.IMUDriver)
	}
	switch c.DisplayDriver {
	case "st7789", "memory":
	default:
		return fmt.Errorf("DISPLAY_DRIVER must be st7789 or memory, got %q", c.DisplayDriver)
	}
	switch c.BacklightDriver {
	case "pwm", "sysfs", "none":
	default:
		return fmt.Errorf("BACKLIGHT_DRIVER must be pwm, sysfs or none, got %q", c.BacklightDriver)
	}

	positive := []struct {
		name  string
		value int
	}{
		{"IMU_INIT_TIMEOUT", c.IMUInitTimeout},
		{"IMU_INIT_RETRY_INTERVAL", c.IMUInitRetryInterval},
		{"GESTURE_SAMPLE_INTERVAL", c.GestureSampleInterval},
		{"GESTURE_ROTATE_THRESHOLD", c.GestureRotateThreshold},
		{"GESTURE_PRESS_THRESHOLD", c.GesturePressThreshold},
		{"GESTURE_PRESS_CONFIRM", c.GesturePressConfirm},
		{"DISPLAY_WIDTH", c.DisplayWidth},
		{"DISPLAY_HEIGHT", c.DisplayHeight},
		{"DISPLAY_BAND_LINES", c.DisplayBandLines},
		{"FRAME_COUNT", c.FrameCount},
		{"FRAME_CHUNK_SIZE", c.FrameChunkSize},
		{"FRAME_INTERVAL", c.FrameInterval},
		{"TELEMETRY_INTERVAL", c.TelemetryInterval},
		{"PREVIEW_INTERVAL", c.PreviewInterval},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.FrameRetryLimit < 0 {
		return fmt.Errorf("FRAME_RETRY_LIMIT must not be negative, got %d", c.FrameRetryLimit)
	}
	if c.DisplayDriver == "st7789" && c.DisplaySPISpeedMHz <= 0 {
		return fmt.Errorf("DISPLAY_SPI_SPEED_MHZ must be positive, got %d", c.DisplaySPISpeedMHz)
	}
	if c.BacklightDriver == "pwm" && c.BacklightPWMHz <= 0 {
		return fmt.Errorf("BACKLIGHT_PWM_HZ must be positive, got %d", c.BacklightPWMHz)
	}
	return nil
}

// InitGlobal initializes the global configuration from file. A missing file
// yields Default(), so a bare device still boots.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("config: %s not found, using defaults", configPath)
			globalConfig, err = Default(), nil
		}
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
