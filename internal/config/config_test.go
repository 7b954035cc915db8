package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchDevice(t *testing.T) {
	c := Default()
	require.NoError(t, c.validate())

	assert.Equal(t, 200, c.GestureSampleInterval)
	assert.Equal(t, 3000, c.GestureRotateThreshold)
	assert.Equal(t, 10000, c.GesturePressThreshold)
	assert.Equal(t, 1, c.GesturePressConfirm)
	assert.Equal(t, uint16(0x68), c.IMUI2CAddr)
	assert.Equal(t, 240, c.DisplayWidth)
	assert.Equal(t, 240, c.DisplayHeight)
	assert.Equal(t, 10, c.DisplayBandLines)
	assert.Equal(t, 138, c.FrameCount)
	assert.Equal(t, 512, c.FrameChunkSize)
	assert.Equal(t, 0.2, c.BacklightDefault)
	assert.True(t, c.BacklightActiveLow)
	assert.Equal(t, 5000, c.BacklightPWMHz)
}

func TestParseOverrides(t *testing.T) {
	c, err := Parse(strings.NewReader(`
# comment
IMU_DRIVER = mock
IMU_I2C_ADDR=0x69
GESTURE_ROTATE_THRESHOLD=2500
GESTURE_INVERT=true
DISPLAY_DRIVER=memory
DISPLAY_ROTATION=2
BACKLIGHT_DRIVER=none
BACKLIGHT_DEFAULT=0.75
FRAME_DIR=/tmp/frames
FRAME_RETRY_LIMIT=0
MQTT_BROKER=tcp://localhost:1883
PREVIEW_ADDR=:8080
`))
	require.NoError(t, err)

	assert.Equal(t, "mock", c.IMUDriver)
	assert.Equal(t, uint16(0x69), c.IMUI2CAddr)
	assert.Equal(t, 2500, c.GestureRotateThreshold)
	assert.True(t, c.GestureInvert)
	assert.Equal(t, "memory", c.DisplayDriver)
	assert.Equal(t, byte(2), c.DisplayRotation)
	assert.Equal(t, "none", c.BacklightDriver)
	assert.Equal(t, 0.75, c.BacklightDefault)
	assert.Equal(t, "/tmp/frames", c.FrameDir)
	assert.Equal(t, 0, c.FrameRetryLimit)
	assert.Equal(t, "tcp://localhost:1883", c.MQTTBroker)
	assert.Equal(t, ":8080", c.PreviewAddr)

	// untouched keys keep their defaults
	assert.Equal(t, 10000, c.GesturePressThreshold)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":       "NOPE=1",
		"missing equals":    "FRAME_COUNT",
		"bad int":           "FRAME_COUNT=lots",
		"zero count":        "FRAME_COUNT=0",
		"negative retry":    "FRAME_RETRY_LIMIT=-1",
		"bad rotation":      "DISPLAY_ROTATION=4",
		"unknown imu":       "IMU_DRIVER=bmi160",
		"unknown display":   "DISPLAY_DRIVER=hdmi",
		"unknown backlight": "BACKLIGHT_DRIVER=lamp",
		"zero threshold":    "GESTURE_ROTATE_THRESHOLD=0",
		"bad bool":          "GESTURE_INVERT=maybe",
		"bad addr":          "IMU_I2C_ADDR=0x1FFFF",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestParseReportsLine(t *testing.T) {
	_, err := Parse(strings.NewReader("FRAME_COUNT=10\n\nFRAME_COUNT=x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config line 3")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir() + "/absent.txt")
	assert.Error(t, err)
}

func TestShippedConfigLoads(t *testing.T) {
	c, err := Load("../../holocube_config.txt")
	require.NoError(t, err)
	assert.Equal(t, "1", c.IMUI2CBus)
	assert.Equal(t, Default().FrameCount, c.FrameCount)
	assert.Empty(t, c.MQTTBroker)
}
