package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

func TestLevelQuantisation(t *testing.T) {
	assert.Equal(t, 0, Level(-1))
	assert.Equal(t, 51, Level(0.2))
	assert.Equal(t, 128, Level(0.5))
	assert.Equal(t, 255, Level(1))
	assert.Equal(t, 255, Level(7))
}

func TestPWMBacklightActiveLow(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO18"}
	bl := NewPWMBacklight(pin, 5000, true)

	require.NoError(t, bl.SetDuty(1))
	assert.Equal(t, gpio.Duty(0), pin.D)
	assert.Equal(t, 5*physic.KiloHertz, pin.F)

	require.NoError(t, bl.SetDuty(0))
	assert.Equal(t, gpio.DutyMax, pin.D)
}

func TestPWMBacklightActiveHigh(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO18"}
	bl := NewPWMBacklight(pin, 5000, false)

	require.NoError(t, bl.SetDuty(1))
	assert.Equal(t, gpio.DutyMax, pin.D)
	require.NoError(t, bl.SetDuty(0))
	assert.Equal(t, gpio.Duty(0), pin.D)
}

func TestSysfsBacklight(t *testing.T) {
	root := t.TempDir()
	dev := filepath.Join(root, "panel0")
	require.NoError(t, os.MkdirAll(dev, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "max_brightness"), []byte("200\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "brightness"), []byte("0\n"), 0o644))

	bl, err := DiscoverSysfsBacklight(root)
	require.NoError(t, err)

	require.NoError(t, bl.SetDuty(0.2))
	raw, err := os.ReadFile(filepath.Join(dev, "brightness"))
	require.NoError(t, err)
	assert.Equal(t, "40", string(raw))
}

func TestSysfsBacklightMissing(t *testing.T) {
	_, err := DiscoverSysfsBacklight(t.TempDir())
	assert.Error(t, err)
}
