package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/imu"
	"github.com/relabs-tech/holocube/internal/input"
)

const interval = 200

func newTestTranslator() *Translator {
	return New(Config{
		SampleInterval:  interval,
		RotateThreshold: 3000,
		PressThreshold:  10000,
		PressConfirm:    1,
	})
}

func lateral(ay int16) imu.Sample { return imu.Sample{Ay: ay} }

func TestEndToEndLateralSequence(t *testing.T) {
	tr := newTestTranslator()
	ay := []int16{0, 3500, 3600, 0, -3700, 0}
	want := []int{0, -1, 0, 0, 1, 0}

	var got []int
	for _, v := range ay {
		require.True(t, tr.Update(lateral(v), interval))
		got = append(got, tr.Consume().RotationDelta)
	}
	assert.Equal(t, want, got)
}

func TestHeldTiltFiresOnce(t *testing.T) {
	tr := newTestTranslator()

	tr.Update(lateral(3500), interval)
	for i := 0; i < 50; i++ {
		tr.Update(lateral(3500+int16(i)), interval)
	}
	assert.Equal(t, -1, tr.Consume().RotationDelta)
	assert.False(t, tr.Armed())

	tr.Update(lateral(0), interval)
	assert.True(t, tr.Armed())
	assert.Equal(t, 0, tr.Consume().RotationDelta)
}

func TestOscillationOneEventPerEpisode(t *testing.T) {
	tr := newTestTranslator()

	for episode := 0; episode < 5; episode++ {
		tr.Update(lateral(3001), interval)
		tr.Update(lateral(3001), interval)
		tr.Update(lateral(0), interval)
	}
	assert.Equal(t, -5, tr.Consume().RotationDelta)
}

func TestThresholdIsExclusive(t *testing.T) {
	tr := newTestTranslator()

	tr.Update(lateral(3000), interval)
	tr.Update(lateral(-3000), interval)
	assert.Equal(t, 0, tr.Consume().RotationDelta)
	assert.True(t, tr.Armed())
}

func TestOppositeTiltWithoutNeutralDoesNotFire(t *testing.T) {
	tr := newTestTranslator()

	tr.Update(lateral(3500), interval)
	tr.Update(lateral(-3500), interval)
	assert.Equal(t, -1, tr.Consume().RotationDelta)
}

func TestConsumeClears(t *testing.T) {
	tr := newTestTranslator()

	tr.Update(lateral(-3500), interval)
	first := tr.Consume()
	second := tr.Consume()
	assert.Equal(t, 1, first.RotationDelta)
	assert.Equal(t, 0, second.RotationDelta)
}

func TestEventsCoalesceBetweenReads(t *testing.T) {
	tr := newTestTranslator()

	for i := 0; i < 3; i++ {
		tr.Update(lateral(-3500), interval)
		tr.Update(lateral(0), interval)
	}
	tr.Update(imu.Sample{Ax: 12000}, interval)

	ev := tr.Poll()
	assert.Equal(t, 3, ev.RotationDelta)
	assert.Equal(t, input.Pressed, ev.Button)
}

func TestRateLimit(t *testing.T) {
	tr := newTestTranslator()

	require.True(t, tr.Update(lateral(0), 0), "first update is evaluated")
	assert.False(t, tr.Update(lateral(3500), 50))
	assert.False(t, tr.Update(lateral(3500), 100))
	assert.Equal(t, 0, tr.Consume().RotationDelta)

	assert.True(t, tr.Update(lateral(3500), 50))
	assert.Equal(t, -1, tr.Consume().RotationDelta)
}

func TestNegativeElapsedIgnored(t *testing.T) {
	tr := newTestTranslator()
	tr.Update(lateral(0), 0)

	assert.False(t, tr.Update(lateral(3500), -1000))
	assert.Equal(t, 0, tr.Consume().RotationDelta)
}

func TestPressIsLevelTriggered(t *testing.T) {
	tr := newTestTranslator()

	tr.Update(imu.Sample{Ax: 10001}, interval)
	assert.Equal(t, input.Pressed, tr.Consume().Button)
	assert.Equal(t, input.Pressed, tr.Consume().Button, "level persists across reads")

	tr.Update(imu.Sample{Ax: 10000}, interval)
	assert.Equal(t, input.Released, tr.Consume().Button)
}

func TestPressConfirmWindow(t *testing.T) {
	tr := New(Config{SampleInterval: interval, RotateThreshold: 3000, PressThreshold: 10000, PressConfirm: 3})

	tr.Update(imu.Sample{Ax: 11000}, interval)
	tr.Update(imu.Sample{Ax: 11000}, interval)
	assert.Equal(t, input.Released, tr.Consume().Button)

	tr.Update(imu.Sample{Ax: 0}, interval)
	tr.Update(imu.Sample{Ax: 11000}, interval)
	tr.Update(imu.Sample{Ax: 11000}, interval)
	assert.Equal(t, input.Released, tr.Consume().Button, "chatter resets the window")

	tr.Update(imu.Sample{Ax: 11000}, interval)
	assert.Equal(t, input.Pressed, tr.Consume().Button)
}

func TestInvert(t *testing.T) {
	tr := New(Config{SampleInterval: interval, RotateThreshold: 3000, PressThreshold: 10000, Invert: true})

	tr.Update(lateral(3500), interval)
	assert.Equal(t, 1, tr.Consume().RotationDelta)
}

func TestConfigFrom(t *testing.T) {
	c := ConfigFrom(config.Default())
	assert.Equal(t, Config{SampleInterval: 200, RotateThreshold: 3000, PressThreshold: 10000, PressConfirm: 1}, c)
}
