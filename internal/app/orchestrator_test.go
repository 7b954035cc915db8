package app

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/holocube/internal/frames"
	"github.com/relabs-tech/holocube/internal/gesture"
	"github.com/relabs-tech/holocube/internal/gui"
	"github.com/relabs-tech/holocube/internal/imu"
	"github.com/relabs-tech/holocube/internal/render"
	"github.com/relabs-tech/holocube/internal/sensors"
	"github.com/relabs-tech/holocube/internal/telemetry"
)

const (
	testW, testH = 4, 2
	frameBytes   = testW * testH * render.BytesPerPixel
	tickStep     = 10 * time.Millisecond
)

type rig struct {
	o       *Orchestrator
	g       *gui.GUI
	panel   *render.MemoryPanel
	storage *frames.MemStorage
	source  *frames.Source
	now     time.Time
}

func (r *rig) tick(n int) {
	for i := 0; i < n; i++ {
		r.now = r.now.Add(tickStep)
		r.o.Tick(r.now)
	}
}

func frameFill(i int) []byte { return bytes.Repeat([]byte{byte(i)}, frameBytes) }

func newRig(t *testing.T, sampler imu.Sampler, retryLimit int) *rig {
	t.Helper()

	panel := render.NewMemoryPanel(testW, testH)
	pipe := render.NewPipeline(panel, nil, 1)
	pipe.SetIntensity(0.5)
	g := gui.New(pipe)

	tr := gesture.New(gesture.Config{
		SampleInterval:  int(tickStep / time.Millisecond),
		RotateThreshold: 3000,
		PressThreshold:  10000,
		PressConfirm:    1,
	})
	g.RegisterInputDevice(tr)

	storage := frames.NewMemStorage()
	src := frames.NewSource(storage, frames.Options{
		Dir: "/sd/Scenes/Holo3D", Prefix: "frame", Ext: ".bin",
		Count: 138, FrameSize: frameBytes, ChunkSize: 8,
	})
	for i := 0; i < 138; i++ {
		storage.Put(src.Path(i), frameFill(i))
	}

	o := NewOrchestrator(g, pipe, sampler, tr, src, Options{RetryLimit: retryLimit})
	return &rig{o: o, g: g, panel: panel, storage: storage, source: src, now: time.Unix(1000, 0)}
}

// pressOnce is a sampler that tilts forward once, then rests.
func pressOnce() *sensors.Scripted {
	return sensors.NewScripted(
		sensors.Step{Sample: imu.Sample{Ax: 12000}},
		sensors.Step{Sample: imu.Sample{}},
	)
}

func TestAnimationInactiveOnHome(t *testing.T) {
	r := newRig(t, sensors.NewScripted(), 3)
	r.tick(10)
	assert.Equal(t, gui.ScreenHome, r.g.Screen())
	assert.Equal(t, 0, r.storage.Opens(r.source.Path(0)))
	assert.False(t, r.o.Status().Active)
}

func TestPressStartsPlayback(t *testing.T) {
	r := newRig(t, pressOnce(), 3)
	r.tick(1)
	assert.Equal(t, gui.ScreenHome, r.g.Screen())

	r.tick(1)
	require.Equal(t, gui.ScreenScenes, r.g.Screen())
	assert.Equal(t, 1, r.storage.Opens(r.source.Path(0)))

	r.tick(1)
	st := r.o.Status()
	assert.True(t, st.Active)
	assert.Equal(t, "scenes", st.Screen)
	assert.Equal(t, 1, st.Displayed)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, frameFill(0), r.panel.Snapshot().Pix)
}

func TestPlaybackWrapsAround(t *testing.T) {
	r := newRig(t, pressOnce(), 3)
	r.tick(2 + 138 + 1)

	st := r.o.Status()
	assert.Equal(t, 139, st.Displayed)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, frameFill(0), r.panel.Snapshot().Pix)
	assert.Equal(t, 2, r.storage.Opens(r.source.Path(0)))
}

func TestMissingFrameHoldsThenSkips(t *testing.T) {
	r := newRig(t, pressOnce(), 3)
	missing := r.source.Path(50)
	r.storage.Remove(missing)

	for i := 0; i < 200 && r.o.Status().Displayed < 50; i++ {
		r.tick(1)
	}
	st := r.o.Status()
	require.Equal(t, 49, st.Index)
	assert.Equal(t, 1, r.storage.Opens(missing))
	held := r.panel.Snapshot().Pix
	require.Equal(t, frameFill(49), held)

	r.tick(3)
	st = r.o.Status()
	assert.Equal(t, 4, r.storage.Opens(missing))
	assert.Equal(t, 4, st.Errors)
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, held, r.panel.Snapshot().Pix)
	assert.Equal(t, 50, st.Displayed)

	r.tick(2)
	st = r.o.Status()
	assert.Equal(t, 51, st.Index)
	assert.Equal(t, frameFill(51), r.panel.Snapshot().Pix)
	assert.Equal(t, 4, r.storage.Opens(missing))
}

func TestShortFrameIsNeverTransferred(t *testing.T) {
	r := newRig(t, pressOnce(), 0)
	r.storage.Put(r.source.Path(1), frameFill(1)[:5])

	r.tick(3)
	require.Equal(t, frameFill(0), r.panel.Snapshot().Pix)
	transfers := r.panel.Transfers()

	r.tick(1)
	st := r.o.Status()
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, transfers, r.panel.Transfers())
	assert.Equal(t, frameFill(0), r.panel.Snapshot().Pix)

	// frame 2 was loaded on the skip's next tick; this service shows it
	r.tick(1)
	st = r.o.Status()
	assert.Equal(t, 2, st.Index)
	assert.Equal(t, frameFill(2), r.panel.Snapshot().Pix)
}

func TestFrameFailuresLoggedOnStateChange(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	r := newRig(t, pressOnce(), 0)
	for i := 0; i < r.source.Count(); i++ {
		r.storage.Remove(r.source.Path(i))
	}
	r.tick(2 + 2*r.source.Count())

	st := r.o.Status()
	assert.Equal(t, 2*r.source.Count()+1, st.Errors)
	assert.Equal(t, 1, strings.Count(buf.String(), "holding previous frame"))
	assert.Contains(t, buf.String(), "frame 0/138 missing")
	assert.NotContains(t, buf.String(), "frames recovered")

	for i := 0; i < r.source.Count(); i++ {
		r.storage.Put(r.source.Path(i), frameFill(i))
	}
	r.tick(5)
	assert.Equal(t, 1, strings.Count(buf.String(), "frames recovered"))
	assert.Equal(t, 1, strings.Count(buf.String(), "holding previous frame"))
	assert.Greater(t, r.o.Status().Displayed, 0)
}

func TestFrameInterval(t *testing.T) {
	r := newRig(t, pressOnce(), 3)
	r.o.frameInterval = 35 * time.Millisecond
	r.tick(2)
	require.Equal(t, 1, r.storage.Opens(r.source.Path(0)))

	r.tick(3)
	assert.Equal(t, 0, r.storage.Opens(r.source.Path(1)))
	r.tick(1)
	assert.Equal(t, 1, r.storage.Opens(r.source.Path(1)))
}

func TestSensorFailureFallsBackToNeutral(t *testing.T) {
	fail := sensors.Step{Err: imu.ErrSensorUnavailable}
	sampler := sensors.NewScripted(
		sensors.Step{Sample: imu.Sample{Ay: 5000}},
		fail, fail, fail,
		sensors.Step{Sample: imu.Sample{Ay: 5000}},
		sensors.Step{Sample: imu.Sample{}},
	)
	r := newRig(t, sampler, 3)

	bright := r.o.pipe.Intensity()
	r.tick(2)
	assert.InDelta(t, bright-gui.BrightnessStep, r.o.pipe.Intensity(), 1e-9)

	r.tick(1)
	assert.False(t, r.o.Status().SensorOK)

	// neutral samples re-armed the translator, so the next tilt fires again
	r.tick(3)
	assert.True(t, r.o.Status().SensorOK)
	assert.InDelta(t, bright-2*gui.BrightnessStep, r.o.pipe.Intensity(), 1e-9)
}

func TestNoSensorStillRuns(t *testing.T) {
	r := newRig(t, nil, 3)
	assert.NotPanics(t, func() { r.tick(5) })
	assert.False(t, r.o.Status().SensorOK)
}

type statusRecorder struct{ got []telemetry.PlaybackStatus }

func (s *statusRecorder) PublishStatus(st telemetry.PlaybackStatus) { s.got = append(s.got, st) }

func TestTelemetryInterval(t *testing.T) {
	r := newRig(t, sensors.NewScripted(), 3)
	rec := &statusRecorder{}
	r.o.telemetryEach = 50 * time.Millisecond
	r.o.SetPublisher(rec)

	r.tick(10)
	assert.Len(t, rec.got, 2)
	assert.Equal(t, "home", rec.got[0].Screen)
}

func TestSensorErrorsAreSentinel(t *testing.T) {
	_, err := sensors.NewScripted(sensors.Step{Err: imu.ErrSensorUnavailable}).Poll()
	assert.True(t, errors.Is(err, imu.ErrSensorUnavailable))
}
