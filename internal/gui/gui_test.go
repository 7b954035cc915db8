package gui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/holocube/internal/input"
	"github.com/relabs-tech/holocube/internal/render"
)

type scriptedInput struct {
	events []input.EncoderEvent
	polls  int
}

func (s *scriptedInput) Poll() input.EncoderEvent {
	s.polls++
	if len(s.events) == 0 {
		return input.EncoderEvent{}
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev
}

func newTestGUI(t *testing.T) (*GUI, *render.MemoryPanel, *render.RecordingBacklight) {
	t.Helper()
	panel := render.NewMemoryPanel(64, 48)
	bl := &render.RecordingBacklight{}
	pipe := render.NewPipeline(panel, bl, 8)
	pipe.SetIntensity(0.2)
	return New(pipe), panel, bl
}

func TestSplashDrawnBeforeInput(t *testing.T) {
	g, panel, _ := newTestGUI(t)
	g.ShowSplash("test")
	assert.Equal(t, 1, g.Pending())

	g.ServiceQueue()
	assert.Equal(t, 0, g.Pending())
	assert.Equal(t, 6, panel.Transfers())
	assert.NotEqual(t, make([]byte, 64*48*2), panel.Snapshot().Pix)
}

func TestRequestFlushCompletesOnService(t *testing.T) {
	g, panel, _ := newTestGUI(t)
	r := render.Region{X1: 0, Y1: 0, X2: 3, Y2: 1}
	done := 0
	g.RequestFlush(r, make([]byte, r.Pixels()*2), func() { done++ })
	assert.Equal(t, 0, done)

	g.ServiceQueue()
	assert.Equal(t, 1, done)
	assert.Equal(t, []render.Region{r}, panel.Windows())

	g.ServiceQueue()
	assert.Equal(t, 1, done)
}

func TestRotationStepsBrightnessOnHome(t *testing.T) {
	g, _, bl := newTestGUI(t)
	src := &scriptedInput{events: []input.EncoderEvent{
		{RotationDelta: 1},
		{RotationDelta: 2},
		{RotationDelta: -1},
	}}
	g.RegisterInputDevice(src)

	g.ServiceQueue()
	assert.InDelta(t, 0.3, bl.Last(), 1e-9)
	g.ServiceQueue()
	assert.InDelta(t, 0.5, bl.Last(), 1e-9)
	g.ServiceQueue()
	assert.InDelta(t, 0.4, bl.Last(), 1e-9)
	assert.Equal(t, ScreenHome, g.Screen())
}

func TestBrightnessClampsAtTop(t *testing.T) {
	g, _, bl := newTestGUI(t)
	g.RegisterInputDevice(&scriptedInput{events: []input.EncoderEvent{{RotationDelta: 20}}})
	g.ServiceQueue()
	assert.Equal(t, 1.0, bl.Last())
}

func TestPressTogglesScreensOnEdge(t *testing.T) {
	g, _, _ := newTestGUI(t)
	g.RegisterInputDevice(&scriptedInput{events: []input.EncoderEvent{
		{Button: input.Pressed},
		{Button: input.Pressed},
		{Button: input.Released},
		{Button: input.Pressed},
	}})

	g.ServiceQueue()
	require.Equal(t, ScreenScenes, g.Screen())
	assert.True(t, g.AnimationActive())

	g.ServiceQueue()
	assert.Equal(t, ScreenScenes, g.Screen(), "held button must not toggle again")

	g.ServiceQueue()
	g.ServiceQueue()
	assert.Equal(t, ScreenHome, g.Screen())
	assert.False(t, g.AnimationActive())
}

func TestRotationIgnoredOnScenes(t *testing.T) {
	g, _, bl := newTestGUI(t)
	g.RegisterInputDevice(&scriptedInput{events: []input.EncoderEvent{
		{Button: input.Pressed},
		{RotationDelta: 3},
	}})
	g.ServiceQueue()
	g.ServiceQueue()
	assert.Equal(t, 0.2, bl.Last())
}

func TestEventHookSeesChanges(t *testing.T) {
	g, _, _ := newTestGUI(t)
	var seen []input.EncoderEvent
	g.OnEvent(func(ev input.EncoderEvent) { seen = append(seen, ev) })
	g.RegisterInputDevice(&scriptedInput{events: []input.EncoderEvent{
		{},
		{RotationDelta: -1},
		{Button: input.Pressed},
		{Button: input.Pressed},
	}})
	for i := 0; i < 4; i++ {
		g.ServiceQueue()
	}
	assert.Equal(t, []input.EncoderEvent{{RotationDelta: -1}, {Button: input.Pressed}}, seen)
}

func TestInputPolledOncePerService(t *testing.T) {
	g, _, _ := newTestGUI(t)
	src := &scriptedInput{}
	g.ServiceQueue()
	g.RegisterInputDevice(src)
	g.ServiceQueue()
	g.ServiceQueue()
	assert.Equal(t, 2, src.polls)
}
