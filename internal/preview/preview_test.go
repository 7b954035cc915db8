package preview

import (
	"bytes"
	"encoding/json"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/holocube/internal/render"
	"github.com/relabs-tech/holocube/internal/telemetry"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	panel := render.NewMemoryPanel(4, 2)
	pipe := render.NewPipeline(panel, nil, 0)
	r := render.Region{X1: 0, Y1: 0, X2: 0, Y2: 0}
	pipe.Flush(r, []byte{0xF8, 0x00}, nil)

	status := func() telemetry.PlaybackStatus {
		return telemetry.PlaybackStatus{Index: 7, Screen: "scenes", Active: true}
	}
	srv := httptest.NewServer(New(pipe, status, 10*time.Millisecond).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestPlaybackEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/playback")
	require.NoError(t, err)
	defer resp.Body.Close()

	var st telemetry.PlaybackStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 7, st.Index)
	assert.Equal(t, "scenes", st.Screen)
}

func TestFrameEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/frame.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0xFFFF, 0, 0}, [3]uint32{r, g, b})
}

func TestWebsocketStream(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		var msg WSResponse
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "status", msg.Type)
		assert.Equal(t, 4, msg.Width)
		assert.Equal(t, 2, msg.Height)

		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.BinaryMessage, kind)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, color.RGBAModel.Convert(color.RGBA{R: 0xFF, A: 0xFF}), color.RGBAModel.Convert(img.At(0, 0)))
	}
}
