package telemetry

import (
	"encoding/json"
	"fmt"
)

// FormatEvent renders an encoder payload as one console line.
func FormatEvent(payload []byte) (string, error) {
	var m EventMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", err
	}
	return fmt.Sprintf("[ENC ] diff=%+d state=%-8s time=%s", m.RotationDelta, m.Button, m.Time), nil
}

// FormatStatus renders a playback payload as one console line.
func FormatStatus(payload []byte) (string, error) {
	var m StatusMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"[PLAY] screen=%-6s active=%-5t index=%3d shown=%d skipped=%d errors=%d brightness=%3.0f%% sensor=%t",
		m.Screen, m.Active, m.Index, m.Displayed, m.Skipped, m.Errors, m.Brightness*100, m.SensorOK,
	), nil
}
