// Package input defines the encoder-style input contract shared between
// gesture producers and the GUI.
package input

// ButtonState is the level of the encoder push button.
type ButtonState int

const (
	Released ButtonState = iota
	Pressed
)

func (b ButtonState) String() string {
	if b == Pressed {
		return "pressed"
	}
	return "released"
}

// MarshalText lets ButtonState appear as a word in JSON payloads.
func (b ButtonState) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText accepts the words produced by MarshalText.
func (b *ButtonState) UnmarshalText(text []byte) error {
	if string(text) == "pressed" {
		*b = Pressed
	} else {
		*b = Released
	}
	return nil
}

// EncoderEvent is the coalesced encoder state since the previous read.
// A positive RotationDelta means "next".
type EncoderEvent struct {
	RotationDelta int         `json:"diff"`
	Button        ButtonState `json:"state"`
}

// InputSource is polled by the GUI once per input read cycle. Poll must
// clear the accumulated rotation it returns.
type InputSource interface {
	Poll() EncoderEvent
}
