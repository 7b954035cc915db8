package render

// Panel is the display controller. Transfers are bracketed by
// BeginTransfer/EndTransfer; pixels pushed after SetWindow fill the window
// row by row. Hardware errors are handled inside the panel.
type Panel interface {
	Width() int
	Height() int
	BeginTransfer()
	SetWindow(r Region)
	PushPixels(b []byte)
	EndTransfer()
}
