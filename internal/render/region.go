package render

import "fmt"

// Region is an inclusive pixel rectangle, x1 <= x2 and y1 <= y2.
type Region struct {
	X1, Y1, X2, Y2 int
}

// Full covers a whole w x h panel.
func Full(w, h int) Region {
	return Region{X1: 0, Y1: 0, X2: w - 1, Y2: h - 1}
}

func (r Region) Width() int  { return r.X2 - r.X1 + 1 }
func (r Region) Height() int { return r.Y2 - r.Y1 + 1 }

// Pixels is the number of pixels the region covers.
func (r Region) Pixels() int { return r.Width() * r.Height() }

// Empty reports an inverted rectangle.
func (r Region) Empty() bool { return r.X1 > r.X2 || r.Y1 > r.Y2 }

// Within reports whether r is non-empty and inside a w x h panel.
func (r Region) Within(w, h int) bool {
	return !r.Empty() && r.X1 >= 0 && r.Y1 >= 0 && r.X2 < w && r.Y2 < h
}

// Clip intersects r with a w x h panel. The result may be Empty.
func (r Region) Clip(w, h int) Region {
	if r.X1 < 0 {
		r.X1 = 0
	}
	if r.Y1 < 0 {
		r.Y1 = 0
	}
	if r.X2 > w-1 {
		r.X2 = w - 1
	}
	if r.Y2 > h-1 {
		r.Y2 = h - 1
	}
	return r
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}
