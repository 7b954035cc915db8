package gui

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/holocube/internal/render"
)

var (
	colBackground = color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xFF}
	colText       = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	colAccent     = color.RGBA{R: 0x00, G: 0xC0, B: 0xFF, A: 0xFF}
	colTrack      = color.RGBA{R: 0x40, G: 0x40, B: 0x48, A: 0xFF}
)

const lineHeight = 13

func drawText(dst *render.RGB565, x, y int, c color.Color, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// centered returns the x that centres s on a w pixel wide line.
func centered(w int, s string) int {
	adv := font.MeasureString(basicfont.Face7x13, s).Ceil()
	if adv >= w {
		return 0
	}
	return (w - adv) / 2
}

func drawSplash(dst *render.RGB565, version string) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	dst.Fill(colBackground)
	title := "HoloCube"
	drawText(dst, centered(w, title), h/2-lineHeight, colAccent, title)
	sub := "starting " + version
	drawText(dst, centered(w, sub), h/2+lineHeight, colText, sub)
}

func drawHome(dst *render.RGB565, intensity float64) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	dst.Fill(colBackground)

	title := "HoloCube"
	drawText(dst, centered(w, title), 2*lineHeight, colAccent, title)

	label := fmt.Sprintf("brightness %3d%%", render.Level(intensity)*100/255)
	drawText(dst, centered(w, label), h/2-lineHeight, colText, label)

	// gauge
	margin := w / 8
	bar := render.Region{X1: margin, Y1: h / 2, X2: w - margin - 1, Y2: h/2 + 9}
	dst.FillRect(bar, colTrack)
	filled := bar
	filled.X2 = bar.X1 + int(float64(bar.Width())*render.Clamp01(intensity)) - 1
	if !filled.Empty() {
		dst.FillRect(filled, colAccent)
	}

	for i, hint := range []string{"tilt: brightness", "push: scenes"} {
		drawText(dst, centered(w, hint), h-3*lineHeight+i*lineHeight, colText, hint)
	}
}

func drawBlank(dst *render.RGB565) {
	dst.Fill(color.Black)
}
