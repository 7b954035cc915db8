package render

import (
	"image"
	"image/color"
)

// BytesPerPixel is the RGB565 wire size of one pixel.
const BytesPerPixel = 2

// RGB565 is an in-memory image stored in panel wire order: two bytes per
// pixel, high byte first, rows packed without padding.
type RGB565 struct {
	Pix  []byte
	Rect image.Rectangle
}

// NewRGB565 allocates a w x h image.
func NewRGB565(w, h int) *RGB565 {
	return &RGB565{Pix: make([]byte, w*h*2), Rect: image.Rect(0, 0, w, h)}
}

// Pack565 converts 8-bit channels to a 16-bit RGB565 value.
func Pack565(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
}

func (p *RGB565) ColorModel() color.Model { return color.RGBAModel }
func (p *RGB565) Bounds() image.Rectangle { return p.Rect }

func (p *RGB565) offset(x, y int) int {
	return ((y-p.Rect.Min.Y)*p.Rect.Dx() + (x - p.Rect.Min.X)) * 2
}

func (p *RGB565) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.offset(x, y)
	v := uint16(p.Pix[i])<<8 | uint16(p.Pix[i+1])
	r := uint8(v>>11) << 3
	g := uint8(v>>5&0x3F) << 2
	b := uint8(v&0x1F) << 3
	return color.RGBA{R: r | r>>5, G: g | g>>6, B: b | b>>5, A: 0xFF}
}

func (p *RGB565) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	r, g, b, _ := c.RGBA()
	v := Pack565(uint8(r>>8), uint8(g>>8), uint8(b>>8))
	i := p.offset(x, y)
	p.Pix[i] = byte(v >> 8)
	p.Pix[i+1] = byte(v)
}

// Fill paints the whole image with one color.
func (p *RGB565) Fill(c color.Color) {
	r, g, b, _ := c.RGBA()
	v := Pack565(uint8(r>>8), uint8(g>>8), uint8(b>>8))
	hi, lo := byte(v>>8), byte(v)
	for i := 0; i+1 < len(p.Pix); i += 2 {
		p.Pix[i] = hi
		p.Pix[i+1] = lo
	}
}

// FillRect paints r (inclusive) with one color.
func (p *RGB565) FillRect(r Region, c color.Color) {
	r = r.Clip(p.Rect.Dx(), p.Rect.Dy())
	for y := r.Y1; y <= r.Y2; y++ {
		for x := r.X1; x <= r.X2; x++ {
			p.Set(x, y, c)
		}
	}
}
