package render

import "sync"

// MemoryPanel is a Panel backed by an RGB565 image. It is used headless and
// in tests.
type MemoryPanel struct {
	mu        sync.Mutex
	img       *RGB565
	win       Region
	cursor    int // pixel index inside win
	open      bool
	transfers int
	pushed    int // bytes
	windows   []Region
}

func NewMemoryPanel(w, h int) *MemoryPanel {
	return &MemoryPanel{img: NewRGB565(w, h)}
}

func (m *MemoryPanel) Width() int  { return m.img.Rect.Dx() }
func (m *MemoryPanel) Height() int { return m.img.Rect.Dy() }

func (m *MemoryPanel) BeginTransfer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
}

func (m *MemoryPanel) SetWindow(r Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.win = r
	m.cursor = 0
	m.windows = append(m.windows, r)
}

func (m *MemoryPanel) PushPixels(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pushed += len(b)
	w := m.win.Width()
	total := m.win.Pixels()
	for i := 0; i+1 < len(b) && m.cursor < total; i += 2 {
		x := m.win.X1 + m.cursor%w
		y := m.win.Y1 + m.cursor/w
		o := m.img.offset(x, y)
		m.img.Pix[o] = b[i]
		m.img.Pix[o+1] = b[i+1]
		m.cursor++
	}
}

func (m *MemoryPanel) EndTransfer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		m.transfers++
	}
	m.open = false
}

// Snapshot copies the current panel contents.
func (m *MemoryPanel) Snapshot() *RGB565 {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := NewRGB565(m.img.Rect.Dx(), m.img.Rect.Dy())
	copy(cp.Pix, m.img.Pix)
	return cp
}

// Transfers counts completed Begin/End brackets.
func (m *MemoryPanel) Transfers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfers
}

// Windows returns every window set so far.
func (m *MemoryPanel) Windows() []Region {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Region(nil), m.windows...)
}

// PushedBytes counts every pixel byte received.
func (m *MemoryPanel) PushedBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushed
}
