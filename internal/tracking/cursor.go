package tracking

import (
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/automation"
	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/detector"
)

// CursorMapper maps a normalized landmark position to absolute screen
// coordinates and moves the cursor there.
type CursorMapper struct {
	auto   automation.Automator
	width  int
	height int
}

// NewCursorMapper creates a CursorMapper for the automator's screen size.
func NewCursorMapper(auto automation.Automator) *CursorMapper {
	w, h := auto.ScreenSize()
	return &CursorMapper{
		auto:   auto,
		width:  w,
		height: h,
	}
}

// Move scales the landmark's normalized coordinates by the screen dimensions
// and issues a cursor move.
func (m *CursorMapper) Move(p detector.Point) {
	x := int(p.X * float64(m.width))
	y := int(p.Y * float64(m.height))
	m.auto.MoveMouse(x, y)
}
