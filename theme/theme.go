package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

// Symbols used by the loop grid
type Symbols struct {
	Empty       rune // · nothing recorded
	Off         rune // ○ recorded, muted
	On          rune // ● playing
	RecordStart rune // ◔ armed, waiting for the measure
	Recording   rune // ◉ capturing
	RecordEnd   rune // ◕ finishing the measure
	Metronome   rune // ♩ click track
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Empty:       '·',
			Off:         '○',
			On:          '●',
			RecordStart: '◔',
			Recording:   '◉',
			RecordEnd:   '◕',
			Metronome:   '♩',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.Color(RoleSurface) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color  { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return Hex(t.Palette.Lookup(norm))
}

// RGB returns raw RGB for any normalized value (for Launchpad)
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

// Hex converts an RGB value to a lipgloss color
func Hex(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
