package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	StringIdle   rune // │ unstruck string zone
	StringActive rune // ┃ committed string
	StringPend   rune // ╎ buffering candidate
	MeterFill    rune // █ pressure meter fill
	MeterEmpty   rune // ░ pressure meter background
	PenHover     rune // ○ pen hovering
	PenContact   rune // ● pen on the surface
	PenAway      rune // · pen out of range
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StringIdle:   '│',
			StringActive: '┃',
			StringPend:   '╎',
			MeterFill:    '█',
			MeterEmpty:   '░',
			PenHover:     '○',
			PenContact:   '●',
			PenAway:      '·',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.2
	RoleFG      = 0.45
	RoleAccent  = 0.6
	RoleActive  = 0.8
	RoleWarning = 1.0
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// PressureColor maps a normalized pressure straight onto the palette, so
// the meter heats up as the pen presses harder
func (t *Theme) PressureColor(pressure float64) lipgloss.Color {
	return t.Color(pressure)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
