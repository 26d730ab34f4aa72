package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-strum/theme"
)

// StringZone describes one string for rendering
type StringZone struct {
	Label   string // note name, e.g. "E4"
	Active  bool   // committed string of the current gesture
	Pending bool   // buffering candidate
	Spread  bool   // generated by spread, rendered dimmer
}

// RenderStrings draws the string zones as labeled vertical bars with the
// pen position marker underneath
func RenderStrings(zones []StringZone, penX float64, th *theme.Theme) string {
	if len(zones) == 0 {
		return lipgloss.NewStyle().Foreground(th.Muted()).Render("(no notes bound)")
	}

	const zoneWidth = 6
	var labels, bars strings.Builder
	for _, z := range zones {
		sym := th.Symbols.StringIdle
		style := lipgloss.NewStyle().Foreground(th.FG())
		switch {
		case z.Active:
			sym = th.Symbols.StringActive
			style = style.Foreground(th.Active()).Bold(true)
		case z.Pending:
			sym = th.Symbols.StringPend
			style = style.Foreground(th.Accent())
		case z.Spread:
			style = style.Foreground(th.Muted())
		}
		labels.WriteString(style.Render(pad(z.Label, zoneWidth)))
		bars.WriteString(style.Render(pad(string(sym), zoneWidth)))
	}

	// Pen marker row
	total := len(zones) * zoneWidth
	pos := int(penX * float64(total))
	if pos < 0 {
		pos = 0
	}
	if pos >= total {
		pos = total - 1
	}
	marker := strings.Repeat(" ", pos) + "^"

	return labels.String() + "\n" + bars.String() + "\n" +
		lipgloss.NewStyle().Foreground(th.Accent()).Render(marker)
}

// RenderMeter draws a horizontal bar for a 0-1 value, colored by the
// palette so it heats up toward the top of the range
func RenderMeter(label string, value float64, width int, th *theme.Theme) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value * float64(width))

	fill := lipgloss.NewStyle().Foreground(th.PressureColor(value)).
		Render(strings.Repeat(string(th.Symbols.MeterFill), filled))
	rest := lipgloss.NewStyle().Foreground(th.Muted()).
		Render(strings.Repeat(string(th.Symbols.MeterEmpty), width-filled))

	return fmt.Sprintf("%-9s %s%s %4.2f", label, fill, rest, value)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s[:w]
	}
	return s + strings.Repeat(" ", w-len(s))
}
