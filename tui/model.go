package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-strum/bus"
	"go-strum/instrument"
	"go-strum/notes"
	"go-strum/strum"
	"go-strum/tablet"
	"go-strum/theme"
	"go-strum/widgets"
)

var roots = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

type Model struct {
	Inst  *instrument.Instrument
	Theme *theme.Theme

	events      chan bus.CombinedEvent
	unsubscribe func()

	last      bus.CombinedEvent
	lastStrum *strum.Event
	showDiag  bool
	showHelp  bool
	quitting  bool
}

var keySections = []widgets.KeySection{
	{Title: "chord", Keys: []widgets.KeyBinding{
		{Key: "left/right", Desc: "cycle root note"},
		{Key: "up/down", Desc: "shift octave"},
		{Key: "tab/shift+tab", Desc: "cycle quality"},
		{Key: "[/]", Desc: "fewer/more strings"},
	}},
	{Title: "output", Keys: []widgets.KeyBinding{
		{Key: "+/-", Desc: "event throttle up/down 10ms"},
		{Key: "space", Desc: "silence sounding notes"},
	}},
	{Title: "view", Keys: []widgets.KeyBinding{
		{Key: "d", Desc: "toggle diagnostics"},
		{Key: "?", Desc: "toggle this help"},
		{Key: "q", Desc: "quit"},
	}},
}

type UpdateMsg struct{}

type CombinedMsg bus.CombinedEvent

func NewModel(inst *instrument.Instrument, th *theme.Theme) Model {
	m := Model{
		Inst:     inst,
		Theme:    th,
		events:   make(chan bus.CombinedEvent, 8),
		showDiag: inst.Config().UI.ShowDiagnostics,
	}
	// Bridge bus flushes onto the tea event loop; drop if the UI lags
	m.unsubscribe = inst.Bus().OnCombinedEvent(func(e bus.CombinedEvent) {
		select {
		case m.events <- e:
		default:
		}
	})
	return m
}

func ListenForUpdates(inst *instrument.Instrument) tea.Cmd {
	return func() tea.Msg {
		<-inst.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForEvents(events chan bus.CombinedEvent) tea.Cmd {
	return func() tea.Msg {
		return CombinedMsg(<-events)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Inst),
		ListenForEvents(m.events),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Inst.Silence()
			if m.unsubscribe != nil {
				m.unsubscribe()
			}
			return m, tea.Quit

		case "left":
			m.cycleRoot(-1)
		case "right":
			m.cycleRoot(1)
		case "up":
			cfg := m.Inst.Config()
			m.Inst.SetChord(cfg.Chord.Root, cfg.Chord.Octave+1, cfg.Chord.Quality)
		case "down":
			cfg := m.Inst.Config()
			m.Inst.SetChord(cfg.Chord.Root, cfg.Chord.Octave-1, cfg.Chord.Quality)
		case "tab":
			m.cycleQuality(1)
		case "shift+tab":
			m.cycleQuality(-1)

		case "[":
			m.Inst.SetStrings(m.Inst.Config().Strum.Strings - 1)
		case "]":
			m.Inst.SetStrings(m.Inst.Config().Strum.Strings + 1)

		case "+", "=":
			m.Inst.SetThrottle(m.Inst.Bus().Throttle() + 10*time.Millisecond)
		case "-", "_":
			d := m.Inst.Bus().Throttle() - 10*time.Millisecond
			if d < 0 {
				d = 0
			}
			m.Inst.SetThrottle(d)

		case " ":
			m.Inst.Silence()
		case "d":
			m.showDiag = !m.showDiag
		case "?":
			m.showHelp = !m.showHelp
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Inst)

	case CombinedMsg:
		m.last = bus.CombinedEvent(msg)
		if m.last.Strum != nil {
			m.lastStrum = m.last.Strum
		}
		return m, ListenForEvents(m.events)
	}

	return m, nil
}

func (m *Model) cycleRoot(dir int) {
	cfg := m.Inst.Config()
	idx := 0
	for i, r := range roots {
		if r == cfg.Chord.Root {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(roots)) % len(roots)
	m.Inst.SetChord(roots[idx], cfg.Chord.Octave, cfg.Chord.Quality)
}

func (m *Model) cycleQuality(dir int) {
	cfg := m.Inst.Config()
	qs := notes.Qualities()
	idx := 0
	for i, q := range qs {
		if q == cfg.Chord.Quality {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(qs)) % len(qs)
	m.Inst.SetChord(cfg.Chord.Root, cfg.Chord.Octave, qs[idx])
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	cfg := m.Inst.Config()
	diag := m.Inst.Diagnostics()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	header := headerStyle.Render(fmt.Sprintf(
		"go-strum  %s%d %s  strings:%d  throttle:%dms",
		cfg.Chord.Root, cfg.Chord.Octave, cfg.Chord.Quality,
		cfg.Strum.Strings, cfg.Output.ThrottleMs,
	))

	// String zones with the gesture state overlaid
	ns := m.Inst.Notes()
	zones := make([]widgets.StringZone, len(ns))
	for i, n := range ns {
		zones[i] = widgets.StringZone{
			Label:   n.String(),
			Active:  i == diag.LastIndex,
			Pending: i == diag.PendingIndex,
			Spread:  n.Secondary,
		}
	}
	stringsView := widgets.RenderStrings(zones, m.last.X, m.Theme)

	// Pen state + meters
	pen := m.Theme.Symbols.PenAway
	switch m.last.State {
	case tablet.StateHover:
		pen = m.Theme.Symbols.PenHover
	case tablet.StateContact:
		pen = m.Theme.Symbols.PenContact
	}
	status := fmt.Sprintf("%c %-12s", pen, m.last.State)
	meters := widgets.RenderMeter("pressure", m.last.Pressure, 24, m.Theme) + "\n" +
		widgets.RenderMeter("x", m.last.X, 24, m.Theme)

	// Last musical event
	eventLine := dimStyle.Render("(no strums yet)")
	if m.lastStrum != nil {
		eventLine = describeEvent(*m.lastStrum, m.Theme)
	}

	help := dimStyle.Render("?:help  q:quit")
	if m.showHelp {
		help = dimStyle.Render(widgets.RenderKeyHelp(keySections))
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(stringsView)
	out.WriteString("\n\n")
	out.WriteString(status)
	out.WriteString("\n")
	out.WriteString(meters)
	out.WriteString("\n\n")
	out.WriteString(eventLine)

	if m.showDiag {
		out.WriteString("\n\n")
		out.WriteString(dimStyle.Render(fmt.Sprintf(
			"phase:%s  buffer:%d  lastVel:%d  pVel:%+.2f/s",
			diag.Phase, diag.BufferLen, diag.LastVelocity, diag.PressureVelocity,
		)))
	}

	out.WriteString("\n\n")
	out.WriteString(help)
	return out.String()
}

func describeEvent(e strum.Event, th *theme.Theme) string {
	style := lipgloss.NewStyle().Foreground(th.Active())
	if e.Kind == strum.KindRelease {
		return style.Render(fmt.Sprintf("release  vel:%d", e.Velocity))
	}
	var names []string
	for _, sn := range e.Notes {
		names = append(names, sn.Note.String())
	}
	return style.Render(fmt.Sprintf("strum  %s  vel:%d", strings.Join(names, " "), e.Velocity))
}
