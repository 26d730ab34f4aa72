package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go-strum/config"
	"go-strum/debug"
	"go-strum/instrument"
	"go-strum/midiout"
	"go-strum/netcast"
	"go-strum/tablet"
	"go-strum/theme"
	"go-strum/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Debug {
		debug.Enable()
		defer debug.Disable()
	}

	pal := theme.DefaultPalette()
	if cfg.UI.Palette != "" {
		loaded, err := theme.LoadGPL(cfg.UI.Palette)
		if err != nil {
			fmt.Printf("palette %s: %v; using built-in\n", cfg.UI.Palette, err)
		} else {
			pal = loaded
		}
	}
	th := theme.New(pal)

	inst := instrument.New(cfg)
	defer inst.Close()

	// Sound backend listens to the strummer directly, not the bus
	out, err := midiout.Open(cfg.Output.MIDIPort)
	if err != nil {
		fmt.Printf("MIDI output unavailable: %v\n", err)
	} else {
		out.SetChannel(cfg.Output.Channel)
		inst.Strummer().OnStrum(out.HandleStrum)
		inst.Strummer().OnRelease(out.HandleRelease)
		defer out.Close()
	}

	// WebSocket event stream for network consumers
	if cfg.Output.ListenAddr != "" {
		bc, err := netcast.Listen(cfg.Output.ListenAddr)
		if err != nil {
			fmt.Printf("event stream unavailable: %v\n", err)
		} else {
			bc.Attach(inst.Bus())
			defer bc.Close()
		}
	}

	// Sample source: replay a recording when given, demo gestures otherwise
	var src tablet.Source
	if len(os.Args) > 1 {
		src, err = tablet.NewReplaySource(os.Args[1], true)
		if err != nil {
			fmt.Printf("replay: %v\n", err)
			os.Exit(1)
		}
	} else {
		src = tablet.NewDemoSource()
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inst.Run(ctx, src)

	m := tui.NewModel(inst, th)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
