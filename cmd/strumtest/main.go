package main

import (
	"fmt"
	"os"
	"time"

	"go-strum/midiout"
	"go-strum/notes"
	"go-strum/strum"
	"go-strum/tablet"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "play":
		playTestStrum()
	case "record":
		recordDemo()
	case "replay":
		replayFile()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("strumtest - pipeline diagnostics")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list            - List MIDI output ports")
	fmt.Println("  play [port]     - Send a test strum to a MIDI port")
	fmt.Println("  record <file>   - Write a synthetic gesture recording")
	fmt.Println("  replay <file>   - Run a recording through the classifier")
}

func listPorts() {
	fmt.Println("=== MIDI Output Ports ===")
	ports := midiout.ListPorts()
	if len(ports) == 0 {
		fmt.Println("(none found)")
		return
	}
	for i, name := range ports {
		fmt.Printf("  [%d] %s\n", i, name)
	}
}

func playTestStrum() {
	portName := ""
	if len(os.Args) > 2 {
		portName = os.Args[2]
	}

	out, err := midiout.Open(portName)
	if err != nil {
		fmt.Printf("open: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	fmt.Printf("Playing C major strum on %s\n", out.PortName())

	ns := notes.Spread(notes.NewNote("C", 4), notes.Major, 6)
	for _, n := range ns {
		out.HandleStrum(strum.Event{
			Kind:      strum.KindStrum,
			Notes:     []strum.StrumNote{{Note: n, Velocity: 100}},
			Velocity:  100,
			Timestamp: time.Now(),
		})
		time.Sleep(120 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)
	out.HandleRelease(strum.Event{Kind: strum.KindRelease, Velocity: 100, Timestamp: time.Now()})
}

func recordDemo() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}
	path := os.Args[2]

	src := tablet.NewDemoSource()
	defer src.Close()

	fmt.Println("Capturing one demo gesture cycle...")
	var samples []tablet.Sample
	deadline := time.After(4 * time.Second)
capture:
	for {
		select {
		case s := <-src.Samples():
			samples = append(samples, s)
		case <-deadline:
			break capture
		}
	}

	if err := tablet.SaveRecording(path, samples); err != nil {
		fmt.Printf("save: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d samples to %s\n", len(samples), path)
}

func replayFile() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	src, err := tablet.NewReplaySource(os.Args[2], false)
	if err != nil {
		fmt.Printf("replay: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	s := strum.NewStrummer()
	s.Configure(1.0, 0.15)
	s.UpdateBounds(1.0, 1.0)
	s.SetNotes(notes.Spread(notes.NewNote("C", 4), notes.Major, 6))

	count := 0
	for sample := range src.Samples() {
		count++
		evt := s.Strum(sample.X, sample.Pressure)
		if evt == nil {
			continue
		}
		switch evt.Kind {
		case strum.KindStrum:
			fmt.Printf("%5d  strum   vel=%-3d ", count, evt.Velocity)
			for _, sn := range evt.Notes {
				fmt.Printf(" %s", sn.Note)
			}
			fmt.Println()
		case strum.KindRelease:
			fmt.Printf("%5d  release vel=%d\n", count, evt.Velocity)
		}
	}
	fmt.Printf("Processed %d samples\n", count)
}
