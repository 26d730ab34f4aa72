package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-strum/notes"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	def := DefaultConfig()
	if cfg.Strum.Strings != def.Strum.Strings || cfg.Chord.Root != def.Chord.Root {
		t.Errorf("missing file config = %+v; want defaults", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Chord.Root = "A"
	cfg.Chord.Quality = notes.Minor
	cfg.Strum.Strings = 8
	cfg.Output.ThrottleMs = 100
	cfg.UI.Palette = "/tmp/ember.gpl"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Chord.Root != "A" || got.Chord.Quality != notes.Minor || got.Strum.Strings != 8 {
		t.Errorf("round trip = %+v", got)
	}
	if got.UI.Palette != "/tmp/ember.gpl" {
		t.Errorf("palette path = %q; want /tmp/ember.gpl", got.UI.Palette)
	}
	if got.Throttle() != 100*time.Millisecond {
		t.Errorf("Throttle() = %v; want 100ms", got.Throttle())
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"chord":{"root":"G","octave":3,"quality":"7"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Chord.Root != "G" {
		t.Errorf("root = %s; want G", cfg.Chord.Root)
	}
	if cfg.Strum.Strings != DefaultConfig().Strum.Strings {
		t.Errorf("strings = %d; want default", cfg.Strum.Strings)
	}
}

func TestNoteSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strum.Strings = 4
	ns := cfg.NoteSet()
	if len(ns) != 4 {
		t.Fatalf("NoteSet returned %d notes; want 4", len(ns))
	}
	if ns[0].String() != "C4" {
		t.Errorf("first note = %s; want C4", ns[0])
	}
	if !ns[3].Secondary {
		t.Error("4th string of a triad should be a spread note")
	}
}

func TestThrottleZeroMeansImmediate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.ThrottleMs = 0
	if cfg.Throttle() != 0 {
		t.Errorf("Throttle() = %v; want 0", cfg.Throttle())
	}
}
