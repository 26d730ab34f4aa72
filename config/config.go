package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go-strum/notes"
)

// ChordConfig selects the chord the string zones are tuned to
type ChordConfig struct {
	Root    string        `json:"root"`
	Octave  int           `json:"octave"`
	Quality notes.Quality `json:"quality"`
}

// StrumConfig tunes the gesture classifier
type StrumConfig struct {
	Strings           int     `json:"strings"`
	VelocityScale     float64 `json:"velocityScale"`
	PressureThreshold float64 `json:"pressureThreshold"`
	BufferSamples     int     `json:"bufferSamples,omitempty"`
}

// OutputConfig selects the downstream consumers
type OutputConfig struct {
	MIDIPort   string `json:"midiPort,omitempty"`
	Channel    uint8  `json:"channel"`
	ThrottleMs int    `json:"throttleMs"`
	ListenAddr string `json:"listenAddr,omitempty"`
}

// UIConfig stores UI preferences. Palette points at a GIMP .gpl palette
// file; empty means the built-in gradient.
type UIConfig struct {
	ShowDiagnostics bool   `json:"showDiagnostics,omitempty"`
	Palette         string `json:"palette,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Chord  ChordConfig  `json:"chord"`
	Strum  StrumConfig  `json:"strum"`
	Output OutputConfig `json:"output"`
	UI     UIConfig     `json:"ui,omitempty"`
	Debug  bool         `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Chord: ChordConfig{
			Root:    "C",
			Octave:  4,
			Quality: notes.Major,
		},
		Strum: StrumConfig{
			Strings:           6,
			VelocityScale:     1.0,
			PressureThreshold: 0.15,
		},
		Output: OutputConfig{
			Channel:    0,
			ThrottleMs: 50,
			ListenAddr: "127.0.0.1:8137",
		},
	}
}

// NoteSet computes the ordered note set for the configured chord and
// string count
func (c *Config) NoteSet() []notes.Note {
	root := notes.NewNote(c.Chord.Root, c.Chord.Octave)
	return notes.Spread(root, c.Chord.Quality, c.Strum.Strings)
}

// Throttle returns the flush cadence as a duration
func (c *Config) Throttle() time.Duration {
	if c.Output.ThrottleMs <= 0 {
		return 0
	}
	return time.Duration(c.Output.ThrottleMs) * time.Millisecond
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-strum"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file, or returns defaults if it doesn't exist
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
