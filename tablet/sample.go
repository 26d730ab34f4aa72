package tablet

import "time"

// PenState describes where the pen is relative to the surface
type PenState string

const (
	StateHover      PenState = "hover"
	StateContact    PenState = "contact"
	StateOutOfRange PenState = "out-of-range"
)

// Sample is one decoded telemetry frame from the digitizer.
// X, Y and Pressure are normalized to 0-1; tilt axes are in degrees.
type Sample struct {
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Pressure        float64   `json:"pressure"`
	TiltX           float64   `json:"tiltX"`
	TiltY           float64   `json:"tiltY"`
	TiltXY          float64   `json:"tiltXY"`
	PrimaryButton   bool      `json:"primaryButtonPressed"`
	SecondaryButton bool      `json:"secondaryButtonPressed"`
	State           PenState  `json:"state"`
	Timestamp       time.Time `json:"timestamp"`
}

// Source delivers decoded samples. The channel closes when the source is
// exhausted or closed. A HID decoder would implement this; so does
// ReplaySource for recordings.
type Source interface {
	Samples() <-chan Sample
	Close() error
}
