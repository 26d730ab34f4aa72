package tablet

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ReplaySource plays back a JSON-lines recording of samples, pacing
// delivery by the recorded timestamps.
type ReplaySource struct {
	samples  []Sample
	out      chan Sample
	stopChan chan struct{}
	realtime bool
}

// LoadRecording reads a JSON-lines sample recording
func LoadRecording(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []Sample
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var s Sample
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// SaveRecording writes samples as JSON lines
func SaveRecording(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, s := range samples {
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return w.Flush()
}

// NewReplaySource creates a source that replays a recording at the recorded
// pace. With realtime=false samples are delivered as fast as the consumer
// reads them.
func NewReplaySource(path string, realtime bool) (*ReplaySource, error) {
	samples, err := LoadRecording(path)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", path, err)
	}
	r := &ReplaySource{
		samples:  samples,
		out:      make(chan Sample),
		stopChan: make(chan struct{}),
		realtime: realtime,
	}
	go r.run()
	return r, nil
}

func (r *ReplaySource) run() {
	defer close(r.out)
	var prev time.Time
	for _, s := range r.samples {
		if r.realtime && !prev.IsZero() {
			wait := s.Timestamp.Sub(prev)
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-r.stopChan:
					timer.Stop()
					return
				case <-timer.C:
				}
			}
		}
		prev = s.Timestamp
		select {
		case <-r.stopChan:
			return
		case r.out <- s:
		}
	}
}

func (r *ReplaySource) Samples() <-chan Sample {
	return r.out
}

func (r *ReplaySource) Close() error {
	select {
	case <-r.stopChan:
		// already closed
	default:
		close(r.stopChan)
	}
	return nil
}
