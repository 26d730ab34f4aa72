package tablet

import (
	"path/filepath"
	"testing"
	"time"
)

func testSamples(n int) []Sample {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = Sample{
			X:         float64(i) / float64(n),
			Y:         0.5,
			Pressure:  0.3,
			State:     StateContact,
			Timestamp: base.Add(time.Duration(i) * 5 * time.Millisecond),
		}
	}
	return samples
}

func TestRecordingRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.jsonl")
	want := testSamples(4)
	if err := SaveRecording(path, want); err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}

	got, err := LoadRecording(path)
	if err != nil {
		t.Fatalf("LoadRecording: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d samples; want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].X != want[i].X || got[i].State != want[i].State || !got[i].Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("sample %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestReplayDeliversInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.jsonl")
	if err := SaveRecording(path, testSamples(8)); err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}

	src, err := NewReplaySource(path, false)
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}
	defer src.Close()

	count := 0
	var lastX float64 = -1
	for s := range src.Samples() {
		if s.X <= lastX {
			t.Errorf("sample out of order: x=%v after x=%v", s.X, lastX)
		}
		lastX = s.X
		count++
	}
	if count != 8 {
		t.Errorf("received %d samples; want 8", count)
	}
}

func TestReplayCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.jsonl")
	if err := SaveRecording(path, testSamples(100)); err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}

	src, err := NewReplaySource(path, false)
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}
	<-src.Samples()
	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
