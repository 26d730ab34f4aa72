package tablet

import (
	"math"
	"time"
)

// DemoSource synthesizes an endless playing loop so the instrument can be
// tried without hardware: hover in, tap, sweep across the surface, lift
// off.
type DemoSource struct {
	out      chan Sample
	stopChan chan struct{}
}

const demoRate = 5 * time.Millisecond

func NewDemoSource() *DemoSource {
	d := &DemoSource{
		out:      make(chan Sample),
		stopChan: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *DemoSource) run() {
	defer close(d.out)
	ticker := time.NewTicker(demoRate)
	defer ticker.Stop()

	var t float64 // seconds into the loop
	for {
		select {
		case <-d.stopChan:
			return
		case now := <-ticker.C:
			s := demoSample(t, now)
			t += demoRate.Seconds()
			if t >= 4 {
				t = 0
			}
			select {
			case <-d.stopChan:
				return
			case d.out <- s:
			}
		}
	}
}

// demoSample maps a loop position to a pen pose. One 4s cycle: approach,
// tap and hold on the left, sweep right, lift and drift back.
func demoSample(t float64, now time.Time) Sample {
	s := Sample{
		Y:         0.5 + 0.1*math.Sin(t*2*math.Pi/4),
		TiltX:     15 * math.Sin(t),
		TiltY:     -10 * math.Cos(t),
		State:     StateHover,
		Timestamp: now,
	}
	s.TiltXY = math.Hypot(s.TiltX, s.TiltY)

	switch {
	case t < 0.8: // hover toward the left edge
		s.X = 0.6 - t*0.5
	case t < 1.6: // press and hold a tap
		s.X = 0.2
		s.Pressure = math.Min(0.9, (t-0.8)*2.5)
		s.State = StateContact
	case t < 2.6: // sweep right while pressed
		s.X = 0.2 + (t-1.6)*0.7
		s.Pressure = 0.7
		s.State = StateContact
	case t < 3.0: // lift off
		s.X = 0.9
		s.Pressure = math.Max(0, 0.7-(t-2.6)*3)
		if s.Pressure > 0 {
			s.State = StateContact
		}
	default: // drift back
		s.X = 0.9 - (t-3.0)*0.3
	}
	return s
}

func (d *DemoSource) Samples() <-chan Sample {
	return d.out
}

func (d *DemoSource) Close() error {
	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
	return nil
}
