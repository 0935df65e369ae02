package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsAverages(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	p := newProfiler(clock.now, time.Second)

	frame := FrameStats{Shadow: shadow.Stats{Passes: 4, Draws: 12, Skipped: 1}, LitDraws: 3}
	for range 9 {
		clock.t = clock.t.Add(100 * time.Millisecond)
		if p.Tick(frame) {
			t.Fatal("reported before the interval elapsed")
		}
	}
	clock.t = clock.t.Add(100 * time.Millisecond)
	if !p.Tick(frame) {
		t.Fatal("expected a report once the interval elapsed")
	}

	r := p.Last()
	if r.FPS != 10 {
		t.Errorf("FPS = %v, want 10", r.FPS)
	}
	if r.ShadowPasses != 4 || r.ShadowDraws != 12 || r.ShadowSkipped != 1 || r.LitDraws != 3 {
		t.Errorf("averages = %+v", r)
	}
}

func TestTickResetsAfterReport(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := newProfiler(clock.now, time.Second)

	clock.t = clock.t.Add(time.Second)
	p.Tick(FrameStats{LitDraws: 10})

	clock.t = clock.t.Add(time.Second)
	p.Tick(FrameStats{LitDraws: 2})
	if got := p.Last().LitDraws; got != 2 {
		t.Errorf("LitDraws = %v, want 2 after reset", got)
	}
}
