package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-csm/common"
	"github.com/Carmen-Shannon/oxy-csm/engine/shadow"
)

// FrameStats is the per-frame work reported to the profiler.
type FrameStats struct {
	// Shadow is the shadow system's counters for the frame.
	Shadow shadow.Stats
	// LitDraws is the number of mesh draws in the lit pass.
	LitDraws int
}

// Report is one interval of averaged statistics.
type Report struct {
	FPS float64
	// Average per-frame counts over the interval.
	ShadowPasses  float64
	ShadowDraws   float64
	ShadowSkipped float64
	LitDraws      float64
	HeapMB        float64
	AllocRateMB   float64
	GCCount       uint32
	MaxPauseUs    uint64
}

// Profiler tracks frame rate, shadow workload, and memory statistics for performance monitoring.
// Outputs stats to the engine logger at a configurable interval.
type Profiler struct {
	frameCount     int
	totals         FrameStats
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
	last           Report
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return newProfiler(time.Now, time.Second)
}

func newProfiler(now func() time.Time, interval time.Duration) *Profiler {
	return &Profiler{
		lastTime:       now(),
		updateInterval: interval,
		now:            now,
	}
}

// Tick should be called once per rendered frame.
// Logs averaged statistics when the update interval has elapsed: FPS, shadow passes and
// draws per frame, lit draws per frame, heap usage, allocation rate, and GC pauses.
//
// Parameters:
//   - stats: the work recorded by this frame
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats FrameStats) bool {
	p.frameCount++
	p.totals.Shadow.Passes += stats.Shadow.Passes
	p.totals.Shadow.Draws += stats.Shadow.Draws
	p.totals.Shadow.Skipped += stats.Shadow.Skipped
	p.totals.LitDraws += stats.LitDraws

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	frames := float64(p.frameCount)
	r := Report{
		FPS:           frames / elapsed.Seconds(),
		ShadowPasses:  float64(p.totals.Shadow.Passes) / frames,
		ShadowDraws:   float64(p.totals.Shadow.Draws) / frames,
		ShadowSkipped: float64(p.totals.Shadow.Skipped) / frames,
		LitDraws:      float64(p.totals.LitDraws) / frames,
	}

	runtime.ReadMemStats(&p.memStats)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	r.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	r.GCCount = p.memStats.NumGC
	startIdx := p.lastGCCount
	if r.GCCount-startIdx > 256 {
		startIdx = r.GCCount - 256
	}
	for i := startIdx; i < r.GCCount; i++ {
		r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	common.Logger().Info("profiler",
		"fps", r.FPS,
		"shadow_passes", r.ShadowPasses,
		"shadow_draws", r.ShadowDraws,
		"shadow_skipped", r.ShadowSkipped,
		"lit_draws", r.LitDraws,
		"heap_mb", r.HeapMB,
		"alloc_rate_mb", r.AllocRateMB,
		"gc", r.GCCount,
		"gc_max_pause_us", r.MaxPauseUs,
	)

	p.last = r
	p.frameCount = 0
	p.totals = FrameStats{}
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recently logged report.
func (p *Profiler) Last() Report {
	return p.last
}
