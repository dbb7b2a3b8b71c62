// Package metrics tracks detection throughput.
package metrics

import (
	"math"
	"sync"
	"time"
)

// SampleInterval is the minimum time between two FPS recomputations.
const SampleInterval = time.Second

// FPS returns round(frames * 1000 / elapsedMillis). Non-positive elapsed yields 0.
func FPS(frames int, elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	return int(math.Round(float64(frames) * float64(time.Second) / float64(elapsed)))
}

// Tracker counts frames per wall-clock second. The only state is the frame counter
// and the baseline of the current sampling window, plus the last published value.
type Tracker struct {
	mu       sync.Mutex
	frames   int
	baseline time.Time
	fps      int
}

// NewTracker starts a sampling window at now.
func NewTracker(now time.Time) *Tracker {
	return &Tracker{baseline: now}
}

// Record counts one processed frame and re-samples if the window has elapsed.
func (t *Tracker) Record(now time.Time) (fps int, updated bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frames++
	return t.sampleLocked(now)
}

func (t *Tracker) sampleLocked(now time.Time) (int, bool) {
	elapsed := now.Sub(t.baseline)
	if elapsed < SampleInterval {
		return t.fps, false
	}

	t.fps = FPS(t.frames, elapsed)
	t.frames = 0
	t.baseline = now
	return t.fps, true
}

// FPS returns the last computed throughput.
func (t *Tracker) FPS() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fps
}

// Frames returns the number of frames counted in the current window.
func (t *Tracker) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Reset clears the counters and starts a new window at now.
func (t *Tracker) Reset(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frames = 0
	t.fps = 0
	t.baseline = now
}
