// Package tracking implements head-tracking-as-mouse: cursor movement from a
// face landmark and blink-to-click with a debounce cooldown.
package tracking

import "time"

// BlinkDetector turns eyelid closure into discrete click events. A blink is
// registered when the eyelid distance drops below the threshold; further
// blinks are suppressed until the cooldown elapses. The cooldown is
// time-based, so it clears on its own regardless of how often Evaluate is
// called.
type BlinkDetector struct {
	threshold  float64
	cooldown   time.Duration
	pauseUntil time.Time
	now        func() time.Time
}

// NewBlinkDetector creates a BlinkDetector. The threshold is in normalized
// landmark units; 0.004 with a 1.2s cooldown matches a typical webcam setup
// but both are camera and lighting dependent.
func NewBlinkDetector(threshold float64, cooldown time.Duration) *BlinkDetector {
	return &BlinkDetector{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// SetClock replaces the time source. Tests use this to simulate cooldowns.
func (b *BlinkDetector) SetClock(now func() time.Time) {
	b.now = now
}

// Evaluate reports whether a click should be emitted for the given eyelid
// distance. No click is emitted while in cooldown regardless of distance.
func (b *BlinkDetector) Evaluate(openness float64) bool {
	now := b.now()
	if now.Before(b.pauseUntil) {
		return false
	}
	if openness < b.threshold {
		b.pauseUntil = now.Add(b.cooldown)
		return true
	}
	return false
}
