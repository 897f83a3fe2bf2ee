package automation

import (
	"fmt"
	"sync"
)

// Recorder is a test Automator that records every call it receives.
type Recorder struct {
	mu     sync.Mutex
	calls  []string
	width  int
	height int
}

// NewRecorder creates a Recorder reporting the given screen size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *Recorder) MoveMouse(x, y int) {
	r.record(fmt.Sprintf("move(%d,%d)", x, y))
}

func (r *Recorder) Click()       { r.record("click") }
func (r *Recorder) DoubleClick() { r.record("doubleclick") }
func (r *Recorder) RightClick()  { r.record("rightclick") }

func (r *Recorder) Scroll(delta int) {
	r.record(fmt.Sprintf("scroll(%d)", delta))
}

func (r *Recorder) TypeString(s string) {
	r.record(fmt.Sprintf("type(%q)", s))
}

func (r *Recorder) KeyTap(key string, modifiers ...string) {
	call := "keytap(" + key
	for _, m := range modifiers {
		call += "," + m
	}
	r.record(call + ")")
}

func (r *Recorder) ScreenSize() (int, int) {
	return r.width, r.height
}

// Calls returns a copy of the recorded call log.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many times the given call was recorded.
func (r *Recorder) Count(call string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

// Reset clears the call log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
