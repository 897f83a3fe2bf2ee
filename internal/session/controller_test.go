package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeTracker blocks until the stop channel closes.
type fakeTracker struct {
	mu      sync.Mutex
	started int
	err     error
}

func (f *fakeTracker) Run(stop <-chan struct{}) error {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
	<-stop
	return f.err
}

func (f *fakeTracker) starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

type fakeListener struct {
	mu       sync.Mutex
	startErr error
	running  bool
	stops    int
}

func (f *fakeListener) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeListener) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	f.stops++
}

func patient() *User {
	return &User{
		Username:  "john",
		Name:      "John Smith",
		Role:      RolePatient,
		PatientID: "P001",
		Language:  "en",
	}
}

func TestController_StartAndStop(t *testing.T) {
	tracker := &fakeTracker{}
	listener := &fakeListener{}
	c := NewController(tracker, listener, zap.NewNop().Sugar())

	if !c.Start(patient()) {
		t.Fatal("expected start to succeed")
	}
	if !c.Active() || !c.VoiceActive() {
		t.Error("expected tracking and voice active after start")
	}
	if got := c.User(); got == nil || got.Username != "john" {
		t.Errorf("expected user john, got %v", got)
	}

	c.Stop()

	if c.VoiceActive() {
		t.Error("expected voice inactive after stop")
	}
	if c.User() != nil {
		t.Error("expected user cleared after stop")
	}
	if listener.stops != 1 {
		t.Errorf("expected listener stopped once, got %d", listener.stops)
	}

	// Tracking flag clears once the loop observes the stop signal.
	deadline := time.Now().Add(time.Second)
	for c.Active() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Active() {
		t.Error("expected session fully inactive after stop")
	}
}

func TestController_SecondStartRefused(t *testing.T) {
	tracker := &fakeTracker{}
	c := NewController(tracker, &fakeListener{}, zap.NewNop().Sugar())

	if !c.Start(patient()) {
		t.Fatal("first start should succeed")
	}
	if c.Start(&User{Username: "sarah", Role: RolePatient, Language: "es"}) {
		t.Error("second start while active should be refused")
	}

	// Original session undisturbed.
	if got := c.User(); got == nil || got.Username != "john" {
		t.Errorf("expected original user john, got %v", got)
	}
	if tracker.starts() != 1 {
		t.Errorf("expected one tracker launch, got %d", tracker.starts())
	}

	c.Stop()
}

func TestController_NoMicrophoneDegradesToTrackingOnly(t *testing.T) {
	tracker := &fakeTracker{}
	listener := &fakeListener{startErr: errors.New("no input device")}
	c := NewController(tracker, listener, zap.NewNop().Sugar())

	if !c.Start(patient()) {
		t.Fatal("start should succeed without a microphone")
	}
	if c.VoiceActive() {
		t.Error("voice should be inactive when the microphone is missing")
	}
	if !c.Active() {
		t.Error("head tracking should still be active")
	}

	c.Stop()
}

func TestController_NilListener(t *testing.T) {
	c := NewController(&fakeTracker{}, nil, zap.NewNop().Sugar())

	if !c.Start(patient()) {
		t.Fatal("start should succeed with no voice capability")
	}
	if c.VoiceActive() {
		t.Error("voice should be inactive with no listener")
	}

	c.Stop()
}

func TestController_StopIdempotent(t *testing.T) {
	c := NewController(&fakeTracker{}, &fakeListener{}, zap.NewNop().Sugar())

	c.Stop() // no session, must not panic

	c.Start(patient())
	c.Stop()
	c.Stop()
}

func TestController_RestartAfterStop(t *testing.T) {
	tracker := &fakeTracker{}
	c := NewController(tracker, &fakeListener{}, zap.NewNop().Sugar())

	c.Start(patient())
	c.Stop()

	// Wait for the loop goroutine to wind down.
	deadline := time.Now().Add(time.Second)
	for c.Active() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if !c.Start(patient()) {
		t.Error("expected start to succeed after a full stop")
	}
	c.Stop()
}

func TestController_LanguageAccessors(t *testing.T) {
	c := NewController(&fakeTracker{}, nil, zap.NewNop().Sugar())

	if got := c.Language(); got != "en" {
		t.Errorf("expected default language en, got %s", got)
	}

	u := patient()
	u.Language = "ar"
	c.Start(u)

	if got := c.Language(); got != "ar" {
		t.Errorf("expected session language ar, got %s", got)
	}

	c.SetLanguage("fr")
	if got := c.Language(); got != "fr" {
		t.Errorf("expected updated language fr, got %s", got)
	}

	c.Stop()
}

func TestController_ObserverSeesLifecycle(t *testing.T) {
	c := NewController(&fakeTracker{}, nil, zap.NewNop().Sugar())

	var mu sync.Mutex
	var events []string
	c.SetObserver(func(event, detail string) {
		mu.Lock()
		events = append(events, event+":"+detail)
		mu.Unlock()
	})

	c.Start(patient())
	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != "session_started:john" || events[1] != "session_stopped:john" {
		t.Errorf("unexpected events: %v", events)
	}
}
