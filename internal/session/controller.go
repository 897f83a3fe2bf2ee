package session

import (
	"sync"

	"go.uber.org/zap"
)

// TrackerRunner runs the head-tracking loop until the stop channel closes.
// Satisfied by tracking.Tracker.
type TrackerRunner interface {
	Run(stop <-chan struct{}) error
}

// VoiceListener is the background speech-capture capability. Satisfied by
// voice.Listener. A nil VoiceListener means no microphone is available.
type VoiceListener interface {
	Start() error
	Stop()
}

// Status is a read-only snapshot of the session state.
type Status struct {
	TrackingActive bool   `json:"tracking_active"`
	VoiceActive    bool   `json:"voice_active"`
	Username       string `json:"username,omitempty"`
	Language       string `json:"language,omitempty"`
}

// Controller starts and stops the hands-free session. It is the sole mutator
// of the session state; the tracking loop and voice callback only read it
// through accessors. At most one session is active at a time: a start while
// active is refused, not queued.
type Controller struct {
	tracker  TrackerRunner
	listener VoiceListener
	logger   *zap.SugaredLogger

	mu             sync.RWMutex
	user           *User
	trackingActive bool
	voiceActive    bool
	stopCh         chan struct{}

	// observer, if set, is notified of session lifecycle events.
	observer func(event, detail string)
}

// NewController creates a Controller. listener may be nil if no microphone
// capability exists; the session then runs with head tracking only.
func NewController(tracker TrackerRunner, listener VoiceListener, logger *zap.SugaredLogger) *Controller {
	return &Controller{
		tracker:  tracker,
		listener: listener,
		logger:   logger,
	}
}

// SetObserver registers a callback for session lifecycle events.
func (c *Controller) SetObserver(fn func(event, detail string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
}

// Start launches the hands-free session for the given user. It returns false
// if a session is already active; the running session is undisturbed.
// A missing microphone degrades to head-tracking only rather than failing
// the whole start.
func (c *Controller) Start(user *User) bool {
	c.mu.Lock()
	if c.trackingActive || c.voiceActive {
		c.mu.Unlock()
		c.logger.Warnw("hands-free start refused, session already active",
			"requested_by", user.Username)
		return false
	}

	c.user = user
	c.stopCh = make(chan struct{})
	c.trackingActive = true

	if c.listener != nil {
		if err := c.listener.Start(); err != nil {
			c.logger.Errorw("voice unavailable, continuing with head tracking only", "error", err)
		} else {
			c.voiceActive = true
		}
	} else {
		c.logger.Warn("no microphone capability, voice control disabled")
	}

	stop := c.stopCh
	observer := c.observer
	c.mu.Unlock()

	go func() {
		err := c.tracker.Run(stop)
		c.mu.Lock()
		c.trackingActive = false
		c.mu.Unlock()
		if err != nil {
			c.logger.Errorw("head tracking terminated", "error", err)
		}
	}()

	c.logger.Infow("hands-free session started",
		"user", user.Username,
		"language", user.Language,
		"voice", c.VoiceActive(),
	)
	if observer != nil {
		observer("session_started", user.Username)
	}
	return true
}

// Stop ends the session: clears the flags, stops the voice listener and
// signals the tracking loop, which exits at its next iteration boundary.
// Safe to call when no session is active, and from the voice pipeline itself.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}

	listener := c.listener
	wasVoice := c.voiceActive
	c.voiceActive = false

	var username string
	if c.user != nil {
		username = c.user.Username
	}
	c.user = nil
	observer := c.observer
	c.mu.Unlock()

	if wasVoice && listener != nil {
		listener.Stop()
	}

	if username != "" {
		c.logger.Infow("hands-free session stopped", "user", username)
		if observer != nil {
			observer("session_stopped", username)
		}
	}
}

// Active reports whether any part of the hands-free session is running.
func (c *Controller) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trackingActive || c.voiceActive
}

// VoiceActive reports whether voice control is running.
func (c *Controller) VoiceActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.voiceActive
}

// User returns the current session's user snapshot, or nil.
func (c *Controller) User() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Language returns the current session's spoken-language code, defaulting to
// English when no session is active.
func (c *Controller) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return "en"
	}
	return c.user.Language
}

// SetLanguage updates the active session's spoken-language code.
func (c *Controller) SetLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != nil {
		c.user.Language = lang
	}
}

// Status returns a snapshot of the session state.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Status{
		TrackingActive: c.trackingActive,
		VoiceActive:    c.voiceActive,
	}
	if c.user != nil {
		s.Username = c.user.Username
		s.Language = c.user.Language
	}
	return s
}
