// Package tray provides a system tray interface for the hospital portal,
// giving kiosk operators a way to stop a hands-free session without the
// keyboard or mouse the patient may not be able to use.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onStop   func()
	onPortal func()
	onQuit   func()
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuSession *systray.MenuItem
	menuStop    *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnStop sets the callback function to be called when the stop menu item is clicked.
func (t *Tray) OnStop(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStop = fn
}

// OnPortal sets the callback function to be called when the portal menu item is clicked.
func (t *Tray) OnPortal(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPortal = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Hospital Portal")
	systray.SetTooltip("Hands-Free Hospital Portal")

	t.menuSession = systray.AddMenuItem("Session: none", "Current hands-free session")
	t.menuSession.Disable()
	systray.AddSeparator()

	t.menuStop = systray.AddMenuItem("Stop Hands-Free", "Stop the running hands-free session")
	menuPortal := systray.AddMenuItem("Open Portal...", "Open the portal in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit the portal")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuStop.ClickedCh:
				t.handleStop()
			case <-menuPortal.ClickedCh:
				t.handlePortal()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleStop handles the stop menu item click.
func (t *Tray) handleStop() {
	t.mu.RLock()
	callback := t.onStop
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handlePortal handles the portal menu item click.
func (t *Tray) handlePortal() {
	t.mu.RLock()
	callback := t.onPortal
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetSession updates the session display in the menu.
func (t *Tray) SetSession(username string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuSession != nil {
		if username == "" {
			t.menuSession.SetTitle("Session: none")
		} else {
			t.menuSession.SetTitle("Session: " + username)
		}
	}
}
