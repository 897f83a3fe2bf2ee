// Package automation wraps desktop automation (cursor, clicks, scrolling,
// keystrokes) behind a narrow interface so the tracking loop and the voice
// command interpreter never touch the OS layer directly.
package automation

// Automator is the OS-automation surface consumed by head tracking and
// voice commands. All calls are fire-and-forget; failures are not reported
// back to callers.
type Automator interface {
	MoveMouse(x, y int)
	Click()
	DoubleClick()
	RightClick()
	// Scroll scrolls vertically; negative values scroll down.
	Scroll(delta int)
	TypeString(s string)
	// KeyTap presses a key, optionally with modifiers (e.g. "r", "cmd").
	KeyTap(key string, modifiers ...string)
	ScreenSize() (width, height int)
}
