package automation

import "github.com/go-vgo/robotgo"

// robotgoAutomator implements Automator using robotgo.
type robotgoAutomator struct{}

// NewRobotgo returns an Automator backed by robotgo.
func NewRobotgo() Automator {
	return &robotgoAutomator{}
}

func (r *robotgoAutomator) MoveMouse(x, y int) {
	robotgo.Move(x, y)
}

func (r *robotgoAutomator) Click() {
	robotgo.Click("left", false)
}

func (r *robotgoAutomator) DoubleClick() {
	robotgo.Click("left", true)
}

func (r *robotgoAutomator) RightClick() {
	robotgo.Click("right", false)
}

func (r *robotgoAutomator) Scroll(delta int) {
	robotgo.Scroll(0, delta)
}

func (r *robotgoAutomator) TypeString(s string) {
	robotgo.TypeStr(s)
}

func (r *robotgoAutomator) KeyTap(key string, modifiers ...string) {
	args := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		args[i] = m
	}
	robotgo.KeyTap(key, args...)
}

func (r *robotgoAutomator) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}
