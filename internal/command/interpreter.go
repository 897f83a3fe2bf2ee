// Package command interprets voice commands and dispatches them to desktop
// automation actions.
package command

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RamaAbdallah7/SWE-headAndVoice/internal/automation"
)

// Action names returned by Execute.
const (
	ActionScrollDown    = "scroll_down"
	ActionScrollUp      = "scroll_up"
	ActionDoubleClick   = "double_click"
	ActionRightClick    = "right_click"
	ActionClick         = "click"
	ActionOpenBrowser   = "open_browser"
	ActionOpenEditor    = "open_editor"
	ActionType          = "type"
	ActionNothingToType = "nothing_to_type"
	ActionStop          = "stop"
	ActionUnknown       = "unknown"
)

const scrollDelta = 200

var doubleClickPhrases = []string{"double click", "double press", "two clicks"}
var rightClickPhrases = []string{"right click", "right press", "context menu"}
var clickWords = []string{"click", "press", "select", "tap"}
var browserPhrases = []string{"open chrome", "launch chrome", "start chrome", "open browser"}
var editorPhrases = []string{"open notepad", "launch notepad", "start notepad", "open text editor"}
var typeTriggers = []string{"type", "write", "enter", "input"}
var stopWords = []string{"stop", "exit", "quit", "close system"}

// filterWords are dropped from dictated text before typing: determiners and
// generic nouns people say around the actual payload.
var filterWords = map[string]bool{
	"the": true, "a": true, "an": true, "some": true, "my": true,
	"your": true, "this": true, "that": true, "text": true, "words": true,
	"sentence": true, "phrase": true, "message": true, "content": true,
}

// rule is one entry of the ordered dispatch table. Rules are evaluated
// top-down and the first match wins, so the ordering is the contract:
// "double click" must never fall through to the generic click rule.
type rule struct {
	name  string
	match func(cmd string) bool
	run   func(i *Interpreter, cmd string) string
}

// Interpreter classifies normalized command text against a fixed rule table
// and invokes the matching automation action.
type Interpreter struct {
	auto   automation.Automator
	stop   func()
	logger *zap.SugaredLogger
	rules  []rule

	// observer, if set, is notified of every executed command.
	observer func(action, text string)

	// launchDelay is the pause between opening the run dialog and typing
	// the application name.
	launchDelay time.Duration
}

// New creates an Interpreter. stop is invoked when a session-stop command is
// recognized; it may be nil.
func New(auto automation.Automator, stop func(), logger *zap.SugaredLogger) *Interpreter {
	i := &Interpreter{
		auto:        auto,
		stop:        stop,
		logger:      logger,
		launchDelay: 300 * time.Millisecond,
	}
	i.rules = []rule{
		{
			name: ActionScrollDown,
			match: func(cmd string) bool {
				return (strings.Contains(cmd, "scroll") && strings.Contains(cmd, "down")) ||
					cmd == "down" || cmd == "scroll down"
			},
			run: func(i *Interpreter, cmd string) string {
				i.auto.Scroll(-scrollDelta)
				return ActionScrollDown
			},
		},
		{
			name: ActionScrollUp,
			match: func(cmd string) bool {
				return (strings.Contains(cmd, "scroll") && strings.Contains(cmd, "up")) ||
					cmd == "up" || cmd == "scroll up"
			},
			run: func(i *Interpreter, cmd string) string {
				i.auto.Scroll(scrollDelta)
				return ActionScrollUp
			},
		},
		{
			name:  ActionDoubleClick,
			match: containsAny(doubleClickPhrases),
			run: func(i *Interpreter, cmd string) string {
				i.auto.DoubleClick()
				return ActionDoubleClick
			},
		},
		{
			name:  ActionRightClick,
			match: containsAny(rightClickPhrases),
			run: func(i *Interpreter, cmd string) string {
				i.auto.RightClick()
				return ActionRightClick
			},
		},
		{
			name:  ActionClick,
			match: containsAny(clickWords),
			run: func(i *Interpreter, cmd string) string {
				i.auto.Click()
				return ActionClick
			},
		},
		{
			name:  ActionOpenBrowser,
			match: containsAny(browserPhrases),
			run: func(i *Interpreter, cmd string) string {
				i.launchApp("chrome")
				return ActionOpenBrowser
			},
		},
		{
			name:  ActionOpenEditor,
			match: containsAny(editorPhrases),
			run: func(i *Interpreter, cmd string) string {
				i.launchApp("notepad")
				return ActionOpenEditor
			},
		},
		{
			name:  ActionType,
			match: containsAny(typeTriggers),
			run: func(i *Interpreter, cmd string) string {
				payload := CleanTextForTyping(ExtractPayload(cmd))
				if payload == "" {
					i.logger.Infow("nothing to type", "command", cmd)
					return ActionNothingToType
				}
				i.auto.TypeString(payload)
				return ActionType
			},
		},
		{
			name:  ActionStop,
			match: containsAny(stopWords),
			run: func(i *Interpreter, cmd string) string {
				if i.stop != nil {
					i.stop()
				}
				return ActionStop
			},
		},
	}
	return i
}

// SetObserver registers a callback notified of every executed command with
// its resolved action name.
func (i *Interpreter) SetObserver(fn func(action, text string)) {
	i.observer = fn
}

// SetLaunchDelay overrides the run-dialog pause. Tests set this to zero.
func (i *Interpreter) SetLaunchDelay(d time.Duration) {
	i.launchDelay = d
}

// Execute normalizes the command and dispatches it through the rule table.
// It returns the name of the action taken, or ActionUnknown if nothing
// matched (in which case no side effect occurs).
func (i *Interpreter) Execute(raw string) string {
	cmd := strings.ToLower(strings.TrimSpace(raw))
	if cmd == "" {
		return ActionUnknown
	}

	for _, r := range i.rules {
		if r.match(cmd) {
			action := r.run(i, cmd)
			i.logger.Infow("command executed", "action", action, "command", cmd)
			if i.observer != nil {
				i.observer(action, cmd)
			}
			return action
		}
	}

	i.logger.Infow("unknown command", "command", cmd)
	if i.observer != nil {
		i.observer(ActionUnknown, cmd)
	}
	return ActionUnknown
}

// launchApp opens the OS run dialog, types the application name and confirms.
func (i *Interpreter) launchApp(name string) {
	i.auto.KeyTap("r", "cmd")
	time.Sleep(i.launchDelay)
	i.auto.TypeString(name)
	i.auto.KeyTap("enter")
}

// ExtractPayload returns everything after the first occurrence of whichever
// text-entry trigger word appears, checked in fixed order.
func ExtractPayload(cmd string) string {
	for _, trigger := range typeTriggers {
		if idx := strings.Index(cmd, trigger); idx >= 0 {
			return strings.TrimSpace(cmd[idx+len(trigger):])
		}
	}
	return cmd
}

// CleanTextForTyping removes determiners and generic filler nouns from
// dictated text before it is typed.
func CleanTextForTyping(text string) string {
	if text == "" {
		return ""
	}
	var kept []string
	for _, word := range strings.Fields(text) {
		if !filterWords[strings.ToLower(word)] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

func containsAny(phrases []string) func(string) bool {
	return func(cmd string) bool {
		for _, p := range phrases {
			if strings.Contains(cmd, p) {
				return true
			}
		}
		return false
	}
}
