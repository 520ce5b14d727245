package models

import (
	"strings"
	"time"
)

type ActionType string

const (
	ActionSubject         ActionType = "Subject"
	ActionBody            ActionType = "Body"
	ActionAbTest          ActionType = "AbTest"
	ActionPersonalization ActionType = "Personalization"
	ActionCta             ActionType = "Cta"
	ActionSpam            ActionType = "Spam"
	ActionSummary         ActionType = "Summary"
)

// ActionTypes lists every action kind that owns a status slot.
var ActionTypes = []ActionType{
	ActionSubject,
	ActionBody,
	ActionAbTest,
	ActionPersonalization,
	ActionCta,
	ActionSpam,
	ActionSummary,
}

var actionSlugs = map[string]ActionType{
	"subject":         ActionSubject,
	"subject-lines":   ActionSubject,
	"body":            ActionBody,
	"ab-test":         ActionAbTest,
	"personalization": ActionPersonalization,
	"cta":             ActionCta,
	"ctas":            ActionCta,
	"spam":            ActionSpam,
	"summary":         ActionSummary,
}

// ParseActionSlug maps a URL path segment such as "ab-test" to its action.
func ParseActionSlug(slug string) (ActionType, bool) {
	a, ok := actionSlugs[strings.ToLower(slug)]
	return a, ok
}

// TakesText reports whether the action consumes free text instead of EmailInputs.
func (a ActionType) TakesText() bool {
	return a == ActionSpam || a == ActionSummary
}

// ActionStatus is the loading/error slot of one action kind.
type ActionStatus struct {
	Action    ActionType `json:"action"`
	Loading   bool       `json:"loading"`
	InFlight  int        `json:"in_flight"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ActionResult is what a one-shot action hands back to the presentation layer.
// Items is set for list actions, Text for the others. Error carries the
// user-visible apology when the action failed.
type ActionResult struct {
	Action ActionType `json:"action"`
	Text   string     `json:"text,omitempty"`
	Items  []string   `json:"items,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Failed reports whether the action produced an apology instead of content.
func (r ActionResult) Failed() bool {
	return r.Error != ""
}
