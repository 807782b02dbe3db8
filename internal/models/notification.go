package models

import "time"

// Severity is the tone of a transient notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a short-lived message shown independently of the current panel.
type Notification struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	ShownAt  time.Time `json:"shownAt"`
}
