package controller

import (
	"fmt"

	"github.com/ocr-scanner/backend/internal/models"
)

// Event is an input to the panel state machine.
type Event int

const (
	EventSelect Event = iota
	EventScan
	EventSucceed
	EventFail
	EventRetry
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventSelect:
		return "select"
	case EventScan:
		return "scan"
	case EventSucceed:
		return "succeed"
	case EventFail:
		return "fail"
	case EventRetry:
		return "retry"
	case EventReset:
		return "reset"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// transitions is the complete panel state machine. Pairs that are absent are rejected.
var transitions = map[models.Panel]map[Event]models.Panel{
	models.PanelUpload: {
		EventSelect: models.PanelPreview,
		EventReset:  models.PanelUpload,
	},
	models.PanelPreview: {
		EventSelect: models.PanelPreview,
		EventScan:   models.PanelLoading,
		EventReset:  models.PanelUpload,
	},
	models.PanelLoading: {
		EventSucceed: models.PanelResult,
		EventFail:    models.PanelError,
		EventReset:   models.PanelUpload,
	},
	models.PanelResult: {
		EventSelect: models.PanelPreview,
		EventScan:   models.PanelLoading,
		EventReset:  models.PanelUpload,
	},
	models.PanelError: {
		EventSelect: models.PanelPreview,
		EventScan:   models.PanelLoading,
		EventRetry:  models.PanelPreview,
		EventReset:  models.PanelUpload,
	},
}

// Next returns the panel reached from 'from' on ev.
func Next(from models.Panel, ev Event) (models.Panel, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s panel", ErrInvalidTransition, ev, from)
	}
	return to, nil
}
