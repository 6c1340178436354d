package simulation

import (
	"context"
	"time"

	"siegefall/server/logging"
)

const (
	// EventTickOverrun is emitted when a tick exceeds its wall-clock budget.
	EventTickOverrun logging.EventType = "simulation.tick_overrun"
	// EventStageFailed is emitted when a scheduler stage returns an error.
	EventStageFailed logging.EventType = "simulation.stage_failed"
)

type TickOverrunPayload struct {
	Duration time.Duration `json:"duration"`
	Budget   time.Duration `json:"budget"`
}

type StageFailedPayload struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

func TickOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickOverrunPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickOverrun,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

func StageFailed(ctx context.Context, pub logging.Publisher, tick uint64, payload StageFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStageFailed,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityError,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}
