package economy

import (
	"context"

	"siegefall/server/logging"
)

const (
	// EventGoldAwarded is emitted when a kill bounty is paid out.
	EventGoldAwarded logging.EventType = "economy.gold_awarded"
	// EventExperienceAwarded is emitted when kill experience is distributed.
	EventExperienceAwarded logging.EventType = "economy.experience_awarded"
)

type RewardPayload struct {
	Amount float64 `json:"amount"`
	Source string  `json:"source,omitempty"`
}

func GoldAwarded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RewardPayload) {
	publish(ctx, pub, tick, EventGoldAwarded, actor, payload)
}

func ExperienceAwarded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RewardPayload) {
	publish(ctx, pub, tick, EventExperienceAwarded, actor, payload)
}

func publish(ctx context.Context, pub logging.Publisher, tick uint64, typ logging.EventType, actor logging.EntityRef, payload RewardPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}
