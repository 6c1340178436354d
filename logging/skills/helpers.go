package skills

import (
	"context"

	"siegefall/server/logging"
)

const (
	// EventCast is emitted when a skill input executes successfully.
	EventCast logging.EventType = "skills.cast"
	// EventCastRejected is emitted when a skill input fails its checks.
	EventCastRejected logging.EventType = "skills.cast_rejected"
	// EventEffectExpired is emitted when an active skill effect runs out.
	EventEffectExpired logging.EventType = "skills.effect_expired"
)

type CastPayload struct {
	AbilityID string `json:"abilityId"`
	Level     int    `json:"level"`
	Effects   int    `json:"effects"`
}

type RejectPayload struct {
	AbilityID string `json:"abilityId"`
	Reason    string `json:"reason"`
}

type ExpirePayload struct {
	AbilityID string `json:"abilityId"`
	EffectID  string `json:"effectId"`
}

func Cast(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CastPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCast,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func CastRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RejectPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCastRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func EffectExpired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ExpirePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEffectExpired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}
