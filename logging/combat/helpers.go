package combat

import (
	"context"

	"siegefall/server/logging"
)

const (
	// EventDamage is emitted when a damage instance resolves against a target.
	EventDamage logging.EventType = "combat.damage"
	// EventDeath is emitted when an entity is destroyed by combat.
	EventDeath logging.EventType = "combat.death"
	// EventProjectileImpact is emitted when a projectile resolves its impact.
	EventProjectileImpact logging.EventType = "combat.projectile_impact"
)

// DamagePayload captures the resolved damage components for a single target.
type DamagePayload struct {
	Physical     float64 `json:"physical"`
	Magical      float64 `json:"magical"`
	Pure         float64 `json:"pure"`
	Absorbed     float64 `json:"absorbed"`
	Dodged       bool    `json:"dodged,omitempty"`
	Crit         bool    `json:"crit,omitempty"`
	TargetHealth float64 `json:"targetHealth"`
}

// DeathPayload describes the fatal blow.
type DeathPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ImpactPayload describes a projectile impact and the number of units hit.
type ImpactPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius,omitempty"`
	Hits   int     `json:"hits"`
}

// Damage publishes a combat damage event for a single target.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DamagePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// Death publishes a combat death event for the destroyed entity.
func Death(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload DeathPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDeath,
		Tick:     tick,
		Actor:    target,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// ProjectileImpact publishes the resolution of a projectile.
func ProjectileImpact(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ImpactPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventProjectileImpact,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}
