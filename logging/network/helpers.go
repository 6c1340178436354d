package network

import (
	"context"

	"siegefall/server/logging"
)

const (
	// EventClientConnected is emitted when a player session subscribes.
	EventClientConnected logging.EventType = "network.client_connected"
	// EventClientDisconnected is emitted when a player session ends.
	EventClientDisconnected logging.EventType = "network.client_disconnected"
	// EventCommandRejected is emitted when an inbound command is refused.
	EventCommandRejected logging.EventType = "network.command_rejected"
	// EventPublishDropped is emitted when outbound backpressure drops a message.
	EventPublishDropped logging.EventType = "network.publish_dropped"
)

type SessionPayload struct {
	Player    string `json:"player"`
	SessionID string `json:"sessionId,omitempty"`
}

type RejectPayload struct {
	Player string `json:"player"`
	Kind   string `json:"kind"`
	Action string `json:"action,omitempty"`
	Reason string `json:"reason"`
}

type DropPayload struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Count    uint64 `json:"count"`
}

func ClientConnected(ctx context.Context, pub logging.Publisher, tick uint64, payload SessionPayload) {
	publishSession(ctx, pub, tick, EventClientConnected, payload)
}

func ClientDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, payload SessionPayload) {
	publishSession(ctx, pub, tick, EventClientDisconnected, payload)
}

func publishSession(ctx context.Context, pub logging.Publisher, tick uint64, typ logging.EventType, payload SessionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: payload.Player, Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func CommandRejected(ctx context.Context, pub logging.Publisher, tick uint64, payload RejectPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCommandRejected,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: payload.Player, Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func PublishDropped(ctx context.Context, pub logging.Publisher, tick uint64, payload DropPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPublishDropped,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
