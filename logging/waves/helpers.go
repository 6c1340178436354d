package waves

import (
	"context"

	"siegefall/server/logging"
)

const (
	// EventWaveStarted is emitted when a creep wave passes its start time.
	EventWaveStarted logging.EventType = "waves.started"
	// EventWaveAdvanced is emitted when every path of a wave has finished emitting.
	EventWaveAdvanced logging.EventType = "waves.advanced"
)

type WavePayload struct {
	WaveIndex int     `json:"waveIndex"`
	GameTime  float64 `json:"gameTime"`
}

func Started(ctx context.Context, pub logging.Publisher, tick uint64, payload WavePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWaveStarted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWaves,
		Payload:  payload,
	})
}

func Advanced(ctx context.Context, pub logging.Publisher, tick uint64, payload WavePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWaveAdvanced,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWaves,
		Payload:  payload,
	})
}
