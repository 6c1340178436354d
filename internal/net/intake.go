package net

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/sim"
	"siegefall/server/logging"
	networklog "siegefall/server/logging/network"
)

// CommandSink stages parsed commands for the next tick. *sim.Loop satisfies
// it.
type CommandSink interface {
	Enqueue(cmd sim.Command) (bool, string)
}

// Intake turns inbound wire envelopes into staged simulation commands.
type Intake struct {
	Sink      CommandSink
	Publisher logging.Publisher
	Tick      func() uint64
}

func NewIntake(sink CommandSink, publisher logging.Publisher, tick func() uint64) *Intake {
	if tick == nil {
		tick = func() uint64 { return 0 }
	}
	return &Intake{Sink: sink, Publisher: publisher, Tick: tick}
}

// Handle parses one envelope from a player's send topic and stages it.
func (in *Intake) Handle(player string, raw []byte) {
	var env proto.InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		in.rejected(player, "", "", "malformed_envelope")
		return
	}
	if env.Name != "" {
		player = env.Name
	}
	cmd, err := ParseCommand(player, env, time.Now(), in.Tick())
	if err != nil {
		in.rejected(player, env.T, env.A, err.Error())
		return
	}
	if ok, reason := in.Sink.Enqueue(cmd); !ok {
		in.rejected(player, env.T, env.A, reason)
	}
}

func (in *Intake) rejected(player, kind, action, reason string) {
	networklog.CommandRejected(context.Background(), in.Publisher, in.Tick(), networklog.RejectPayload{
		Player: player,
		Kind:   kind,
		Action: action,
		Reason: reason,
	})
}

// ParseCommand maps an inbound envelope to a typed command. Unknown kinds and
// undecodable payloads are errors; the simulation never sees raw wire data.
func ParseCommand(player string, env proto.InboundEnvelope, now time.Time, tick uint64) (sim.Command, error) {
	cmd := sim.Command{
		OriginTick: tick,
		ActorID:    player,
		IssuedAt:   now,
	}
	switch env.T {
	case proto.KindTower:
		payload := &sim.TowerOpCommand{}
		if err := decodePayload(env.D, payload); err != nil {
			return sim.Command{}, err
		}
		payload.Action = env.A
		cmd.Type = sim.CommandTowerOp
		cmd.Tower = payload
	case proto.KindPlayer:
		// The skill action carries an ability payload and joins the skill
		// input queue like the standalone skill kind.
		if env.A == proto.ActionSkill {
			payload := &sim.SkillInputCommand{}
			if err := decodePayload(env.D, payload); err != nil {
				return sim.Command{}, err
			}
			if payload.AbilityID == "" {
				return sim.Command{}, fmt.Errorf("missing_ability_id")
			}
			cmd.Type = sim.CommandSkillInput
			cmd.Skill = payload
			return cmd, nil
		}
		payload := &sim.PlayerOpCommand{}
		if err := decodePayload(env.D, payload); err != nil {
			return sim.Command{}, err
		}
		payload.Action = env.A
		cmd.Type = sim.CommandPlayerOp
		cmd.Player = payload
	case proto.KindSkill:
		payload := &sim.SkillInputCommand{}
		if err := decodePayload(env.D, payload); err != nil {
			return sim.Command{}, err
		}
		if payload.AbilityID == "" {
			return sim.Command{}, fmt.Errorf("missing_ability_id")
		}
		cmd.Type = sim.CommandSkillInput
		cmd.Skill = payload
	case proto.KindScreenRequest:
		payload := &sim.ScreenRequestCommand{}
		if err := decodePayload(env.D, payload); err != nil {
			return sim.Command{}, err
		}
		payload.Action = env.A
		cmd.Type = sim.CommandScreenRequest
		cmd.Screen = payload
	default:
		return sim.Command{}, fmt.Errorf("unknown_kind")
	}
	return cmd, nil
}

// decodePayload round-trips the envelope's data field into the typed struct.
func decodePayload(data any, out any) error {
	if data == nil {
		return nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("malformed_payload")
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return fmt.Errorf("malformed_payload")
	}
	return nil
}
