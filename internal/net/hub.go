package net

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/telemetry"
	"siegefall/server/internal/vision"
	"siegefall/server/logging"
	networklog "siegefall/server/logging/network"
)

const (
	sessionSendBuffer = 256
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = 45 * time.Second
	maxFrameSize      = 64 * 1024
)

// clientFrame is the shape every inbound websocket message uses.
type clientFrame struct {
	Op    string          `json:"op"`
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type session struct {
	id     string
	player string
	conn   *websocket.Conn
	send   chan []byte
	// done is closed on unregister; send never is, so publishers racing a
	// disconnect park on done instead of panicking.
	done   chan struct{}
	topics map[string]bool
}

// Hub owns the websocket sessions and their topic subscriptions. Sessions
// subscribe to the topics they want; the simulation publishes without knowing
// who listens.
type Hub struct {
	intake    *Intake
	publisher logging.Publisher
	metrics   telemetry.Metrics
	tick      func() uint64
	upgrader  websocket.Upgrader

	// Vision scopes what each session may see; nil means passthrough.
	Vision vision.Filter

	mu       sync.RWMutex
	sessions map[*session]bool
	subs     map[string]map[*session]bool
}

func NewHub(intake *Intake, publisher logging.Publisher, metrics telemetry.Metrics, tick func() uint64) *Hub {
	if tick == nil {
		tick = func() uint64 { return 0 }
	}
	return &Hub{
		intake:    intake,
		publisher: publisher,
		metrics:   metrics,
		tick:      tick,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[*session]bool),
		subs:     make(map[string]map[*session]bool),
	}
}

// ServeHTTP upgrades the connection and runs the session until it closes. The
// player name arrives as a query parameter; the broadcast and the player's
// response topics are subscribed automatically.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		http.Error(w, "missing player", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s := &session{
		id:     uuid.NewString(),
		player: player,
		conn:   conn,
		send:   make(chan []byte, sessionSendBuffer),
		done:   make(chan struct{}),
		topics: make(map[string]bool),
	}
	// Subscribe before registering so a session is never visible without its
	// default topics.
	h.subscribe(s, proto.TopicBroadcast)
	h.subscribe(s, proto.TopicScreenResponse(player))
	h.register(s)
	networklog.ClientConnected(context.Background(), h.publisher, h.tick(),
		networklog.SessionPayload{Player: player, SessionID: s.id})

	go h.writePump(s)
	h.readPump(s)
}

// Publish fans one message out to the topic's subscribers. A subscriber with
// a full send buffer misses the message; the websocket write path must never
// stall the pump.
func (h *Hub) Publish(msg proto.Message) {
	encoded, err := json.Marshal(msg.Envelope)
	if err != nil {
		return
	}
	h.mu.RLock()
	subscribers := h.subs[msg.Topic]
	targets := make([]*session, 0, len(subscribers))
	for s := range subscribers {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if h.Vision != nil && !h.Vision.Visible(s.player, msg) {
			continue
		}
		select {
		case s.send <- encoded:
		case <-s.done:
		default:
			if h.metrics != nil {
				h.metrics.Add("hub_slow_client_dropped_total", 1)
			}
		}
	}
}

// SessionCount reports connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close terminates every session.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()
	for _, s := range sessions {
		s.conn.Close()
	}
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	h.sessions[s] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if !h.sessions[s] {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	for topic := range s.topics {
		delete(h.subs[topic], s)
		if len(h.subs[topic]) == 0 {
			delete(h.subs, topic)
		}
	}
	h.mu.Unlock()
	close(s.done)
	networklog.ClientDisconnected(context.Background(), h.publisher, h.tick(),
		networklog.SessionPayload{Player: s.player, SessionID: s.id})
}

func (h *Hub) subscribe(s *session, topic string) {
	if topic == "" {
		return
	}
	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*session]bool)
	}
	h.subs[topic][s] = true
	s.topics[topic] = true
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(s *session, topic string) {
	h.mu.Lock()
	delete(h.subs[topic], s)
	if len(h.subs[topic]) == 0 {
		delete(h.subs, topic)
	}
	delete(s.topics, topic)
	h.mu.Unlock()
}

func (h *Hub) readPump(s *session) {
	defer func() {
		h.unregister(s)
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		switch frame.Op {
		case "subscribe":
			h.subscribe(s, frame.Topic)
		case "unsubscribe":
			h.unsubscribe(s, frame.Topic)
		case "publish":
			// A session may only publish on its own send topic.
			if frame.Topic != proto.TopicPlayerSend(s.player) {
				continue
			}
			if h.intake != nil {
				h.intake.Handle(s.player, frame.Data)
			}
		}
	}
}

func (h *Hub) writePump(s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
