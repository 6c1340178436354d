package net

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/sim"
)

type syncSink struct {
	mu   sync.Mutex
	cmds []sim.Command
}

func (s *syncSink) Enqueue(cmd sim.Command) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	return true, ""
}

func (s *syncSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cmds)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHubRoundTrip(t *testing.T) {
	sink := &syncSink{}
	hub := NewHub(NewIntake(sink, nil, nil), nil, nil, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?player=p1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, "session registration", func() bool { return hub.SessionCount() == 1 })

	// Outbound: the broadcast topic is auto-subscribed.
	hub.Publish(proto.Message{
		Topic:    proto.TopicBroadcast,
		Envelope: proto.Envelope{T: proto.CategoryHeartbeat, A: proto.ActionResult},
	})
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env proto.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if env.T != proto.CategoryHeartbeat {
		t.Fatalf("envelope category = %q", env.T)
	}

	// Inbound: publishing on the session's own send topic reaches the sink.
	err = conn.WriteJSON(clientFrame{
		Op:    "publish",
		Topic: proto.TopicPlayerSend("p1"),
		Data:  []byte(`{"t":"skill","a":"C","d":{"abilityId":"fire_dash","targetX":1,"targetY":2}}`),
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "staged command", func() bool { return sink.len() == 1 })

	// Publishing on another player's topic is ignored.
	err = conn.WriteJSON(clientFrame{
		Op:    "publish",
		Topic: proto.TopicPlayerSend("p2"),
		Data:  []byte(`{"t":"skill","a":"C","d":{"abilityId":"fire_dash"}}`),
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if sink.len() != 1 {
		t.Fatalf("staged = %d, want still 1", sink.len())
	}
}

// Session churn must never trip a publisher: a broadcast racing an unregister
// used to hit a closed send channel.
func TestHubPublishSurvivesSessionChurn(t *testing.T) {
	hub := NewHub(nil, nil, nil, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			hub.Publish(proto.Message{
				Topic:    proto.TopicBroadcast,
				Envelope: proto.Envelope{T: proto.CategoryHeartbeat, A: proto.ActionResult},
			})
		}
	}()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?player=p1"
	for i := 0; i < 20; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		waitFor(t, "session registration", func() bool { return hub.SessionCount() == 1 })
		conn.Close()
		waitFor(t, "session teardown", func() bool { return hub.SessionCount() == 0 })
	}
	close(stop)
	wg.Wait()
}

func TestHubRequiresPlayer(t *testing.T) {
	hub := NewHub(nil, nil, nil, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("dial without player succeeded")
	}
}
