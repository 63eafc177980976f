// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// fixedAdmin returns an AdminCheck with a constant answer, or nil for
// members.
func fixedAdmin(admin bool) AdminCheck {
	if !admin {
		return nil
	}
	return func(context.Context) bool { return true }
}

func dial(t *testing.T, h *Hub, userID uuid.UUID, admin bool) *websocket.Conn {
	t.Helper()
	return dialCheck(t, h, userID, fixedAdmin(admin))
}

func dialCheck(t *testing.T, h *Hub, userID uuid.UUID, admin AdminCheck) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, userID, admin)
	}))
	t.Cleanup(srv.Close)

	before := h.Clients()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == before {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ev
}

func TestHubDeliversToRecipient(t *testing.T) {
	h := NewHub(nil, nil)
	alice, bob := uuid.New(), uuid.New()
	aliceConn := dial(t, h, alice, false)
	bobConn := dial(t, h, bob, false)

	h.Notify(context.Background(), ToUser(alice, KindPointsEarned, "Points", "+10 points for creating a post"))
	h.Notify(context.Background(), ToUser(bob, KindPostApproved, "Approved", "Your post is live"))

	if ev := readEvent(t, aliceConn); ev.Kind != KindPointsEarned || ev.Recipient != alice {
		t.Errorf("alice got %+v", ev)
	}
	if ev := readEvent(t, bobConn); ev.Kind != KindPostApproved {
		t.Errorf("bob got %+v", ev)
	}
}

func TestHubAdminAudience(t *testing.T) {
	h := NewHub(nil, nil)
	adminConn := dial(t, h, uuid.New(), true)
	userConn := dial(t, h, uuid.New(), false)

	h.Notify(context.Background(), ToAdmins(KindPostPending, "Review", "A post awaits review"))
	h.Notify(context.Background(), ToUser(uuid.Nil, KindError, "noise", "nobody"))

	if ev := readEvent(t, adminConn); ev.Kind != KindPostPending {
		t.Errorf("admin got %+v", ev)
	}

	_ = userConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, data, err := userConn.ReadMessage(); err == nil {
		t.Errorf("non-admin received %s", data)
	}
}

func TestHubRechecksAdminOnDelivery(t *testing.T) {
	h := NewHub(nil, nil)
	var revoked atomic.Bool
	conn := dialCheck(t, h, uuid.New(), func(context.Context) bool { return !revoked.Load() })

	h.Notify(context.Background(), ToAdmins(KindPostPending, "Review", "first"))
	if ev := readEvent(t, conn); ev.Message != "first" {
		t.Fatalf("admin got %+v", ev)
	}

	revoked.Store(true)
	h.Notify(context.Background(), ToAdmins(KindPostPending, "Review", "second"))

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Errorf("stream kept admin events after revocation: %s", data)
	}
}

func TestClientWants(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name  string
		c     client
		ev    Event
		wants bool
	}{
		{"own event", client{userID: id}, Event{Audience: AudienceUser, Recipient: id}, true},
		{"other user", client{userID: uuid.New()}, Event{Audience: AudienceUser, Recipient: id}, false},
		{"admin broadcast to admin", client{userID: id, admin: fixedAdmin(true)}, Event{Audience: AudienceAdmins}, true},
		{"admin broadcast to user", client{userID: id}, Event{Audience: AudienceAdmins}, false},
		{"admin broadcast after revocation", client{userID: id, admin: func(context.Context) bool { return false }}, Event{Audience: AudienceAdmins}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.wants(context.Background(), tt.ev); got != tt.wants {
				t.Errorf("wants = %v, want %v", got, tt.wants)
			}
		})
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub(nil, nil)
	id := uuid.New()
	c := &client{userID: id, send: make(chan []byte, 1)}
	h.register(c)

	h.deliver(context.Background(), ToUser(id, KindPointsEarned, "a", "a"))
	h.deliver(context.Background(), ToUser(id, KindPointsEarned, "b", "b"))

	if h.Clients() != 0 {
		t.Errorf("slow client still registered")
	}
}

func TestHubRelay(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("valkey not available: %v", err)
	}
	defer rdb.Close()

	a := NewHub(rdb, nil)
	b := NewHub(rdb, nil)
	go b.Run(ctx)

	id := uuid.New()
	conn := dial(t, b, id, false)

	// Give the subscription time to attach before publishing.
	time.Sleep(200 * time.Millisecond)
	a.Notify(ctx, ToUser(id, KindBadgeUnlocked, "Badge", "Reactor unlocked"))

	if ev := readEvent(t, conn); ev.Kind != KindBadgeUnlocked {
		t.Errorf("relayed event: %+v", ev)
	}
}
