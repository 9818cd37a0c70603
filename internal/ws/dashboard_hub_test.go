package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/zaqqye/institute_backend/internal/models"
)

func startServer(t *testing.T, hub *DashboardHub, role string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/dashboard", func(c *gin.Context) {
		c.Set("user", models.User{UserID: "u-1", Role: role, Active: true})
		c.Next()
	}, DashboardHandler(hub))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/dashboard"
}

func waitForClients(t *testing.T, hub *DashboardHub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDashboardReceivesBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewDashboardHub()
	go hub.Run(ctx)

	url := startServer(t, hub, models.RoleAuditor)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.Broadcast(Event{Type: EventStudentCreated, StudentID: "STU000001"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventStudentCreated || ev.StudentID != "STU000001" || ev.At.IsZero() {
		t.Errorf("event: %+v", ev)
	}

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestDashboardRejectsPlainUsers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewDashboardHub()
	go hub.Run(ctx)

	_, resp, err := websocket.DefaultDialer.Dial(startServer(t, hub, models.RoleUser), nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewDashboardHub() // not running: the queue fills and then drops
	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize+10; i++ {
			hub.Broadcast(Event{Type: EventStudentUpdated})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}

	var nilHub *DashboardHub
	nilHub.Broadcast(Event{Type: EventStudentDeleted})
}
