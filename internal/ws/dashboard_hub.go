package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zaqqye/institute_backend/internal/logger"
	"github.com/zaqqye/institute_backend/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
	queueSize      = 256
)

const (
	EventStudentCreated = "student.created"
	EventStudentUpdated = "student.updated"
	EventStudentDeleted = "student.deleted"
)

// Event is pushed to every connected dashboard.
type Event struct {
	Type      string      `json:"type"`
	StudentID string      `json:"studentId,omitempty"`
	Student   interface{} `json:"student,omitempty"`
	At        time.Time   `json:"at"`
}

// DashboardHub fans student record events out to admin, director and auditor
// dashboards. Run owns the client set; everything else talks to it over channels.
type DashboardHub struct {
	register   chan *dashboardClient
	unregister chan *dashboardClient
	broadcast  chan []byte
	count      chan chan int
	clients    map[*dashboardClient]struct{}
	done       chan struct{}
}

func NewDashboardHub() *DashboardHub {
	return &DashboardHub{
		register:   make(chan *dashboardClient),
		unregister: make(chan *dashboardClient),
		broadcast:  make(chan []byte, queueSize),
		count:      make(chan chan int),
		clients:    make(map[*dashboardClient]struct{}),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *DashboardHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.DashboardClients.Set(float64(len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case reply := <-h.count:
			reply <- len(h.clients)
		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					metrics.DashboardDropped.Inc()
					logger.Warn().Str("user_id", client.userID).Msg("dashboard client too slow, disconnecting")
					h.drop(client)
				}
			}
		}
	}
}

func (h *DashboardHub) drop(client *dashboardClient) {
	delete(h.clients, client)
	close(client.send)
	client.conn.Close()
	metrics.DashboardClients.Set(float64(len(h.clients)))
}

// Broadcast queues ev for delivery. It never blocks the caller: when the
// queue is full the event is dropped and logged.
func (h *DashboardHub) Broadcast(ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error().Err(err).Str("type", ev.Type).Msg("ws: failed to marshal event")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		metrics.DashboardDropped.Inc()
		logger.Warn().Str("type", ev.Type).Str("student_id", ev.StudentID).Msg("ws: event queue full, dropping")
	}
}

// ClientCount reports the number of connected clients, or 0 once Run has stopped.
func (h *DashboardHub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

type dashboardClient struct {
	hub    *DashboardHub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func newDashboardClient(hub *DashboardHub, conn *websocket.Conn, userID string) *dashboardClient {
	return &dashboardClient{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
	}
}

func (c *dashboardClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *dashboardClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
