package inspect

import (
	"encoding/json"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event severities broadcast over the /ws connection.
const (
	EventInfo = iota
	EventError
	EventProgress
)

type event struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) writePump(h *eventHub) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		h.unregister(c)
		c.conn.Close()
		ticker.Stop()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[inspect] ws write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// eventHub fans a pipeline run's progress events out to every connected
// inspect client.
type eventHub struct {
	mu       sync.Mutex
	clients  map[*wsClient]bool
	lastMsg  []byte
	incoming chan *event
}

func newEventHub() *eventHub {
	h := &eventHub{
		clients:  make(map[*wsClient]bool),
		incoming: make(chan *event, 16),
	}
	go h.run()
	return h
}

func (h *eventHub) run() {
	for e := range h.incoming {
		data, err := json.Marshal(e)
		if err != nil {
			log.Printf("[inspect] marshal event: %v", err)
			continue
		}
		h.mu.Lock()
		h.lastMsg = data
		for c := range h.clients {
			select {
			case c.send <- data:
			default:
			}
		}
		h.mu.Unlock()
	}
}

func (h *eventHub) register(conn *websocket.Conn) *wsClient {
	c := &wsClient{conn: conn, send: make(chan []byte, 32)}
	h.mu.Lock()
	h.clients[c] = true
	last := h.lastMsg
	h.mu.Unlock()
	if last != nil {
		c.send <- last
	}
	go c.writePump(h)
	return c
}

func (h *eventHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *eventHub) emit(msg string, typ int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	h.incoming <- &event{Message: msg, Time: time.Now(), Type: typ, Progress: progress}
}

func (h *eventHub) Info(msg string)                { h.emit(msg, EventInfo, 0) }
func (h *eventHub) Error(msg string)                { h.emit(msg, EventError, 0) }
func (h *eventHub) Progress(p float32, msg string)  { h.emit(msg, EventProgress, p) }
