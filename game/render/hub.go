package render

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/gorilla/websocket"
)

// Frame types sent to stream clients.
const (
	FrameLayout   = "layout"
	FrameSnapshot = "snapshot"
	FrameEvent    = "event"

	// MessageAck is sent by clients when a step finished animating.
	MessageAck = "ack"
)

const (
	clientBuffer = 256
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

// Frame is one message on the stream.
type Frame struct {
	Type     string         `json:"type"`
	Layout   *grid.Layout   `json:"layout,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Event    string         `json:"event,omitempty"`
	Data     any            `json:"data,omitempty"`
}

type clientMessage struct {
	Type string `json:"type"`
}

// Hub fans snapshots out to websocket clients. Every client first gets the
// layout, then the latest snapshot, then each new one. Slow clients lose
// frames instead of slowing the robot down.
type Hub struct {
	layout grid.Layout
	logger game.Logger

	mu      sync.Mutex
	clients map[uint64]chan []byte
	nextID  uint64
	last    []byte
	onAck   func()
	closed  bool
}

// NewHub creates a hub for a world with the given layout.
func NewHub(layout grid.Layout, logger game.Logger) *Hub {
	if logger == nil {
		logger = game.NopLogger()
	}
	return &Hub{
		layout:  layout,
		logger:  logger,
		clients: make(map[uint64]chan []byte),
	}
}

// OnAck registers the callback run for every client acknowledgement.
func (h *Hub) OnAck(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAck = fn
}

// Render broadcasts s.
func (h *Hub) Render(s game.Snapshot) {
	b, err := json.Marshal(Frame{Type: FrameSnapshot, Snapshot: &s})
	if err != nil {
		h.logger.Error(fmt.Sprintf("encoding snapshot %d: %s", s.Seq, err))
		return
	}

	h.mu.Lock()
	h.last = b
	h.mu.Unlock()
	h.broadcast(b)
}

// Publish broadcasts a named event such as the end of an exploration.
func (h *Hub) Publish(event string, data any) {
	b, err := json.Marshal(Frame{Type: FrameEvent, Event: event, Data: data})
	if err != nil {
		h.logger.Error(fmt.Sprintf("encoding %s event: %s", event, err))
		return
	}
	h.broadcast(b)
}

func (h *Hub) broadcast(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, out := range h.clients {
		select {
		case out <- b:
		default:
			h.logger.Warning(fmt.Sprintf("stream client %d is lagging, frame dropped", id))
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, out := range h.clients {
		close(out)
		delete(h.clients, id)
	}
}

func (h *Hub) join() (uint64, chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}

	h.nextID++
	out := make(chan []byte, clientBuffer)
	h.clients[h.nextID] = out
	if layout, err := json.Marshal(Frame{Type: FrameLayout, Layout: &h.layout}); err == nil {
		out <- layout
	}
	if h.last != nil {
		out <- h.last
	}
	return h.nextID, out, true
}

func (h *Hub) leave(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if out, ok := h.clients[id]; ok {
		close(out)
		delete(h.clients, id)
	}
}

func (h *Hub) ack() {
	h.mu.Lock()
	fn := h.onAck
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Serve streams to conn until the client leaves or the hub closes. It owns
// conn and closes it on return.
func (h *Hub) Serve(conn *websocket.Conn) {
	defer conn.Close()

	id, out, ok := h.join()
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"), time.Now().Add(time.Second))
		return
	}
	defer h.leave(id)
	h.logger.Info(fmt.Sprintf("stream client %d joined", id))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Writer goroutine.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-out:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
					_ = conn.Close()
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					_ = conn.Close()
					return
				}
			}
		}
	}()

	// Reader loop: acknowledgements only.
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var m clientMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			continue
		}
		if m.Type == MessageAck {
			h.ack()
		}
	}

	cancel()
	<-writeDone
	h.logger.Info(fmt.Sprintf("stream client %d left", id))
}
