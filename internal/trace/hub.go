package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans dispatch events out to whoever is watching: raw TCP followers get
// one JSON object per line, websocket followers get one text message per
// event. A hub with no observers costs one mutex hit per event.
type Hub struct {
	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	wsConns map[*websocket.Conn]struct{}
}

type Stats struct {
	TCPObservers int `json:"tcp_observers"`
	WSObservers  int `json:"ws_observers"`
}

func NewHub() *Hub {
	return &Hub{
		conns:   make(map[net.Conn]struct{}),
		wsConns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsConns[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsConns, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish broadcasts one event. A slow or dead observer is dropped rather
// than allowed to stall the dispatch path.
func (h *Hub) Publish(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	line := append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.conns {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		w := bufio.NewWriter(c)
		if _, err := w.Write(line); err != nil {
			_ = c.Close()
			delete(h.conns, c)
			continue
		}
		if err := w.Flush(); err != nil {
			_ = c.Close()
			delete(h.conns, c)
			continue
		}
	}

	for ws := range h.wsConns {
		_ = ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsConns, ws)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPObservers: len(h.conns),
		WSObservers:  len(h.wsConns),
	}
}

func (h *Hub) Welcome(conn net.Conn) {
	h.mu.Lock()
	n := len(h.conns)
	h.mu.Unlock()
	msg := fmt.Sprintf("{\"type\":\"welcome\",\"observers\":%d}\n", n)
	_, _ = conn.Write([]byte(msg))
}
