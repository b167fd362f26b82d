package hub

import (
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Hub tracks connected web clients by socket id. The event feed is one
// way; every broadcast goes to all sockets.
type Hub struct {
	connMap sync.Map
	writeMu sync.Mutex
}

func New() *Hub {
	return &Hub{}
}

func (h *Hub) Add(socketId string, conn *websocket.Conn) {
	h.connMap.Store(socketId, conn)
}

func (h *Hub) Remove(socketId string) {
	if conn, ok := h.connMap.LoadAndDelete(socketId); ok {
		conn.(*websocket.Conn).Close()
	}
}

// Broadcast writes the raw envelope to every connected socket. A socket
// that fails to take the write is dropped.
func (h *Hub) Broadcast(raw []byte) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.connMap.Range(func(key, value interface{}) bool {
		socketId := key.(string)
		conn := value.(*websocket.Conn)

		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			log.Warnf("dropping socket %s: %v", socketId, err)
			h.connMap.Delete(socketId)
			conn.Close()
		}
		return true
	})
}

func (h *Hub) Count() int {
	count := 0
	h.connMap.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}
