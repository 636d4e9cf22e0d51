package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"arb_gateway/internal/models"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize       = 4096
	clientSendBufferSize = 64
	broadcastBufferSize  = 256
)

// NotificationMessage кадр, который получают подписчики ленты уведомлений.
type NotificationMessage struct {
	Type string                     `json:"type"`
	Data *models.NotificationRecord `json:"data"`
}

// Hub раздаёт записи журнала уведомлений всем подключённым клиентам.
// Медленные клиенты отключаются, Broadcast никогда не блокирует отправителя.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	dropped atomic.Int64
	done    chan struct{}

	upgrader websocket.Upgrader
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:        log.Named("ws"),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// админский порт, браузерный origin не проверяем
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Run главный цикл. Возвращается по отмене ctx и закрывает всех клиентов.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client connected", zap.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client disconnected", zap.Int("clients", n))

		case msg := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			var slow []*Client
			for _, c := range clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}

			if len(slow) > 0 {
				h.mu.Lock()
				for _, c := range slow {
					if _, ok := h.clients[c]; ok {
						delete(h.clients, c)
						close(c.send)
					}
				}
				h.mu.Unlock()
				h.log.Warn("removed slow clients", zap.Int("count", len(slow)))
			}
		}
	}
}

// Broadcast отправляет запись подписчикам. Если буфер полон, кадр теряется.
func (h *Hub) Broadcast(rec *models.NotificationRecord) {
	if rec == nil {
		return
	}
	data, err := sonic.Marshal(&NotificationMessage{Type: "notification", Data: rec})
	if err != nil {
		h.log.Error("marshal notification frame", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) DroppedMessages() int64 { return h.dropped.Load() }

// ServeWS апгрейдит соединение и подписывает клиента на ленту.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}

	c := &Client{
		conn: conn,
		hub:  h,
		send: make(chan []byte, clientSendBufferSize),
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
