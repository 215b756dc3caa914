package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/monitoring"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// sendBuffer is the per-client event backlog. A client that stops
// reading loses events past this depth instead of stalling the broker.
const sendBuffer = 64

// Stream fans queue activity out to connected monitor clients. It
// implements the broker's Notifier hook, so wiring is one line:
// router.WithNotifier(stream).
type Stream struct {
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// inbound is the envelope for client-to-server frames. The monitor
// stream is write-mostly; ping is the only meaningful request.
type inbound struct {
	Type string `json:"type"`
}

// NewStream creates the monitor stream hub.
func NewStream(logger *logging.Logger) *Stream {
	return &Stream{
		logger:  logger,
		clients: make(map[string]*client),
	}
}

// WithMetrics adds connection and message tracking.
func (s *Stream) WithMetrics(metrics *monitoring.Metrics) *Stream {
	s.metrics = metrics
	return s
}

// Notify encodes the event once and hands it to every connected
// client. A client with a full backlog is skipped, never waited on.
func (s *Stream) Notify(event types.QueueEvent) {
	frame, err := sonic.Marshal(event)
	if err != nil {
		s.logger.Warn("queue event encode failed", zap.Error(err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cl := range s.clients {
		select {
		case cl.send <- frame:
		default:
			s.logger.Debug("monitor client lagging, event dropped",
				zap.String("client_id", cl.id),
				zap.String("queue", event.Queue))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordWSMessage("out", event.Type)
	}
}

// Count reports the number of connected clients.
func (s *Stream) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HandleConnection upgrades the request and streams queue events until
// the client disconnects.
func (s *Stream) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	cl := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	s.register(cl)
	defer s.unregister(cl)

	s.push(cl, map[string]interface{}{
		"type":      "system",
		"message":   "Connected to CoinFlow Monitor (Go)",
		"client_id": cl.id,
	})

	go s.writeLoop(cl)
	s.readLoop(cl)
}

func (s *Stream) readLoop(cl *client) {
	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			s.push(cl, map[string]interface{}{
				"type":    "error",
				"message": "malformed frame",
			})
			continue
		}

		if s.metrics != nil {
			s.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case "ping":
			s.push(cl, map[string]interface{}{
				"type":      "pong",
				"timestamp": time.Now().Unix(),
			})
		default:
			s.push(cl, map[string]interface{}{
				"type":    "error",
				"message": "unknown message type",
			})
		}
	}
}

// writeLoop is the single writer for the connection. It exits when the
// backlog channel is closed or a write fails; closing the connection
// unblocks the reader either way.
func (s *Stream) writeLoop(cl *client) {
	for frame := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.logger.Debug("monitor write failed",
				zap.String("client_id", cl.id), zap.Error(err))
			break
		}
	}
	cl.conn.Close()
}

// push queues a control frame for the client, dropping it if the
// backlog is full.
func (s *Stream) push(cl *client, data map[string]interface{}) {
	frame, err := sonic.Marshal(data)
	if err != nil {
		return
	}
	select {
	case cl.send <- frame:
	default:
	}
}

func (s *Stream) register(cl *client) {
	s.mu.Lock()
	s.clients[cl.id] = cl
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.IncWSConnections()
	}
	s.logger.Info("monitor client connected", zap.String("client_id", cl.id))
}

func (s *Stream) unregister(cl *client) {
	s.mu.Lock()
	_, ok := s.clients[cl.id]
	if ok {
		delete(s.clients, cl.id)
		close(cl.send)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	if s.metrics != nil {
		s.metrics.DecWSConnections()
	}
	s.logger.Info("monitor client disconnected", zap.String("client_id", cl.id))
}
