package ws

import (
	"strings"
	"testing"
	"time"

	"net/http/httptest"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/broker"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/simulate"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/tracing"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
)

func newStreamServer(t *testing.T) (*Stream, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stream := NewStream(logging.NewNop())
	engine := gin.New()
	engine.GET("/monitor/stream", stream.HandleConnection)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return stream, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/monitor/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, sonic.Unmarshal(raw, &frame))
	return frame
}

func TestConnectReceivesWelcome(t *testing.T) {
	stream, srv := newStreamServer(t)
	conn := dial(t, srv)

	frame := readFrame(t, conn)
	assert.Equal(t, "system", frame["type"])
	assert.NotEmpty(t, frame["client_id"])
	assert.Equal(t, 1, stream.Count())
}

func TestNotifyReachesClient(t *testing.T) {
	stream, srv := newStreamServer(t)
	conn := dial(t, srv)
	readFrame(t, conn) // welcome

	stream.Notify(types.QueueEvent{
		Type:      types.EventPublished,
		Queue:     "payment.processing",
		MessageID: "msg_01HQYW",
		TraceID:   strings.Repeat("a", 32),
		SpanID:    strings.Repeat("b", 16),
	})

	frame := readFrame(t, conn)
	assert.Equal(t, "published", frame["type"])
	assert.Equal(t, "payment.processing", frame["queue"])
	assert.Equal(t, strings.Repeat("a", 32), frame["trace_id"])
}

func TestPingPong(t *testing.T) {
	_, srv := newStreamServer(t)
	conn := dial(t, srv)
	readFrame(t, conn) // welcome

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type": "ping"}`)))
	assert.Equal(t, "pong", readFrame(t, conn)["type"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type": "subscribe"}`)))
	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "unknown message type", frame["message"])
}

func TestDisconnectUnregisters(t *testing.T) {
	stream, srv := newStreamServer(t)
	conn := dial(t, srv)
	readFrame(t, conn)
	require.Equal(t, 1, stream.Count())

	conn.Close()
	assert.Eventually(t, func() bool { return stream.Count() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestNotifyWithoutClients(t *testing.T) {
	stream := NewStream(logging.NewNop())
	assert.NotPanics(t, func() {
		stream.Notify(types.QueueEvent{Type: types.EventRouted, Queue: "payment.audit"})
	})
}

func TestBrokerEventsFlow(t *testing.T) {
	stream, srv := newStreamServer(t)
	conn := dial(t, srv)
	readFrame(t, conn) // welcome

	clock := simulate.NewFakeClock(time.Unix(1700000000, 0))
	router := broker.New(logging.NewNop()).
		WithClock(clock).
		WithDelay(simulate.Fixed(10 * time.Millisecond)).
		WithNotifier(stream)
	require.NoError(t, router.DeclareQueues(broker.DefaultQueues()))

	_, err := router.Publish(broker.QueueProcessing,
		map[string]interface{}{"amount": 1.0}, tracing.NewRootContext())
	require.NoError(t, err)

	frame := readFrame(t, conn)
	assert.Equal(t, types.EventPublished, frame["type"])
	assert.Equal(t, broker.QueueProcessing, frame["queue"])
}
