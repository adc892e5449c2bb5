package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stranger-chat/internal/config"
	"stranger-chat/internal/moderation"
	"stranger-chat/internal/server"
	"stranger-chat/internal/stats"
	"stranger-chat/internal/testutil"
)

func newTestApp(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{
			ServerAddr: "localhost:0",
			RateLimit:  1000,
			RateWindow: time.Minute,
		}
	}

	logger := testutil.TestLogger(t)

	mux := http.NewServeMux()
	su := stats.NewStatsUpdater(mux)
	su.Run()
	t.Cleanup(su.Stop)

	filter, err := moderation.New([]string{"badger"})
	require.NoError(t, err)

	cs, err := server.NewChatServer(logger, filter, su)
	require.NoError(t, err)
	go cs.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		cs.Shutdown(ctx)
	})

	app := NewChatApp(mux, logger, cs, su, cfg)

	ts := httptest.NewServer(app.mux.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func dialWs(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readServerMessage(t *testing.T, conn *websocket.Conn) *server.ServerMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg server.ServerMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return &msg
}

func writeClientMessage(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func TestHealth(t *testing.T) {
	ts := newTestApp(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Timestamp.IsZero())
	assert.GreaterOrEqual(t, health.Connections, int64(0))
}

func TestServeWs_RejectsDisallowedOrigin(t *testing.T) {
	ts := newTestApp(t, &config.Config{
		ServerAddr:     "localhost:0",
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimit:      1000,
		RateWindow:     time.Minute,
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	assert.Error(t, err, "expected the upgrade to be refused")
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestServeWs_PairingFlow(t *testing.T) {
	ts := newTestApp(t, nil)

	connA := dialWs(t, ts)
	connB := dialWs(t, ts)

	// both search; both get matched into the same room
	writeClientMessage(t, connA, `{"search":{}}`)
	// give a a moment to enqueue first so the pairing order is fixed
	time.Sleep(50 * time.Millisecond)
	writeClientMessage(t, connB, `{"search":{}}`)

	matchedA := readServerMessage(t, connA)
	matchedB := readServerMessage(t, connB)
	require.NotNil(t, matchedA.Matched)
	require.NotNil(t, matchedB.Matched)
	roomID := matchedA.Matched.Room
	assert.Equal(t, roomID, matchedB.Matched.Room)

	// a message is censored and relayed to the partner only
	writeClientMessage(t, connA, `{"message":{"room":"`+roomID+`","text":"hi badger"}}`)
	msg := readServerMessage(t, connB)
	require.NotNil(t, msg.Message)
	assert.Equal(t, "hi *****", msg.Message.Text)
	assert.Equal(t, "stranger", msg.Message.Sender)

	// extension notification reaches the partner
	writeClientMessage(t, connB, `{"extend_time":{"room":"`+roomID+`"}}`)
	ext := readServerMessage(t, connA)
	require.NotNil(t, ext.TimeExtended)

	// leaving notifies the partner and closes the session
	writeClientMessage(t, connB, `{"leave":{"room":"`+roomID+`"}}`)
	left := readServerMessage(t, connA)
	require.NotNil(t, left.PartnerLeft)

	writeClientMessage(t, connA, `{"message":{"room":"`+roomID+`","text":"hello?"}}`)
	errMsg := readServerMessage(t, connA)
	require.NotNil(t, errMsg.Error)
	assert.Equal(t, "not in room", errMsg.Error.Message)
}

func TestServeWs_SearchingAloneGetsNoEvent(t *testing.T) {
	ts := newTestApp(t, nil)

	conn := dialWs(t, ts)
	writeClientMessage(t, conn, `{"search":{}}`)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "expected no event while waiting for a partner")
}
