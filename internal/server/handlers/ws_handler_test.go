package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tutor-service/internal/server/middleware"
	"tutor-service/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsTestSecret = "ws-test-secret"

func wsToken(t *testing.T, userID uint, admin bool) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  float64(userID),
		"is_admin": admin,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(wsTestSecret))
	require.NoError(t, err)
	return signed
}

// fakePresence flags every queried id as online, so status tests can assert
// the Redis read side is consulted with the registry's ids.
type fakePresence struct{}

func (fakePresence) OnlineUsers(_ context.Context, userIDs []uint) ([]uint, error) {
	return userIDs, nil
}

func newWSServer(t *testing.T) (*httptest.Server, *ws.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub(ws.Config{HeartbeatInterval: 5 * time.Second, MaxMissedBeats: 3}, nil, nil)
	handler := NewWSHandler(hub, fakePresence{})

	router := gin.New()
	wsAuth := middleware.WSAuth(wsTestSecret)
	router.GET("/ws/status", handler.Status)
	router.GET("/ws", wsAuth, handler.Connect)
	router.GET("/ws/admin", wsAuth, handler.ConnectAdmin)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return srv, hub
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestWebSocketHeartbeatRoundTrip(t *testing.T) {
	srv, _ := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv, "/ws?token="+wsToken(t, 42, false)), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"heartbeat","status":"alive"}`, string(raw))
}

func TestWebSocketRequiresToken(t *testing.T) {
	srv, _ := newWSServer(t)

	// The handshake succeeds; the rejection arrives as a websocket-level
	// policy close that browser clients can observe.
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws"), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, ws.ClosePolicyAuth, closeErr.Code)
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	srv, hub := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws?token=not-a-jwt"), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, ws.ClosePolicyAuth, closeErr.Code)
	assert.Zero(t, hub.Stats().Users.Total)
}

func TestAdminEndpointRejectsNonAdmin(t *testing.T) {
	srv, _ := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv, "/ws/admin?token="+wsToken(t, 42, false)), nil)
	require.NoError(t, err, "rejection happens at the websocket layer, not the handshake")
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, ws.ClosePolicyAdmin, closeErr.Code)
}

func TestAdminEndpointAcceptsAdmin(t *testing.T) {
	srv, hub := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv, "/ws/admin?token="+wsToken(t, 1, true)), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.Stats().Admins.Total == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStatusReportsConnectionCounts(t *testing.T) {
	srv, _ := newWSServer(t)

	first, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv, "/ws?token="+wsToken(t, 42, false)), nil)
	require.NoError(t, err)
	defer first.Close()

	second, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv, "/ws?token="+wsToken(t, 42, false)), nil)
	require.NoError(t, err)
	defer second.Close()

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/ws/status")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		var status StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return false
		}
		return status.Stats.Users.Total == 1 &&
			status.Stats.Users.Connections[42] == 2 &&
			len(status.Online) == 1 && status.Online[0] == 42
	}, 2*time.Second, 10*time.Millisecond)
}
