package ws

import (
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Upgrader is shared by the HTTP layer for all websocket endpoints.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		allowed := []string{
			"http://localhost:3000",
			"https://localhost:3000",
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1:3000",
			"http://127.0.0.1",
		}
		if custom := os.Getenv("ALLOWED_ORIGINS"); custom != "" {
			for _, o := range strings.Split(custom, ",") {
				allowed = append(allowed, strings.TrimSpace(o))
			}
		}
		for _, o := range allowed {
			if origin == o {
				return true
			}
		}
		return isLoopbackOrigin(origin)
	},
}

// isLoopbackOrigin compares the parsed host exactly; a substring match would
// admit lookalikes such as localhost.evil.com.
func isLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// IsUpgrade reports whether the request is a websocket handshake.
func IsUpgrade(r *http.Request) bool {
	return websocket.IsWebSocketUpgrade(r)
}

// Serve upgrades an authenticated HTTP request and attaches the resulting
// connection to the hub. Identity must already be validated; a request that
// reaches Serve is past all auth checks.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, identity Identity) (*Session, error) {
	sock, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "userID", identity.UserID, "error", err)
		return nil, err
	}
	return hub.Attach(sock, identity), nil
}

// Reject upgrades the request only to close it with a policy code, so
// clients see a websocket-level rejection instead of a bare HTTP error.
// Used when identity was established but does not meet the endpoint's
// requirements (e.g. non-admin on the admin endpoint).
func Reject(w http.ResponseWriter, r *http.Request, code int, reason string) {
	sock, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer sock.Close()
	sock.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}
