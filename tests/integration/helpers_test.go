//go:build integration
// +build integration

package integration

import (
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gokatarajesh/duel-platform/internal/auth/jwt"
	wsmsg "github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

type frame map[string]any

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// mintToken signs an access token with the server's JWT secret.
func mintToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	tokens := jwt.NewManager(jwt.TokenConfig{
		AccessSecret: []byte(envOrDefault("INTEGRATION_JWT_SECRET", "dev-secret")),
		Issuer:       envOrDefault("INTEGRATION_JWT_ISSUER", "duel-platform"),
	})
	token, err := tokens.GenerateAccessToken(userID, "")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func dialDuelWS(t *testing.T, userID uuid.UUID) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/duels"))
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	q := u.Query()
	q.Set("token", mintToken(t, userID))
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}

	if got := waitFor(t, conn, wsmsg.TypeConnected, 5*time.Second); got["user_id"] != userID.String() {
		t.Fatalf("connected for %v, want %s", got["user_id"], userID)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()

	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write message: %v", err)
	}
}

// waitFor reads frames until one of the wanted type arrives.
func waitFor(t *testing.T, conn *websocket.Conn, typ string, timeout time.Duration) frame {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		conn.SetReadDeadline(deadline)
		var msg frame
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg["type"] == typ {
			return msg
		}
	}
}
