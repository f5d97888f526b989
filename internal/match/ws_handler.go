package match

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gokatarajesh/duel-platform/internal/auth/jwt"
	"github.com/gokatarajesh/duel-platform/internal/logging"
	"github.com/gokatarajesh/duel-platform/internal/server"
	httperrors "github.com/gokatarajesh/duel-platform/pkg/http/errors"
	ws "github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

const messageTimeout = 10 * time.Second

// HandleWebSocket authenticates the caller, upgrades the connection and serves
// it until the peer goes away.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := jwt.TokenFromRequest(r)
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Missing token")
		return
	}

	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		code := httperrors.ErrCodeInvalidToken
		if errors.Is(err, jwt.ErrExpiredToken) {
			code = httperrors.ErrCodeTokenExpired
		}
		httperrors.RespondUnauthorized(w, code, "Invalid token")
		return
	}

	conn, err := server.WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	userID := claims.UserID
	logger := h.logger.With().Str("user_id", userID.String()).Logger()
	base := logging.IntoContext(context.Background(), logger)

	wsConn := ws.NewConnection(conn, logger)
	h.service.Connect(userID, wsConn)
	go wsConn.WritePump()

	wsConn.ReadPump(func(data []byte) {
		ctx, cancel := context.WithTimeout(base, messageTimeout)
		defer cancel()
		h.HandleMessage(ctx, userID, data)
	})

	ctx, cancel := context.WithTimeout(base, messageTimeout)
	defer cancel()
	h.service.Disconnect(ctx, userID, wsConn)
}
