package match

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/duel-platform/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/duel-platform/pkg/http/errors"
	ws "github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

// TokenValidator resolves a connection token to the caller's identity.
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// Handler decodes client frames and routes them to the coordinator.
type Handler struct {
	service *Service
	tokens  TokenValidator
	logger  zerolog.Logger
}

// NewHandler creates a duel WebSocket handler.
func NewHandler(service *Service, tokens TokenValidator, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		tokens:  tokens,
		logger:  logger.With().Str("component", "duel_ws").Logger(),
	}
}

// HandleMessage routes one inbound frame from userID.
func (h *Handler) HandleMessage(ctx context.Context, userID uuid.UUID, raw []byte) {
	var msg ws.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("malformed frame")
		h.service.SendError(ctx, userID, httperrors.ErrCodeInvalidPayload)
		return
	}

	switch msg.Type {
	case ws.TypeQueueJoin:
		h.service.JoinQueue(ctx, userID)
	case ws.TypeQueueLeave:
		h.service.LeaveQueue(ctx, userID)
	case ws.TypeAnswerSubmit:
		h.handleAnswerSubmit(ctx, userID, msg)
	default:
		h.service.SendError(ctx, userID, httperrors.ErrCodeUnknownMessageType)
	}
}

func (h *Handler) handleAnswerSubmit(ctx context.Context, userID uuid.UUID, msg ws.ClientMessage) {
	// an id that cannot name a duel is reported like an unknown duel
	matchID, err := uuid.Parse(msg.MatchID)
	if err != nil {
		h.service.SendError(ctx, userID, httperrors.ErrCodeMatchNotFound)
		return
	}
	h.service.SubmitAnswer(ctx, userID, matchID, string(msg.Answer), msg.TaskID)
}
