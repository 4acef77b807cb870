package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acg-climbing/sessions-api/internal/api/handler/v1/response"
	"github.com/acg-climbing/sessions-api/internal/api/middleware"
	"github.com/acg-climbing/sessions-api/internal/service"
)

type FeedHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID, userID uuid.UUID) error
}

type FeedHandler struct {
	hub FeedHub
}

func NewFeedHandler(hub FeedHub) *FeedHandler {
	return &FeedHandler{
		hub: hub,
	}
}

// HandleFeed godoc
// @Summary      Live change feed
// @Description  WebSocket stream of event and participant changes. Each message carries a source and a revision that only grows per source. The stream closes when the session signs out.
// @Tags         events
// @Param        access_token  query  string  false  "token for clients that cannot set headers"
// @Success      101 {string} string "Switching Protocols to WebSocket"
// @Failure      401 {object} response.Err
// @Router       /events/feed [get]
// @Security     BearerAuth
func (h *FeedHandler) HandleFeed(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	if err := h.hub.ServeWS(ctx.Writer, ctx.Request, identity.SessionID, identity.Profile.ID); err != nil {
		// The upgrader has already written the error response.
		zap.L().Debug("feed upgrade failed", zap.Error(err))
	}
}
