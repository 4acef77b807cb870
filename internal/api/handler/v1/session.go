package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/api/handler/v1/request"
	"github.com/acg-climbing/sessions-api/internal/api/handler/v1/response"
	"github.com/acg-climbing/sessions-api/internal/api/middleware"
	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/service"
)

type SessionService interface {
	CreateSession(ctx context.Context, identity domain.Identity) (domain.ActiveSession, error)
	JoinSession(ctx context.Context, identity domain.Identity, code string) (domain.ActiveSession, error)
	CompleteSession(ctx context.Context, identity domain.Identity, id uuid.UUID) (domain.ActiveSession, error)
	GetSession(ctx context.Context, identity domain.Identity, id uuid.UUID) (domain.ActiveSession, error)
	SessionQR(ctx context.Context, identity domain.Identity, id uuid.UUID) ([]byte, error)
}

type SessionHandler struct {
	svc SessionService
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{
		svc: svc,
	}
}

// renderSessionErr maps session errors. key and value name the lookup for 404s.
func renderSessionErr(ctx *gin.Context, op, key, value string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.RenderErr(ctx, response.ErrNotFound("session", key, value))
	case errors.Is(err, service.ErrInvalidTransition):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrPermissionDenied), errors.Is(err, service.ErrNotSessionMember):
		response.RenderErr(ctx, response.ErrPermissionDenied(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}

func sessionIDParam(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("sessionID"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid session ID: %w", err)))
		return uuid.Nil, false
	}
	return id, true
}

// HandleCreateSession godoc
// @Summary      Open a guided session
// @Description  Leads and volunteers open a session and hand its join code to a climber.
// @Tags         sessions
// @Produce      json
// @Success      201  {object}  domain.ActiveSession
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /sessions [post]
// @Security     BearerAuth
func (h *SessionHandler) HandleCreateSession(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	session, err := h.svc.CreateSession(ctx.Request.Context(), identity)
	if err != nil {
		renderSessionErr(ctx, "v1.HandleCreateSession -> h.svc.CreateSession", "ID", "", err)
		return
	}

	ctx.JSON(http.StatusCreated, session)
}

// HandleJoinSession godoc
// @Summary      Join a session by code
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      request.JoinSessionRequest true "request body"
// @Success      200  {object}  domain.ActiveSession
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /sessions/join [post]
// @Security     BearerAuth
func (h *SessionHandler) HandleJoinSession(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	var req request.JoinSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	session, err := h.svc.JoinSession(ctx.Request.Context(), identity, req.Code)
	if err != nil {
		renderSessionErr(ctx, "v1.HandleJoinSession -> h.svc.JoinSession", "code", req.Code, err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// HandleCompleteSession godoc
// @Summary      Complete a session
// @Description  The guide or the paired climber closes an active session.
// @Tags         sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200  {object}  domain.ActiveSession
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /sessions/{sessionID}/complete [post]
// @Security     BearerAuth
func (h *SessionHandler) HandleCompleteSession(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	id, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	session, err := h.svc.CompleteSession(ctx.Request.Context(), identity, id)
	if err != nil {
		renderSessionErr(ctx, "v1.HandleCompleteSession -> h.svc.CompleteSession", "ID", id.String(), err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// HandleGetSession godoc
// @Summary      Get a session
// @Tags         sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200  {object}  domain.ActiveSession
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /sessions/{sessionID} [get]
// @Security     BearerAuth
func (h *SessionHandler) HandleGetSession(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	id, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	session, err := h.svc.GetSession(ctx.Request.Context(), identity, id)
	if err != nil {
		renderSessionErr(ctx, "v1.HandleGetSession -> h.svc.GetSession", "ID", id.String(), err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// HandleSessionQR godoc
// @Summary      Join code as a QR image
// @Tags         sessions
// @Produce      png
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /sessions/{sessionID}/qr [get]
// @Security     BearerAuth
func (h *SessionHandler) HandleSessionQR(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	id, ok := sessionIDParam(ctx)
	if !ok {
		return
	}

	png, err := h.svc.SessionQR(ctx.Request.Context(), identity, id)
	if err != nil {
		renderSessionErr(ctx, "v1.HandleSessionQR -> h.svc.SessionQR", "ID", id.String(), err)
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}
