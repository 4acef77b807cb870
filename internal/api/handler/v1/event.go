package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/api/handler/v1/request"
	"github.com/acg-climbing/sessions-api/internal/api/handler/v1/response"
	"github.com/acg-climbing/sessions-api/internal/api/middleware"
	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/service"
)

type EventService interface {
	Now() time.Time
	ListEvents(ctx context.Context, q domain.EventQuery) ([]domain.Event, error)
	CreateEvent(ctx context.Context, identity domain.Identity, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error)
	Calendar(ctx context.Context, from, to time.Time) ([]domain.CalendarEntry, error)
}

type ParticipantService interface {
	JoinEvent(ctx context.Context, identity domain.Identity, eventID uuid.UUID) (domain.EventParticipant, error)
	LeaveEvent(ctx context.Context, identity domain.Identity, eventID uuid.UUID) error
	ListParticipants(ctx context.Context, eventID uuid.UUID) ([]domain.EventParticipant, error)
}

type EventHandler struct {
	svc          EventService
	participants ParticipantService
}

func NewEventHandler(svc EventService, participants ParticipantService) *EventHandler {
	return &EventHandler{
		svc:          svc,
		participants: participants,
	}
}

func eventIDParam(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid event ID: %w", err)))
		return uuid.Nil, false
	}
	return id, true
}

// HandleListEvents godoc
// @Summary      List events
// @Description  Events ordered by start time, optionally inside a window and filtered by title or location.
// @Tags         events
// @Produce      json
// @Param        q     query     string false "case-insensitive search over title and location"
// @Param        from  query     string false "RFC 3339, events ending after"
// @Param        to    query     string false "RFC 3339, events starting before"
// @Success      200  {array}   response.Event
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events [get]
// @Security     BearerAuth
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	var q request.ListEventsQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := q.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	events, err := h.svc.ListEvents(ctx.Request.Context(), q.ToDomain())
	if err != nil {
		err = fmt.Errorf("v1.HandleListEvents -> h.svc.ListEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewEvents(events, h.svc.Now()))
}

// HandleCalendar godoc
// @Summary      Calendar entries
// @Description  Events shaped for a calendar widget. The tooltip is the description, or the title without one.
// @Tags         events
// @Produce      json
// @Param        from  query     string false "RFC 3339"
// @Param        to    query     string false "RFC 3339"
// @Success      200  {array}   domain.CalendarEntry
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/calendar [get]
// @Security     BearerAuth
func (h *EventHandler) HandleCalendar(ctx *gin.Context) {
	var q request.ListEventsQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := q.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entries, err := h.svc.Calendar(ctx.Request.Context(), q.From, q.To)
	if err != nil {
		err = fmt.Errorf("v1.HandleCalendar -> h.svc.Calendar -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      200  {object}  response.Event
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security     BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	event, err := h.svc.GetEvent(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", id))
			return
		}

		err = fmt.Errorf("v1.HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewEvent(event, h.svc.Now()))
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  Only roles with the create_event capability (lead) may create events.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateEventRequest  true  "Event details"
// @Success      201    {object}  response.Event
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /events [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateEvent(ctx.Request.Context(), identity, req.ToDomain())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionDenied):
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v cannot create events", identity.Profile.ID)))
		case errors.Is(err, service.ErrInvalidTimeRange), errors.Is(err, service.ErrEventInPast):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrCreatorGone):
			response.RenderErr(ctx, response.ErrUnauthorized(err))
		default:
			err = fmt.Errorf("v1.HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, response.NewEvent(created, h.svc.Now()))
}

// HandleListParticipants godoc
// @Summary      List participants
// @Tags         events,participants
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      200  {array}   domain.EventParticipant
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/participants [get]
// @Security     BearerAuth
func (h *EventHandler) HandleListParticipants(ctx *gin.Context) {
	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	participants, err := h.participants.ListParticipants(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", id))
			return
		}

		err = fmt.Errorf("v1.HandleListParticipants -> h.participants.ListParticipants -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, participants)
}

// HandleJoinEvent godoc
// @Summary      Join an event
// @Description  Registers the caller. Fails with 409 when already joined, full or finished.
// @Tags         events,participants
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      201  {object}  domain.EventParticipant
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/participants [post]
// @Security     BearerAuth
func (h *EventHandler) HandleJoinEvent(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	participant, err := h.participants.JoinEvent(ctx.Request.Context(), identity, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", id))
		case errors.Is(err, service.ErrAlreadyJoined),
			errors.Is(err, service.ErrEventFull),
			errors.Is(err, service.ErrEventEnded):
			response.RenderErr(ctx, response.ErrConflict(err))
		case errors.Is(err, service.ErrPermissionDenied):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrUnknownUser):
			response.RenderErr(ctx, response.ErrUnauthorized(err))
		default:
			err = fmt.Errorf("v1.HandleJoinEvent -> h.participants.JoinEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, participant)
}

// HandleLeaveEvent godoc
// @Summary      Leave an event
// @Tags         events,participants
// @Param        eventID  path      string  true  "Event ID"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/participants/me [delete]
// @Security     BearerAuth
func (h *EventHandler) HandleLeaveEvent(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	id, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	if err := h.participants.LeaveEvent(ctx.Request.Context(), identity, id); err != nil {
		if errors.Is(err, service.ErrNotJoined) {
			response.RenderErr(ctx, response.ErrNotFound("participation", "event ID", id))
			return
		}

		err = fmt.Errorf("v1.HandleLeaveEvent -> h.participants.LeaveEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
