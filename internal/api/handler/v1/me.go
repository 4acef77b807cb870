package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acg-climbing/sessions-api/internal/api/handler/v1/request"
	"github.com/acg-climbing/sessions-api/internal/api/handler/v1/response"
	"github.com/acg-climbing/sessions-api/internal/api/middleware"
	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/service"
)

type ProfileService interface {
	UpdateFullName(ctx context.Context, identity domain.Identity, fullName string) (domain.Identity, error)
}

type MeHandler struct {
	svc ProfileService
}

func NewMeHandler(svc ProfileService) *MeHandler {
	return &MeHandler{
		svc: svc,
	}
}

// HandleGetMe godoc
// @Summary      Current identity
// @Description  The signed-in profile and what its role allows.
// @Tags         me
// @Produce      json
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  response.Err
// @Router       /me [get]
// @Security     BearerAuth
func (h *MeHandler) HandleGetMe(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	ctx.JSON(http.StatusOK, identity)
}

// HandleUpdateMe godoc
// @Summary      Update display name
// @Tags         me
// @Accept       json
// @Produce      json
// @Param        request  body      request.UpdateProfileRequest true "request body"
// @Success      200  {object}  domain.Identity
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /me [patch]
// @Security     BearerAuth
func (h *MeHandler) HandleUpdateMe(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	var req request.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.UpdateFullName(ctx.Request.Context(), identity, req.FullName)
	if err != nil {
		err = fmt.Errorf("v1.HandleUpdateMe -> h.svc.UpdateFullName -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}
