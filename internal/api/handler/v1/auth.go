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
	"github.com/acg-climbing/sessions-api/internal/config"
	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/pkg/jwthelper"
	"github.com/acg-climbing/sessions-api/internal/service"
)

const (
	stateCookie = "acg_oauth_state"
	stateTTL    = 10 * time.Minute
)

type AuthService interface {
	Signup(ctx context.Context, profile domain.Profile) (domain.Profile, domain.AuthSession, error)
	Login(ctx context.Context, email, password string) (domain.Profile, domain.AuthSession, error)
	GoogleLoginURL(state string) (string, error)
	GoogleCallback(ctx context.Context, code string) (domain.Profile, domain.AuthSession, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleSignup godoc
// @Summary      Sign up with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.SignupRequest true "request body"
// @Success      201      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/signup [post]
func (h *AuthHandler) HandleSignup(ctx *gin.Context) {
	var req request.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	profile := domain.Profile{
		Email:    req.Email,
		Password: req.Password,
	}
	if req.FullName != "" {
		profile.FullName = &req.FullName
	}

	created, session, err := h.svc.Signup(ctx.Request.Context(), profile)
	if err != nil {
		if errors.Is(err, service.ErrProfileEmailExists) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrProfileEmailExists))
			return
		}

		err = fmt.Errorf("v1.HandleSignup -> h.svc.Signup -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	h.renderSession(ctx, http.StatusCreated, created, session)
}

// HandleLogin godoc
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	profile, session, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) ||
			errors.Is(err, service.ErrWrongPassword) ||
			errors.Is(err, service.ErrNoPassword) {
			response.RenderErr(ctx, response.ErrWrongCredentials(err))

			return
		}

		err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	h.renderSession(ctx, http.StatusOK, profile, session)
}

// HandleGoogleLogin godoc
// @Summary      Start Google sign-in
// @Description  Redirects to the Google consent screen. The state is bound to a short-lived cookie.
// @Tags         auth
// @Success      307
// @Failure      503      {object}   response.Err
// @Router       /auth/google/login [get]
func (h *AuthHandler) HandleGoogleLogin(ctx *gin.Context) {
	nonce, state, err := jwthelper.NewState([]byte(h.conf.JWTSigningKey), stateTTL)
	if err != nil {
		err = fmt.Errorf("v1.HandleGoogleLogin -> jwthelper.NewState -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	url, err := h.svc.GoogleLoginURL(state)
	if err != nil {
		if errors.Is(err, service.ErrOAuthDisabled) {
			response.RenderErr(ctx, response.ErrServiceUnavailable(err))
			return
		}

		err = fmt.Errorf("v1.HandleGoogleLogin -> h.svc.GoogleLoginURL -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(stateCookie, nonce, int(stateTTL.Seconds()), "/", "", h.conf.Environment == "production", true)
	ctx.Redirect(http.StatusTemporaryRedirect, url)
}

// HandleGoogleCallback godoc
// @Summary      Finish Google sign-in
// @Description  Exchanges the authorization code, provisions the profile on first sign-in and opens a session.
// @Tags         auth
// @Produce      json
// @Param        code   query     string true "authorization code"
// @Param        state  query     string true "state from the login redirect"
// @Success      200      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/google/callback [get]
func (h *AuthHandler) HandleGoogleCallback(ctx *gin.Context) {
	if msg := ctx.Query("error"); msg != "" {
		response.RenderErr(ctx, response.ErrUnauthorized(fmt.Errorf("google sign-in: %s", msg)))
		return
	}

	nonce, _ := ctx.Cookie(stateCookie)
	ctx.SetCookie(stateCookie, "", -1, "/", "", h.conf.Environment == "production", true)

	if err := jwthelper.VerifyState([]byte(h.conf.JWTSigningKey), ctx.Query("state"), nonce); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid or expired oauth state")))
		return
	}

	code := ctx.Query("code")
	if code == "" {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("missing code")))
		return
	}

	profile, session, err := h.svc.GoogleCallback(ctx.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOAuthDisabled):
			response.RenderErr(ctx, response.ErrServiceUnavailable(err))
		case errors.Is(err, service.ErrUnverifiedEmail):
			response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnverifiedEmail))
		default:
			err = fmt.Errorf("v1.HandleGoogleCallback -> h.svc.GoogleCallback -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	h.renderSession(ctx, http.StatusOK, profile, session)
}

// HandleLogout godoc
// @Summary      Sign out
// @Description  Revokes the session behind the bearer token.
// @Tags         auth
// @Success      204
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/logout [post]
// @Security     BearerAuth
func (h *AuthHandler) HandleLogout(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(service.ErrUnauthenticated))
		return
	}

	if err := h.svc.Logout(ctx.Request.Context(), identity.SessionID); err != nil {
		err = fmt.Errorf("v1.HandleLogout -> h.svc.Logout -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) renderSession(ctx *gin.Context, status int, profile domain.Profile, session domain.AuthSession) {
	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), session, ctx.Request.UserAgent())
	if err != nil {
		err = fmt.Errorf("v1.renderSession -> jwthelper.GenerateToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(status, response.LoginResponse{
		Token:   token,
		Profile: profile,
	})
}
