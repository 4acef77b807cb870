package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/api/handler/v1/response"
	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/pkg/jwthelper"
	"github.com/acg-climbing/sessions-api/internal/service"
)

const identityKey = "acg.identity"

var errMissingToken = errors.New("missing bearer token")

type IdentityResolver interface {
	Resolve(ctx context.Context, sessionID, userID uuid.UUID) (domain.Identity, error)
}

type Authenticator struct {
	signingKey []byte
	identities IdentityResolver
}

func NewAuthenticator(signingKey string, identities IdentityResolver) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
		identities: identities,
	}
}

// VerifyJWT resolves the caller from the bearer token and stores the
// identity on the context. Anything short of a live session is a 401.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(jwthelper.ErrInvalidToken))
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(jwthelper.ErrInvalidToken))
			return
		}
		sessionID, err := claims.SessionID()
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(jwthelper.ErrInvalidToken))
			return
		}

		identity, err := a.identities.Resolve(ctx.Request.Context(), sessionID, userID)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				response.RenderErr(ctx, response.ErrUnauthorized(err))
				return
			}

			err = fmt.Errorf("middleware.VerifyJWT -> a.identities.Resolve -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}

		ctx.Set(identityKey, identity)
		ctx.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter for websocket clients that cannot set headers.
func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ctx.Query("access_token")
}

// RequireCapability rejects callers whose role lacks c. It must run after
// VerifyJWT.
func RequireCapability(c domain.Capability) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		identity, ok := IdentityFrom(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		if !identity.Can(c) {
			response.RenderErr(ctx, response.ErrPermissionDenied(
				fmt.Errorf("role %s cannot %s", identity.Profile.Role, c)))
			return
		}

		ctx.Next()
	}
}

func IdentityFrom(ctx *gin.Context) (domain.Identity, bool) {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}

	identity, ok := v.(domain.Identity)
	return identity, ok
}

// SetIdentity is used by tests that mount handlers without VerifyJWT.
func SetIdentity(ctx *gin.Context, identity domain.Identity) {
	ctx.Set(identityKey, identity)
}
