package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/acg-climbing/sessions-api/internal/api/middleware"
	"github.com/acg-climbing/sessions-api/internal/domain"
)

func identityWith(role domain.Role) domain.Identity {
	return domain.NewIdentity(uuid.New(), domain.Profile{
		ID:    uuid.New(),
		Email: string(role) + "@acg.example",
		Role:  role,
	})
}

// newTestRouter stands in for VerifyJWT: identity, when set, is put on
// every request.
func newTestRouter(identity *domain.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		if identity != nil {
			middleware.SetIdentity(ctx, *identity)
		}
		ctx.Next()
	})

	return r
}

func doJSON(t *testing.T, r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}
