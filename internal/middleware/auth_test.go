package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(m *AuthMiddleware, roles ...string) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{m.Authenticate()}
	if len(roles) > 0 {
		handlers = append(handlers, m.RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		clinicID, ok := ClinicID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, clinicID.String())
	})
	r.GET("/protected", handlers...)
	return r
}

func call(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewJWTService("test-secret", "availability-api")
	m := NewAuthMiddleware(tokens)
	clinicID := uuid.New()
	token, err := tokens.GenerateAccessToken(uuid.New(), clinicID, model.RoleStaff, time.Hour)
	require.NoError(t, err)

	w := call(protectedRouter(m), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, clinicID.String(), w.Body.String())
}

func TestAuthenticate_Rejects(t *testing.T) {
	tokens := auth.NewJWTService("test-secret", "availability-api")
	m := NewAuthMiddleware(tokens)

	expired, err := tokens.GenerateAccessToken(uuid.New(), uuid.New(), model.RoleStaff, -time.Minute)
	require.NoError(t, err)
	forged, err := auth.NewJWTService("other-secret", "availability-api").GenerateAccessToken(uuid.New(), uuid.New(), model.RoleStaff, time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := auth.NewJWTService("test-secret", "someone-else").GenerateAccessToken(uuid.New(), uuid.New(), model.RoleStaff, time.Hour)
	require.NoError(t, err)
	noClinic, err := tokens.GenerateAccessToken(uuid.New(), uuid.Nil, model.RoleStaff, time.Hour)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, model.TokenClaims{
		UserID: uuid.New(), ClinicID: uuid.New(), Role: model.RoleAdmin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"garbage", "Bearer not-a-token"},
		{"expired", "Bearer " + expired},
		{"wrong secret", "Bearer " + forged},
		{"wrong issuer", "Bearer " + wrongIssuer},
		{"missing clinic", "Bearer " + noClinic},
		{"unsigned", "Bearer " + noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(protectedRouter(m), tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"error"`)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewJWTService("test-secret", "")
	r := protectedRouter(NewAuthMiddleware(tokens), model.RoleAdmin, model.RoleStaff)

	staff, err := tokens.GenerateAccessToken(uuid.New(), uuid.New(), model.RoleStaff, time.Hour)
	require.NoError(t, err)
	professional, err := tokens.GenerateAccessToken(uuid.New(), uuid.New(), model.RoleProfessional, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, call(r, "Bearer "+staff).Code)
	assert.Equal(t, http.StatusForbidden, call(r, "Bearer "+professional).Code)
}
