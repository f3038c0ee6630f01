package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loancrm/internal/models"
)

var secret = []byte("test-secret")

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(secret))
	r.GET("/whoami", func(c *gin.Context) {
		v, _ := c.Get(ActingKey)
		c.JSON(http.StatusOK, v)
	})
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	acting := models.ActingContext{UserID: 7, OrganizationID: 3}
	token, err := NewToken(secret, acting, time.Hour)
	require.NoError(t, err)

	w := do(r, "/whoami", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"organization_id":3,"is_admin":false}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "garbage").Code)
	assert.Equal(t, http.StatusOK, do(r, "/healthz", "").Code)
}

func TestAuthMiddlewareRejectsForeignSecretAndExpired(t *testing.T) {
	r := newRouter()
	acting := models.ActingContext{UserID: 7, OrganizationID: 3}

	foreign, err := NewToken([]byte("other"), acting, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", foreign).Code)

	expired, err := NewToken(secret, acting, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", expired).Code)
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter()
	user, _ := NewToken(secret, models.ActingContext{UserID: 1, OrganizationID: 1}, time.Hour)
	admin, _ := NewToken(secret, models.ActingContext{UserID: 2, OrganizationID: 1, IsAdmin: true}, time.Hour)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", user).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
}
