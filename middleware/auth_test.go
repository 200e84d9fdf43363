package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nehimi/myBlog/config"
	"github.com/Nehimi/myBlog/utils"
)

func authTestRouter(t *testing.T, handler gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	config.Reset()
	t.Cleanup(config.Reset)

	router := gin.New()
	router.GET("/protected", AuthRequired(), handler)
	router.GET("/optional", OptionalAuth(), handler)
	return router
}

func identityHandler(ctx *gin.Context) {
	userID, _ := ctx.Get(ContextUserIDKey)
	ctx.JSON(http.StatusOK, gin.H{"user_id": userID})
}

func decodeCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	router := authTestRouter(t, identityHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, decodeCode(t, w))
}

func TestAuthRequiredBadFormat(t *testing.T) {
	router := authTestRouter(t, identityHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40102, decodeCode(t, w))
}

func TestAuthRequiredInvalidToken(t *testing.T) {
	router := authTestRouter(t, identityHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40105, decodeCode(t, w))
}

func TestAuthRequiredValidToken(t *testing.T) {
	router := authTestRouter(t, identityHandler)

	token, err := utils.GenerateToken("64b0c3e1a2f4d5e6f7a8b9c0", "gopher", "author", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "64b0c3e1a2f4d5e6f7a8b9c0")
}

func TestAuthRequiredRevokedToken(t *testing.T) {
	router := authTestRouter(t, identityHandler)

	token, err := utils.GenerateToken("64b0c3e1a2f4d5e6f7a8b9c0", "gopher", "author", time.Hour)
	require.NoError(t, err)
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40104, decodeCode(t, w))
}

func TestOptionalAuthAnonymous(t *testing.T) {
	router := authTestRouter(t, identityHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optional", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthBadTokenStillPasses(t *testing.T) {
	router := authTestRouter(t, identityHandler)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthValidTokenSetsIdentity(t *testing.T) {
	router := authTestRouter(t, identityHandler)

	token, err := utils.GenerateToken("64b0c3e1a2f4d5e6f7a8b9c0", "gopher", "author", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "64b0c3e1a2f4d5e6f7a8b9c0")
}
