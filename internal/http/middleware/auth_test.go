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

	"github.com/hi-deen/PharmaTrack/internal/auth"
	"github.com/hi-deen/PharmaTrack/internal/models"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

func authTestRouter(tm *auth.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/full", RequireAuth(tm), func(c *gin.Context) {
		principal, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": principal.ID, "role": principal.Role})
	})
	router.GET("/either", RequireAuthAllowPartial(tm), func(c *gin.Context) {
		principal, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": principal.ID, "pending": principal.MFAPending})
	})
	router.GET("/staff-only", RequireAuth(tm), RequireRole(models.RoleAdmin, models.RoleStaff), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doAuthRequest(router *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestRequireAuth_MissingToken(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour, 5*time.Minute)
	router := authTestRouter(tm)

	rec := doAuthRequest(router, "/full", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.CodeMissingCredentials, errorCode(t, rec))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/full", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.CodeMissingCredentials, errorCode(t, rec))
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour, 5*time.Minute)
	router := authTestRouter(tm)

	rec := doAuthRequest(router, "/full", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.CodeTokenInvalid, errorCode(t, rec))
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tm := auth.NewTokenManager("secret", time.Hour, 5*time.Minute).WithClock(func() time.Time { return now })
	router := authTestRouter(tm)

	token, err := tm.IssueFull("user-1", "staff", "staff@lab.local")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	rec := doAuthRequest(router, "/full", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.CodeTokenExpired, errorCode(t, rec))
}

func TestRequireAuth_RejectsPartialToken(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour, 5*time.Minute)
	router := authTestRouter(tm)

	partial, err := tm.IssuePartial("user-1")
	require.NoError(t, err)

	rec := doAuthRequest(router, "/full", partial)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.CodeTokenInvalid, errorCode(t, rec))
}

func TestRequireAuthAllowPartial_AcceptsBothVariants(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour, 5*time.Minute)
	router := authTestRouter(tm)

	partial, err := tm.IssuePartial("user-1")
	require.NoError(t, err)
	rec := doAuthRequest(router, "/either", partial)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending":true`)

	full, err := tm.IssueFull("user-1", "staff", "staff@lab.local")
	require.NoError(t, err)
	rec = doAuthRequest(router, "/either", full)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending":false`)
}

func TestRequireRole(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour, 5*time.Minute)
	router := authTestRouter(tm)

	staff, err := tm.IssueFull("user-1", "staff", "staff@lab.local")
	require.NoError(t, err)
	rec := doAuthRequest(router, "/staff-only", staff)
	assert.Equal(t, http.StatusOK, rec.Code)

	viewer, err := tm.IssueFull("user-2", "viewer", "viewer@lab.local")
	require.NoError(t, err)
	rec = doAuthRequest(router, "/staff-only", viewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, utils.CodeForbidden, errorCode(t, rec))
}

// RequireRole without RequireAuth in front must fail closed, not pass.
func TestRequireRole_WithoutPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/miswired", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/miswired", nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
