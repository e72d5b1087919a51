package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hi-deen/PharmaTrack/internal/auth"
	"github.com/hi-deen/PharmaTrack/internal/config"
	"github.com/hi-deen/PharmaTrack/internal/http/middleware"
	"github.com/hi-deen/PharmaTrack/internal/mail"
	"github.com/hi-deen/PharmaTrack/internal/realtime"
	"github.com/hi-deen/PharmaTrack/internal/repo"
	"github.com/hi-deen/PharmaTrack/internal/services"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

type testServer struct {
	router *gin.Engine
	totp   auth.TOTP
	hub    *realtime.Hub
}

func newTestServer(t *testing.T, authLimit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       "router-test-secret",
		TokenTTL:        8 * time.Hour,
		PartialTokenTTL: 5 * time.Minute,
		ResetTokenTTL:   time.Hour,
		OTPCodeTTL:      5 * time.Minute,
		FrontendURL:     "http://app.local",
		PasswordMinLen:  10,
		TOTPIssuer:      "LabLive",
		RateLimitWindow: 15 * time.Minute,
		GlobalRateLimit: 1000,
		AuthRateLimit:   authLimit,
		AllowedOrigins:  []string{"http://app.local"},
	}

	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, cfg.PartialTokenTTL)
	totp := auth.NewTOTP(cfg.TOTPIssuer)
	hub := realtime.NewHub()

	authService := services.NewAuthService(
		repo.NewMemoryUserRepo(),
		repo.NewMemoryResetTokenRepo(),
		tokens, totp, mail.NewLogMailer(logger), cfg,
	)
	deptService := services.NewDepartmentService(repo.NewMemoryDepartmentRepo())
	activityService := services.NewActivityService(repo.NewMemoryActivityRepo(), hub)

	router := NewRouter(Dependencies{
		Config:            cfg,
		AuthService:       authService,
		DepartmentService: deptService,
		ActivityService:   activityService,
		Tokens:            tokens,
		Hub:               hub,
		Logger:            logger,
		GlobalRateLimiter: middleware.NewRateLimiter(cfg.GlobalRateLimit, cfg.RateLimitWindow),
		AuthRateLimiter:   middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.RateLimitWindow),
	})

	return &testServer{router: router, totp: totp, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func apiErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func (s *testServer) register(t *testing.T, name, email, password, role string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": password, "role": role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t, 100)

	s.register(t, "Jane Tech", "jane@lab.local", "Sup3r-secret!", "staff")

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "jane@lab.local", "password": "Sup3r-secret!",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	rec = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody(t, rec)
	assert.Equal(t, "jane@lab.local", me["email"])
	assert.Equal(t, "staff", me["role"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	s := newTestServer(t, 100)

	s.register(t, "Jane", "jane@lab.local", "Sup3r-secret!", "staff")

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Clone", "email": "JANE@lab.local", "password": "An0ther-pass!",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, utils.CodeConflict, apiErrorCode(t, rec))
}

func TestRegister_BadPayload(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "J", "email": "not-an-email", "password": "Sup3r-secret!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.CodeValidation, apiErrorCode(t, rec))
}

func TestLogin_BadCredentials(t *testing.T) {
	s := newTestServer(t, 100)

	s.register(t, "Jane", "jane@lab.local", "Sup3r-secret!", "staff")

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "jane@lab.local", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.CodeInvalidCredentials, apiErrorCode(t, rec))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, 100)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/departments"},
		{http.MethodGet, "/api/activities"},
		{http.MethodGet, "/api/events?department=dep-1"},
		{http.MethodPost, "/api/auth/2fa/disable"},
	} {
		rec := s.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, utils.CodeMissingCredentials, apiErrorCode(t, rec))
	}
}

func TestRoleGateOnWrites(t *testing.T) {
	s := newTestServer(t, 100)

	viewer := s.register(t, "Watcher", "viewer@lab.local", "Sup3r-secret!", "viewer")
	staff := s.register(t, "Jane", "jane@lab.local", "Sup3r-secret!", "staff")

	rec := s.do(t, http.MethodPost, "/api/departments", viewer, gin.H{"name": "Microbiology"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, utils.CodeForbidden, apiErrorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/departments", staff, gin.H{"name": "Microbiology"})
	require.Equal(t, http.StatusCreated, rec.Code)
	deptID, _ := decodeBody(t, rec)["id"].(string)
	require.NotEmpty(t, deptID)

	// Viewers still read.
	rec = s.do(t, http.MethodGet, "/api/departments", viewer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/activities", viewer, gin.H{
		"department_id": deptID, "activity_type": "EQUIP_ON",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestActivityCreateAndList(t *testing.T) {
	s := newTestServer(t, 100)

	staff := s.register(t, "Jane", "jane@lab.local", "Sup3r-secret!", "staff")

	rec := s.do(t, http.MethodPost, "/api/departments", staff, gin.H{"name": "Microbiology"})
	require.Equal(t, http.StatusCreated, rec.Code)
	deptID, _ := decodeBody(t, rec)["id"].(string)

	feed, cancel := s.hub.Subscribe(realtime.DepartmentRoom(deptID))
	defer cancel()

	rec = s.do(t, http.MethodPost, "/api/activities", staff, gin.H{
		"department_id": deptID,
		"activity_type": "EQUIP_ON",
		"details":       gin.H{"equipment": "centrifuge-2"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	assert.Equal(t, "completed", created["status"])
	assert.NotEmpty(t, created["performed_by"], "defaults to the caller")

	select {
	case ev := <-feed:
		assert.Equal(t, "activity:created", ev.Name)
	default:
		t.Fatal("activity not broadcast to the department feed")
	}

	rec = s.do(t, http.MethodGet, "/api/activities?departmentId="+deptID, staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 1)
}

func TestMFA_EndToEndOverHTTP(t *testing.T) {
	s := newTestServer(t, 100)

	full := s.register(t, "Jane", "jane@lab.local", "Sup3r-secret!", "staff")

	// Enroll.
	rec := s.do(t, http.MethodPost, "/api/auth/2fa/setup", full, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	secret, _ := decodeBody(t, rec)["secret"].(string)
	require.NotEmpty(t, secret)

	code, err := s.totp.CodeAt(secret, time.Now())
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/api/auth/2fa/verify", full, gin.H{"code": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Login now stops at the second factor.
	rec = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "jane@lab.local", "password": "Sup3r-secret!",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	loginBody := decodeBody(t, rec)
	assert.Equal(t, true, loginBody["mfaPending"])
	tempToken, _ := loginBody["tempToken"].(string)
	require.NotEmpty(t, tempToken)
	assert.NotContains(t, loginBody, "token")

	// The partial token opens no doors beyond the MFA endpoints.
	rec = s.do(t, http.MethodGet, "/api/auth/me", tempToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.CodeTokenInvalid, apiErrorCode(t, rec))

	// Wrong code, no token.
	rec = s.do(t, http.MethodPost, "/api/auth/verify-2fa", "", gin.H{
		"tempToken": tempToken, "code": "000000",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.CodeMFAInvalidCode, apiErrorCode(t, rec))

	// Right code finishes the login.
	code, err = s.totp.CodeAt(secret, time.Now())
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/api/auth/verify-2fa", "", gin.H{
		"tempToken": tempToken, "code": code,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sessionToken, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, sessionToken)

	rec = s.do(t, http.MethodGet, "/api/auth/me", sessionToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordResetRequest_NeverRevealsAccounts(t *testing.T) {
	s := newTestServer(t, 100)

	s.register(t, "Jane", "jane@lab.local", "Sup3r-secret!", "staff")

	known := s.do(t, http.MethodPost, "/api/auth/password-reset/request", "", gin.H{"email": "jane@lab.local"})
	unknown := s.do(t, http.MethodPost, "/api/auth/password-reset/request", "", gin.H{"email": "nobody@lab.local"})

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())
}

func TestPasswordResetConfirm_BadToken(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.do(t, http.MethodPost, "/api/auth/password-reset/confirm", "", gin.H{
		"token": "no-such-token", "newPassword": "Brand-new-p4ss",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.CodeTokenInvalid, apiErrorCode(t, rec))
}

func TestAuthEndpointsAreRateLimited(t *testing.T) {
	s := newTestServer(t, 3)

	body := gin.H{"email": "jane@lab.local", "password": "wrong"}
	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		last = s.do(t, http.MethodPost, "/api/auth/login", "", body)
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, utils.CodeRateLimit, apiErrorCode(t, last))
	assert.Equal(t, "3", last.Header().Get("RateLimit-Limit"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	// Non-auth routes stay on the roomier global budget.
	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventsStream_RequiresDepartment(t *testing.T) {
	s := newTestServer(t, 100)

	staff := s.register(t, "Jane", "jane@lab.local", "Sup3r-secret!", "staff")

	rec := s.do(t, http.MethodGet, "/api/events", staff, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.CodeValidation, apiErrorCode(t, rec))
}
