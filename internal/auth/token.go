package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the payload of both token variants. Full tokens carry role and
// email; partial tokens carry only the subject and the MFAPending marker and
// are accepted by the MFA endpoints alone.
type Claims struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role,omitempty"`
	Email      string `json:"email,omitempty"`
	MFAPending bool   `json:"mfa_pending,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens. The signing key and TTLs
// are process-wide configuration loaded once at startup.
type TokenManager struct {
	secret     []byte
	fullTTL    time.Duration
	partialTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, fullTTL, partialTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		fullTTL:    fullTTL,
		partialTTL: partialTTL,
		now:        time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// IssueFull creates a session token asserting a verified principal.
func (m *TokenManager) IssueFull(userID string, role, email string) (string, error) {
	return m.sign(Claims{
		UserID: userID,
		Role:   role,
		Email:  email,
	}, m.fullTTL)
}

// IssuePartial creates the short-lived MFA-pending token issued after a
// correct password when a second factor is still required.
func (m *TokenManager) IssuePartial(userID string) (string, error) {
	return m.sign(Claims{
		UserID:     userID,
		MFAPending: true,
	}, m.partialTTL)
}

func (m *TokenManager) sign(claims Claims, ttl time.Duration) (string, error) {
	issuedAt := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify decodes and validates a token of either variant. The signing
// method is pinned to HS256 so a token signed with any other algorithm is
// rejected outright.
func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
