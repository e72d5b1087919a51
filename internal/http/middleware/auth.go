package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hi-deen/PharmaTrack/internal/auth"
	"github.com/hi-deen/PharmaTrack/internal/models"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

const principalKey = "principal"

// Principal is the resolved identity attached to a request after token
// verification. MFAPending is true only for the short-lived partial token,
// which is accepted by the MFA endpoints alone.
type Principal struct {
	ID         string
	Role       models.Role
	Email      string
	MFAPending bool
}

// RequireAuth verifies the bearer token and attaches the Principal.
// Partial (MFA-pending) tokens are rejected here; routes that accept them
// use RequireAuthAllowPartial.
func RequireAuth(tm *auth.TokenManager) gin.HandlerFunc {
	return requireToken(tm, false)
}

// RequireAuthAllowPartial accepts both token variants, for the MFA setup
// and confirmation endpoints.
func RequireAuthAllowPartial(tm *auth.TokenManager) gin.HandlerFunc {
	return requireToken(tm, true)
}

func requireToken(tm *auth.TokenManager, allowPartial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortError(c, http.StatusUnauthorized, utils.CodeMissingCredentials, "missing token")
			return
		}

		claims, err := tm.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			code := utils.CodeTokenInvalid
			if err == auth.ErrTokenExpired {
				code = utils.CodeTokenExpired
			}
			abortError(c, http.StatusUnauthorized, code, "invalid token")
			return
		}

		if claims.MFAPending && !allowPartial {
			abortError(c, http.StatusUnauthorized, utils.CodeTokenInvalid, "invalid token")
			return
		}

		c.Set(principalKey, Principal{
			ID:         claims.UserID,
			Role:       models.Role(claims.Role),
			Email:      claims.Email,
			MFAPending: claims.MFAPending,
		})
		c.Next()
	}
}

// RequireRole gates a route to the given roles. Running it without
// RequireAuth in front is a wiring bug and fails closed.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, utils.CodeMissingCredentials, "missing token")
			return
		}
		if _, ok := allowed[principal.Role]; !ok {
			abortError(c, http.StatusForbidden, utils.CodeForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

// PrincipalFrom retrieves the principal attached by RequireAuth.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	val, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}
	principal, ok := val.(Principal)
	return principal, ok
}

func abortError(c *gin.Context, status int, code, message string) {
	utils.RespondError(c, utils.NewAppError(status, code, message, nil))
	c.Abort()
}
