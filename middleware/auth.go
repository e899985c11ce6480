package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/riserecover/server/utils"
)

const (
	// ContextUsernameKey stores the authenticated username inside Gin context.
	ContextUsernameKey = "username"
	// ContextIsAdminKey stores whether the token belongs to an administrator.
	ContextIsAdminKey = "is_admin"
	// ContextTokenKey stores the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
	// ContextTokenExpiryKey stores the token expiry.
	ContextTokenExpiryKey = "token_expiry"
)

// AuthRequired ensures the request is authenticated via a JWT in the Authorization header.
func AuthRequired() gin.HandlerFunc {
	return authenticate(false)
}

// StreamAuthRequired is AuthRequired for server-sent event endpoints. EventSource
// clients cannot set headers, so the token may also arrive as ?access_token=.
func StreamAuthRequired() gin.HandlerFunc {
	return authenticate(true)
}

func authenticate(allowQuery bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx, allowQuery)
		if !ok {
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextIsAdminKey, claims.IsAdmin)
		ctx.Set(ContextTokenKey, tokenString)
		if claims.ExpiresAt != nil {
			ctx.Set(ContextTokenExpiryKey, claims.ExpiresAt.Time)
		}
		ctx.Next()
	}
}

// bearerToken extracts the token from the Authorization header, or from the query
// string when allowQuery is set.
func bearerToken(ctx *gin.Context, allowQuery bool) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		if token := strings.TrimSpace(ctx.Query(utils.AccessTokenParam)); allowQuery && token != "" {
			return token, true
		}
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
		ctx.Abort()
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
		ctx.Abort()
		return "", false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
		ctx.Abort()
		return "", false
	}
	return tokenString, true
}

// AdminRequired rejects non-admin tokens. It must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !ctx.GetBool(ContextIsAdminKey) {
			utils.Error(ctx, http.StatusForbidden, utils.CodeForbidden, "admin only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// CurrentUsername returns the authenticated username.
func CurrentUsername(ctx *gin.Context) string {
	return ctx.GetString(ContextUsernameKey)
}

// CurrentToken returns the raw token and its expiry.
func CurrentToken(ctx *gin.Context) (string, time.Time) {
	return ctx.GetString(ContextTokenKey), ctx.GetTime(ContextTokenExpiryKey)
}
