package middleware

import (
	"context"
	"net/http"
	"strings"

	"supportmatch/internal/utils"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUserType = "user_type"
)

// tokenFromRequest reads a bearer token from the Authorization header. Browsers
// cannot set headers on websocket upgrades, so /ws may pass ?token= instead.
func tokenFromRequest(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || token == "" {
			return "", false
		}
		return token, true
	}
	if c.Request.Header.Get("Upgrade") != "" {
		if token := c.Query("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func setIdentity(c *gin.Context, claims *utils.JWTClaims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserType, claims.UserType)
	ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(ctx)
}

// AuthRequired middleware validates JWT token and sets user context
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := tokenFromRequest(c)
		if !ok {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through. A malformed or expired token is still rejected.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		tokenString, ok := tokenFromRequest(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_TOKEN", "Bearer token required")
			c.Abort()
			return
		}
		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

func requireUserType(message string, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := c.GetString(ContextUserType)
		if userType == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}
		for _, t := range allowed {
			if userType == t {
				c.Next()
				return
			}
		}
		utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message)
		c.Abort()
	}
}

// ProviderRequired lets professionals and NGOs through.
func ProviderRequired() gin.HandlerFunc {
	return requireUserType("Provider access required", utils.UserTypeProfessional, utils.UserTypeNGO)
}

// AdminRequired middleware ensures user is an admin
func AdminRequired() gin.HandlerFunc {
	return requireUserType("Admin access required", utils.UserTypeAdmin)
}
