package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eventhub/utils"
)

// Context keys set by Authenticate and OptionalAuth.
const (
	CtxUserID = "userId"
	CtxEmail  = "email"
	CtxRole   = "role"
)

func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func setClaims(c *gin.Context, cl *utils.Claims) {
	c.Set(CtxUserID, cl.UserID)
	c.Set(CtxEmail, cl.Email)
	c.Set(CtxRole, cl.Role)
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(tokens *utils.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Access denied, no token provided"})
			return
		}
		claims, err := tokens.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is sent. A token that is
// sent but invalid is still rejected.
func OptionalAuth(tokens *utils.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}
		claims, err := tokens.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// AdminChecker confirms an id still belongs to an admin.
type AdminChecker interface {
	IsAdmin(ctx context.Context, id string) (bool, error)
}

// AdminOnly must run after Authenticate.
func AdminOnly(admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRole) != utils.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied, not an admin"})
			return
		}
		ok, err := admins.IsAdmin(c.Request.Context(), c.GetString(CtxUserID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not verify admin"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied, not an admin"})
			return
		}
		c.Next()
	}
}
