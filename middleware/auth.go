package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	UserContextKey    = "userID"
	RoleContextKey    = "role"
	EmailContextKey   = "email"
	SessionContextKey = "sessionID"
)

// RequireAuth validates the Bearer token and sets the caller's identity on
// the context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearerToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth sets identity when a valid token is present, and falls back
// to the X-Session-ID header for anonymous carts. Requests with neither are
// still allowed through.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := parseBearerToken(c); err == nil {
			setIdentity(c, claims)
		} else if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
			c.Set(SessionContextKey, sessionID)
		}
		c.Next()
	}
}

// AdminOnly restricts access to the admin role. Must run after RequireAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(RoleContextKey)
		if !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func parseBearerToken(c *gin.Context) (jwt.MapClaims, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, errors.New("missing bearer token")
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims jwt.MapClaims) {
	if v, ok := claims["user_id"].(string); ok {
		c.Set(UserContextKey, v)
	}
	if v, ok := claims["role"].(string); ok {
		c.Set(RoleContextKey, v)
	}
	if v, ok := claims["email"].(string); ok {
		c.Set(EmailContextKey, v)
	}
}

// GetUserID extracts the authenticated user's ID from the Gin context.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	val, ok := c.Get(UserContextKey)
	if !ok {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	idStr, ok := val.(string)
	if !ok || idStr == "" {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return uuid.Parse(idStr)
}

// GetSessionID extracts the anonymous session ID, if any.
func GetSessionID(c *gin.Context) (string, bool) {
	val, ok := c.Get(SessionContextKey)
	if !ok {
		return "", false
	}
	sessionID, ok := val.(string)
	return sessionID, ok && sessionID != ""
}
