package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"musafir/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey    = "userID"
	userRoleKey  = "userRole"
	userEmailKey = "userEmail"
)

// Auth verifies the HS256 bearer token issued by the session service and puts
// user_id, role and email claims on the context. Tokens are never issued here.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortAuth(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid {
			abortAuth(c, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "invalid claims")
			return
		}
		uid := claimInt(claims["user_id"])
		if uid <= 0 {
			uid = claimInt(claims["sub"])
		}
		if uid <= 0 {
			abortAuth(c, http.StatusUnauthorized, "token has no user")
			return
		}
		role, _ := claims["role"].(string)
		if role == "" {
			role = domain.RoleUser
		}
		email, _ := claims["email"].(string)

		c.Set(userIDKey, uid)
		c.Set(userRoleKey, strings.ToLower(role))
		c.Set(userEmailKey, email)
		c.Next()
	}
}

func claimInt(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

func abortAuth(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
	})
}

// RequireRoles only lets through requests whose role is one of allowedRoles.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			abortAuth(c, http.StatusUnauthorized, "role missing from context")
			return
		}
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "role not allowed",
				"code":       "forbidden",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}

// Identity returns the authenticated caller as a RequestContext.
func Identity(c *gin.Context) domain.RequestContext {
	return domain.RequestContext{
		UserID:    c.GetInt64(userIDKey),
		Role:      c.GetString(userRoleKey),
		RequestID: GetRequestID(c),
	}
}

// Email is the email claim of the caller, if the token carried one.
func Email(c *gin.Context) string {
	return c.GetString(userEmailKey)
}
