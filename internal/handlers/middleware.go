package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"CT-SIGN/internal/domain"
	"CT-SIGN/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

// ClientInfoMiddleware captures the caller's address and user agent into the
// request context, where audit and signing pick them up, and logs the
// request once it is done.
func ClientInfoMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		clientIP := c.ClientIP()
		if clientIP == "" {
			clientIP = c.Request.RemoteAddr
		}
		info := domain.ClientInfo{IPAddress: clientIP, UserAgent: c.Request.UserAgent()}
		c.Request = c.Request.WithContext(services.WithClientInfo(c.Request.Context(), info))

		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"ip", clientIP,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// AdminAuth requires a Bearer JWT signed with secret and stores its subject
// as the creator identity. With allowHeader set and no token, the X-User-ID
// header is accepted instead; this is meant for local development only.
func AdminAuth(secret string, allowHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if userID := c.GetHeader("X-User-ID"); allowHeader && userID != "" {
				c.Set(userIDKey, userID)
				c.Next()
				return
			}
			abortUnauthorized(c, "Authorization token not provided")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortUnauthorized(c, "Invalid Authorization header format")
			return
		}
		if secret == "" {
			abortUnauthorized(c, "Token authentication is not configured")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		userID, err := token.Claims.GetSubject()
		if err != nil || userID == "" {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				userID = claimString(claims["user_id"])
			}
		}
		if userID == "" {
			abortUnauthorized(c, "Token has no user")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func claimString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: message, Code: "unauthorized"})
}
