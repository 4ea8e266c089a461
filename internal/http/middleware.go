package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/domain"
)

const userContextKey = "taskboard.user"

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, x-api-key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func accessLogMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Writer.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or returns "" when no usable bearer credential is present.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAuth accepts either a bearer token or an API key, token first.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := auth.Credentials{
			Token:  bearerToken(c),
			APIKey: c.GetHeader("x-api-key"),
		}
		user, err := h.authn.Authenticate(c.Request.Context(), creds)
		if err != nil {
			h.abortAuth(c, err, "Bearer, ApiKey")
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// requireToken accepts only a bearer token; no API key fallback.
func (h *Handler) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.authn.AuthenticateToken(c.Request.Context(), bearerToken(c))
		if err != nil {
			h.abortAuth(c, err, "Bearer")
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// requireAPIKey accepts only an API key; bearer tokens are ignored.
func (h *Handler) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.authn.AuthenticateAPIKey(c.Request.Context(), c.GetHeader("x-api-key"))
		if err != nil {
			h.abortAuth(c, err, "ApiKey")
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// abortAuth maps authentication outcomes to transport responses. Bad
// credentials are always 401 with a deliberately coarse message; only
// store failures become 500.
func (h *Handler) abortAuth(c *gin.Context, err error, schemes string) {
	if auth.IsStoreError(err) {
		h.logger.WithError(err).Error("authentication store failure")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Writer.Header().Set("WWW-Authenticate", schemes)

	var message string
	switch {
	case errors.Is(err, auth.ErrNoCredential):
		message = "Not authenticated"
	case errors.Is(err, auth.ErrAPIKeyRevoked):
		message = "API key has been revoked"
	case errors.Is(err, auth.ErrAPIKeyInvalid), errors.Is(err, auth.ErrAPIKeyOrphaned):
		message = "Invalid API key"
	default:
		message = "Could not validate credentials"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
