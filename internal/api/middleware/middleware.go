package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"linewatch-worker-go/internal/logging"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// websocket upgrades are logged by the hub
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			return
		}
		event := logging.Info(c)
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logging.Error(c)
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Interface("error", recovered).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("panic_recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH, HEAD")
		c.Header("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID, X-Requested-With, Origin, Cache-Control")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400") // 24 hours

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set(string(logging.CtxRequestID), requestID)
		c.Next()
	}
}

func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(logging.CtxStartTime), time.Now())
		c.Next()
	}
}

// AdminAuth guards privileged routes with a bearer token checked against a bcrypt hash.
// An empty hash disables the check.
func AdminAuth(hash string) gin.HandlerFunc {
	if hash == "" {
		log.Warn().Msg("ADMIN_TOKEN_HASH not set, privileged routes are open")
		return func(c *gin.Context) { c.Next() }
	}
	hashed := []byte(hash)

	return func(c *gin.Context) {
		token, ok := bearerToken(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if err := bcrypt.CompareHashAndPassword(hashed, []byte(token)); err != nil {
			logging.Warn(c).Str("path", c.Request.URL.Path).Msg("Rejected admin token")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid token"})
			return
		}
		c.Set(string(logging.CtxAdmin), true)
		c.Next()
	}
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token, ok && token != ""
}

// AdminRequest builds the admin check for live-view upgrades. Browsers cannot set headers
// on a WebSocket handshake, so a token query parameter is accepted as well.
// An empty hash makes every request an admin, matching AdminAuth.
func AdminRequest(hash string) func(r *http.Request) bool {
	if hash == "" {
		return func(*http.Request) bool { return true }
	}
	hashed := []byte(hash)

	return func(r *http.Request) bool {
		token, ok := bearerToken(r)
		if !ok {
			token = r.URL.Query().Get("token")
		}
		return token != "" && bcrypt.CompareHashAndPassword(hashed, []byte(token)) == nil
	}
}
