package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey string

// Keys the HTTP middleware stores on the gin context for request-scoped log fields.
const (
	CtxRequestID ctxKey = "request_id"
	CtxStartTime ctxKey = "start_time"
	// CtxAdmin is set once the bearer token matched; change logs then carry admin=true.
	CtxAdmin ctxKey = "admin"
)

// requestEvent tags e with the request id, the camera addressed by the route,
// whether the caller is an admin and the time spent so far.
func requestEvent(c *gin.Context, e *zerolog.Event) *zerolog.Event {
	if c == nil {
		return e
	}
	if id := c.GetString(string(CtxRequestID)); id != "" {
		e = e.Str("request_id", id)
	}
	if camera := c.Param("id"); camera != "" {
		e = e.Str("camera_id", camera)
	}
	if c.GetBool(string(CtxAdmin)) {
		e = e.Bool("admin", true)
	}
	if started, ok := c.Get(string(CtxStartTime)); ok {
		if t, ok := started.(time.Time); ok {
			e = e.Dur("duration", time.Since(t))
		}
	}
	return e
}

// Info, Debug, Warn and Error start a global log event carrying the request fields of c.
func Info(c *gin.Context) *zerolog.Event  { return requestEvent(c, log.Info()) }
func Debug(c *gin.Context) *zerolog.Event { return requestEvent(c, log.Debug()) }
func Warn(c *gin.Context) *zerolog.Event  { return requestEvent(c, log.Warn()) }
func Error(c *gin.Context) *zerolog.Event { return requestEvent(c, log.Error()) }
