package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// quietPaths are polled by scrapers and probes; successful hits log at
// debug.
var quietPaths = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
	"/ready":   {},
}

// StatusMiddleware logs and counts each status-server request for node.
func StatusMiddleware(node string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(node, c.Request.Method, route, status, elapsed)

		var event *zerolog.Event
		switch _, quiet := quietPaths[route]; {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case quiet:
			event = logger.Debug()
		default:
			event = logger.Info()
		}
		event.
			Str("node", node).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", elapsed).
			Str("client_ip", c.ClientIP()).
			Msg("status request")
	}
}
