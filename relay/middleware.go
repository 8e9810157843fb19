package relay

import (
	"time"

	"github.com/Yulian302/lfusys-services-crmrelay/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const traceIDHeader = "X-Trace-ID"

// TraceID attaches a request-scoped logger carrying trace_id to the request
// context and echoes the id in the response.
func TraceID(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		child := l.With("trace_id", traceID)
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), child))
		c.Header(traceIDHeader, traceID)

		c.Next()
	}
}

func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logging.FromContext(c.Request.Context(), l).Info("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
