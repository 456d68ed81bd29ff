package service

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/apperr"
)

const requestIDHeader = "X-Request-Id"

// requestID takes the request id from the header or creates one, echoes it in the response and
// attaches it to the logging context.
func (s *Service) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)
		ctx := s.logg.WithRequestID(c.Request.Context(), reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// observe records the duration of every request by route.
func (s *Service) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.metrics.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

func (s *Service) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := s.logg.WithFields(c.Request.Context(), map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
		start := time.Now()
		s.logg.Info(ctx, "request.start")

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		ctx = s.logg.WithFields(ctx, map[string]any{
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		s.logg.Info(ctx, "request.complete")
	}
}

func (s *Service) recover(c *gin.Context, recovered any) {
	s.respondError(c, apperr.Internal(fmt.Errorf("panic: %v", recovered), "unexpected error"))
}
