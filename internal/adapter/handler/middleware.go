package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ierr "github.com/rl1809/invoice-dashboard/internal/errors"
	"github.com/rl1809/invoice-dashboard/internal/logger"
)

const HeaderRequestID = "X-Request-ID"

type ErrorResponse struct {
	Message string `json:"message"`
}

// ErrorHandler renders the last error attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		c.JSON(ierr.HTTPStatusFromErr(err), ErrorResponse{
			Message: ierr.DisplayMessage(err, "An unexpected error occurred"),
		})
	}
}

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		start := time.Now()
		c.Next()

		fields := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			fields = append(fields, "error", err)
			if details := ierr.ReportableDetails(err); len(details) > 0 {
				fields = append(fields, "details", details)
			}
			log.Errorw("request failed", fields...)
			return
		}
		log.Infow("request", fields...)
	}
}

// NewRouter builds the gin engine serving h.
func NewRouter(h *HTTPHandler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), ErrorHandler())
	h.Register(r)
	return r
}
