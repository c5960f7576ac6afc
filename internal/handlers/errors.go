package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"property-listing/internal/logging"
)

const (
	ErrCodeInternal           = "internal_server_error"
	ErrCodeNotFound           = "not_found"
	ErrCodeServiceUnavailable = "service_unavailable"
)

// genericMessage is the only detail clients get about unexpected failures
const genericMessage = "Something went wrong!"

// AppError is an error with an explicit client-facing response
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorHandler is the catch-all responder. Errors attached with c.Error
// become an AppError's response, or a generic 500 for anything else.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				logging.Logger.WithFields(logrus.Fields{
					"status": appErr.StatusCode,
					"error":  appErr.Err.Error(),
				}).Warn(appErr.Message)
			}
			c.JSON(appErr.StatusCode, gin.H{"code": appErr.Code, "message": appErr.Message})
			return
		}

		logging.Logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"error":  err.Error(),
		}).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"code": ErrCodeInternal, "message": genericMessage})
	}
}

// Recovery turns panics into the generic 500 response
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.Logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  recovered,
		}).Error("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": ErrCodeInternal, "message": genericMessage})
	})
}

// NotFound answers requests that match no route
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"code": ErrCodeNotFound, "message": "Not found"})
}
