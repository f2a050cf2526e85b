package controllers

import (
	"context"
	"net/http"
	"time"

	"laundromat/apperror"
	"laundromat/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// DebugErrors adds the wrapped cause to 500 responses. Development only.
var DebugErrors bool

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func respondError(c *gin.Context, err error) {
	appErr := apperror.ToHTTP(err)
	body := gin.H{"error": appErr.Message}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		zap.L().Error(appErr.Message,
			zap.Error(err),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		)
		if DebugErrors && appErr.Err != nil {
			body["stack"] = appErr.Err.Error()
		}
	}
	_ = c.Error(err)
	c.JSON(appErr.HTTPStatus, body)
}

func respondBindError(c *gin.Context, err error) {
	appErr := apperror.MapValidationError(err)
	c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
}
