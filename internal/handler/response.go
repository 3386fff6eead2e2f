package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/validators"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const invalidCodeMessage = "Invalid confirmation_code."

// respondError maps service and policy errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var ve *validators.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
	case errors.Is(err, service.ErrInvalidConfirmationCode):
		c.JSON(http.StatusBadRequest, gin.H{"message": invalidCodeMessage})
	case errors.Is(err, policy.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, policy.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindJSON decodes the body into req. An empty body leaves req untouched so
// partial updates may send nothing. On failure the 400 response is written
// and false is returned.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	logger.Log.Debug("Request body rejected",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	respondError(c, validators.FromBinding(err))
	return false
}

// pageRequest reads ?page= and ?page_size=. Out-of-range values are
// normalised by the services; non-numeric values are rejected.
func pageRequest(c *gin.Context) (service.PageRequest, error) {
	var req service.PageRequest
	ve := &validators.ValidationError{}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			ve.Add("page", "A valid integer is required.")
		}
		req.Page = page
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			ve.Add("page_size", "A valid integer is required.")
		}
		req.PageSize = size
	}
	return req, ve.OrNil()
}

// idParam parses a numeric path parameter. Anything else is treated as a
// missing resource.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": name + " " + c.Param(name) + ": not found"})
		return 0, false
	}
	return uint(id), true
}

// MethodNotAllowed answers verbs a resource does not support.
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{
		"error": "Method \"" + c.Request.Method + "\" not allowed.",
	})
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
}
