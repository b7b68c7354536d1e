package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/database/repository"
	"github.com/mrlokans/bookkinder/internal/database/scopes"
	"github.com/mrlokans/bookkinder/internal/logger"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"` // validation errors and similar context
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	logger.L.Error().Err(err).Str("context", context).Str("request_id", requestID(c)).Msg("Internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError maps repository, scope, constraint and auth errors to their
// status codes.
func respondError(c *gin.Context, err error, resource string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondNotFound(c, resource)
	case isScopeError(err):
		respondBadRequest(c, err.Error())
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, ErrorResponse{Error: resource + " already exists"})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrAuthRequired),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	default:
		respondInternalError(c, err, resource)
	}
}

func isScopeError(err error) bool {
	for _, target := range []error{
		scopes.ErrInvalidSortOrder,
		scopes.ErrInvalidSortField,
		scopes.ErrUnknownField,
		scopes.ErrUnknownRelation,
		scopes.ErrUnsupportedRelation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseIntParam parses a non-negative integer path parameter.
func parseIntParam(c *gin.Context, paramName string) (int, bool) {
	n, err := strconv.Atoi(c.Param(paramName))
	if err != nil || n < 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return n, true
}
