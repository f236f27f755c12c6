package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// statusForCode maps the business taxonomy onto HTTP statuses.
var statusForCode = map[string]int{
	CodeValidation:        http.StatusBadRequest,
	CodeInvalidTransition: http.StatusBadRequest,
	CodeTooEarly:          http.StatusBadRequest,
	CodeUnauthorized:      http.StatusForbidden,
	CodeNotFound:          http.StatusNotFound,
	CodeSlotConflict:      http.StatusConflict,
	CodeDuplicateRequest:  http.StatusConflict,
}

// WriteBusiness reports a BusinessError to the client and returns true,
// or returns false when err carries no business code.
func WriteBusiness(c *gin.Context, err error) bool {
	var be BusinessError
	if !errors.As(err, &be) {
		return false
	}

	status, ok := statusForCode[be.Code]
	if !ok {
		status = http.StatusBadRequest
	}

	Write(c, status, be.Code, be.Message)
	return true
}

// IsUniqueViolation detects a Postgres unique or exclusion constraint
// violation raised by the active-slot index.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	return false
}
