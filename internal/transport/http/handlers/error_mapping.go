package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/srCredoftn/dao-dash/internal/infra/security"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or
// falls back to a generic response. Password policy violations surface their
// own message with a 422.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	var policyErr *security.PasswordValidationError
	if errors.As(err, &policyErr) {
		c.JSON(http.StatusUnprocessableEntity, NewErrorResponse(c, policyErr.Message))
		return
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}
