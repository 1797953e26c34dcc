package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/usecase"
)

const userContextKey = "auth_user"

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: GetRequestID(c),
	}
}

// RequireAuth validates the Authorization header and resolves the session to
// its active user. The user is stored on the context.
func RequireAuth(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		user, err := auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "authentication required"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "authentication failed"))
			return
		}

		c.Set(userContextKey, *user)

		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// RequireCapability gates a route on the authenticated user's role.
func RequireCapability(capability domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := AuthenticatedUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		if !user.Role.Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "insufficient permissions"))
			return
		}

		c.Next()
	}
}

// AuthenticatedUser retrieves the resolved user from the context.
func AuthenticatedUser(c *gin.Context) (domain.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return domain.User{}, false
	}

	user, ok := value.(domain.User)
	return user, ok
}
