package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storefront-auth/internal/domain/apperror"
	"github.com/oksasatya/storefront-auth/internal/domain/repository"
	"github.com/oksasatya/storefront-auth/internal/domain/service"
	"github.com/oksasatya/storefront-auth/pkg/helpers"
	"github.com/oksasatya/storefront-auth/pkg/response"
)

const (
	CtxUserKey   = "user"
	CtxUserIDKey = "userID"
)

// AuthUser is what a signed-in request carries for downstream handlers.
type AuthUser struct {
	UserID string `json:"user_id"`
}

// tokenFromHeader returns the Authorization header value. Clients send the
// raw token; a "Bearer " prefix is accepted too.
func tokenFromHeader(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

// RequireSignedIn verifies the bearer token and stores the caller under
// "user" and "userID". Any failure ends the request with 401.
func RequireSignedIn(tokens service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromHeader(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, apperror.MsgUnauthenticated, nil)
			return
		}
		claims, ok := tokens.Verify(token)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, apperror.MsgUnauthenticated, nil)
			return
		}
		c.Set(CtxUserKey, AuthUser{UserID: claims.UserID})
		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

// RequireAdmin must run after RequireSignedIn. Non-admins and unknown users
// get 401; a failing store gets 500.
func RequireAdmin(users repository.UserRepository, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		au, ok := CurrentUser(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, apperror.MsgUnauthenticated, nil)
			return
		}
		u, err := users.FindByID(c.Request.Context(), au.UserID)
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Abort(c, http.StatusUnauthorized, apperror.MsgUnauthorized, nil)
			return
		}
		if err != nil {
			helpers.LogError(logger, "admin check lookup failed", err, logrus.Fields{"user_id": au.UserID})
			response.Abort(c, http.StatusInternalServerError, apperror.MsgUnexpected, nil)
			return
		}
		if !u.IsAdmin() {
			response.Abort(c, http.StatusUnauthorized, apperror.MsgUnauthorized, nil)
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (AuthUser, bool) {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return AuthUser{}, false
	}
	au, ok := v.(AuthUser)
	return au, ok && au.UserID != ""
}
