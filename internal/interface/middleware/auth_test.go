package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/storefront-auth/internal/domain/entity"
	"github.com/oksasatya/storefront-auth/internal/domain/repository"
	"github.com/oksasatya/storefront-auth/internal/infrastructure/memory"
	"github.com/oksasatya/storefront-auth/internal/interface/middleware"
	"github.com/oksasatya/storefront-auth/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func signedInRouter(jwt *helpers.JWTManager, reached *bool, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{middleware.RequireSignedIn(jwt)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		*reached = true
		au, ok := middleware.CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": au.UserID, "userID": c.GetString("userID")})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSignedIn(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	token, _, err := jwt.Issue("user-1")
	require.NoError(t, err)

	t.Run("raw token", func(t *testing.T) {
		reached := false
		w := do(signedInRouter(jwt, &reached), token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, reached)
		assert.JSONEq(t, `{"user_id":"user-1","userID":"user-1"}`, w.Body.String())
	})

	t.Run("bearer prefix tolerated", func(t *testing.T) {
		reached := false
		w := do(signedInRouter(jwt, &reached), "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	for name, header := range map[string]string{
		"missing":      "",
		"garbage":      "not-a-token",
		"wrong secret": mustIssue(t, helpers.NewJWTManager("other", time.Hour), "user-1"),
	} {
		t.Run(name, func(t *testing.T) {
			reached := false
			w := do(signedInRouter(jwt, &reached), header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, reached)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, "Unauthenticated: missing or invalid token", env.Message)
		})
	}
}

func mustIssue(t *testing.T, m *helpers.JWTManager, id string) string {
	t.Helper()
	tok, _, err := m.Issue(id)
	require.NoError(t, err)
	return tok
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	jwt := helpers.NewJWTManager("secret", time.Hour)
	logger, _ := test.NewNullLogger()
	users := memory.NewUserRepository()

	plain := &entity.User{Email: "user@example.com"}
	admin := &entity.User{Email: "admin@example.com", Role: entity.RoleAdmin}
	require.NoError(t, users.Create(ctx, plain))
	require.NoError(t, users.Create(ctx, admin))

	t.Run("admin passes", func(t *testing.T) {
		reached := false
		w := do(signedInRouter(jwt, &reached, middleware.RequireAdmin(users, logger)), mustIssue(t, jwt, admin.ID))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, reached)
	})

	t.Run("plain user stops", func(t *testing.T) {
		reached := false
		w := do(signedInRouter(jwt, &reached, middleware.RequireAdmin(users, logger)), mustIssue(t, jwt, plain.ID))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, reached)
		assert.Equal(t, "UnAuthorized Access", decode(t, w).Message)
	})

	t.Run("deleted user stops", func(t *testing.T) {
		reached := false
		w := do(signedInRouter(jwt, &reached, middleware.RequireAdmin(users, logger)), mustIssue(t, jwt, "gone"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, reached)
	})

	t.Run("store failure is 500", func(t *testing.T) {
		reached := false
		logger, hook := test.NewNullLogger()
		w := do(signedInRouter(jwt, &reached, middleware.RequireAdmin(failingRepo{users}, logger)), mustIssue(t, jwt, admin.ID))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, reached)
		assert.Equal(t, "Something went wrong", decode(t, w).Message)
		assert.Len(t, hook.AllEntries(), 1)
	})

	t.Run("without signed-in stage", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", middleware.RequireAdmin(users, logger), func(c *gin.Context) { c.Status(http.StatusOK) })
		w := do(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

type failingRepo struct{ repository.UserRepository }

func (failingRepo) FindByID(context.Context, string) (*entity.User, error) {
	return nil, errors.New("connection reset")
}
