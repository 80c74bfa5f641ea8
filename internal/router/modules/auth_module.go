package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storefront-auth/internal/domain/repository"
	"github.com/oksasatya/storefront-auth/internal/domain/service"
	handlers "github.com/oksasatya/storefront-auth/internal/interface/http"
	"github.com/oksasatya/storefront-auth/internal/interface/middleware"
)

// AuthModule wires the credential workflows under /auth.
// Public: POST /auth/register, /auth/login, /auth/forgot-password
// Signed-in: GET|PUT /auth/profile, GET /auth/user-auth
// Admin: GET /auth/admin-auth, GET /auth/users/search
type AuthModule struct {
	Handler *handlers.AuthHandler
	Tokens  service.TokenService
	Users   repository.UserRepository
	Logger  *logrus.Logger
}

func NewAuthModule(h *handlers.AuthHandler, tokens service.TokenService, users repository.UserRepository, logger *logrus.Logger) *AuthModule {
	return &AuthModule{Handler: h, Tokens: tokens, Users: users, Logger: logger}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/register", m.Handler.Register)
	auth.POST("/login", m.Handler.Login)
	auth.POST("/forgot-password", m.Handler.ForgotPassword)

	signedIn := auth.Group("")
	signedIn.Use(middleware.RequireSignedIn(m.Tokens))
	{
		signedIn.GET("/profile", m.Handler.GetProfile)
		signedIn.PUT("/profile", m.Handler.UpdateProfile)
		signedIn.GET("/user-auth", m.Handler.Ok)
	}

	admin := signedIn.Group("")
	admin.Use(middleware.RequireAdmin(m.Users, m.Logger))
	{
		admin.GET("/admin-auth", m.Handler.Ok)
		admin.GET("/users/search", m.Handler.SearchUsers)
	}
}
