package router

import (
	"github.com/oksasatya/storefront-auth/config"
	"github.com/oksasatya/storefront-auth/internal/application"
	"github.com/oksasatya/storefront-auth/internal/container"
	"github.com/oksasatya/storefront-auth/internal/domain/repository"
	"github.com/oksasatya/storefront-auth/internal/infrastructure/cache"
	"github.com/oksasatya/storefront-auth/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/storefront-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/storefront-auth/internal/infrastructure/search"
	handlers "github.com/oksasatya/storefront-auth/internal/interface/http"
	"github.com/oksasatya/storefront-auth/internal/router/modules"
)

type AuthModuleDeps struct {
	Users   repository.UserRepository
	Service *application.AuthService
	Handler *handlers.AuthHandler
}

// BuildUserRepository picks the store for cfg and puts the Redis cache in
// front of it.
func BuildUserRepository(cfg *config.Config) repository.UserRepository {
	var store repository.UserRepository
	if cfg.StoreDriver == config.StoreMemory {
		store = memory.NewUserRepository()
	} else {
		store = pginfra.NewUserRepository(container.GetPGPool())
	}
	return cache.NewUserRepository(store, container.GetRedis(), cfg.UserCacheTTL, container.GetLogger())
}

func buildAuthDeps() AuthModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	users := BuildUserRepository(cfg)

	svc := application.NewAuthService(users, container.GetCustodian(), container.GetJWT(), logger)
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		svc.WithNotifications(pub, cfg.Brand())
	}
	if idx := search.NewUserIndex(container.GetES(), cfg.ESUsersIndex); idx != nil {
		svc.WithDirectory(idx)
	}

	return AuthModuleDeps{
		Users:   users,
		Service: svc,
		Handler: handlers.NewAuthHandler(svc, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildAuthDeps()
	r.Add(modules.NewAuthModule(deps.Handler, container.GetJWT(), deps.Users, container.GetLogger()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
