package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/storefront-auth/config"
	"github.com/oksasatya/storefront-auth/internal/application"
	"github.com/oksasatya/storefront-auth/internal/domain/apperror"
	"github.com/oksasatya/storefront-auth/internal/domain/entity"
	"github.com/oksasatya/storefront-auth/internal/domain/repository"
	pginfra "github.com/oksasatya/storefront-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/storefront-auth/pkg/helpers"
	"github.com/oksasatya/storefront-auth/pkg/validation"
)

// seed creates an administrator, or promotes an existing account. Role
// changes happen only here, never through the HTTP workflows.
func main() {
	email := flag.String("email", "admin@example.com", "admin email")
	password := flag.String("password", "", "password for a new account")
	name := flag.String("name", "Administrator", "name for a new account")
	phone := flag.String("phone", "0000000000", "phone for a new account")
	address := flag.String("address", "Head office", "address for a new account")
	dob := flag.String("dob", "1990-01-01", "DOB for a new account (YYYY-MM-DD)")
	answer := flag.String("answer", "", "security answer for a new account")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	users := pginfra.NewUserRepository(pool)

	canonical := validation.CanonicalEmail(*email)
	u, err := users.FindByEmail(ctx, canonical)
	if errors.Is(err, repository.ErrUserNotFound) {
		if *password == "" || *answer == "" {
			log.Fatalf("no account for %s; -password and -answer are required to create one", canonical)
		}
		// Registration runs through the same checks as the HTTP surface.
		svc := application.NewAuthService(users, helpers.NewBcryptCustodian(cfg.BcryptCost), helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL), logger)
		u, err = svc.Register(ctx, application.RegisterInput{
			Name: name, Email: &canonical, Password: password,
			Phone: phone, Address: address, DOB: dob, Answer: answer,
		})
		var appErr *apperror.Error
		if errors.As(err, &appErr) && appErr.Kind != apperror.KindUnexpected {
			log.Fatalf("refused: %s", appErr.Message)
		}
	}
	if err != nil {
		log.Fatalf("failed to load account: %v", err)
	}

	if u.IsAdmin() {
		fmt.Printf("%s is already an admin (id=%s)\n", u.Email, u.ID)
		return
	}
	u, err = users.SetRole(ctx, u.ID, entity.RoleAdmin)
	if err != nil {
		log.Fatalf("failed to promote: %v", err)
	}
	fmt.Printf("promoted %s to %s (id=%s)\n", u.Email, u.Role, u.ID)
}
