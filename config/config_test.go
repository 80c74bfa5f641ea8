package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg := Load()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.UserCacheTTL)
	assert.True(t, cfg.MailSendEnabled)
	assert.False(t, cfg.HTTPLogEnabled)
	assert.False(t, cfg.DebugMetricsEnabled)
	assert.Empty(t, cfg.ESAddrs())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("HTTP_LOG_ENABLED", "true")
	t.Setenv("DEBUG_METRICS_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("COMPANY_NAME", "Acme")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.True(t, cfg.HTTPLogEnabled)
	assert.True(t, cfg.DebugMetricsEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, "Acme", cfg.Brand().CompanyName)
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.ErrorIs(t, Load().Validate(), ErrMissingJWTSecret)

	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE_DRIVER", "mongo")
	assert.Error(t, Load().Validate())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}
