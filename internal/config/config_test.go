package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	tcp := DatabaseConfig{Host: "db", Port: "3306", User: "app", Password: "pw", DBName: "ct_sign"}
	assert.Equal(t, "app:pw@tcp(db:3306)/ct_sign?charset=utf8mb4&parseTime=True&loc=UTC", tcp.DSN())

	socket := DatabaseConfig{Host: "/cloudsql/proj:region:inst", User: "app", Password: "pw", DBName: "ct_sign"}
	assert.Equal(t, "app:pw@unix(/cloudsql/proj:region:inst)/ct_sign?charset=utf8mb4&parseTime=True&loc=UTC", socket.DSN())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PDF_RENDERER", "")
	t.Setenv("GOTENBERG_TIMEOUT", "not-a-duration")
	t.Setenv("VERIFY_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "native", cfg.Renderer.Engine)
	assert.Equal(t, 30*time.Second, cfg.Gotenberg.Timeout)
	assert.Equal(t, 5, cfg.Redis.VerifyAttempts)
	assert.Equal(t, "https://api.ipify.org?format=json", cfg.Audit.IPLookupURL)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseAllowOrigins(t *testing.T) {
	t.Setenv("ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, parseAllowOrigins())
}
