package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SENTINEL_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.SOS.Duration.Duration)
	assert.Equal(t, 50, cfg.SOS.Ticks)
	assert.False(t, cfg.Server.TrustGatewayHeaders)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": "9000", "trust_gateway_headers": true},
		"jwt": {"secret": "file-secret"},
		"sos": {"duration": "2s", "ticks": 20, "final_timeout": "1s"},
		"geocoder": {"timeout": "750ms", "attempts": 4}
	}`)
	t.Setenv("SENTINEL_PORT", "9100")
	t.Setenv("SENTINEL_GEOCODER_ATTEMPTS", "1")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.True(t, cfg.Server.TrustGatewayHeaders)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Second, cfg.SOS.Duration.Duration)
	assert.Equal(t, time.Second, cfg.SOS.FinalTimeout.Duration)
	assert.Equal(t, 750*time.Millisecond, cfg.Geocoder.Timeout.Duration)
	assert.Equal(t, 1, cfg.Geocoder.Attempts)
	// untouched sections keep their defaults
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{"jwt": {"secret": ""}}`))
	assert.EqualError(t, err, "jwt.secret is required")

	_, err = LoadConfig(writeConfig(t, `{"jwt": {"secret": "s"}, "sos": {"duration": "soon"}}`))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `{"jwt": {"secret": "s"}, "sos": {"ticks": 0}}`))
	assert.EqualError(t, err, "sos.ticks must be positive")

	_, err = LoadConfig(writeConfig(t, `{"jwt": {"secret": "s"}, "log": {"output": "stderr"}}`))
	assert.EqualError(t, err, `log.output "stderr" must be stdout, file or both`)

	_, err = LoadConfig(writeConfig(t, `{not json`))
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "sentinel"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=sentinel sslmode=disable", d.DSN())
}
