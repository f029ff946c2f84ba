package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"duesbook/internal/config"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)

	require.Equal(t, "test", cfg.Environment)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, 12, cfg.Credential.MinLength)
	require.Equal(t, uint32(65536), cfg.Credential.MemoryKiB)
	require.Equal(t, "UTC", cfg.Billing.TimeZone)
	require.Equal(t, 5*time.Minute, cfg.Billing.OverdueSweepInterval)
	require.Equal(t, 10*time.Second, cfg.GracefulShutdownTimeout)
}

func TestLoad_YAMLValues(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
environment: production
http:
  addr: ":9090"
  enablePprof: true
  allowedOrigins: ["https://club.example.com"]
credential:
  minLength: 16
billing:
  timeZone: Europe/Berlin
`))
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTP.Addr)
	require.True(t, cfg.HTTP.EnablePprof)
	require.Equal(t, []string{"https://club.example.com"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, 16, cfg.Credential.MinLength)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("CREDENTIAL_MIN_LENGTH", "20")

	cfg, err := config.Load(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.HTTP.Addr)
	require.Equal(t, 20, cfg.Credential.MinLength)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, "billing:\n  timeZone: Mars/Olympus\n"))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, "credential:\n  minLength: -1\n"))
	require.Error(t, err)
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
credential:
  minLength: 20
  maxLength: 10
billing:
  settledJobMaxAttempts: -1
  overdueSweepInterval: -1m
`))
	require.Error(t, err)
	require.ErrorContains(t, err, "credential.maxLength")
	require.ErrorContains(t, err, "billing.settledJobMaxAttempts")
	require.ErrorContains(t, err, "billing.overdueSweepInterval")
}

func TestLoad_DatabaseDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)

	require.Equal(t, "duesbook", cfg.Database.ApplicationName)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, 3*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoad_CredentialLengthBounds(t *testing.T) {
	for name, tc := range map[string]struct {
		body  string
		field string
	}{
		"salt too short": {"credential:\n  saltLength: 4\n", "credential.saltLength"},
		"salt too long":  {"credential:\n  saltLength: 65\n", "credential.saltLength"},
		"key too short":  {"credential:\n  keyLength: 8\n", "credential.keyLength"},
		"key too long":   {"credential:\n  keyLength: 65\n", "credential.keyLength"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.body))
			require.ErrorContains(t, err, tc.field)
		})
	}

	cfg, err := config.Load(writeConfig(t, "credential:\n  saltLength: 8\n  keyLength: 64\n"))
	require.NoError(t, err)
	require.Equal(t, uint32(8), cfg.Credential.SaltLength)
	require.Equal(t, uint32(64), cfg.Credential.KeyLength)
}
