package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/authcore.sqlite", cfg.Database.Path)
	require.Equal(t, "authcore", cfg.Auth.JWT.Issuer)
	require.Equal(t, 15*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, "admin", cfg.Bootstrap.AdminUsername)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, 30*24*time.Hour, cfg.Maintenance.AssignmentGrace)
	require.Equal(t, "@daily", cfg.Maintenance.AuditSchedule)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 6432, cfg.Database.Postgres.Port)
	require.Equal(t, "authcore", cfg.Database.Postgres.Database)
	require.Equal(t, "authcore", cfg.Database.Postgres.Username)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "authcore-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, time.Hour, cfg.Auth.JWT.TTL)

	require.Equal(t, "root", cfg.Bootstrap.AdminUsername)
	require.Equal(t, "root@corp.example", cfg.Bootstrap.AdminEmail)

	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, "@hourly", cfg.Maintenance.AssignmentSchedule)
}

func TestDatabaseOptionsMapping(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "postgres"
	cfg.Database.Postgres = DBAuthConfig{
		Host:     "db.internal",
		Port:     5432,
		Database: "authcore",
		Username: "svc",
		Password: "secret",
	}

	opts := cfg.DatabaseOptions()
	require.Equal(t, "postgres", opts.Driver)
	require.Equal(t, "db.internal", opts.Host)
	require.Equal(t, 5432, opts.Port)
	require.Equal(t, "authcore", opts.Name)
	require.Equal(t, "svc", opts.User)
	require.Equal(t, "secret", opts.Password)
}
