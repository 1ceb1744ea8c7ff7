package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safemama-pikin/outreach/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "safemama_outreach", cfg.Database.Database)
	assert.Equal(t, 3, cfg.Outreach.MaxPatientAttempts)
	assert.Equal(t, 3, cfg.Outreach.MaxEscalationAttempts)
	assert.Equal(t, 3*time.Minute, cfg.Outreach.CallLease)
	assert.Equal(t, 30*time.Minute, cfg.Outreach.EscalationSLA)
	assert.Equal(t, 24*time.Hour, cfg.Outreach.LeadWindow)
	assert.Equal(t, 30*time.Second, cfg.Outreach.PollInterval)
	assert.Equal(t, 15*time.Minute, cfg.Outreach.RetryDelay)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OUTREACH_MAX_PATIENT_ATTEMPTS", "5")
	t.Setenv("OUTREACH_CALL_LEASE", "90s")
	t.Setenv("DB_PORT", "5433")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Outreach.MaxPatientAttempts)
	assert.Equal(t, 90*time.Second, cfg.Outreach.CallLease)
	assert.Equal(t, 5433, cfg.Database.Port)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("OUTREACH_ESCALATION_SLA", "not-a-duration")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Outreach.EscalationSLA)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p",
		Database: "outreach", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=outreach sslmode=disable",
		cfg.DatabaseDSN(),
	)
}
