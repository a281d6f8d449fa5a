package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the developer's own config files and environment out of the test
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Flags(t *testing.T) {
	isolate(t)

	cfg, err := Load([]string{"--work", "30s", "-r", "10s", "--reps", "4", "--preset", "Tabata", "--headless", "--tick-interval", "10ms"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Work)
	assert.Equal(t, 10*time.Second, cfg.Rest)
	assert.Equal(t, 4, cfg.Reps)
	assert.Equal(t, "Tabata", cfg.Preset)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 10*time.Millisecond, cfg.TickInterval)
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("WORKOUT_TIMER_WORK", "20s")
	t.Setenv("WORKOUT_TIMER_PAUSE_POLL_INTERVAL", "100ms")
	t.Setenv("WORKOUT_TIMER_REPS", "8")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Work)
	assert.Equal(t, 100*time.Millisecond, cfg.PausePollInterval)
	assert.Equal(t, 8, cfg.Reps)
}

func TestLoad_FlagBeatsEnvBeatsFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "work: 50s\nrest: 20s\nreps: 3\nlog-file: from-file.log\n")
	t.Setenv("WORKOUT_TIMER_REST", "25s")

	cfg, err := Load([]string{"--config", path, "--reps", "5"})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, 50*time.Second, cfg.Work)
	assert.Equal(t, 25*time.Second, cfg.Rest)
	assert.Equal(t, 5, cfg.Reps)
	assert.Equal(t, "from-file.log", cfg.LogFile)
}

func TestLoad_DefaultConfigFileInWorkingDir(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("workout-timer.yaml", []byte("preset: Hit\n"), 0o644))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "Hit", cfg.Preset)
}

func TestLoad_MissingExplicitConfig(t *testing.T) {
	isolate(t)

	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	isolate(t)

	_, err := Load([]string{"--work", "1s"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "work must be within")
}

func TestLoad_Help(t *testing.T) {
	isolate(t)

	_, err := Load([]string{"--help"})
	assert.True(t, errors.Is(err, pflag.ErrHelp))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"tick", func(c *Config) { c.TickInterval = 0 }, "tick-interval"},
		{"poll", func(c *Config) { c.PausePollInterval = -time.Second }, "pause-poll-interval"},
		{"work high", func(c *Config) { c.Work = 2 * time.Hour }, "work"},
		{"rest high", func(c *Config) { c.Rest = 181 * time.Second }, "rest"},
		{"reps low", func(c *Config) { c.Reps = 0 }, "reps"},
		{"reps high", func(c *Config) { c.Reps = 61 }, "reps"},
		{"preset", func(c *Config) { c.Preset = "  " }, "preset"},
		{"log", func(c *Config) { c.LogMaxBackups = -1 }, "log rotation"},
		{"ttl", func(c *Config) { c.CustomTTL = -time.Minute }, "custom-ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
	edge := Default()
	edge.Work = MaxWork
	edge.Rest = 0
	edge.Reps = MaxReps
	assert.NoError(t, edge.Validate())
}
