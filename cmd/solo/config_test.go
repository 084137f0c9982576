package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ngrok/solo"
	"github.com/stretchr/testify/require"
)

func TestLoadRunConfigExample(t *testing.T) {
	cfg, err := loadRunConfig("ex.config.toml")
	require.NoError(t, err)

	require.Equal(t, 24400, cfg.Negotiation.Port)
	require.Equal(t, solo.DefaultHost, cfg.Negotiation.Host)
	require.Equal(t, 5, cfg.Negotiation.MaxBindAttempts)
	require.Equal(t, 250*time.Millisecond, cfg.Negotiation.BindRetryDelay)
	require.Equal(t, 2*time.Second, cfg.Negotiation.HandoverWaitDelay)
	require.Equal(t, 5*time.Second, cfg.Negotiation.ReadTimeout)
	require.True(t, cfg.Negotiation.JoinLines)
	require.Equal(t, "show yourself", cfg.Message)
	require.False(t, cfg.Replace)
}

func TestLoadRunConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := loadRunConfig(path)
	require.NoError(t, err)
	require.Equal(t, defaultRunConfig(), cfg)
}

func TestLoadRunConfigErrors(t *testing.T) {
	for name, contents := range map[string]string{
		"bad duration": `bind_retry_delay = "soon"`,
		"bad port":     `port = 70000`,
		"unknown key":  `prot = 5000`,
		"not toml":     `port = `,
	} {
		path := filepath.Join(t.TempDir(), "solo.toml")
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
		_, err := loadRunConfig(path)
		require.Error(t, err, name)
	}
	_, err := loadRunConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
