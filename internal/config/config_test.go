package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playtesting-bot/internal/domain"
)

const sampleYAML = `
server:
  port: "9090"
discord:
  token: from-file
redis:
  addr: localhost:6379
emoji:
  ttl: 30m
tally:
  timeout: 5m
servers:
  - id: "s1"
    playtesting:
      - channel: "c1"
        results: "r1"
    reacts: ["c2"]
    echo: "e1"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Discord.Token)
	assert.Equal(t, 30*time.Minute, TTLDuration(cfg.Emoji.TTL, time.Hour))
	assert.Equal(t, 5*time.Minute, TTLDuration(cfg.Tally.Timeout, 0))

	assert.Equal(t, []domain.ServerChannel{
		{ServerID: "s1", ChannelID: "c1", ResultChannelID: "r1", Type: domain.ChannelPlaytesting},
		{ServerID: "s1", ChannelID: "c2", Type: domain.ChannelReacts},
		{ServerID: "s1", ChannelID: "e1", Type: domain.ChannelEcho},
	}, cfg.Channels())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "from-env")
	t.Setenv("ENCRYPTION_KEY", "secret")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Discord.Token)
	assert.Equal(t, "secret", cfg.Encryption.Key)
}

func TestLoadRejectsIncompleteServers(t *testing.T) {
	_, err := Load(writeConfig(t, "servers:\n  - id: s1\n    playtesting:\n      - channel: c1\n"))
	assert.Error(t, err)
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("nonsense", time.Minute))
	assert.Equal(t, 0*time.Second, TTLDuration("0s", time.Minute))
}
