package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultsAndParsing(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("OPERATOR_IDS", "100,200")
	t.Setenv("GROUP_ID", "42")

	cfg := New()

	assert.Equal(t, "test-token", cfg.DiscordToken)
	assert.Equal(t, "42", cfg.GroupID)
	assert.Equal(t, []string{"100", "200"}, cfg.OperatorIDs)
	assert.Equal(t, 8080, cfg.ListenPort)
	assert.Equal(t, "data", cfg.StoragePath)
	assert.Equal(t, "json", cfg.StorageDriver)
	assert.Equal(t, "roblox.com", cfg.LinkDomain)
	assert.True(t, cfg.BroadcastFallback)
	assert.True(t, cfg.InitSlashCommands)
}

func TestIsOperator(t *testing.T) {
	cfg := &Config{OperatorIDs: []string{"100", "200"}}

	assert.True(t, cfg.IsOperator("100"))
	assert.True(t, cfg.IsOperator("200"))
	assert.False(t, cfg.IsOperator("300"))
	assert.False(t, cfg.IsOperator(""))

	empty := &Config{}
	assert.False(t, empty.IsOperator("100"))
}
