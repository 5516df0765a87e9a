package boot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	assert := assert.New(t)

	config, err := Load()
	assert.Nil(err)
	assert.Equal(":8080", config.BindAddr)
	assert.Equal(":8081", config.MetricsAddr)
	assert.Equal("nevermore.db", config.DatabasePath)
	assert.Equal(5, config.AttemptThreshold)
	assert.Equal(120*time.Second, config.Cooldown())
	assert.Equal(2*time.Second, config.PollInterval())
	assert.True(config.IsDevelopment())
}

func TestLoadFromEnvironment(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("ENV", "production")
	t.Setenv("BIND_ADDR", ":9090")
	t.Setenv("DATABASE_PATH", "/var/lib/nevermore/chat.db")
	t.Setenv("ATTEMPT_THRESHOLD", "3")
	t.Setenv("COOLDOWN_SECONDS", "60")

	config, err := Load()
	assert.Nil(err)
	assert.Equal(":9090", config.BindAddr)
	assert.Equal("/var/lib/nevermore/chat.db", config.DatabasePath)
	assert.Equal(3, config.AttemptThreshold)
	assert.Equal(time.Minute, config.Cooldown())
	assert.False(config.IsDevelopment())
}
