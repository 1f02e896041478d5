package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"TOUCH_ADDR", "SESSION_TTL", "CODE_TTL", "DATABASE_URL", "KAFKA_BROKERS", "TWILIO_ACCOUNT_SID"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 35*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Auth.CodeTTL)
	assert.Empty(t, cfg.Database.URL)
	assert.False(t, cfg.Notification.TwilioConfigured())
	assert.False(t, cfg.Notification.KafkaConfigured())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TOUCH_ADDR", ":9090")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Notification.KafkaBrokers)
	assert.True(t, cfg.Notification.KafkaConfigured())
	assert.False(t, cfg.Notification.TwilioConfigured(), "phone number still missing")
}

func TestFromEnv_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("CODE_TTL", "0s")

	_, err := FromEnv()
	require.Error(t, err)
}
