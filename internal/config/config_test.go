package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "prod")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, ":5000", cfg.ListenAddr())
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 6, cfg.OTPDigits)
	assert.Equal(t, 5*time.Minute, cfg.ReclaimInterval)
	assert.Equal(t, 10*time.Minute, cfg.ReclaimRetention)
	assert.Equal(t, MailTransportLog, cfg.Mail.Transport)
	assert.Equal(t, "mail.otp", cfg.Mail.Kafka.Topic)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "8081")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("RECLAIM_RETENTION", "1h")
	t.Setenv("MAIL_TRANSPORT", "Kafka")
	t.Setenv("MAIL_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.ListenAddr())
	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.Equal(t, time.Hour, cfg.ReclaimRetention)
	assert.Equal(t, MailTransportKafka, cfg.Mail.Transport)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Mail.Kafka.Brokers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port":        {"PORT": "70000"},
		"otp ttl":     {"OTP_TTL": "0s"},
		"interval":    {"RECLAIM_INTERVAL": "-1m"},
		"transport":   {"MAIL_TRANSPORT": "pigeon"},
		"smtp host":   {"MAIL_TRANSPORT": "smtp"},
		"bcrypt cost": {"BCRYPT_COST": "2"},
		"duration":    {"JWT_EXPIRES_IN": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("ENV", "prod")
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
