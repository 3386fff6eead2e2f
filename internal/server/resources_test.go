package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/mail"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment:          "test",
		MailBackend:          config.MailBackendFile,
		MailOutboxPath:       filepath.Join(t.TempDir(), "outbox", "mail.log"),
		MailQueueKey:         "mail:outbox",
		RateLimitMaxRequests: 5,
		RateLimitWindow:      time.Minute,
	}
}

func TestOpenResources_LocalBackends(t *testing.T) {
	res, err := OpenResources(context.Background(), baseConfig(t))
	require.NoError(t, err)
	defer res.Close()

	assert.Nil(t, res.Redis)
	assert.IsType(t, &middleware.MemoryLimiter{}, res.Limiter)
	assert.IsType(t, &mail.FileMailer{}, res.Mailer)
	assert.NoError(t, res.Close())
}

func TestOpenResources_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.MailBackend = config.MailBackendRedis

	res, err := OpenResources(context.Background(), cfg)
	require.NoError(t, err)
	defer res.Close()

	require.NotNil(t, res.Redis)
	assert.Equal(t, "redis", res.Limiter.Backend())

	require.NoError(t, res.Mailer.Send(context.Background(), mail.ConfirmationMessage("from@x.test", "to@x.test", "alice", "code")))
	n, err := mr.List("mail:outbox")
	require.NoError(t, err)
	assert.Len(t, n, 1)
}

func TestOpenResources_Errors(t *testing.T) {
	cfg := baseConfig(t)
	cfg.MailBackend = config.MailBackendRedis
	_, err := OpenResources(context.Background(), cfg)
	assert.ErrorContains(t, err, "requires REDIS_URL")

	cfg = baseConfig(t)
	cfg.RedisURL = "redis://127.0.0.1:1"
	_, err = OpenResources(context.Background(), cfg)
	assert.ErrorContains(t, err, "connect redis")

	cfg = baseConfig(t)
	cfg.MailBackend = config.MailBackendLog
	res, err := OpenResources(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, mail.LogMailer{}, res.Mailer)
}
