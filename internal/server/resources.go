package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/mail"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Resources are the external backends selected by configuration.
type Resources struct {
	Mailer  mail.Mailer
	Limiter middleware.Limiter
	Redis   *redis.Client // nil when REDIS_URL is unset

	closers []func() error
}

// OpenResources connects Redis when configured and picks the mail and rate
// limit backends. Close releases whatever was opened.
func OpenResources(ctx context.Context, cfg *config.Config) (*Resources, error) {
	res := &Resources{}

	if cfg.RedisURL != "" {
		client, err := mail.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		res.Redis = client
		res.closers = append(res.closers, client.Close)
	}

	limits := middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
	}
	if res.Redis != nil {
		res.Limiter = middleware.NewRedisLimiter(res.Redis, limits)
	} else {
		res.Limiter = middleware.NewMemoryLimiter(limits)
	}

	switch cfg.MailBackend {
	case config.MailBackendRedis:
		if res.Redis == nil {
			_ = res.Close()
			return nil, errors.New("mail backend redis requires REDIS_URL")
		}
		res.Mailer = mail.NewRedisMailer(res.Redis, cfg.MailQueueKey)
	case config.MailBackendLog:
		res.Mailer = mail.LogMailer{}
	default:
		fm, err := mail.NewFileMailer(cfg.MailOutboxPath)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("open mail outbox: %w", err)
		}
		res.Mailer = fm
		res.closers = append(res.closers, fm.Close)
	}

	logger.Log.Info("Backends ready",
		zap.String("mail", cfg.MailBackend),
		zap.String("rate_limit", res.Limiter.Backend()),
	)
	return res, nil
}

// Close releases resources in reverse order of opening.
func (r *Resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
