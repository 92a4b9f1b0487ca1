package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/go-users-api/internal/errs"
	"github.com/deppfellow/go-users-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// redisStoreTimeout bounds a single counter round trip; echo's store
// interface carries no request context.
const redisStoreTimeout = time.Second

// RateLimitMiddleware limits requests per client IP. Counters live in
// Redis when it is available, so every instance shares them, and in
// process memory otherwise.
type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// RecordRateLimitHit emits a RateLimitHit custom event to New Relic.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if app := r.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("RateLimitHit", map[string]any{
			"endpoint": endpoint,
		})
	}
}

// Limit enforces max_requests per window for each client IP.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	cfg := r.server.Config.RateLimit

	var store middleware.RateLimiterStore
	if r.server.Redis != nil {
		store = newRedisStore(r.server.Redis, cfg.MaxRequests, cfg.Window, r.server.Logger)
	} else {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(cfg.MaxRequests) / cfg.Window.Seconds()),
			Burst:     cfg.MaxRequests,
			ExpiresIn: 3 * time.Minute,
		})
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			return errs.NewTooManyRequestsError("Too many requests, please try again later.")
		},
	})
}

// redisStore is a fixed-window counter: one key per client and window,
// incremented on every request and expiring with the window.
//
// A failing Redis lets the request through: a Redis outage must not turn
// into an API outage.
type redisStore struct {
	client *redis.Client
	max    int64
	window time.Duration
	now    func() time.Time
	logger *zerolog.Logger
}

func newRedisStore(client *redis.Client, max int, window time.Duration, logger *zerolog.Logger) *redisStore {
	return &redisStore{
		client: client,
		max:    int64(max),
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

func (s *redisStore) key(identifier string) string {
	bucket := s.now().UnixNano() / int64(s.window)
	return fmt.Sprintf("ratelimit:%s:%d", identifier, bucket)
}

func (s *redisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisStoreTimeout)
	defer cancel()

	key := s.key(identifier)

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(errors.Wrap(err, "rate limit counter")).Str("identifier", identifier).Msg("rate limiter store unavailable")
		return true, nil
	}

	return incr.Val() <= s.max, nil
}
