package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/surveybot/config"
)

// NewLimiter is a sliding-window limiter. Counters live in Redis when a
// client is given, otherwise in process memory.
func NewLimiter(cfg config.RateLimit, rdb *redis.Client) fiber.Handler {
	max := cfg.Max
	if max <= 0 {
		max = 20
	}
	exp := time.Duration(cfg.ExpirationSeconds) * time.Second
	if exp <= 0 {
		exp = 30 * time.Second
	}

	lc := limiter.Config{
		Max:               max,
		Expiration:        exp,
		LimiterMiddleware: limiter.SlidingWindow{},
	}
	if rdb != nil {
		lc.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(lc)
}
