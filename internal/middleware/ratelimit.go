package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit allows maxPerMin requests per client and scope in a fixed
// one-minute window kept in Redis. Clients are identified by API key when
// present, otherwise by IP.
func RateLimit(cache *redis.Client, scope string, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 30
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		client := c.IP()
		if apiKey := c.Get(apiKeyHeader); apiKey != "" {
			sum := sha256.Sum256([]byte(apiKey))
			client = "key:" + hex.EncodeToString(sum[:8])
		}
		window := time.Now().Unix() / 60
		key := "rl:" + scope + ":" + client + ":" + strconv.FormatInt(window, 10)
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, "rate limit exceeded, try again later")
		}
		return c.Next()
	}
}
