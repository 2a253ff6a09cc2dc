package middleware

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"strive/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP)
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	// Authenticated endpoint limits (per user ID)
	AuthenticatedMax        int
	AuthenticatedExpiration time.Duration

	// Quest generation limits (per user ID), each call may hit the text generator
	QuestGenerateMax        int
	QuestGenerateExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Global: 200/min = ~3.3 req/sec
		GlobalAPIMax:        200,
		GlobalAPIExpiration: 1 * time.Minute,

		// Authenticated operations: 60/min = 1 req/sec average
		AuthenticatedMax:        60,
		AuthenticatedExpiration: 1 * time.Minute,

		// Forced generation: 10/min
		QuestGenerateMax:        10,
		QuestGenerateExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	if n, ok := positiveIntEnv("RATE_LIMIT_GLOBAL_API"); ok {
		config.GlobalAPIMax = n
	}
	if n, ok := positiveIntEnv("RATE_LIMIT_AUTHENTICATED"); ok {
		config.AuthenticatedMax = n
	}
	if n, ok := positiveIntEnv("RATE_LIMIT_QUEST_GENERATE"); ok {
		config.QuestGenerateMax = n
	}

	// Development mode: more lenient limits
	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalAPIMax = 1000
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

func positiveIntEnv(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalAPIMax,
		Expiration: config.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.GlobalAPIExpiration.Seconds()),
			})
		},
	})
}

// AuthenticatedRateLimiter for authenticated endpoints (uses user ID)
func AuthenticatedRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.AuthenticatedMax,
		Expiration: config.AuthenticatedExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Use user ID if available, fall back to IP
			if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
				return "auth:" + userID
			}
			return "auth-ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			userID, _ := c.Locals("user_id").(string)
			log.Printf("⚠️  [RATE-LIMIT] Auth endpoint limit reached for user: %s on %s", userID, c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please wait before trying again.",
				"retry_after": int(config.AuthenticatedExpiration.Seconds()),
			})
		},
	})
}

// QuestGenerateRateLimiter caps forced generation per user. With Redis the window is
// shared across instances, otherwise it is kept in process.
func QuestGenerateRateLimiter(config *RateLimitConfig, redis *services.RedisService) fiber.Handler {
	limitReached := func(c *fiber.Ctx) error {
		log.Printf("⚠️  [RATE-LIMIT] Quest generation limit reached for: %v", c.Locals("user_id"))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":       "Too many quest generation requests. Please wait before trying again.",
			"retry_after": int(config.QuestGenerateExpiration.Seconds()),
		})
	}

	if redis == nil {
		return limiter.New(limiter.Config{
			Max:        config.QuestGenerateMax,
			Expiration: config.QuestGenerateExpiration,
			KeyGenerator: func(c *fiber.Ctx) string {
				if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
					return "questgen:" + userID
				}
				return "questgen-ip:" + c.IP()
			},
			LimitReached: limitReached,
		})
	}

	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		key := fmt.Sprintf("strive:ratelimit:questgen:%s", userID)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, exceeded, err := redis.CheckRateLimit(ctx, key, int64(config.QuestGenerateMax), config.QuestGenerateExpiration)
		if err != nil {
			// Fail open; generation is still bounded by the generator's own limiter
			log.Printf("⚠️  [RATE-LIMIT] Redis check failed, allowing request: %v", err)
			return c.Next()
		}
		if exceeded {
			return limitReached(c)
		}
		return c.Next()
	}
}
