package serverutils

import (
	"fmt"
	"time"

	"ai-chat-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// globalLimiterKey scopes the budget to the whole process, not to a client.
const globalLimiterKey = "message-submissions"

// NewMessageRateLimiter admits at most max submissions per fixed window.
// It runs ahead of body parsing, so malformed submissions spend budget too.
func NewMessageRateLimiter(max int, window time.Duration, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(*fiber.Ctx) string {
			return globalLimiterKey
		},
		LimitReached: func(ctx *fiber.Ctx) error {
			return apperror.RateLimited(fmt.Sprintf("Too many messages, retry after %s seconds", ctx.GetRespHeader(fiber.HeaderRetryAfter)))
		},
		Storage:           storage,
		LimiterMiddleware: limiter.FixedWindow{},
	})
}
