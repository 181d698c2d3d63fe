// FILE: internal/pkg/serverutils/rate_limit_middleware.go
package serverutils

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// RateLimiter is satisfied by ratelimit.Limiter.
type RateLimiter interface {
	Allow(ctx context.Context, scope, subject string) (allowed bool, retryAfterSeconds int, err error)
}

// RateLimitMiddleware limits requests per authenticated user, falling back to
// the client IP. Limiter errors let the request through.
func RateLimitMiddleware(limiter RateLimiter, scope string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		subject, _ := ctx.Locals(LocalUserId).(string)
		if subject == "" {
			subject = ctx.IP()
		}

		allowed, retryAfter, err := limiter.Allow(ctx.UserContext(), scope, subject)
		if err != nil || allowed {
			return ctx.Next()
		}

		ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse(fiber.StatusTooManyRequests, "Too many requests, please try again later"))
	}
}
