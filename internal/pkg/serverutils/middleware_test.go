package serverutils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	allowed bool
	err     error
	subject string
}

func (l *stubLimiter) Allow(ctx context.Context, scope, subject string) (bool, int, error) {
	l.subject = subject
	return l.allowed, 42, l.err
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestJwtMiddleware(t *testing.T) {
	const secret = "middleware-secret"
	userId := uuid.New()

	app := fiber.New()
	app.Get("/me", NewJwtMiddleware(secret), func(ctx *fiber.Ctx) error {
		id, ok := CurrentUserId(ctx)
		if !ok {
			return ctx.SendStatus(fiber.StatusTeapot)
		}
		return ctx.SendString(id.String())
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": userId.String()}), want: http.StatusUnauthorized},
		{name: "non uuid subject", header: "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "bob"}), want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": userId.String(), "exp": time.Now().Add(-time.Hour).Unix()}), want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": userId.String(), "role": "Free"}), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		limiter *stubLimiter
		want    int
	}{
		{name: "allowed", limiter: &stubLimiter{allowed: true}, want: http.StatusOK},
		{name: "limited", limiter: &stubLimiter{allowed: false}, want: http.StatusTooManyRequests},
		{name: "limiter down fails open", limiter: &stubLimiter{err: errors.New("redis: connection refused")}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/sync",
				func(ctx *fiber.Ctx) error {
					ctx.Locals(LocalUserId, "user-1")
					return ctx.Next()
				},
				RateLimitMiddleware(tt.limiter, "session_sync"),
				func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusOK) },
			)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sync", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "user-1", tt.limiter.subject)
			if tt.want == http.StatusTooManyRequests {
				assert.Equal(t, "42", resp.Header.Get(fiber.HeaderRetryAfter))
			}
		})
	}
}

func TestValidateRequestNamesFields(t *testing.T) {
	type request struct {
		PriceId string `validate:"required"`
		UserId  string `validate:"required,uuid"`
	}

	err := ValidateRequest(request{UserId: "nope"})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "is required", validationErr.Fields["price_id"])
	assert.Equal(t, "must be a valid UUID", validationErr.Fields["user_id"])

	assert.NoError(t, ValidateRequest(request{PriceId: "p", UserId: uuid.NewString()}))
}

func TestRequireStoredRole(t *testing.T) {
	const secret = "middleware-secret"
	userId := uuid.New()
	token := "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": userId.String(), "role": "Admin"})

	tests := []struct {
		name   string
		stored string
		err    error
		want   int
	}{
		{name: "still admin", stored: "Admin", want: http.StatusOK},
		{name: "demoted", stored: "Teacher", want: http.StatusForbidden},
		{name: "deleted account", err: ErrUnknownSubject, want: http.StatusForbidden},
		{name: "store down", err: errors.New("connection refused"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var looked uuid.UUID
			lookup := func(ctx context.Context, id uuid.UUID) (string, error) {
				looked = id
				return tt.stored, tt.err
			}
			app := fiber.New()
			app.Get("/admin", NewJwtMiddleware(secret), RequireStoredRole(lookup, "Admin"), func(ctx *fiber.Ctx) error {
				return ctx.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", token)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, userId, looked)
		})
	}
}
