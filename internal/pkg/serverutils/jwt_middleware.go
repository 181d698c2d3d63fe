// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	LocalUserId = "user_id"
	LocalRole   = "role"
)

// NewJwtMiddleware validates an HS256 Bearer token and exposes the user_id and
// role claims as locals.
func NewJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
		}
		userId, _ := claims["user_id"].(string)
		if _, err := uuid.Parse(userId); err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
		}
		role, _ := claims["role"].(string)

		ctx.Locals(LocalUserId, userId)
		ctx.Locals(LocalRole, role)
		return ctx.Next()
	}
}

// ErrUnknownSubject is returned by a RoleLookup when the token's user no
// longer exists.
var ErrUnknownSubject = errors.New("unknown token subject")

// RoleLookup returns the role currently stored for a user.
type RoleLookup func(ctx context.Context, userId uuid.UUID) (string, error)

// RequireStoredRole checks the role claim and then the stored role, so a
// demotion takes effect before the token expires. Must run after the JWT
// middleware.
func RequireStoredRole(lookup RoleLookup, role string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if r, _ := ctx.Locals(LocalRole).(string); r != role {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Forbidden"))
		}
		userId, ok := CurrentUserId(ctx)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
		}

		stored, err := lookup(ctx.UserContext(), userId)
		if err != nil {
			if errors.Is(err, ErrUnknownSubject) {
				return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Forbidden"))
			}
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Failed to verify role"))
		}
		if stored != role {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Forbidden"))
		}
		return ctx.Next()
	}
}

// CurrentUserId reads the authenticated user id set by the JWT middleware.
func CurrentUserId(ctx *fiber.Ctx) (uuid.UUID, bool) {
	s, ok := ctx.Locals(LocalUserId).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	return id, err == nil
}
