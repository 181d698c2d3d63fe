// FILE: internal/controller/billing_controller.go
package controller

import (
	"errors"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/pkg/serverutils"
	"billing-sync-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const syncFailedMessage = "We couldn't confirm your subscription yet, please refresh"

type IBillingController interface {
	RegisterRoutes(r fiber.Router)
	Webhook(ctx *fiber.Ctx) error
	Checkout(ctx *fiber.Ctx) error
	SyncSession(ctx *fiber.Ctx) error
}

type billingController struct {
	webhookService     service.IWebhookService
	checkoutService    service.ICheckoutService
	sessionSyncService service.ISessionSyncService
	authMiddleware     fiber.Handler
	rateLimit          fiber.Handler
}

func NewBillingController(
	webhookService service.IWebhookService,
	checkoutService service.ICheckoutService,
	sessionSyncService service.ISessionSyncService,
	authMiddleware fiber.Handler,
	rateLimit fiber.Handler,
) IBillingController {
	return &billingController{
		webhookService:     webhookService,
		checkoutService:    checkoutService,
		sessionSyncService: sessionSyncService,
		authMiddleware:     authMiddleware,
		rateLimit:          rateLimit,
	}
}

func (c *billingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/billing")
	h.Post("/webhook", c.Webhook)

	// Protected Routes
	h.Post("/checkout", c.authMiddleware, c.rateLimit, c.Checkout)
	h.Post("/session/sync", c.authMiddleware, c.rateLimit, c.SyncSession)
}

func (c *billingController) Webhook(ctx *fiber.Ctx) error {
	signature := ctx.Get("Stripe-Signature")
	if signature == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing signature"))
	}

	res, err := c.webhookService.Handle(ctx.UserContext(), ctx.Body(), signature)
	if err != nil {
		if errors.Is(err, dto.ErrSignatureInvalid) {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid signature"))
		}
		// Non-2xx makes the provider redeliver.
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, "Webhook processing failed"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Webhook received", res))
}

func (c *billingController) Checkout(ctx *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, ok := serverutils.CurrentUserId(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Unauthorized"))
	}

	res, err := c.checkoutService.CreateCheckout(ctx.UserContext(), userId, &req)
	if err != nil {
		var providerErr *dto.ProviderFetchError
		switch {
		case errors.Is(err, dto.ErrUnknownPrice):
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Unknown price"))
		case errors.Is(err, dto.ErrAccountNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Account not found"))
		case errors.As(err, &providerErr):
			return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, "Payment provider unavailable, please try again"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout session created", res))
}

func (c *billingController) SyncSession(ctx *fiber.Ctx) error {
	var req dto.SessionSyncRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, ok := serverutils.CurrentUserId(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Unauthorized"))
	}

	res, err := c.sessionSyncService.Sync(ctx.UserContext(), userId, &req)
	if err != nil {
		var authErr *dto.AuthorizationError
		switch {
		case errors.As(err, &authErr):
			return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(403, "You may only confirm your own checkout session"))
		case errors.Is(err, dto.ErrSessionWithoutSubscription):
			return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, "Checkout session has no subscription"))
		}
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, syncFailedMessage))
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription confirmed", res))
}
