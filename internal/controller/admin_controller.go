// FILE: internal/controller/admin_controller.go
package controller

import (
	"context"
	"errors"
	"strconv"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/pkg/serverutils"
	"billing-sync-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	CreateAccount(ctx *fiber.Ctx) error
	GetAccount(ctx *fiber.Ctx) error
	UpdateRole(ctx *fiber.Ctx) error

	// Notification queue inspection
	GetNotifications(ctx *fiber.Ctx) error
	RetryNotification(ctx *fiber.Ctx) error
	SweepNotifications(ctx *fiber.Ctx) error
}

type adminController struct {
	accountService service.IAccountService
	queueService   service.INotificationQueueService
	authMiddleware fiber.Handler
}

func NewAdminController(
	accountService service.IAccountService,
	queueService service.INotificationQueueService,
	authMiddleware fiber.Handler,
) IAdminController {
	return &adminController{
		accountService: accountService,
		queueService:   queueService,
		authMiddleware: authMiddleware,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/internal", c.authMiddleware, serverutils.RequireStoredRole(c.storedRole, string(entity.RoleAdmin)))

	h.Post("/accounts", c.CreateAccount)
	h.Get("/accounts/:id", c.GetAccount)
	h.Put("/accounts/:id/role", c.UpdateRole)

	h.Get("/notifications", c.GetNotifications)
	h.Post("/notifications/sweep", c.SweepNotifications)
	h.Post("/notifications/:id/retry", c.RetryNotification)
}

// storedRole resolves the caller's current role from the store.
func (c *adminController) storedRole(ctx context.Context, userId uuid.UUID) (string, error) {
	account, err := c.accountService.Get(ctx, userId)
	if err != nil {
		if errors.Is(err, dto.ErrAccountNotFound) {
			return "", serverutils.ErrUnknownSubject
		}
		return "", err
	}
	return account.Role, nil
}

func (c *adminController) CreateAccount(ctx *fiber.Ctx) error {
	var req dto.CreateAccountRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.accountService.Provision(ctx.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Account created", res))
}

func (c *adminController) GetAccount(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid account ID"))
	}

	res, err := c.accountService.Get(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, dto.ErrAccountNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Account not found"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Account detail", res))
}

func (c *adminController) UpdateRole(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid account ID"))
	}

	var req dto.UpdateRoleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	role, _ := entity.ParseRole(req.Role)

	res, err := c.accountService.SetRole(ctx.UserContext(), id, role)
	if err != nil {
		if errors.Is(err, dto.ErrAccountNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Account not found"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Role updated", res))
}

func (c *adminController) GetNotifications(ctx *fiber.Ctx) error {
	status := ctx.Query("status")
	switch entity.NotificationStatus(status) {
	case "", entity.NotificationStatusPending, entity.NotificationStatusProcessing,
		entity.NotificationStatusSent, entity.NotificationStatusFailed:
	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid status filter"))
	}
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))

	res, err := c.queueService.List(ctx.UserContext(), status, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Notifications", res))
}

func (c *adminController) RetryNotification(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid notification ID"))
	}

	if err := c.queueService.Requeue(ctx.UserContext(), id); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Notification not found"))
		}
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Notification requeued", nil))
}

func (c *adminController) SweepNotifications(ctx *fiber.Ctx) error {
	res, err := c.queueService.Sweep(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Sweep finished", res))
}
