package controller

import (
	"ai-learning-coach-be/internal/dto"
	"ai-learning-coach-be/internal/pkg/serverutils"
	"ai-learning-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Styles(ctx *fiber.Ctx) error
	StartAssessment(ctx *fiber.Ctx) error
	CompleteAssessment(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ICoachService
}

func NewSessionController(service service.ICoachService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/session/v1")
	h.Post("", c.Create)
	h.Get("/styles", c.Styles)

	authed := h.Group("", jwtMiddleware)
	authed.Get("", c.Show)
	authed.Post("/assessment/start", c.StartAssessment)
	authed.Post("/assessment/complete", c.CompleteAssessment)
	authed.Post("/reset", c.Reset)
	authed.Delete("", c.End)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.UserContext(), serverutils.SessionIDFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *sessionController) Styles(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get learning styles", c.service.Styles()))
}

func (c *sessionController) StartAssessment(ctx *fiber.Ctx) error {
	res, err := c.service.StartAssessment(ctx.UserContext(), serverutils.SessionIDFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Assessment started", res))
}

func (c *sessionController) CompleteAssessment(ctx *fiber.Ctx) error {
	var req dto.CompleteAssessmentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid request body", err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CompleteAssessment(ctx.UserContext(), serverutils.SessionIDFrom(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Assessment completed", res))
}

func (c *sessionController) Reset(ctx *fiber.Ctx) error {
	res, err := c.service.Reset(ctx.UserContext(), serverutils.SessionIDFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session reset", res))
}

func (c *sessionController) End(ctx *fiber.Ctx) error {
	res, err := c.service.EndSession(ctx.UserContext(), serverutils.SessionIDFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session ended", res))
}
