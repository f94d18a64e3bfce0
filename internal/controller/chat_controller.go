package controller

import (
	"ai-learning-coach-be/internal/dto"
	"ai-learning-coach-be/internal/pkg/serverutils"
	"ai-learning-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Send(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Transcript(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.ICoachService
}

func NewChatController(service service.ICoachService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/chat/v1", jwtMiddleware)
	h.Post("/send", c.Send)
	h.Get("/history", c.History)
	h.Get("/transcript", c.Transcript)
}

// Send accepts a query. The reply is delivered asynchronously, so the
// response only acknowledges the user's message.
func (c *chatController) Send(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid request body", err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.UserContext(), serverutils.SessionIDFrom(ctx), &req)
	if err != nil {
		return err
	}

	if !res.Accepted {
		return ctx.JSON(serverutils.SuccessResponse("Empty message ignored", res))
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Message accepted", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	res, err := c.service.History(ctx.UserContext(), serverutils.SessionIDFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatController) Transcript(ctx *fiber.Ctx) error {
	var query dto.TranscriptQuery
	if err := ctx.QueryParser(&query); err != nil {
		return serverutils.NewBadRequestError("Invalid query", err)
	}

	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}

	res, err := c.service.Transcript(ctx.UserContext(), serverutils.SessionIDFrom(ctx), query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get transcript", res))
}
