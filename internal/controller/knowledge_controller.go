package controller

import (
	"fmt"
	"io"

	"ai-learning-coach-be/internal/pkg/serverutils"
	"ai-learning-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Upload(ctx *fiber.Ctx) error
	Summary(ctx *fiber.Ctx) error
	Reload(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	service            service.IKnowledgeService
	uploadLimitMB      int
	operatorMiddleware fiber.Handler
}

func NewKnowledgeController(service service.IKnowledgeService, uploadLimitMB int, operatorMiddleware fiber.Handler) IKnowledgeController {
	return &knowledgeController{service: service, uploadLimitMB: uploadLimitMB, operatorMiddleware: operatorMiddleware}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	r.Get("/health", c.Health)

	h := r.Group("/knowledge/v1")
	h.Post("/reload", c.operatorMiddleware, c.Reload)
	h.Get("", jwtMiddleware, c.Summary)
	h.Post("/upload", jwtMiddleware, c.Upload)
}

func (c *knowledgeController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewBadRequestError("Missing file", err)
	}

	limit := int64(c.uploadLimitMB) << 20
	if limit > 0 && fileHeader.Size > limit {
		return serverutils.NewAppError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds %d MB", c.uploadLimitMB), nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return serverutils.NewBadRequestError("Failed to open file", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return serverutils.NewBadRequestError("Failed to read file", err)
	}

	res, err := c.service.Upload(ctx.UserContext(), serverutils.SessionIDFrom(ctx),
		fileHeader.Filename, fileHeader.Header.Get(fiber.HeaderContentType), content)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res.Notice, res))
}

func (c *knowledgeController) Summary(ctx *fiber.Ctx) error {
	res, err := c.service.Summary(ctx.UserContext(), serverutils.SessionIDFrom(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get knowledge summary", res))
}

func (c *knowledgeController) Reload(ctx *fiber.Ctx) error {
	res, err := c.service.Reload(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res.Notice, res))
}

func (c *knowledgeController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", c.service.Health(ctx.UserContext())))
}
