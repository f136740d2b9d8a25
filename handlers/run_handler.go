package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rahulkarmakar28/code-sandbox/models"
	"github.com/rahulkarmakar28/code-sandbox/services"
)

type RunHandler struct {
	redis *services.RedisService
}

func NewRunHandler(redisService *services.RedisService) *RunHandler {
	return &RunHandler{redis: redisService}
}

// RunCode godoc
// @Summary Submit code for execution
// @Description Validate a submission and enqueue it for the worker tier. The response confirms queueing only; output arrives on the realtime channel for the submission's room.
// @Tags run
// @Accept json
// @Produce json
// @Param submission body models.RunRequest true "Code submission"
// @Success 201 {object} models.RunResponse
// @Failure 400 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Failure 500 {object} models.RunResponse
// @Router /run [post]
func (h *RunHandler) RunCode(c *fiber.Ctx) error {
	var req models.RunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if !models.IsSupportedLanguage(req.Language) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported language",
		})
	}

	job := &models.SubmissionJob{
		Code:     req.Code,
		Language: req.Language,
		RoomID:   req.RoomID,
	}

	// Fire-and-forget admission: once the push succeeds the queue owns the
	// job and the eventual result travels back via the room, not this call.
	if err := h.redis.PushSubmission(c.Context(), job); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.RunResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.RunResponse{
		Success: true,
		Message: "submission received",
	})
}
