package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"movie-trivia-service/internal/models"
	"movie-trivia-service/internal/quiz"
	"movie-trivia-service/internal/service"
)

// QuizHandler handles HTTP requests for the trivia game.
type QuizHandler struct {
	svc *service.GameService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(svc *service.GameService) *QuizHandler {
	return &QuizHandler{svc: svc}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *QuizHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "movie-trivia-service",
	})
}

// BuildBank builds (or returns the cached) question bank.
// @Summary Build the question bank
// @Tags bank
// @Produce json
// @Param force query bool false "Rebuild even if a valid cached bank exists" default(false)
// @Success 200 {object} models.BuildBankResponse
// @Failure 502 {object} ErrorResponse
// @Router /quiz/bank [post]
func (h *QuizHandler) BuildBank(c fiber.Ctx) error {
	force := fiber.Query(c, "force", false)

	result, err := h.svc.BuildQuestionBank(c.Context(), force)
	if err != nil {
		if errors.Is(err, quiz.ErrSourceUnavailable) {
			slog.Error("question bank build failed upstream", "error", err)
			return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
				Error: "trivia source unavailable",
			})
		}
		slog.Error("failed to build question bank", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to build question bank",
		})
	}

	return c.JSON(result)
}

// BankInfo returns metadata about the cached question bank.
// @Summary Get question bank info
// @Tags bank
// @Produce json
// @Success 200 {object} cache.Info
// @Failure 500 {object} ErrorResponse
// @Router /quiz/bank/info [get]
func (h *QuizHandler) BankInfo(c fiber.Ctx) error {
	info, err := h.svc.BankInfo(c.Context())
	if err != nil {
		slog.Error("failed to read bank info", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to read question bank info",
		})
	}
	return c.JSON(info)
}

// ClearBank purges the cached question bank.
// @Summary Clear the question bank
// @Tags bank
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} ErrorResponse
// @Router /quiz/bank [delete]
func (h *QuizHandler) ClearBank(c fiber.Ctx) error {
	if err := h.svc.ClearBank(c.Context()); err != nil {
		slog.Error("failed to clear question bank", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to clear question bank",
		})
	}
	return c.JSON(fiber.Map{"message": "question bank cleared"})
}

// StartSession starts a new quiz session from the question bank.
// @Summary Start a quiz session
// @Tags sessions
// @Produce json
// @Success 201 {object} models.SessionResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /quiz/sessions [post]
func (h *QuizHandler) StartSession(c fiber.Ctx) error {
	result, err := h.svc.StartSession(c.Context())
	if err != nil {
		if errors.Is(err, quiz.ErrNoQuestionsAvailable) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Error: "no questions available, build the question bank first",
			})
		}
		slog.Error("failed to start session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to start session",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetSession returns the current state of a session.
// @Summary Get session state
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /quiz/sessions/{id} [get]
func (h *QuizHandler) GetSession(c fiber.Ctx) error {
	result, err := h.svc.GetSession(c.Params("id"))
	if err != nil {
		return h.sessionError(c, err, "failed to get session")
	}
	return c.JSON(result)
}

// Answer submits an answer for the session's current question.
// @Summary Answer the current question
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body models.AnswerRequest true "Selected option"
// @Success 200 {object} models.AnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quiz/sessions/{id}/answer [post]
func (h *QuizHandler) Answer(c fiber.Ctx) error {
	var req models.AnswerRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	result, err := h.svc.Answer(c.Params("id"), req.Answer)
	if err != nil {
		return h.sessionError(c, err, "failed to submit answer")
	}
	return c.JSON(result)
}

// Advance moves the session to the next question or finishes it.
// @Summary Advance to the next question
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quiz/sessions/{id}/advance [post]
func (h *QuizHandler) Advance(c fiber.Ctx) error {
	result, err := h.svc.Advance(c.Params("id"))
	if err != nil {
		return h.sessionError(c, err, "failed to advance session")
	}
	return c.JSON(result)
}

// ResetSession returns a session to the not-started state.
// @Summary Reset a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /quiz/sessions/{id}/reset [post]
func (h *QuizHandler) ResetSession(c fiber.Ctx) error {
	result, err := h.svc.ResetSession(c.Params("id"))
	if err != nil {
		return h.sessionError(c, err, "failed to reset session")
	}
	return c.JSON(result)
}

// Stats returns the lifetime game stats.
// @Summary Get lifetime game stats
// @Tags stats
// @Produce json
// @Success 200 {object} models.GameStats
// @Failure 500 {object} ErrorResponse
// @Router /quiz/stats [get]
func (h *QuizHandler) Stats(c fiber.Ctx) error {
	stats, err := h.svc.Stats()
	if err != nil {
		slog.Error("failed to get stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to retrieve stats",
		})
	}
	return c.JSON(stats)
}

// ResetStats clears the lifetime game stats.
// @Summary Reset lifetime game stats
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} ErrorResponse
// @Router /quiz/stats [delete]
func (h *QuizHandler) ResetStats(c fiber.Ctx) error {
	if err := h.svc.ResetStats(); err != nil {
		slog.Error("failed to reset stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to reset stats",
		})
	}
	return c.JSON(fiber.Map{"message": "stats reset"})
}

func (h *QuizHandler) sessionError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "session not found",
		})
	case errors.Is(err, quiz.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: "operation not allowed in current session state",
		})
	case errors.Is(err, quiz.ErrNoQuestionsAvailable):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: "no questions available",
		})
	}
	slog.Error(fallback, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: fallback,
	})
}
