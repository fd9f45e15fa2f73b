package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/llm"
	"github.com/docentlabs/docent/pkg/session"
)

// chatRequest is the POST /v1/chat request body. An empty session_id starts
// a new conversation.
type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// chatResponse is the POST /v1/chat response body.
type chatResponse struct {
	SessionID string            `json:"session_id"`
	Text      string            `json:"text"`
	Citations []corpus.Citation `json:"citations,omitempty"`
	Declined  bool              `json:"declined"`
}

// handleChat runs one conversation turn. Error codes mirror the engine's
// taxonomy: session_busy (409), retrieval_failed and generation_failed
// (502). The client owns retry policy.
func (s *Server) handleChat(c *fiber.Ctx) error {
	if s.config.Generator == nil || s.config.Assembler == nil || s.config.Retriever == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
			Error: "chat is not configured: retriever, assembler, and generator are required",
		})
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "invalid request body",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "message is required",
		})
	}

	eng := s.sessions.get(req.SessionID)

	reply, err := eng.HandleTurn(c.Context(), req.Message)
	switch {
	case errors.Is(err, session.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(errorResponse{
			Error: "a turn is already in flight for this session",
			Code:  "session_busy",
		})
	case errors.Is(err, session.ErrRetrievalFailed):
		s.logger.Warn("chat retrieval failed", zap.String("session_id", eng.ID()), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{
			Error: "retrieval failed; the question was kept, retry the turn",
			Code:  "retrieval_failed",
		})
	case errors.Is(err, llm.ErrGenerationFailed):
		s.logger.Warn("chat generation failed", zap.String("session_id", eng.ID()), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{
			Error: "generation failed; the question was kept, retry the turn",
			Code:  "generation_failed",
		})
	case err != nil:
		s.logger.Error("chat turn failed", zap.String("session_id", eng.ID()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
			Error: err.Error(),
		})
	}

	if s.config.Transcript != nil {
		msgs := []llm.Message{
			{Role: llm.RoleUser, Text: req.Message},
			{Role: llm.RoleAssistant, Text: reply.Text, Citations: reply.Citations},
		}
		if err := s.config.Transcript.Append(c.Context(), eng.ID(), msgs...); err != nil {
			s.logger.Warn("recording transcript", zap.Error(err))
		}
	}

	return c.JSON(chatResponse{
		SessionID: eng.ID(),
		Text:      reply.Text,
		Citations: reply.Citations,
		Declined:  reply.Declined,
	})
}

// handleDeleteSession tears down a session. Registered for completeness of
// the session lifecycle; the UI calls it when a conversation ends.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	s.sessions.drop(id)
	return c.SendStatus(fiber.StatusNoContent)
}
