package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"study-mitra/internal/domain"
	"study-mitra/internal/dto"
	"study-mitra/internal/logger"
	"study-mitra/internal/middleware"
	"study-mitra/internal/service"
	"study-mitra/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	chatRelayFailed        = "An error occurred while processing your request"
	defaultStreamHeartbeat = 25 * time.Second
)

type ChatHandler struct {
	service   service.ChatService
	validator *validation.Validator
	heartbeat time.Duration
}

func NewChatHandler(service service.ChatService, validator *validation.Validator, heartbeat time.Duration) *ChatHandler {
	if heartbeat <= 0 {
		heartbeat = defaultStreamHeartbeat
	}
	return &ChatHandler{service: service, validator: validator, heartbeat: heartbeat}
}

// Relay godoc
// @Summary Ask the tutor
// @Description Answers the last message of a client-held transcript. Nothing is stored.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRelayRequest true "Transcript"
// @Success 200 {object} dto.ChatRelayResponse
// @Failure 400 {object} dto.ErrorMessageResponse
// @Failure 500 {object} dto.ErrorMessageResponse
// @Router /chat [post]
func (h *ChatHandler) Relay(c *fiber.Ctx) error {
	var req dto.ChatRelayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorMessageResponse{Error: "Invalid request body"})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorMessageResponse{Error: "messages must not be empty"})
	}

	transcript := make([]domain.ChatMessage, 0, len(req.Messages))
	for i, m := range req.Messages {
		role := domain.ChatRole(m.Role)
		if !role.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorMessageResponse{
				Error: fmt.Sprintf("messages[%d].role must be user or assistant", i),
			})
		}
		transcript = append(transcript, domain.ChatMessage{Role: role, Content: m.Content})
	}

	reply, err := h.service.Relay(c.UserContext(), transcript)
	if err != nil {
		logger.Get().Error("Chat relay failed", zap.Int("messages", len(transcript)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorMessageResponse{Error: chatRelayFailed})
	}
	return c.JSON(dto.ChatRelayResponse{Response: reply})
}

// ListMessages godoc
// @Summary Get my chat transcript
// @Tags chat
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.ChatMessagesResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /chat/messages [get]
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	messages, err := h.service.List(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	return c.JSON(dto.ChatMessagesResponse{Messages: nonNil(messages)})
}

// SendMessage godoc
// @Summary Send a chat message
// @Description Stores the message, asks the tutor and stores the reply
// @Tags chat
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.ChatMessagesResponse "The user message and the reply"
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 503 {object} middleware.ErrorResponse "Tutor unavailable; the user message is kept"
// @Router /chat/messages [post]
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	messages, err := h.service.Send(c.UserContext(), session.UserID, req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ChatMessagesResponse{Messages: messages})
}

// Stream godoc
// @Summary Live chat transcript
// @Description Server-sent events; every "snapshot" event carries the full ordered transcript
// @Tags chat
// @Security ApiKeyAuth
// @Produce text/event-stream
// @Success 200 {object} dto.ChatMessagesResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /chat/stream [get]
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	updates := make(chan []domain.ChatMessage, 1)
	sub, err := h.service.Subscribe(c.UserContext(), session.UserID, latestOnly(updates))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	userID := session.UserID
	heartbeat := h.heartbeat
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Unsubscribe()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			var err error
			select {
			case messages := <-updates:
				err = writeSnapshotEvent(w, messages)
			case <-ticker.C:
				_, err = w.WriteString(": ping\n\n")
				if err == nil {
					err = w.Flush()
				}
			}
			if err != nil {
				logger.Get().Debug("Chat stream closed", zap.String("userID", userID), zap.Error(err))
				return
			}
		}
	}))
	return nil
}

// latestOnly returns a snapshot callback that keeps at most one pending
// snapshot in ch, replacing an undelivered one with the newer transcript.
// The feed calls it from a single goroutine, so the send after the drain never blocks.
func latestOnly(ch chan []domain.ChatMessage) func([]domain.ChatMessage) {
	return func(messages []domain.ChatMessage) {
		select {
		case <-ch:
		default:
		}
		ch <- messages
	}
}

func writeSnapshotEvent(w *bufio.Writer, messages []domain.ChatMessage) error {
	payload, err := json.Marshal(dto.ChatMessagesResponse{Messages: nonNil(messages)})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func nonNil(messages []domain.ChatMessage) []domain.ChatMessage {
	if messages == nil {
		return []domain.ChatMessage{}
	}
	return messages
}
