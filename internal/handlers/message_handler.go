package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bozormarket/backend/internal/chat"
	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/pkg/logger"
)

// MessageHandler handles the REST side of chat: sending messages,
// uploading and fetching chat images and reading history. Live delivery
// happens over the websocket gateway; this handler routes through the
// same delivery router so both paths behave identically.
type MessageHandler struct {
	messageRepository repositories.MessageRepository
	router            *chat.DeliveryRouter
	uploads           *chat.PendingUploads
	uploadDir         string
	logger            *logger.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(
	messageRepo repositories.MessageRepository,
	router *chat.DeliveryRouter,
	uploads *chat.PendingUploads,
	uploadDir string,
	log *logger.Logger,
) *MessageHandler {
	return &MessageHandler{
		messageRepository: messageRepo,
		router:            router,
		uploads:           uploads,
		uploadDir:         uploadDir,
		logger:            log,
	}
}

// RegisterMessageRoutes registers chat-related routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/messages", h.SendMessage)
	g.PUT("/messages", h.EditMessage)
	g.GET("/conversations/:userID/messages", h.GetConversation)
	g.POST("/messages/images", h.UploadImage)
	g.GET("/messages/images/:filename", h.GetImage)
}

// SendMessage delivers a chat message through the delivery router
func (h *MessageHandler) SendMessage(c echo.Context) error {
	userID := c.Get("userID").(uint)

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.ImageURL != "" {
		filename := filepath.Base(req.ImageURL)
		if owner, ok := h.uploads.Owner(filename); !ok || owner != userID {
			return echo.NewHTTPError(http.StatusForbidden, "Image was not uploaded by you or has expired")
		}
		defer h.uploads.Consume(filename)
	}

	message, err := h.router.Deliver(c.Request().Context(), chat.IncomingMessage{
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, message)
}

// EditMessage edits a previously sent message
func (h *MessageHandler) EditMessage(c echo.Context) error {
	userID := c.Get("userID").(uint)

	var req models.EditMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	messageID, err := primitive.ObjectIDFromHex(req.MessageID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid message id")
	}

	message, err := h.messageRepository.EditMessage(c.Request().Context(), messageID, userID, req.Text)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Message not found or not yours")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, message)
}

// GetConversation retrieves the message history with another user
func (h *MessageHandler) GetConversation(c echo.Context) error {
	userID := c.Get("userID").(uint)

	otherID, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	conversation, err := h.messageRepository.EnsureConversation(c.Request().Context(), userID, uint(otherID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	messages, err := h.messageRepository.GetConversationMessages(c.Request().Context(), conversation.ID, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversation_id": conversation.ID,
		"messages":        messages,
	})
}

// UploadImage stores a chat image and registers it as pending. The
// image only becomes permanently fetchable once it is attached to a
// message; unclaimed uploads expire.
func (h *MessageHandler) UploadImage(c echo.Context) error {
	userID := c.Get("userID").(uint)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Image file is required")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unsupported image format")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.uploadDir, filename))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.uploads.Register(filename, userID)

	return c.JSON(http.StatusCreated, map[string]string{
		"image_url": fmt.Sprintf("/messages/images/%s", filename),
	})
}

// GetImage serves a chat image to an authorized viewer: the uploader
// during the pending window, or a conversation participant once the
// image is attached to a persisted message.
func (h *MessageHandler) GetImage(c echo.Context) error {
	userID := c.Get("userID").(uint)
	filename := filepath.Base(c.Param("filename"))

	if owner, ok := h.uploads.Owner(filename); ok {
		if owner != userID {
			return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to view this image")
		}
		return c.File(filepath.Join(h.uploadDir, filename))
	}

	imageURL := fmt.Sprintf("/messages/images/%s", filename)
	message, err := h.messageRepository.GetMessageByImage(c.Request().Context(), imageURL)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Image not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if message.SenderID != userID && message.ReceiverID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to view this image")
	}

	return c.File(filepath.Join(h.uploadDir, filename))
}
