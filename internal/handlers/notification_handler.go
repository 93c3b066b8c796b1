package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/pkg/logger"
)

const notificationCacheTTL = 2 * time.Minute

// NotificationHandler handles HTTP requests related to notifications
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	cache                  repositories.CacheRepository
	logger                 *logger.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationRepo repositories.NotificationRepository, cache repositories.CacheRepository, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notificationRepo,
		cache:                  cache,
		logger:                 log,
	}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unseen-count", h.GetUnseenCount)
	g.PUT("/notifications/:id/seen", h.MarkAsSeen)
	g.PUT("/notifications/seen", h.MarkAllAsSeen)
}

func notificationsCacheKey(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// GetNotifications retrieves the user's notifications, newest first.
// The first default page is read through the cache; the push dispatcher
// invalidates it whenever a new notification lands.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID := c.Get("userID").(uint)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	cacheable := page == 1 && limit == 20
	cacheKey := notificationsCacheKey(userID)
	if cacheable {
		if data, err := h.cache.Get(c.Request().Context(), cacheKey); err == nil && data != nil {
			return c.JSONBlob(http.StatusOK, data)
		}
	}

	notifications, total, err := h.notificationRepository.GetByReceiverID(userID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	response := map[string]interface{}{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"limit":         limit,
	}

	if cacheable {
		if data, err := json.Marshal(response); err == nil {
			if err := h.cache.Set(c.Request().Context(), cacheKey, data, notificationCacheTTL); err != nil {
				h.logger.Warnw("caching notifications failed", "key", cacheKey, "error", err)
			}
		}
	}
	return c.JSON(http.StatusOK, response)
}

// GetUnseenCount returns how many notifications the user has not seen
func (h *NotificationHandler) GetUnseenCount(c echo.Context) error {
	userID := c.Get("userID").(uint)

	count, err := h.notificationRepository.GetUnseenCount(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]int64{"unseen_count": count})
}

// MarkAsSeen marks one notification as seen
func (h *NotificationHandler) MarkAsSeen(c echo.Context) error {
	userID := c.Get("userID").(uint)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification id")
	}

	if err := h.notificationRepository.MarkAsSeen(uint(id)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.invalidate(c, userID)

	return c.NoContent(http.StatusNoContent)
}

// MarkAllAsSeen marks every unseen notification of the user as seen
func (h *NotificationHandler) MarkAllAsSeen(c echo.Context) error {
	userID := c.Get("userID").(uint)

	if err := h.notificationRepository.MarkAllAsSeen(userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.invalidate(c, userID)

	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) invalidate(c echo.Context, userID uint) {
	key := notificationsCacheKey(userID)
	if err := h.cache.Delete(c.Request().Context(), key); err != nil {
		h.logger.Warnw("invalidating notifications cache failed", "key", key, "error", err)
	}
}
