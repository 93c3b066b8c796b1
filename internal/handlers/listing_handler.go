package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bozormarket/backend/internal/jobs"
	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/pkg/logger"
)

const listingCacheTTL = 5 * time.Minute

// ListingHandler handles HTTP requests related to listings. Writes are
// acknowledged as soon as the row is persisted; social publishing runs
// asynchronously through the job queue.
type ListingHandler struct {
	listingRepository repositories.ListingRepository
	userRepository    repositories.UserRepository
	cache             repositories.CacheRepository
	jobs              jobs.Enqueuer
	logger            *logger.Logger
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(
	listingRepo repositories.ListingRepository,
	userRepo repositories.UserRepository,
	cache repositories.CacheRepository,
	enqueuer jobs.Enqueuer,
	log *logger.Logger,
) *ListingHandler {
	return &ListingHandler{
		listingRepository: listingRepo,
		userRepository:    userRepo,
		cache:             cache,
		jobs:              enqueuer,
		logger:            log,
	}
}

// RegisterListingRoutes registers listing-related routes
func (h *ListingHandler) RegisterListingRoutes(g *echo.Group) {
	g.POST("/listings", h.CreateListing)
	g.GET("/listings/:id", h.GetListing)
	g.GET("/listings", h.GetMyListings)
	g.PUT("/listings/:id", h.UpdateListing)
	g.DELETE("/listings/:id", h.DeleteListing)
}

// CreateListing creates a new listing and queues its social publication
func (h *ListingHandler) CreateListing(c echo.Context) error {
	userID := c.Get("userID").(uint)

	var req models.CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepository.GetUserByID(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	contactName := req.ContactName
	if contactName == "" {
		contactName = user.Name
	}
	contactPhone := req.ContactPhone
	if contactPhone == "" {
		contactPhone = user.Phone
	}

	listing := &models.Listing{
		UserID:       userID,
		Name:         req.Name,
		Slug:         makeSlug(req.Name),
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		RegionID:     req.RegionID,
		RegionName:   req.RegionName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		ContactName:  contactName,
		ContactPhone: contactPhone,
		ImageURLs:    req.ImageURLs,
	}
	if err := h.listingRepository.CreateListing(listing); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	job := models.CreateSocialPostJob{
		OwnerID: userID,
		Listing: models.ListingSnapshot{
			ID:          listing.ID,
			Name:        listing.Name,
			Slug:        listing.Slug,
			Description: listing.Description,
			RegionName:  listing.RegionName,
			Latitude:    listing.Latitude,
			Longitude:   listing.Longitude,
		},
		ContactName:  contactName,
		ContactPhone: contactPhone,
		ImageURLs:    listing.ImageURLs,
	}
	if shop, err := h.userRepository.GetShopWithSubscribers(userID); err == nil && shop != nil {
		job.IsShop = true
		job.ShopName = shop.ShopName
	}

	// The response never waits for the platforms; a failed enqueue is
	// logged and the listing stays valid without social posts.
	if _, err := h.jobs.Enqueue(c.Request().Context(), models.LaneSocialPostCreate, job); err != nil {
		h.logger.Errorw("enqueueing social post creation failed", "listing_id", listing.ID, "error", err)
	}

	if err := h.cache.DeleteByPattern(c.Request().Context(), "products:*"); err != nil {
		h.logger.Warnw("invalidating products cache failed", "error", err)
	}

	return c.JSON(http.StatusCreated, listing)
}

// GetListing retrieves a listing by ID, read through the cache
func (h *ListingHandler) GetListing(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid listing id")
	}

	cacheKey := fmt.Sprintf("products:listing:%d", id)
	if data, err := h.cache.Get(c.Request().Context(), cacheKey); err == nil && data != nil {
		return c.JSONBlob(http.StatusOK, data)
	}

	listing, err := h.listingRepository.GetListingByID(uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrListingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Listing not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if data, err := json.Marshal(listing); err == nil {
		if err := h.cache.Set(c.Request().Context(), cacheKey, data, listingCacheTTL); err != nil {
			h.logger.Warnw("caching listing failed", "key", cacheKey, "error", err)
		}
	}
	return c.JSON(http.StatusOK, listing)
}

// GetMyListings retrieves the authenticated user's listings
func (h *ListingHandler) GetMyListings(c echo.Context) error {
	userID := c.Get("userID").(uint)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	listings, total, err := h.listingRepository.GetListingsByUserID(userID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"listings": listings,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// UpdateListing updates an existing listing and queues the social post refresh
func (h *ListingHandler) UpdateListing(c echo.Context) error {
	userID := c.Get("userID").(uint)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid listing id")
	}

	var req models.UpdateListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	listing, err := h.listingRepository.GetListingByID(uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrListingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Listing not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if listing.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this listing")
	}

	if req.Name != "" {
		listing.Name = req.Name
	}
	if req.Description != "" {
		listing.Description = req.Description
	}
	if req.Price > 0 {
		listing.Price = req.Price
	}

	if err := h.listingRepository.UpdateListing(listing); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	job := models.UpdateSocialPostJob{
		ListingID:   listing.ID,
		Name:        listing.Name,
		Description: listing.Description,
	}
	if _, err := h.jobs.Enqueue(c.Request().Context(), models.LaneSocialPostUpdate, job); err != nil {
		h.logger.Errorw("enqueueing social post update failed", "listing_id", listing.ID, "error", err)
	}

	if err := h.cache.DeleteByPattern(c.Request().Context(), "products:*"); err != nil {
		h.logger.Warnw("invalidating products cache failed", "error", err)
	}

	return c.JSON(http.StatusOK, listing)
}

// DeleteListing deletes a listing and queues removal of its social posts
func (h *ListingHandler) DeleteListing(c echo.Context) error {
	userID := c.Get("userID").(uint)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid listing id")
	}

	listing, err := h.listingRepository.GetListingByID(uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrListingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Listing not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if listing.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this listing")
	}

	// Snapshot the external post ids before the row disappears
	job := models.DeleteSocialPostJob{
		ListingID:       listing.ID,
		TelegramPostID:  listing.TelegramPostID,
		FacebookPostID:  listing.FacebookPostID,
		InstagramPostID: listing.InstagramPostID,
	}

	if err := h.listingRepository.DeleteListing(listing.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if _, err := h.jobs.Enqueue(c.Request().Context(), models.LaneSocialPostDelete, job); err != nil {
		h.logger.Errorw("enqueueing social post deletion failed", "listing_id", listing.ID, "error", err)
	}

	if err := h.cache.DeleteByPattern(c.Request().Context(), "products:*"); err != nil {
		h.logger.Warnw("invalidating products cache failed", "error", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// makeSlug builds a URL-safe slug from the listing name with a short
// random suffix to keep slugs unique.
func makeSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "listing"
	}
	return slug + "-" + uuid.NewString()[:8]
}
