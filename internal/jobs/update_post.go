package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/queue"
	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/internal/social"
)

// HandleUpdatePost re-renders the posts of an edited listing on the
// platforms that have a stored post reference. A platform with no
// reference is skipped: an update never turns into a create. Instagram
// is never targeted because published media cannot be edited there.
func (o *Orchestrator) HandleUpdatePost(ctx context.Context, job *queue.Job) error {
	var payload models.UpdateSocialPostJob
	if err := job.Unmarshal(&payload); err != nil {
		return fmt.Errorf("unmarshal update-post payload: %w", err)
	}

	listing, err := o.listings.GetListingByID(payload.ListingID)
	if err != nil {
		if errors.Is(err, repositories.ErrListingNotFound) {
			// The listing was deleted between enqueue and processing
			o.logger.Warnw("listing gone, skipping social post update", "listing_id", payload.ListingID)
			return nil
		}
		return fmt.Errorf("load listing %d: %w", payload.ListingID, err)
	}

	rendered := renderableFromListing(listing, payload)

	if listing.TelegramPostID != nil {
		if adapter, ok := o.adapters[social.PlatformTelegram]; ok {
			content := social.PostContent{
				Text:       renderTelegramHTML(rendered, o.cfg.SiteBaseURL),
				ButtonText: postButtonText,
				LinkURL:    listingURL(o.cfg.SiteBaseURL, listing.Slug),
			}
			if err := adapter.Update(ctx, *listing.TelegramPostID, content); err != nil {
				o.logger.Errorw("telegram post update failed",
					"listing_id", listing.ID, "post_id", *listing.TelegramPostID, "error", err)
			}
		}
	}

	if listing.FacebookPostID != nil {
		if adapter, ok := o.adapters[social.PlatformFacebook]; ok {
			content := social.PostContent{Text: renderPlain(rendered, o.cfg.SiteBaseURL)}
			if err := adapter.Update(ctx, *listing.FacebookPostID, content); err != nil {
				o.logger.Errorw("facebook post update failed",
					"listing_id", listing.ID, "post_id", *listing.FacebookPostID, "error", err)
			}
		}
	}

	return nil
}

// renderableFromListing rebuilds the rendering input from the stored
// row, overlaid with the edited fields carried by the job.
func renderableFromListing(listing *models.Listing, payload models.UpdateSocialPostJob) models.CreateSocialPostJob {
	name := listing.Name
	if payload.Name != "" {
		name = payload.Name
	}
	description := listing.Description
	if payload.Description != "" {
		description = payload.Description
	}

	return models.CreateSocialPostJob{
		OwnerID: listing.UserID,
		Listing: models.ListingSnapshot{
			ID:          listing.ID,
			Name:        name,
			Slug:        listing.Slug,
			Description: description,
			RegionName:  listing.RegionName,
			Latitude:    listing.Latitude,
			Longitude:   listing.Longitude,
		},
		ContactName:  listing.ContactName,
		ContactPhone: listing.ContactPhone,
		ImageURLs:    listing.ImageURLs,
	}
}
