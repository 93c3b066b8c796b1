package jobs

import (
	"context"
	"fmt"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/queue"
	"github.com/bozormarket/backend/internal/social"
)

// HandleDeletePost removes the social posts of a deleted listing. Each
// platform is attempted independently and failures are swallowed after
// logging: the listing row is already gone and the platform deletes are
// idempotent, so a retried job only re-runs cheap no-ops.
func (o *Orchestrator) HandleDeletePost(ctx context.Context, job *queue.Job) error {
	var payload models.DeleteSocialPostJob
	if err := job.Unmarshal(&payload); err != nil {
		return fmt.Errorf("unmarshal delete-post payload: %w", err)
	}

	targets := []struct {
		platform   social.Platform
		externalID *string
	}{
		{social.PlatformTelegram, payload.TelegramPostID},
		{social.PlatformFacebook, payload.FacebookPostID},
		{social.PlatformInstagram, payload.InstagramPostID},
	}

	for _, target := range targets {
		if target.externalID == nil {
			continue
		}
		adapter, ok := o.adapters[target.platform]
		if !ok {
			continue
		}

		if err := adapter.Delete(ctx, *target.externalID); err != nil {
			o.logger.Errorw("platform post delete failed",
				"platform", target.platform, "listing_id", payload.ListingID,
				"post_id", *target.externalID, "error", err)
			continue
		}
		o.logger.Infow("platform post deleted",
			"platform", target.platform, "listing_id", payload.ListingID, "post_id", *target.externalID)
	}

	return nil
}
