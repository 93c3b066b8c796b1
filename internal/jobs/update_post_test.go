package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/internal/social"
)

func testListing() *models.Listing {
	return &models.Listing{
		ID:          7,
		UserID:      5,
		Name:        "iPhone 13",
		Slug:        "iphone-13-abc123",
		Description: "Like new",
		RegionName:  "Ташкент",
	}
}

func TestHandleUpdatePostTargetsOnlyStoredIDs(t *testing.T) {
	telegram := &stubAdapter{platform: social.PlatformTelegram}
	facebook := &stubAdapter{platform: social.PlatformFacebook}
	instagram := &stubAdapter{platform: social.PlatformInstagram}

	listing := testListing()
	listing.TelegramPostID = strptr("tg1")
	// No Facebook post was ever published for this listing

	o := newTestOrchestrator([]social.Adapter{telegram, facebook, instagram},
		&stubListingRepo{listing: listing}, &stubUserRepo{}, &stubCache{}, &stubEnqueuer{})

	payload := models.UpdateSocialPostJob{ListingID: 7, Name: "iPhone 13 Pro", Description: "Barely used"}
	require.NoError(t, o.HandleUpdatePost(context.Background(), mustJob(models.LaneSocialPostUpdate, payload)))

	assert.Equal(t, []string{"tg1"}, telegram.updateCalls)
	assert.Empty(t, facebook.updateCalls, "a missing reference must not become a new post")
	assert.Empty(t, instagram.updateCalls, "instagram posts are never edited")
}

func TestHandleUpdatePostTargetsBothStoredIDs(t *testing.T) {
	telegram := &stubAdapter{platform: social.PlatformTelegram}
	facebook := &stubAdapter{platform: social.PlatformFacebook}

	listing := testListing()
	listing.TelegramPostID = strptr("tg1")
	listing.FacebookPostID = strptr("fb1")

	o := newTestOrchestrator([]social.Adapter{telegram, facebook},
		&stubListingRepo{listing: listing}, &stubUserRepo{}, &stubCache{}, &stubEnqueuer{})

	payload := models.UpdateSocialPostJob{ListingID: 7, Name: "iPhone 13 Pro"}
	require.NoError(t, o.HandleUpdatePost(context.Background(), mustJob(models.LaneSocialPostUpdate, payload)))

	assert.Equal(t, []string{"tg1"}, telegram.updateCalls)
	assert.Equal(t, []string{"fb1"}, facebook.updateCalls)
}

func TestHandleUpdatePostSkipsDeletedListing(t *testing.T) {
	telegram := &stubAdapter{platform: social.PlatformTelegram}

	o := newTestOrchestrator([]social.Adapter{telegram},
		&stubListingRepo{getErr: repositories.ErrListingNotFound}, &stubUserRepo{}, &stubCache{}, &stubEnqueuer{})

	payload := models.UpdateSocialPostJob{ListingID: 7}
	assert.NoError(t, o.HandleUpdatePost(context.Background(), mustJob(models.LaneSocialPostUpdate, payload)),
		"a listing deleted mid-flight completes the job")
	assert.Empty(t, telegram.updateCalls)
}

func TestHandleUpdatePostReturnsTransientLoadErrors(t *testing.T) {
	o := newTestOrchestrator(nil,
		&stubListingRepo{getErr: errors.New("connection refused")}, &stubUserRepo{}, &stubCache{}, &stubEnqueuer{})

	payload := models.UpdateSocialPostJob{ListingID: 7}
	assert.Error(t, o.HandleUpdatePost(context.Background(), mustJob(models.LaneSocialPostUpdate, payload)),
		"a database outage should trigger a queue retry")
}

func TestHandleUpdatePostSwallowsPlatformFailure(t *testing.T) {
	telegram := &stubAdapter{platform: social.PlatformTelegram, updateErr: errors.New("message not found")}
	facebook := &stubAdapter{platform: social.PlatformFacebook}

	listing := testListing()
	listing.TelegramPostID = strptr("tg1")
	listing.FacebookPostID = strptr("fb1")

	o := newTestOrchestrator([]social.Adapter{telegram, facebook},
		&stubListingRepo{listing: listing}, &stubUserRepo{}, &stubCache{}, &stubEnqueuer{})

	payload := models.UpdateSocialPostJob{ListingID: 7}
	assert.NoError(t, o.HandleUpdatePost(context.Background(), mustJob(models.LaneSocialPostUpdate, payload)))
	assert.Equal(t, []string{"fb1"}, facebook.updateCalls, "the other platform is still attempted")
}
