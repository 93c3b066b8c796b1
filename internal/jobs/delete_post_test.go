package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/social"
)

func TestHandleDeletePostTargetsOnlySnapshottedIDs(t *testing.T) {
	telegram := &stubAdapter{platform: social.PlatformTelegram}
	facebook := &stubAdapter{platform: social.PlatformFacebook}
	instagram := &stubAdapter{platform: social.PlatformInstagram}

	o := newTestOrchestrator([]social.Adapter{telegram, facebook, instagram},
		&stubListingRepo{}, &stubUserRepo{}, &stubCache{}, &stubEnqueuer{})

	payload := models.DeleteSocialPostJob{
		ListingID:       7,
		TelegramPostID:  strptr("tg1"),
		InstagramPostID: strptr("ig1"),
	}
	require.NoError(t, o.HandleDeletePost(context.Background(), mustJob(models.LaneSocialPostDelete, payload)))

	assert.Equal(t, []string{"tg1"}, telegram.deleteCalls)
	assert.Empty(t, facebook.deleteCalls)
	assert.Equal(t, []string{"ig1"}, instagram.deleteCalls)
}

func TestHandleDeletePostFailuresAreIndependent(t *testing.T) {
	telegram := &stubAdapter{platform: social.PlatformTelegram, deleteErr: errors.New("api down")}
	facebook := &stubAdapter{platform: social.PlatformFacebook}

	o := newTestOrchestrator([]social.Adapter{telegram, facebook},
		&stubListingRepo{}, &stubUserRepo{}, &stubCache{}, &stubEnqueuer{})

	payload := models.DeleteSocialPostJob{
		ListingID:      7,
		TelegramPostID: strptr("tg1"),
		FacebookPostID: strptr("fb1"),
	}
	assert.NoError(t, o.HandleDeletePost(context.Background(), mustJob(models.LaneSocialPostDelete, payload)),
		"delete failures never fail the job")
	assert.Equal(t, []string{"fb1"}, facebook.deleteCalls)
}

func TestHandleDeletePostWithNoIDsIsNoop(t *testing.T) {
	telegram := &stubAdapter{platform: social.PlatformTelegram}

	o := newTestOrchestrator([]social.Adapter{telegram},
		&stubListingRepo{}, &stubUserRepo{}, &stubCache{}, &stubEnqueuer{})

	payload := models.DeleteSocialPostJob{ListingID: 7}
	assert.NoError(t, o.HandleDeletePost(context.Background(), mustJob(models.LaneSocialPostDelete, payload)))
	assert.Empty(t, telegram.deleteCalls)
}
