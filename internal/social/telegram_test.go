package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bozormarket/backend/pkg/logger"
)

func newTestTelegramAdapter(baseURL string) *TelegramAdapter {
	return &TelegramAdapter{
		client:   newHTTPClient(0),
		baseURL:  baseURL,
		botToken: "test-token",
		chatID:   "@testchannel",
		logger:   logger.NewNop(),
	}
}

func tgMethod(r *http.Request) string {
	parts := strings.Split(r.URL.Path, "/")
	return parts[len(parts)-1]
}

func writeTGMessage(w http.ResponseWriter, messageID int64) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":     true,
		"result": map[string]int64{"message_id": messageID},
	})
}

func TestTelegramPublishStrategyByImageCount(t *testing.T) {
	tests := []struct {
		name       string
		imageURLs  []string
		wantMethod string
	}{
		{"no images sends text message", nil, "sendMessage"},
		{"one image sends photo", []string{"https://img/1.jpg"}, "sendPhoto"},
		{"several images send media group", []string{"https://img/1.jpg", "https://img/2.jpg"}, "sendMediaGroup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var methods []string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				methods = append(methods, tgMethod(r))
				if tgMethod(r) == "sendMediaGroup" {
					_ = json.NewEncoder(w).Encode(map[string]interface{}{
						"ok":     true,
						"result": []map[string]int64{{"message_id": 42}},
					})
					return
				}
				writeTGMessage(w, 42)
			}))
			defer srv.Close()

			adapter := newTestTelegramAdapter(srv.URL)
			id, err := adapter.Publish(context.Background(), PostContent{
				Text:       "hello",
				ImageURLs:  tt.imageURLs,
				ButtonText: "Open",
				LinkURL:    "https://example.com",
			})

			require.NoError(t, err)
			assert.Equal(t, "42", id)
			assert.Equal(t, tt.wantMethod, methods[0])
		})
	}
}

func TestTelegramMediaGroupSendsFollowUpButton(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, tgMethod(r))
		if tgMethod(r) == "sendMediaGroup" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"ok":     true,
				"result": []map[string]int64{{"message_id": 7}, {"message_id": 8}},
			})
			return
		}
		writeTGMessage(w, 9)
	}))
	defer srv.Close()

	adapter := newTestTelegramAdapter(srv.URL)
	id, err := adapter.Publish(context.Background(), PostContent{
		Text:       "caption",
		ImageURLs:  []string{"https://img/1.jpg", "https://img/2.jpg"},
		ButtonText: "Open",
		LinkURL:    "https://example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "7", id, "first message of the group identifies the post")
	assert.Equal(t, []string{"sendMediaGroup", "sendMessage"}, methods)
}

func TestTelegramUpdateFallsBackToEditMessageText(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, tgMethod(r))
		if tgMethod(r) == "editMessageCaption" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"ok":          false,
				"description": "Bad Request: there is no caption in the message to edit",
			})
			return
		}
		writeTGMessage(w, 42)
	}))
	defer srv.Close()

	adapter := newTestTelegramAdapter(srv.URL)
	err := adapter.Update(context.Background(), "42", PostContent{Text: "new text"})

	require.NoError(t, err)
	assert.Equal(t, []string{"editMessageCaption", "editMessageText"}, methods)
}

func TestTelegramDeleteMissingMessageIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "Bad Request: message to delete not found",
		})
	}))
	defer srv.Close()

	adapter := newTestTelegramAdapter(srv.URL)
	assert.NoError(t, adapter.Delete(context.Background(), "42"))
}

func TestTelegramDeleteOtherErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "Forbidden: bot is not a member of the channel",
		})
	}))
	defer srv.Close()

	adapter := newTestTelegramAdapter(srv.URL)
	assert.Error(t, adapter.Delete(context.Background(), "42"))
}
