package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bozormarket/backend/pkg/logger"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramAdapter posts listings to a Telegram channel via the Bot API
type TelegramAdapter struct {
	client   *http.Client
	baseURL  string
	botToken string
	chatID   string
	logger   *logger.Logger
}

func NewTelegramAdapter(botToken, chatID string, timeout time.Duration, log *logger.Logger) *TelegramAdapter {
	return &TelegramAdapter{
		client:   newHTTPClient(timeout),
		baseURL:  telegramAPIBase,
		botToken: botToken,
		chatID:   chatID,
		logger:   log,
	}
}

func (a *TelegramAdapter) Platform() Platform { return PlatformTelegram }

func (a *TelegramAdapter) apiURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.botToken, method)
}

type tgResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type tgMessage struct {
	MessageID int64 `json:"message_id"`
}

func tgInlineKeyboard(buttonText, linkURL string) map[string]interface{} {
	return map[string]interface{}{
		"inline_keyboard": [][]map[string]string{
			{{"text": buttonText, "url": linkURL}},
		},
	}
}

// Publish chooses the send strategy by image count: no images is a text
// message, one image is a photo with caption, several images are a
// media group. Media-group messages cannot carry an inline keyboard, so
// the call-to-action button goes out as a separate follow-up message.
func (a *TelegramAdapter) Publish(ctx context.Context, content PostContent) (string, error) {
	switch len(content.ImageURLs) {
	case 0:
		return a.sendMessage(ctx, content.Text, content.ButtonText, content.LinkURL)
	case 1:
		return a.sendPhoto(ctx, content.ImageURLs[0], content.Text, content.ButtonText, content.LinkURL)
	default:
		return a.sendMediaGroup(ctx, content)
	}
}

func (a *TelegramAdapter) sendMessage(ctx context.Context, text, buttonText, linkURL string) (string, error) {
	payload := map[string]interface{}{
		"chat_id":    a.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if buttonText != "" && linkURL != "" {
		payload["reply_markup"] = tgInlineKeyboard(buttonText, linkURL)
	}
	return a.call(ctx, "sendMessage", payload)
}

func (a *TelegramAdapter) sendPhoto(ctx context.Context, photoURL, caption, buttonText, linkURL string) (string, error) {
	payload := map[string]interface{}{
		"chat_id":    a.chatID,
		"photo":      photoURL,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if buttonText != "" && linkURL != "" {
		payload["reply_markup"] = tgInlineKeyboard(buttonText, linkURL)
	}
	return a.call(ctx, "sendPhoto", payload)
}

func (a *TelegramAdapter) sendMediaGroup(ctx context.Context, content PostContent) (string, error) {
	media := make([]map[string]interface{}, 0, len(content.ImageURLs))
	for i, url := range content.ImageURLs {
		item := map[string]interface{}{
			"type":  "photo",
			"media": url,
		}
		// Only the first item carries the caption
		if i == 0 {
			item["caption"] = content.Text
			item["parse_mode"] = "HTML"
		}
		media = append(media, item)
	}

	payload := map[string]interface{}{
		"chat_id": a.chatID,
		"media":   media,
	}

	var resp tgResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, a.apiURL("sendMediaGroup"), payload, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("telegram sendMediaGroup: %s", resp.Description)
	}

	var messages []tgMessage
	if err := json.Unmarshal(resp.Result, &messages); err != nil || len(messages) == 0 {
		return "", fmt.Errorf("telegram sendMediaGroup: unexpected result")
	}

	// The follow-up message exists only to carry the button; its
	// failure does not invalidate the published group.
	if content.ButtonText != "" && content.LinkURL != "" {
		if _, err := a.sendMessage(ctx, content.ButtonText, content.ButtonText, content.LinkURL); err != nil {
			a.logger.Warnw("telegram follow-up button message failed", "error", err)
		}
	}

	return strconv.FormatInt(messages[0].MessageID, 10), nil
}

// call invokes a Bot API method whose result is a single message and
// returns the message id.
func (a *TelegramAdapter) call(ctx context.Context, method string, payload map[string]interface{}) (string, error) {
	var resp tgResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, a.apiURL(method), payload, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("telegram %s: %s", method, resp.Description)
	}

	var msg tgMessage
	if err := json.Unmarshal(resp.Result, &msg); err != nil {
		return "", fmt.Errorf("telegram %s: unexpected result", method)
	}
	return strconv.FormatInt(msg.MessageID, 10), nil
}

// Update edits the published post in place. Photo posts need
// editMessageCaption; if the target message has no caption Telegram
// answers ok=false, and the edit is retried as editMessageText.
func (a *TelegramAdapter) Update(ctx context.Context, externalID string, content PostContent) error {
	messageID, err := strconv.ParseInt(externalID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram update: bad message id %q", externalID)
	}

	replyMarkup := tgInlineKeyboard(content.ButtonText, content.LinkURL)

	payload := map[string]interface{}{
		"chat_id":      a.chatID,
		"message_id":   messageID,
		"caption":      content.Text,
		"parse_mode":   "HTML",
		"reply_markup": replyMarkup,
	}

	var resp tgResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, a.apiURL("editMessageCaption"), payload, &resp); err != nil {
		return err
	}
	if resp.OK {
		return nil
	}

	payload = map[string]interface{}{
		"chat_id":      a.chatID,
		"message_id":   messageID,
		"text":         content.Text,
		"parse_mode":   "HTML",
		"reply_markup": replyMarkup,
	}
	if _, err := doJSON(ctx, a.client, http.MethodPost, a.apiURL("editMessageText"), payload, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("telegram update: %s", resp.Description)
	}
	return nil
}

// Delete removes the channel message. Deleting an already-deleted
// message answers "message to delete not found", which counts as
// success so queue redelivery stays harmless.
func (a *TelegramAdapter) Delete(ctx context.Context, externalID string) error {
	messageID, err := strconv.ParseInt(externalID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram delete: bad message id %q", externalID)
	}

	payload := map[string]interface{}{
		"chat_id":    a.chatID,
		"message_id": messageID,
	}

	var resp tgResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, a.apiURL("deleteMessage"), payload, &resp); err != nil {
		return err
	}
	if !resp.OK && !strings.Contains(strings.ToLower(resp.Description), "not found") {
		return fmt.Errorf("telegram delete: %s", resp.Description)
	}
	return nil
}
