package jobs

import (
	"fmt"
	"strings"

	"github.com/bozormarket/backend/internal/models"
)

// Instagram truncates captions beyond this many characters
const instagramCaptionLimit = 2200

// postButtonText is the call-to-action label on Telegram posts
const postButtonText = "Перейти к объявлению ➡️"

func listingURL(siteBaseURL, slug string) string {
	return fmt.Sprintf("%s/obyavlenie/%s", siteBaseURL, slug)
}

func locationURL(latitude, longitude float64) string {
	return fmt.Sprintf("https://yandex.ru/maps/?ll=%[2]f,%[1]f&z=17&l=map&pt=%[2]f,%[1]f,pm2rdm", latitude, longitude)
}

func orFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// renderTelegramHTML builds the Telegram post body (HTML parse mode)
func renderTelegramHTML(job models.CreateSocialPostJob, siteBaseURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📢 <b>Объявление:</b> %s\n", job.Listing.Name)
	if job.IsShop && job.ShopName != "" {
		fmt.Fprintf(&b, "🏪 <b>Магазин:</b> %s\n", job.ShopName)
	}
	fmt.Fprintf(&b, "\n📝 <b>Описание:</b> %s\n", job.Listing.Description)
	fmt.Fprintf(&b, "\n📍 <b>Регион:</b> %s\n", job.Listing.RegionName)
	fmt.Fprintf(&b, "\n👤 <b>Контактное лицо:</b> %s\n", orFallback(job.ContactName, "Не указано"))
	fmt.Fprintf(&b, "\n📞 <b>Номер телефона:</b> %s\n", orFallback(job.ContactPhone, "Не указан"))
	fmt.Fprintf(&b, "\n🌍 <b>Локация:</b> <a href=%q>Местоположение в Yandex Maps</a>\n", locationURL(job.Listing.Latitude, job.Listing.Longitude))
	fmt.Fprintf(&b, "\n🌐 <b>Подробнее по ссылке:</b> <a href=%q>Перейти</a>\n", listingURL(siteBaseURL, job.Listing.Slug))

	return b.String()
}

// renderPlain builds the plain-text post body used by Facebook and,
// truncated, by Instagram.
func renderPlain(job models.CreateSocialPostJob, siteBaseURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📢 Объявление: %s\n", job.Listing.Name)
	if job.IsShop && job.ShopName != "" {
		fmt.Fprintf(&b, "🏪 Магазин: %s\n", job.ShopName)
	}
	fmt.Fprintf(&b, "\n📝 Описание: %s\n", job.Listing.Description)
	fmt.Fprintf(&b, "\n📍 Регион: %s\n", job.Listing.RegionName)
	fmt.Fprintf(&b, "\n👤 Контактное лицо: %s\n", orFallback(job.ContactName, "Не указано"))
	fmt.Fprintf(&b, "\n📞 Номер телефона: %s\n", orFallback(job.ContactPhone, "Не указан"))
	fmt.Fprintf(&b, "\n🌍 Локация: %s\n", locationURL(job.Listing.Latitude, job.Listing.Longitude))
	fmt.Fprintf(&b, "\n🌐 Подробнее: %s\n", listingURL(siteBaseURL, job.Listing.Slug))

	return b.String()
}

// renderInstagramCaption bounds the plain rendering to the platform's
// caption limit.
func renderInstagramCaption(job models.CreateSocialPostJob, siteBaseURL string) string {
	return truncateRunes(renderPlain(job, siteBaseURL), instagramCaptionLimit)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
