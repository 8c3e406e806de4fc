package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"telegramme/internal/model"
)

// mediaSelector matches every recognized media widget inside a message
// bubble, in document order.
const mediaSelector = ".tgme_widget_message_photo_wrap," +
	".tgme_widget_message_video_player," +
	".tgme_widget_message_voice_player," +
	".tgme_widget_message_roundvideo_player," +
	".tgme_widget_message_sticker_wrap"

// ExtractMedia returns a MediaItem for each media widget in the bubble,
// preserving source order. Widgets that fail required-field extraction are
// dropped; siblings are unaffected.
func ExtractMedia(bubble *goquery.Selection) []model.MediaItem {
	var items []model.MediaItem
	bubble.Find(mediaSelector).Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		tokens := strings.Fields(class)
		if len(tokens) == 0 {
			return
		}

		var item *model.MediaItem
		switch tokens[0] {
		case "tgme_widget_message_photo_wrap":
			item = mediaImage(sel)
		case "tgme_widget_message_video_player":
			item = mediaVideo(sel)
		case "tgme_widget_message_voice_player":
			item = mediaVoice(sel)
		case "tgme_widget_message_roundvideo_player":
			item = mediaRoundVideo(sel)
		case "tgme_widget_message_sticker_wrap":
			item = mediaSticker(sel)
		}
		if item != nil {
			items = append(items, *item)
		}
	})
	return items
}

func mediaImage(sel *goquery.Selection) *model.MediaItem {
	style, _ := sel.Attr("style")
	url := backgroundURL(style)
	if url == "" {
		return nil
	}
	return &model.MediaItem{URL: url, Type: model.MediaImage}
}

// mediaVideo handles both plain videos and GIFs, which Telegram serves
// through the same player widget. A player without a duration element is a
// GIF. A player with no <video> at all but a not-supported marker is a video
// whose binary is too large to serve: the item survives with Available=false.
func mediaVideo(sel *goquery.Selection) *model.MediaItem {
	video := sel.Find("video.tgme_widget_message_video").First()
	if video.Length() == 0 {
		if sel.Find(".message_media_not_supported").Length() > 0 {
			unavailable := false
			return &model.MediaItem{Type: model.MediaVideo, Available: &unavailable}
		}
		return nil
	}

	src, _ := video.Attr("src")
	item := &model.MediaItem{URL: src, Type: model.MediaVideo}

	if thumb := sel.Find(".tgme_widget_message_video_thumb").First(); thumb.Length() > 0 {
		style, _ := thumb.Attr("style")
		item.Thumb = backgroundURL(style)
	}

	duration := strings.TrimSpace(sel.Find("time.message_video_duration").First().Text())
	if d := ParseMediaDuration(duration); d != nil {
		item.Duration = d
	} else {
		item.Type = model.MediaGIF
	}
	return item
}

func mediaVoice(sel *goquery.Selection) *model.MediaItem {
	audio := sel.Find("audio.tgme_widget_message_voice").First()
	if audio.Length() == 0 {
		return nil
	}
	duration := ParseMediaDuration(
		strings.TrimSpace(sel.Find("time.tgme_widget_message_voice_duration").First().Text()))
	if duration == nil {
		return nil
	}

	src, _ := audio.Attr("src")
	waves, _ := audio.Attr("data-waveform")
	return &model.MediaItem{
		URL:      src,
		Waves:    waves,
		Duration: duration,
		Type:     model.MediaVoice,
	}
}

func mediaRoundVideo(sel *goquery.Selection) *model.MediaItem {
	video := sel.Find("video.tgme_widget_message_roundvideo").First()
	if video.Length() == 0 {
		return nil
	}
	duration := ParseMediaDuration(
		strings.TrimSpace(sel.Find("time.tgme_widget_message_roundvideo_duration").First().Text()))
	if duration == nil {
		return nil
	}

	src, _ := video.Attr("src")
	item := &model.MediaItem{
		URL:      src,
		Duration: duration,
		Type:     model.MediaRoundVideo,
	}
	if thumb := sel.Find(".tgme_widget_message_roundvideo_thumb").First(); thumb.Length() > 0 {
		style, _ := thumb.Attr("style")
		item.Thumb = backgroundURL(style)
	}
	return item
}

// stickerShape describes one of the element layouts a sticker may use.
// Shapes are tried in priority order and the first present one wins.
type stickerShape struct {
	container string
	source    string
	urlAttr   string
}

var stickerShapes = []stickerShape{
	{"picture.tgme_widget_message_tgsticker", "source", "srcset"},
	{"i.tgme_widget_message_sticker", "i.tgme_widget_message_sticker", "data-webp"},
	{"div.tgme_widget_message_videosticker", "video.js-videosticker_video", "src"},
}

func mediaSticker(sel *goquery.Selection) *model.MediaItem {
	for _, shape := range stickerShapes {
		container := sel.Find(shape.container).First()
		if container.Length() == 0 {
			continue
		}
		source := container
		if shape.source != shape.container {
			source = container.Find(shape.source).First()
			if source.Length() == 0 {
				return nil
			}
		}
		url, ok := source.Attr(shape.urlAttr)
		if !ok || url == "" {
			return nil
		}

		item := &model.MediaItem{URL: url, Type: model.MediaSticker}
		if thumb := container.Find("img").First(); thumb.Length() > 0 {
			item.Thumb, _ = thumb.Attr("src")
		}
		return item
	}
	return nil
}

// ParseMediaDuration converts "MM:SS" or "HH:MM:SS" to a Duration. Malformed
// input yields nil, which callers must treat distinctly from a zero duration.
func ParseMediaDuration(s string) *model.Duration {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return nil
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil
		}
		total = total*60 + n
	}
	return &model.Duration{Formatted: s, Raw: total}
}
