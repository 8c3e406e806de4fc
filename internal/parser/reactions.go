package parser

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"telegramme/internal/model"
)

// ExtractReactions parses the reaction chips under a message bubble.
// Classification inspects each chip's class list and children: paid chips are
// telegram_stars, <tg-emoji> children are custom emoji, the rest are plain
// emoji. A chip without a count is not a reaction and is skipped.
func ExtractReactions(bubble *goquery.Selection) []model.Reaction {
	var reactions []model.Reaction
	bubble.Find(".tgme_widget_message_reactions .tgme_reaction").Each(func(_ int, sel *goquery.Selection) {
		count := reactionCount(sel)
		if count == "" {
			return
		}

		class, _ := sel.Attr("class")
		switch {
		case strings.Contains(class, "tgme_reaction_paid"),
			sel.Find("i.tgme_reaction_star").Length() > 0:
			reactions = append(reactions, model.Reaction{
				Count: count,
				Type:  model.ReactionStars,
			})
		case sel.Find("tg-emoji").Length() > 0:
			r := model.Reaction{Count: count, Type: model.ReactionCustomEmoji}
			r.EmojiID, _ = sel.Find("tg-emoji").First().Attr("emoji-id")
			if glyph := reactionGlyph(sel); glyph != "" {
				r.Emoji = glyph
			}
			reactions = append(reactions, r)
		default:
			r := model.Reaction{Count: count, Type: model.ReactionEmoji}
			if glyph := reactionGlyph(sel); glyph != "" {
				r.Emoji = glyph
			}
			reactions = append(reactions, r)
		}
	})
	return reactions
}

// reactionCount takes the chip's trailing text, which holds the rendered
// counter ("1.2K") next to the emoji element.
func reactionCount(sel *goquery.Selection) string {
	var count string
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			if t := strings.TrimSpace(c.Text()); t != "" {
				count = t
			}
		}
	})
	return count
}

// reactionGlyph recovers the literal emoji. Newer markup carries it as text
// inside the emoji element; older markup only references a sprite whose
// filename is the hex-encoded UTF-8 of the glyph, so decoding the
// background-image filename segment is the fallback. Decode failures yield
// no glyph; the reaction itself still counts.
func reactionGlyph(sel *goquery.Selection) string {
	emoji := sel.Find("i.emoji").First()
	if emoji.Length() == 0 {
		return ""
	}
	if text := strings.TrimSpace(selectionText(emoji)); text != "" {
		return text
	}

	style, _ := emoji.Attr("style")
	return decodeHexEmoji(backgroundURL(style))
}

// decodeHexEmoji turns ".../25416fe389aa.png" style sprite URLs back into the
// glyph by hex-decoding the filename segment.
func decodeHexEmoji(url string) string {
	if url == "" {
		return ""
	}
	name := url
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	raw, err := hex.DecodeString(name)
	if err != nil || !utf8.Valid(raw) {
		return ""
	}
	return string(raw)
}
