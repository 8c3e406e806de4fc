package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"telegramme/internal/model"
)

// PostParser enumerates message nodes of a channel page or AJAX fragment and
// assembles the Post entity for each.
type PostParser struct {
	doc *goquery.Document
}

// NewPostParser parses the given HTML into a post extractor. A parse failure
// yields an extractor with no messages rather than an error: unexpected
// markup must never take down the whole request.
func NewPostParser(body string) *PostParser {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		doc = &goquery.Document{}
	}
	return &PostParser{doc: doc}
}

// Get returns every post in source document order. A non-zero selector
// filters to the single message with that ID. Posts whose content ends up
// empty (pure service messages) are excluded entirely.
func (p *PostParser) Get(selector int) []model.Post {
	posts := []model.Post{}
	p.doc.Find(".tgme_widget_message_wrap > .tgme_widget_message").Each(func(_ int, msg *goquery.Selection) {
		id := postID(msg)
		if id != 0 && selector != 0 && selector != id {
			return
		}

		bubble := msg.Find(".tgme_widget_message_bubble").First()

		content := model.ContentPost{
			Text:        postText(bubble),
			Media:       ExtractMedia(bubble),
			Poll:        postPoll(bubble),
			Inline:      postInline(msg),
			Reply:       postReply(bubble),
			PreviewLink: postPreviewLink(bubble),
			Reactions:   ExtractReactions(bubble),
		}
		if content.Empty() {
			return
		}

		view, _ := msg.Attr("data-view")
		post := model.Post{
			ID:        id,
			Content:   content,
			Footer:    postFooter(bubble),
			Forwarded: postForwarded(msg),
			View:      view,
		}
		posts = append(posts, post)
	})
	return posts
}

// postID reads the numeric message ID out of data-post="channel/id".
func postID(msg *goquery.Selection) int {
	ref, _ := msg.Attr("data-post")
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) != 2 {
		return 0
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return id
}

// postText builds the text block: source HTML, plain-text projection and the
// entity spans computed over that projection.
func postText(bubble *goquery.Selection) *model.Text {
	sel := bubble.Find(".tgme_widget_message_text").First()
	if sel.Length() == 0 {
		return nil
	}

	raw := innerHTML(sel)
	if raw == "" {
		return nil
	}

	return &model.Text{
		String:   selectionText(sel),
		HTML:     raw,
		Entities: ParseEntities(raw),
	}
}

func postPoll(bubble *goquery.Selection) *model.Poll {
	sel := bubble.Find(".tgme_widget_message_poll").First()
	if sel.Length() == 0 {
		return nil
	}

	poll := &model.Poll{
		Question: strings.TrimSpace(sel.Find(".tgme_widget_message_poll_question").First().Text()),
		Type:     strings.TrimSpace(sel.Find(".tgme_widget_message_poll_type").First().Text()),
		Votes:    strings.TrimSpace(bubble.Find(".tgme_widget_message_voters").First().Text()),
	}
	sel.Find(".tgme_widget_message_poll_option").Each(func(_ int, opt *goquery.Selection) {
		percent := strings.TrimSpace(opt.Find(".tgme_widget_message_poll_option_percent").First().Text())
		value, err := strconv.Atoi(strings.TrimSuffix(percent, "%"))
		if err != nil {
			return
		}
		poll.Options = append(poll.Options, model.PollOption{
			Name:    strings.TrimSpace(opt.Find(".tgme_widget_message_poll_option_text").First().Text()),
			Percent: value,
		})
	})
	return poll
}

func postInline(msg *goquery.Selection) []model.Inline {
	row := msg.Find(".tgme_widget_message_inline_row").First()
	if row.Length() == 0 {
		return nil
	}

	var buttons []model.Inline
	row.Find(".tgme_widget_message_inline_button").Each(func(_ int, btn *goquery.Selection) {
		url, _ := btn.Attr("href")
		buttons = append(buttons, model.Inline{
			Title: strings.TrimSpace(btn.Find("span").First().Text()),
			URL:   url,
		})
	})
	return buttons
}

// postReply extracts the quoted-message block. The replied-to ID is the last
// path segment of the reply link.
func postReply(bubble *goquery.Selection) *model.Reply {
	sel := bubble.Find("a.tgme_widget_message_reply").First()
	if sel.Length() == 0 {
		return nil
	}

	href, _ := sel.Attr("href")
	toMessage := 0
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		toMessage, _ = strconv.Atoi(href[i+1:])
	}
	if toMessage == 0 {
		return nil
	}

	name := sel.Find(".tgme_widget_message_author_name").First()
	text := sel.Find(".tgme_widget_message_metatext, .tgme_widget_message_reply_text").First()
	reply := &model.Reply{
		Name:      model.ParsedAndRaw{String: selectionText(name), HTML: innerHTML(name)},
		Text:      model.ParsedAndRaw{String: selectionText(text), HTML: innerHTML(text)},
		ToMessage: toMessage,
	}
	if thumb := sel.Find(".tgme_widget_message_reply_thumb").First(); thumb.Length() > 0 {
		style, _ := thumb.Attr("style")
		reply.Cover = backgroundURL(style)
	}
	return reply
}

func postPreviewLink(bubble *goquery.Selection) *model.PreviewLink {
	sel := bubble.Find("a.tgme_widget_message_link_preview").First()
	if sel.Length() == 0 {
		return nil
	}
	href, _ := sel.Attr("href")
	if href == "" {
		return nil
	}

	link := &model.PreviewLink{
		URL:      href,
		Title:    strings.TrimSpace(sel.Find(".link_preview_title").First().Text()),
		SiteName: strings.TrimSpace(sel.Find(".link_preview_site_name").First().Text()),
	}
	if desc := sel.Find(".link_preview_description").First(); desc.Length() > 0 {
		link.Description = &model.ParsedAndRaw{
			String: selectionText(desc),
			HTML:   innerHTML(desc),
		}
	}
	if image := sel.Find(".link_preview_image, .link_preview_right_image").First(); image.Length() > 0 {
		style, _ := image.Attr("style")
		link.Thumb = backgroundURL(style)
	}
	return link
}

// postFooter collects views, the edited flag, the optional author and the
// publish date. A missing or unparsable datetime zeroes the unix field but
// keeps the post.
func postFooter(bubble *goquery.Selection) model.Footer {
	footer := model.Footer{
		Views: strings.TrimSpace(bubble.Find(".tgme_widget_message_views").First().Text()),
	}

	meta := bubble.Find(".tgme_widget_message_meta").First()
	if meta.Length() > 0 && strings.Contains(meta.Text(), "edited") {
		footer.Edited = true
	}

	if author := bubble.Find(".tgme_widget_message_from_author").First(); author.Length() > 0 {
		footer.Author = &model.ParsedAndRaw{
			String: selectionText(author),
			HTML:   innerHTML(author),
		}
	}

	stamp, _ := bubble.Find(".tgme_widget_message_date time").First().Attr("datetime")
	footer.Date = model.Date{String: stamp, Unix: unixTimestamp(stamp)}
	return footer
}

func postForwarded(msg *goquery.Selection) *model.Forwarded {
	sel := msg.Find(".tgme_widget_message_forwarded_from_name").First()
	if sel.Length() == 0 {
		return nil
	}

	forwarded := &model.Forwarded{
		Name: model.ParsedAndRaw{String: selectionText(sel), HTML: innerHTML(sel)},
	}
	forwarded.URL, _ = sel.Attr("href")
	return forwarded
}

func unixTimestamp(stamp string) int64 {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return 0
	}
	return t.Unix()
}
