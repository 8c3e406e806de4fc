package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"telegramme/internal/model"
)

// BodyParser assembles the top-level document of a full channel scroll page:
// channel profile, ordered posts and pagination offsets.
type BodyParser struct {
	doc  *goquery.Document
	body string
}

func NewBodyParser(body string) *BodyParser {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		doc = &goquery.Document{}
	}
	return &BodyParser{doc: doc, body: body}
}

// Get builds the ChannelBody document. A non-zero selector narrows the post
// list to a single message ID.
func (p *BodyParser) Get(selector int) model.ChannelBody {
	return model.ChannelBody{
		Channel: p.channel(),
		Content: model.Content{Posts: NewPostParser(p.body).Get(selector)},
		// Full pages advertise their cursors through <link rel=prev/next>
		// in the head.
		Meta: model.Meta{Offset: extractOffsets(p.doc.Find("head link"))},
	}
}

func (p *BodyParser) channel() model.Channel {
	username := strings.TrimSpace(
		p.doc.Find(".tgme_channel_info_header_username>a").First().Text())
	username = strings.TrimPrefix(username, "@")

	channel := model.Channel{
		Username: username,
		Title: model.ParsedAndRaw{
			String: p.metaContent("property", "og:title"),
			HTML:   innerHTML(p.doc.Find(".tgme_channel_info_header_title").First()),
		},
		Avatar:   p.metaContent("property", "og:image"),
		Counters: p.counters(),
		Labels:   p.labels(),
	}

	if desc := p.doc.Find(".tgme_channel_info_description").First(); desc.Length() > 0 {
		channel.Description = &model.ParsedAndRaw{
			String: p.metaContent("property", "og:description"),
			HTML:   innerHTML(desc),
		}
	}
	return channel
}

// metaContent returns the content of the first <meta> whose attribute
// matches, or "".
func (p *BodyParser) metaContent(attrName, value string) string {
	var content string
	p.doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if v, _ := sel.Attr(attrName); v == value {
			content, _ = sel.Attr("content")
			return false
		}
		return true
	})
	return content
}

// counters maps the profile counter blocks (type text -> value text) into
// the fixed counter set.
func (p *BodyParser) counters() model.Counters {
	values := map[string]string{}
	p.doc.Find(".tgme_channel_info_counters>.tgme_channel_info_counter").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find(".counter_type").First().Text())
		value := strings.TrimSpace(sel.Find(".counter_value").First().Text())
		if name != "" {
			values[name] = value
		}
	})

	// The page pluralizes counter names; a channel with exactly one entry
	// uses the singular form.
	pick := func(names ...string) string {
		for _, name := range names {
			if v, ok := values[name]; ok {
				return v
			}
		}
		return ""
	}
	return model.Counters{
		Subscribers: pick("subscribers", "subscriber"),
		Photos:      pick("photos", "photo"),
		Videos:      pick("videos", "video"),
		Files:       pick("files", "file"),
		Links:       pick("links", "link"),
	}
}

// labels collects header badge classes, keeping the part before the first
// dash ("verified-icon" -> "verified").
func (p *BodyParser) labels() []string {
	labels := []string{}
	p.doc.Find(".tgme_header_labels>i").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if class == "" {
			return
		}
		labels = append(labels, strings.SplitN(class, "-", 2)[0])
	})
	return labels
}

// extractOffsets walks candidate pagination anchors, parses each href's query
// string into {before|after: position} and merges across all of them, last
// write wins per key.
func extractOffsets(links *goquery.Selection) model.Offset {
	var offset model.Offset
	links.Each(func(_ int, sel *goquery.Selection) {
		if !relevantOffsetLink(sel) {
			return
		}
		href, _ := sel.Attr("href")
		for key, value := range queryInts(href) {
			v := value
			switch key {
			case "before":
				offset.Before = &v
			case "after":
				offset.After = &v
			}
		}
	})
	return offset
}

func relevantOffsetLink(sel *goquery.Selection) bool {
	if rel, _ := sel.Attr("rel"); rel == "prev" || rel == "next" {
		return true
	}
	if _, ok := sel.Attr("data-before"); ok {
		return true
	}
	_, ok := sel.Attr("data-after")
	return ok
}
