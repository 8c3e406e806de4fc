package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"telegramme/internal/model"
)

// ChannelParser reads the lightweight profile page (t.me/<channel>), which
// uses a different layout than the full channel page.
type ChannelParser struct {
	page *goquery.Selection
}

func NewChannelParser(body string) *ChannelParser {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		doc = &goquery.Document{}
	}
	return &ChannelParser{page: doc.Find(".tgme_page").First()}
}

// IsChannel reports whether the page is a channel preview. Telegram marks
// these with a context link whose text is exactly "Preview channel"; user
// and group pages carry different labels.
func (p *ChannelParser) IsChannel() bool {
	link := p.page.Find(".tgme_page_context_link").First()
	return link.Length() > 0 && strings.TrimSpace(link.Text()) == "Preview channel"
}

// Get extracts the channel card, or nil when the page is not a channel.
func (p *ChannelParser) Get() *model.PreviewChannel {
	if !p.IsChannel() {
		return nil
	}

	channel := &model.PreviewChannel{
		Title:       strings.TrimSpace(p.page.Find(".tgme_page_title>span").First().Text()),
		Subscribers: strings.TrimSpace(p.page.Find(".tgme_page_extra").First().Text()),
		IsVerified:  p.page.Find("i.verified-icon").Length() > 0,
	}

	if desc := p.page.Find(".tgme_page_description").First(); desc.Length() > 0 {
		channel.Description = selectionText(desc)
	}

	// A data: URI here is an embedded placeholder, not a real avatar.
	if avatar, ok := p.page.Find("img.tgme_page_photo_image").First().Attr("src"); ok {
		if !strings.HasPrefix(avatar, "data:") {
			channel.Avatar = avatar
		}
	}
	return channel
}
