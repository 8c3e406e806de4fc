package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"telegramme/internal/model"
)

// MoreParser assembles the document for an incremental "load more" AJAX
// fragment. Unlike a full page, the fragment advertises its cursors through
// <a data-before>/<a data-after> anchors in the body.
type MoreParser struct {
	doc  *goquery.Document
	body string
}

func NewMoreParser(body string) *MoreParser {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		doc = &goquery.Document{}
	}
	return &MoreParser{doc: doc, body: body}
}

func (p *MoreParser) Get() model.More {
	return model.More{
		Posts: NewPostParser(p.body).Get(0),
		Meta:  model.Meta{Offset: extractOffsets(p.doc.Find("a.tme_messages_more"))},
	}
}
