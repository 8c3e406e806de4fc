package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"telegramme/internal/model"
)

var hashtagRe = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// spanMatch is the outcome of one entity rule applied to an element node.
type spanMatch struct {
	typ      model.EntityType
	content  string
	url      string
	language string
}

// entityScanner walks a parsed fragment in document order and locates each
// matched span inside the plain-text projection. The search cursor only moves
// forward: identical substrings may repeat, so every lookup starts at the end
// of the previous entity.
type entityScanner struct {
	text     []rune
	cursor   int
	entities []model.TextEntity
}

// ParseEntities reconstructs rich-text formatting spans from a post's HTML
// fragment. Offsets and lengths are code-point positions in the plain-text
// projection (tags stripped, <br> as newline), never byte offsets into HTML.
// Malformed markup yields fewer entities, never an error.
func ParseEntities(fragment string) []model.TextEntity {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil
	}

	s := &entityScanner{text: []rune(nodeText(nodes...))}
	for _, n := range nodes {
		s.walk(n)
	}
	return s.entities
}

// walk applies the ordered rule list to each node. The first matching rule
// consumes the whole subtree, so a <b> nested in an emoji wrapper or an <i>
// can never double-match as bold on its own.
func (s *entityScanner) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		s.scanHashtags(n.Data)
		return
	case html.ElementNode:
		m, matched, descend := matchEntity(n)
		if matched {
			if m != nil {
				s.emit(*m)
			}
			return
		}
		if !descend {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c)
	}
}

// matchEntity classifies one element against the recognized tag patterns.
// Returns (match, consumed, descend): consumed subtrees are never re-scanned,
// a nil match with consumed=true drops an unextractable span defensively.
func matchEntity(n *html.Node) (*spanMatch, bool, bool) {
	switch n.Data {
	case "tg-emoji":
		return matchCustomEmoji(n), true, false
	case "i":
		if hasClass(n, "emoji") {
			return matchEmoji(n, model.EntityEmoji), true, false
		}
		return &spanMatch{typ: model.EntityItalic, content: nodeText(n)}, true, false
	case "a":
		return matchAnchor(n)
	case "b":
		return &spanMatch{typ: model.EntityBold, content: nodeText(n)}, true, false
	case "u":
		return &spanMatch{typ: model.EntityUnderline, content: nodeText(n)}, true, false
	case "s":
		return &spanMatch{typ: model.EntityStrikethrough, content: nodeText(n)}, true, false
	case "tg-spoiler":
		return &spanMatch{typ: model.EntitySpoiler, content: nodeText(n)}, true, false
	case "pre":
		return &spanMatch{
			typ:      model.EntityPre,
			content:  nodeText(n),
			language: codeLanguage(n),
		}, true, false
	case "code":
		return &spanMatch{
			typ:      model.EntityCode,
			content:  nodeText(n),
			language: codeLanguage(n),
		}, true, false
	}
	return nil, false, true
}

// matchAnchor distinguishes onclick-instrumented text links from plain links.
// In-page fragments (#...) are not link entities; their children still get
// scanned for other patterns.
func matchAnchor(n *html.Node) (*spanMatch, bool, bool) {
	href := attr(n, "href")
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false, true
	}
	typ := model.EntityURL
	if attr(n, "onclick") != "" {
		typ = model.EntityTextLink
	}
	return &spanMatch{typ: typ, content: nodeText(n), url: href}, true, false
}

// matchEmoji extracts an emoji span from <i class="emoji" style="...url('//...')">.
// The glyph sits one tag deeper, wrapped in <b>. Source URLs are
// protocol-relative and get pinned to https.
func matchEmoji(n *html.Node, typ model.EntityType) *spanMatch {
	src := backgroundURL(attr(n, "style"))
	if src == "" {
		return nil
	}
	glyph := nodeText(n)
	if glyph == "" {
		return nil
	}
	return &spanMatch{typ: typ, content: glyph, url: "https:" + src}
}

// matchCustomEmoji handles <tg-emoji> wrappers, which nest the same
// <i class="emoji"><b>glyph</b></i> structure one level deeper.
func matchCustomEmoji(n *html.Node) *spanMatch {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "i" && hasClass(c, "emoji") {
			return matchEmoji(c, model.EntityAnimoji)
		}
	}
	return nil
}

func codeLanguage(n *html.Node) string {
	var class string
	if n.Data == "code" {
		class = attr(n, "class")
	} else {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "code" {
				class = attr(c, "class")
				break
			}
		}
	}
	for _, token := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(token, "language-"); ok {
			return lang
		}
	}
	return ""
}

func (s *entityScanner) scanHashtags(text string) {
	for _, tag := range hashtagRe.FindAllString(text, -1) {
		s.emit(spanMatch{typ: model.EntityHashtag, content: tag})
	}
}

// emit locates the span's content in the projection starting from the cursor
// and records the entity. Content that cannot be found (markup mismatch)
// is skipped without advancing the cursor.
func (s *entityScanner) emit(m spanMatch) {
	content := []rune(m.content)
	if len(content) == 0 {
		return
	}
	offset := indexRunes(s.text, content, s.cursor)
	if offset < 0 {
		return
	}
	s.cursor = offset + len(content)
	s.entities = append(s.entities, model.TextEntity{
		Offset:   offset,
		Length:   len(content),
		Type:     m.typ,
		Language: m.language,
		URL:      m.url,
	})
}

// indexRunes finds needle in haystack at or after the from position.
func indexRunes(haystack, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, r := range needle {
			if haystack[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
