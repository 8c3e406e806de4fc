package model

import (
	"errors"
	"fmt"
)

// ErrInvalidLabel is returned when a channel carries a label outside the
// allowed set. Unknown labels are a validation error, not silently dropped.
var ErrInvalidLabel = errors.New("invalid channel label")

// ErrNotFound signals that the requested primary resource produced no usable
// data (upstream fetch failed or the selector matched nothing).
var ErrNotFound = errors.New("resource not found")

// allowedLabels is the full set of labels a channel may legally carry.
var allowedLabels = map[string]struct{}{
	"verified": {},
}

// Counters holds the channel profile counters as rendered ("12.3K").
// Subscribers is always present on a channel page; the rest depend on content.
type Counters struct {
	Subscribers string `json:"subscribers"`
	Photos      string `json:"photos,omitempty"`
	Videos      string `json:"videos,omitempty"`
	Files       string `json:"files,omitempty"`
	Links       string `json:"links,omitempty"`
}

// Channel is the profile block of a channel page. It is reconstructed fresh
// on every fetch and never persisted outside the preview cache.
type Channel struct {
	Username    string        `json:"username"`
	Title       ParsedAndRaw  `json:"title"`
	Description *ParsedAndRaw `json:"description,omitempty"`
	Avatar      string        `json:"avatar,omitempty"`
	Counters    Counters      `json:"counters"`
	Labels      []string      `json:"labels"`
}

// ValidateLabels rejects any label outside the allowed set.
func (c *Channel) ValidateLabels() error {
	for _, label := range c.Labels {
		if _, ok := allowedLabels[label]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
		}
	}
	return nil
}

// Offset holds the pagination cursors extracted from a page. Keys merge
// across all candidate anchors, last write wins per key.
type Offset struct {
	Before *int `json:"before,omitempty"`
	After  *int `json:"after,omitempty"`
}

// Meta wraps pagination metadata of a body or more response.
type Meta struct {
	Offset Offset `json:"offset"`
}

// Content wraps the ordered post list of a channel page.
type Content struct {
	Posts []Post `json:"posts"`
}

// ChannelBody is the full document for one channel fetch: profile, posts in
// source order and pagination offsets.
type ChannelBody struct {
	Channel Channel `json:"channel"`
	Content Content `json:"content"`
	Meta    Meta    `json:"meta"`
}

// More is the document built from an incremental "load more" fragment.
type More struct {
	Posts []Post `json:"posts"`
	Meta  Meta   `json:"meta"`
}
