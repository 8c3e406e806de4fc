package model

// PreviewChannel is the lightweight channel card shown on a t.me profile
// page, independent of post content.
type PreviewChannel struct {
	Title       string `json:"title"`
	Subscribers string `json:"subscribers"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	IsVerified  bool   `json:"is_verified"`
}

// Preview wraps a channel card. Channel is nil when the target page is not a
// valid, resolvable channel.
type Preview struct {
	Channel *PreviewChannel `json:"channel"`
}
