package model

// FeedPost wraps a post with the channel it came from and the fields derived
// during aggregation. Comments is best-effort and defaults to 0 on failure.
type FeedPost struct {
	Post
	Channel     Channel `json:"channel"`
	Subscribers int     `json:"subscribers"`
	Comments    int     `json:"comments"`
	Score       float64 `json:"_score"`
}

// FeedResponse is the ranked, deduplicated cross-channel result list.
type FeedResponse struct {
	Result []FeedPost `json:"result"`
}
