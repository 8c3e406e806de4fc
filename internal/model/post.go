package model

// ParsedAndRaw carries a value in both its plain-text and source-HTML forms.
type ParsedAndRaw struct {
	String string `json:"string"`
	HTML   string `json:"html"`
}

// EntityType enumerates rich-text entity kinds over a post's plain text.
type EntityType string

const (
	EntityItalic        EntityType = "italic"
	EntityBold          EntityType = "bold"
	EntityCode          EntityType = "code"
	EntitySpoiler       EntityType = "spoiler"
	EntityStrikethrough EntityType = "strikethrough"
	EntityUnderline     EntityType = "underline"
	EntityTextLink      EntityType = "text_link"
	EntityURL           EntityType = "url"
	EntityPre           EntityType = "pre"
	EntityEmoji         EntityType = "emoji"
	EntityAnimoji       EntityType = "animoji"
	EntityHashtag       EntityType = "hashtag"
)

// TextEntity is a formatting span over the Unicode plain-text projection of a
// post's text. Offset and Length count code points, not bytes.
type TextEntity struct {
	Offset   int        `json:"offset"`
	Length   int        `json:"length"`
	Type     EntityType `json:"type"`
	Language string     `json:"language,omitempty"`
	URL      string     `json:"url,omitempty"`
}

// Text is the rich-text content of a post.
type Text struct {
	String   string       `json:"string"`
	HTML     string       `json:"html"`
	Entities []TextEntity `json:"entities,omitempty"`
}

// Duration of a media item. Raw is the total length in seconds.
type Duration struct {
	Formatted string `json:"formatted"`
	Raw       int    `json:"raw"`
}

// MediaType enumerates recognized media widget kinds.
type MediaType string

const (
	MediaImage      MediaType = "image"
	MediaVideo      MediaType = "video"
	MediaVoice      MediaType = "voice"
	MediaRoundVideo MediaType = "roundvideo"
	MediaSticker    MediaType = "sticker"
	MediaGIF        MediaType = "gif"
)

// MediaItem is one media attachment of a post. URL may be empty with
// Available=false when the binary is known to exist but is not fetchable
// (e.g. an oversized video). A nil Duration is distinct from a zero one.
type MediaItem struct {
	URL       string    `json:"url,omitempty"`
	Thumb     string    `json:"thumb,omitempty"`
	Waves     string    `json:"waves,omitempty"`
	Duration  *Duration `json:"duration,omitempty"`
	Type      MediaType `json:"type"`
	Available *bool     `json:"available,omitempty"`
}

// PollOption is a single poll answer with its vote share.
type PollOption struct {
	Name    string `json:"name"`
	Percent int    `json:"percent"`
}

// Poll as rendered in a post bubble.
type Poll struct {
	Question string       `json:"question"`
	Type     string       `json:"type,omitempty"`
	Votes    string       `json:"votes"`
	Options  []PollOption `json:"options"`
}

// Inline is one inline keyboard button.
type Inline struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Reply is the quoted-message preview a post replies to.
type Reply struct {
	Cover     string       `json:"cover,omitempty"`
	Name      ParsedAndRaw `json:"name"`
	Text      ParsedAndRaw `json:"text"`
	ToMessage int          `json:"to_message"`
}

// PreviewLink is the unfurled link card attached to a post.
type PreviewLink struct {
	Title       string        `json:"title,omitempty"`
	URL         string        `json:"url"`
	SiteName    string        `json:"site_name,omitempty"`
	Description *ParsedAndRaw `json:"description,omitempty"`
	Thumb       string        `json:"thumb,omitempty"`
}

// ReactionType enumerates reaction kinds.
type ReactionType string

const (
	ReactionEmoji       ReactionType = "emoji"
	ReactionCustomEmoji ReactionType = "custom_emoji"
	ReactionStars       ReactionType = "telegram_stars"
)

// Reaction is one reaction chip under a post. Count is the string as rendered
// ("1.2K"). Emoji is the literal glyph when it could be recovered.
type Reaction struct {
	Count   string       `json:"count"`
	Type    ReactionType `json:"type"`
	Emoji   string       `json:"emoji,omitempty"`
	EmojiID string       `json:"emoji_id,omitempty"`
}

// ContentPost holds every renderable part of a post. All fields are optional;
// absent ones are omitted from JSON rather than emitted as null.
type ContentPost struct {
	Text        *Text        `json:"text,omitempty"`
	Media       []MediaItem  `json:"media,omitempty"`
	Poll        *Poll        `json:"poll,omitempty"`
	Inline      []Inline     `json:"inline,omitempty"`
	Reply       *Reply       `json:"reply,omitempty"`
	PreviewLink *PreviewLink `json:"preview_link,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`
}

// Empty reports whether no content field is populated. A post whose content
// is empty is not a valid entity and is dropped by the parser.
func (c ContentPost) Empty() bool {
	return c.Text == nil &&
		len(c.Media) == 0 &&
		c.Poll == nil &&
		len(c.Inline) == 0 &&
		c.Reply == nil &&
		c.PreviewLink == nil &&
		len(c.Reactions) == 0
}

// Date of a post in both the source string form and unix seconds.
type Date struct {
	String string `json:"string"`
	Unix   int64  `json:"unix"`
}

// Footer is post metadata rendered below the bubble.
type Footer struct {
	Views  string        `json:"views,omitempty"`
	Edited bool          `json:"edited"`
	Author *ParsedAndRaw `json:"author,omitempty"`
	Date   Date          `json:"date"`
}

// Forwarded names the origin of a forwarded post.
type Forwarded struct {
	Name ParsedAndRaw `json:"name"`
	URL  string       `json:"url,omitempty"`
}

// Post is one channel message. ID is unique within a channel and stable
// across fetches. View is an opaque token taken from the source markup.
type Post struct {
	ID        int         `json:"id"`
	Content   ContentPost `json:"content"`
	Footer    Footer      `json:"footer"`
	Forwarded *Forwarded  `json:"forwarded,omitempty"`
	View      string      `json:"view,omitempty"`
}
