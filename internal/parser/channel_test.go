package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegramme/internal/parser"
)

func previewPage(contextLink, avatar string) string {
	return `<html><body><div class="tgme_page">
		<img class="tgme_page_photo_image" src="` + avatar + `"/>
		<div class="tgme_page_title"><span>My Channel</span><i class="verified-icon"></i></div>
		<div class="tgme_page_extra">45 700 subscribers</div>
		<div class="tgme_page_description">All about <b>things</b></div>
		<a class="tgme_page_context_link">` + contextLink + `</a>
	</div></body></html>`
}

func TestChannelParserGet(t *testing.T) {
	p := parser.NewChannelParser(previewPage("Preview channel", "https://cdn.telegram.org/avatar.jpg"))
	require.True(t, p.IsChannel())

	channel := p.Get()
	require.NotNil(t, channel)
	assert.Equal(t, "My Channel", channel.Title)
	assert.Equal(t, "45 700 subscribers", channel.Subscribers)
	assert.Equal(t, "All about things", channel.Description)
	assert.Equal(t, "https://cdn.telegram.org/avatar.jpg", channel.Avatar)
	assert.True(t, channel.IsVerified)
}

// User and group pages carry different context labels and must not be
// mistaken for channels.
func TestChannelParserRejectsNonChannelPages(t *testing.T) {
	p := parser.NewChannelParser(previewPage("Send message", "https://cdn.telegram.org/a.jpg"))
	assert.False(t, p.IsChannel())
	assert.Nil(t, p.Get())
}

// Channels without an avatar embed a data: URI placeholder.
func TestChannelParserIgnoresPlaceholderAvatar(t *testing.T) {
	p := parser.NewChannelParser(previewPage("Preview channel", "data:image/svg+xml;base64,PHN2Zz4="))

	channel := p.Get()
	require.NotNil(t, channel)
	assert.Empty(t, channel.Avatar)
}

func TestChannelParserEmptyDocument(t *testing.T) {
	assert.Nil(t, parser.NewChannelParser("").Get())
}
