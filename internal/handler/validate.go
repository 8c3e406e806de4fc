package handler

import (
	"fmt"
	"regexp"
	"strconv"
)

// Channel usernames follow Telegram's public rules: leading letter, then
// letters, digits or underscores, 4 to 32 characters total.
var channelRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,31}$`)

// maxPostID bounds position and identifier parameters.
const maxPostID = 10_000_000

func validateChannel(name string) error {
	if !channelRe.MatchString(name) {
		return fmt.Errorf("channel: must match %s", channelRe.String())
	}
	return nil
}

// parsePosition parses a post position or identifier, which must be an
// integer in (0, maxPostID].
func parsePosition(field, raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: must be an integer", field)
	}
	if value <= 0 || value > maxPostID {
		return 0, fmt.Errorf("%s: must be in range 1..%d", field, maxPostID)
	}
	return value, nil
}
