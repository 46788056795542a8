package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/yukikurage/team-board-api/internal/constants"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a column id from its title. Whitespace runs become a
// hyphen, anything outside [a-z0-9-] is dropped and repeated hyphens collapse,
// so the id is always safe as a single path segment. A title with no letters
// or digits yields "".
func Slugify(title string) string {
	slug := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = hyphenRun.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ParseDueDate accepts "2006-01-02" or an RFC 3339 timestamp. An empty string
// or the "TBD" placeholder means no due date; the placeholder is not kept, so
// such tasks read back with a null due.
func ParseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "TBD") {
		return nil, nil
	}
	if t, err := time.Parse(constants.DueDateLayout, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q", value)
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

// FormatDueDate renders a due date the way the API returns it.
func FormatDueDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(constants.DueDateLayout)
	return &s
}

// DefaultAvatarURL returns the generated initials avatar for a username.
func DefaultAvatarURL(username string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&size=40&background=random&color=fff", url.QueryEscape(username))
}
