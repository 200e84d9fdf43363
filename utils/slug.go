package utils

import (
	"strconv"
	"strings"
	"time"
)

// Slugify derives a URL-safe identifier from free text: lowercase, strip
// everything outside [a-z0-9 -], turn whitespace runs into single hyphens,
// collapse repeated hyphens and trim hyphens from both ends.
func Slugify(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
			b.WriteRune(r)
		}
	}

	slug := strings.Join(strings.Fields(b.String()), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// DisambiguateSlug appends the current epoch-millisecond timestamp to a slug
// that collided with an existing one. A second collision within the same
// millisecond is accepted as vanishingly unlikely and left undetected.
func DisambiguateSlug(slug string) string {
	return slug + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}
