package utils

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Hello, World!", "hello-world"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Multiple   spaces   between", "multiple-spaces-between"},
		{"UPPER case Title", "upper-case-title"},
		{"already-hyphenated-title", "already-hyphenated-title"},
		{"Go 1.21 Released", "go-121-released"},
		{"C++ & Rust: a comparison?", "c-rust-a-comparison"},
		{"--- leading hyphens", "leading-hyphens"},
		{"trailing hyphens ---", "trailing-hyphens"},
		{"dash - surrounded - words", "dash-surrounded-words"},
		{"数字 only unicode 文字", "only-unicode"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.title), "title=%q", tc.title)
	}
}

func TestSlugifyNeverProducesDoubleHyphen(t *testing.T) {
	titles := []string{
		"a - b - c",
		"a  -  b",
		"a ! b",
		"one--two---three",
	}
	for _, title := range titles {
		slug := Slugify(title)
		assert.NotContains(t, slug, "--", "title=%q", title)
		assert.False(t, strings.HasPrefix(slug, "-"), "title=%q", title)
		assert.False(t, strings.HasSuffix(slug, "-"), "title=%q", title)
	}
}

func TestDisambiguateSlug(t *testing.T) {
	before := time.Now().UnixMilli()
	got := DisambiguateSlug("hello-world")
	after := time.Now().UnixMilli()

	parts := strings.Split(got, "-")
	suffix := parts[len(parts)-1]
	assert.True(t, strings.HasPrefix(got, "hello-world-"))

	ms, err := strconv.ParseInt(suffix, 10, 64)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, ms, before)
	assert.LessOrEqual(t, ms, after)
}
