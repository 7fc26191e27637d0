// Package tags provides pure normalization and display helpers for tag
// strings. A normalized string is the canonical identity of a tag; there is no
// separate tag ID anywhere in the system.
package tags

import (
	"regexp"
	"strings"

	"github.com/aretw0/opennote/pkg/core"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	camelBreak = regexp.MustCompile(`([a-z])([A-Z])`)
	kebabStrip = regexp.MustCompile(`[^a-z0-9\s\-:|]`)
	hyphenRuns = regexp.MustCompile(`-+`)
)

// Normalize lowercases a tag and collapses whitespace runs into single
// hyphens. It is idempotent: Normalize(Normalize(x)) == Normalize(x).
// "Urgent Task" and "urgent-task" identify the same tag.
func Normalize(tag string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(tag)), "-")
}

// KebabCase canonicalizes AI-produced tags: camelCase boundaries become
// hyphens, punctuation is stripped, whitespace and hyphen runs collapse.
func KebabCase(value string) string {
	s := camelBreak.ReplaceAllString(value, "$1-$2")
	s = strings.ToLower(s)
	s = kebabStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = whitespace.ReplaceAllString(s, "-")
	return hyphenRuns.ReplaceAllString(s, "-")
}

// Color derives a display color from the tag string. The same string always
// maps to the same palette entry; nothing is stored.
func Color(tag string) core.ColorName {
	var hash int32
	for _, r := range tag {
		hash = hash<<5 - hash + int32(r)
	}
	idx := int(hash)
	if idx < 0 {
		idx = -idx
	}
	return core.Palette[idx%len(core.Palette)]
}
