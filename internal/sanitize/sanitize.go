// Package sanitize strips provider citation markup from assistant text.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// 【4:0†source】 style spans, possibly spanning lines.
	bracketSpan = regexp.MustCompile(`(?s)\x{3010}.*?\x{3011}`)
	// [3:12] or [3:12†file.pdf] style inline references.
	inlineRef = regexp.MustCompile(`\[\d+:[^\]]*?\]`)
	// Unicode whitespace, matching what strings.TrimSpace trims.
	whitespace = regexp.MustCompile(`[\s\v\p{Z}\x{85}]{2,}`)
)

// Text removes citation markup, collapses whitespace runs and trims.
// Applying it twice yields the same result as applying it once.
func Text(s string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = s
		}
	}()

	out = bracketSpan.ReplaceAllString(s, "")
	// Removing one reference can expose another, e.g. "[[1:a]2:b]".
	for {
		next := inlineRef.ReplaceAllString(out, "")
		if next == out {
			break
		}
		out = next
	}
	out = whitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
