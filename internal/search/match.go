// Package search holds the text matching and snippet helpers used by
// the novel content search, plus result pagination.
package search

import (
	"strings"
	"unicode"
)

// Snippet defaults used for block hits.
const (
	SnippetMaxLen  = 150
	SnippetContext = 30
)

// Pagination defaults.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

const ellipsis = "..."

// squash removes whitespace and lowercases s.
func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Contains reports whether query occurs in text once whitespace is
// removed from both and case is ignored. An empty query matches
// everything; a query made only of whitespace matches nothing.
func Contains(text, query string) bool {
	if query == "" {
		return true
	}
	if text == "" {
		return false
	}
	q := squash(query)
	if q == "" {
		return false
	}
	return strings.Contains(squash(text), q)
}

// Snippet returns the part of text around the first case-insensitive
// occurrence of query: context runes on each side, "..." where text was
// cut, and at most maxLen runes overall. When query does not occur
// literally (for example it only matched once whitespace was removed)
// the first maxLen runes of text are returned.
func Snippet(text, query string, maxLen, context int) string {
	runes := []rune(text)
	if query == "" || text == "" {
		return truncate(runes, maxLen)
	}

	start := indexFold(runes, []rune(query))
	if start < 0 {
		return truncate(runes, maxLen)
	}
	end := start + len([]rune(query))

	from := max(0, start-context)
	to := min(len(runes), end+context)

	var b strings.Builder
	if from > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(runes[from:to]))
	if to < len(runes) {
		b.WriteString(ellipsis)
	}

	out := []rune(b.String())
	if len(out) > maxLen {
		keep := max(0, maxLen-len(ellipsis))
		return string(out[:keep]) + ellipsis
	}
	return string(out)
}

// indexFold finds needle in hay comparing runes case-insensitively and
// returns the rune offset, or -1.
func indexFold(hay, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(needle) <= len(hay); i++ {
		for j, r := range needle {
			if unicode.ToLower(hay[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}

func truncate(runes []rune, n int) string {
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}

// ClampLimit applies the default page size when limit is unset and caps
// it at MaxLimit. An explicit zero stays zero.
func ClampLimit(limit *int) int {
	if limit == nil {
		return DefaultLimit
	}
	return min(max(*limit, 0), MaxLimit)
}

// Paginate returns items[offset:offset+limit], clamped to the slice.
func Paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := min(len(items), offset+limit)
	return items[offset:end]
}
