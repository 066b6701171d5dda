// Package blocks derives plain text from editor block content and merges
// delta patches into block lists.
package blocks

import (
	"strings"
	"unicode"

	"github.com/starford/muvel/internal/models"
)

// ExtractText concatenates the "text" field of every top-level node
// whose "type" is "text". Other nodes, and anything nested inside them,
// contribute nothing.
func ExtractText(content []any) string {
	var b strings.Builder
	for _, node := range content {
		obj, ok := node.(map[string]any)
		if !ok {
			continue
		}
		if typ, _ := obj["type"].(string); typ != "text" {
			continue
		}
		if text, ok := obj["text"].(string); ok {
			b.WriteString(text)
		}
	}
	return b.String()
}

// CountNonSpace returns the number of runes in s that are not whitespace.
func CountNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// ContentLength sums CountNonSpace over the text of every block.
func ContentLength(list []models.Block) int {
	n := 0
	for i := range list {
		n += CountNonSpace(list[i].Text)
	}
	return n
}

// Normalize re-derives Text from Content for every block and makes sure
// Content is never null. It is used when a caller replaces a whole block
// list.
func Normalize(list []models.Block) []models.Block {
	if list == nil {
		return []models.Block{}
	}
	for i := range list {
		if list[i].Content == nil {
			list[i].Content = []any{}
		}
		list[i].Text = ExtractText(list[i].Content)
	}
	return list
}

// PlainText joins the text of list with newlines, skipping blank blocks.
func PlainText(list []models.Block) string {
	var parts []string
	for i := range list {
		if strings.TrimSpace(list[i].Text) == "" {
			continue
		}
		parts = append(parts, list[i].Text)
	}
	return strings.Join(parts, "\n")
}
