package blocks

import (
	"bytes"
	"cmp"
	"encoding/json"
	"log/slog"
	"math"
	"slices"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/models"
)

// Merge applies deltas, in the order given, to current and returns the
// resulting list sorted by order. current is not modified.
//
//   - create needs content and blockType. Without an order it goes after
//     the highest existing order (never below 1).
//   - update of an unknown id is logged and skipped. Only fields present
//     in the delta change; an explicit null attr clears the attribute.
//     updatedAt moves only when something changed.
//   - delete of an unknown id is a no-op.
//
// Float orders from the editor are rounded to the nearest integer, halves
// away from zero. Equal orders keep their position in current, with newly
// created blocks after existing ones.
func Merge(current []models.Block, deltas []models.DeltaBlock, logger *slog.Logger) ([]models.Block, error) {
	if logger == nil {
		logger = slog.Default()
	}

	list := slices.Clone(current)
	pos := make(map[string]int, len(list))
	for i := range list {
		pos[list[i].ID] = i
	}
	deleted := make(map[int]bool)

	for _, d := range deltas {
		switch d.Action {
		case models.DeltaCreate:
			if d.Content == nil {
				return nil, apperr.Validation("blocks: create %s: content is required", d.ID)
			}
			if d.BlockType == nil {
				return nil, apperr.Validation("blocks: create %s: blockType is required", d.ID)
			}
			order := maxOrder(list, deleted) + 1
			if d.Order != nil {
				order = roundOrder(*d.Order)
			}
			date := d.Date
			b := models.Block{
				ID:        d.ID,
				Text:      ExtractText(d.Content),
				Content:   d.Content,
				BlockType: *d.BlockType,
				Attr:      decodeAttr(d.Attr),
				Order:     order,
				UpdatedAt: &date,
			}
			if i, ok := pos[d.ID]; ok && !deleted[i] {
				list[i] = b
				continue
			}
			pos[d.ID] = len(list)
			list = append(list, b)

		case models.DeltaUpdate:
			i, ok := pos[d.ID]
			if !ok || deleted[i] {
				logger.Warn("blocks: update for unknown block skipped", slog.String("block_id", d.ID))
				continue
			}
			b := &list[i]
			changed := false
			if d.Content != nil {
				b.Content = d.Content
				b.Text = ExtractText(d.Content)
				changed = true
			}
			if d.BlockType != nil {
				b.BlockType = *d.BlockType
				changed = true
			}
			if d.Attr != nil {
				b.Attr = decodeAttr(d.Attr)
				changed = true
			}
			if d.Order != nil {
				b.Order = roundOrder(*d.Order)
				changed = true
			}
			if changed {
				date := d.Date
				b.UpdatedAt = &date
			}

		case models.DeltaDelete:
			if i, ok := pos[d.ID]; ok {
				deleted[i] = true
				delete(pos, d.ID)
			}

		default:
			return nil, apperr.Validation("blocks: unknown action %q for block %s", d.Action, d.ID)
		}
	}

	out := make([]models.Block, 0, len(list))
	for i := range list {
		if !deleted[i] {
			out = append(out, list[i])
		}
	}
	slices.SortStableFunc(out, func(a, b models.Block) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out, nil
}

func roundOrder(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

// maxOrder returns the highest live order, or 0 when every block has a
// lower one.
func maxOrder(list []models.Block, deleted map[int]bool) int {
	m := 0
	for i := range list {
		if !deleted[i] && list[i].Order > m {
			m = list[i].Order
		}
	}
	return m
}

// decodeAttr turns the raw attr of a delta into a generic value. JSON
// null becomes nil.
func decodeAttr(raw json.RawMessage) any {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
