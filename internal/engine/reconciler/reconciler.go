// Package reconciler re-orders a source's raw result rows to match the
// caller's input order, synthesizing placeholder rows where the search type
// guarantees full input coverage.
package reconciler

import (
	"fmt"
	"strings"

	"provision-search/internal/models"
)

// NotFoundSentinel marks a synthesized placeholder row's status field: the
// record was not found and is presumed closed, cancelled or nonexistent.
const NotFoundSentinel = "Cancelled/Closed/NA"

// StatusField is the row field a placeholder's sentinel is written to.
const StatusField = "CURRENT_QUEUE"

// Reorder walks values in order and emits the matching row for each, keyed
// by keyColumn. A row is consumed on first match, so a duplicate key among
// the raw rows cannot be emitted twice for the same value.
//
// With placeholders enabled, every unmatched value is synthesized into a
// placeholder row instead of being dropped and no leftover rows are
// appended: the output holds exactly one row per input value. Without
// placeholders, unmatched values are silently skipped and rows matching no
// input value (including surplus duplicates) are appended at the end.
func Reorder(rows []models.Row, values []string, keyColumn string, placeholders bool) []models.Row {
	if len(values) == 0 || keyColumn == "" {
		return rows
	}

	byKey := make(map[string][]models.Row, len(rows))
	for _, row := range rows {
		key := keyString(row[keyColumn])
		byKey[key] = append(byKey[key], row)
	}

	ordered := make([]models.Row, 0, len(rows))
	for _, v := range values {
		bucket := byKey[v]
		if len(bucket) > 0 {
			ordered = append(ordered, bucket[0])
			byKey[v] = bucket[1:]
			continue
		}
		if placeholders {
			ordered = append(ordered, placeholderRow(rows, keyColumn, v))
		}
	}

	// Leftovers: unmatched rows and surplus duplicates, arbitrary order.
	// Placeholder mode keeps the one-row-per-input guarantee instead.
	if !placeholders {
		for _, bucket := range byKey {
			ordered = append(ordered, bucket...)
		}
	}

	return ordered
}

// placeholderRow clones the field layout of the first real row, or falls
// back to a minimal template when nothing matched at all.
func placeholderRow(rows []models.Row, keyColumn, value string) models.Row {
	if len(rows) == 0 {
		return models.Row{
			keyColumn:   value,
			StatusField: NotFoundSentinel,
		}
	}

	placeholder := make(models.Row, len(rows[0]))
	for field := range rows[0] {
		placeholder[field] = nil
	}
	placeholder[keyColumn] = value
	placeholder[StatusField] = NotFoundSentinel
	return placeholder
}

func keyString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
