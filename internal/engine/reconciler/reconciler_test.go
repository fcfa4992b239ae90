package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provision-search/internal/models"
)

func row(protocol, queue string) models.Row {
	return models.Row{
		"PROTOCOL":      protocol,
		"CIRCUIT":       "c-" + protocol,
		"CURRENT_QUEUE": queue,
	}
}

// ==========================
// Placeholder Policy Tests
// ==========================

func TestReorder_PlaceholdersGuaranteeFullCoverage(t *testing.T) {
	rows := []models.Row{row("B", "DISPATCH")}
	out := Reorder(rows, []string{"A", "B", "C"}, "PROTOCOL", true)

	require.Len(t, out, 3)

	// placeholder(A), row(B), placeholder(C) in input order.
	assert.Equal(t, "A", out[0]["PROTOCOL"])
	assert.Equal(t, NotFoundSentinel, out[0]["CURRENT_QUEUE"])
	assert.Equal(t, "B", out[1]["PROTOCOL"])
	assert.Equal(t, "DISPATCH", out[1]["CURRENT_QUEUE"])
	assert.Equal(t, "C", out[2]["PROTOCOL"])
	assert.Equal(t, NotFoundSentinel, out[2]["CURRENT_QUEUE"])
}

func TestReorder_PlaceholderClonesFieldLayout(t *testing.T) {
	rows := []models.Row{row("B", "TRIAGE")}
	out := Reorder(rows, []string{"A", "B"}, "PROTOCOL", true)

	placeholder := out[0]
	assert.Len(t, placeholder, len(rows[0]))
	assert.Contains(t, placeholder, "CIRCUIT")
	assert.Nil(t, placeholder["CIRCUIT"])
}

func TestReorder_MinimalTemplateWhenNothingMatched(t *testing.T) {
	out := Reorder(nil, []string{"A", "B"}, "PROTOCOL", true)

	require.Len(t, out, 2)
	for i, v := range []string{"A", "B"} {
		assert.Equal(t, v, out[i]["PROTOCOL"])
		assert.Equal(t, NotFoundSentinel, out[i][StatusField])
	}
}

func TestReorder_RowCountEqualsInputCountProperty(t *testing.T) {
	rows := []models.Row{row("2", "Q"), row("5", "Q")}
	values := []string{"1", "2", "3", "4", "5", "6"}

	out := Reorder(rows, values, "PROTOCOL", true)

	require.Len(t, out, len(values))
	for i, v := range values {
		assert.Equal(t, v, out[i]["PROTOCOL"])
	}
}

func TestReorder_PlaceholdersDropSurplusDuplicates(t *testing.T) {
	// Two rows share the key B; with placeholders on, the output still holds
	// exactly one row per input value and the surplus duplicate is dropped
	// rather than appended.
	rows := []models.Row{row("B", "first"), row("B", "second")}
	out := Reorder(rows, []string{"A", "B"}, "PROTOCOL", true)

	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0]["PROTOCOL"])
	assert.Equal(t, NotFoundSentinel, out[0]["CURRENT_QUEUE"])
	assert.Equal(t, "B", out[1]["PROTOCOL"])
	assert.Equal(t, "first", out[1]["CURRENT_QUEUE"])
}

func TestReorder_PlaceholdersDropRowsMatchingNoValue(t *testing.T) {
	rows := []models.Row{row("B", "Q"), row("Z", "Q")}
	out := Reorder(rows, []string{"A", "B"}, "PROTOCOL", true)

	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0]["PROTOCOL"])
	assert.Equal(t, "B", out[1]["PROTOCOL"])
}

// ==========================
// Best-Effort (No Placeholder) Tests
// ==========================

func TestReorder_WithoutPlaceholdersDropsUnmatched(t *testing.T) {
	rows := []models.Row{row("B", "Q"), row("D", "Q")}
	out := Reorder(rows, []string{"A", "B", "C", "D"}, "PROTOCOL", false)

	require.Len(t, out, 2)
	assert.Equal(t, "B", out[0]["PROTOCOL"])
	assert.Equal(t, "D", out[1]["PROTOCOL"])
}

func TestReorder_LeftoverRowsAppendedAtEnd(t *testing.T) {
	rows := []models.Row{row("X", "Q"), row("B", "Q"), row("Y", "Q")}
	out := Reorder(rows, []string{"B"}, "PROTOCOL", false)

	require.Len(t, out, 3)
	assert.Equal(t, "B", out[0]["PROTOCOL"])

	tail := []string{out[1]["PROTOCOL"].(string), out[2]["PROTOCOL"].(string)}
	assert.ElementsMatch(t, []string{"X", "Y"}, tail)
}

func TestReorder_DuplicateKeyConsumedOnce(t *testing.T) {
	rows := []models.Row{row("B", "first"), row("B", "second")}
	out := Reorder(rows, []string{"B"}, "PROTOCOL", false)

	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0]["CURRENT_QUEUE"])
	// The surplus duplicate lands in the leftover tail.
	assert.Equal(t, "second", out[1]["CURRENT_QUEUE"])
}

func TestReorder_NoDuplicateValuesAmongLeadingRows(t *testing.T) {
	rows := []models.Row{row("A", "1"), row("A", "2"), row("B", "1")}
	values := []string{"A", "B"}

	out := Reorder(rows, values, "PROTOCOL", false)

	leading := out[:len(values)]
	seen := make(map[string]bool)
	for _, r := range leading {
		key := r["PROTOCOL"].(string)
		assert.False(t, seen[key], "value %q emitted twice among leading rows", key)
		seen[key] = true
	}
}

// ==========================
// Pass-Through Tests
// ==========================

func TestReorder_NoValuesReturnsRawRows(t *testing.T) {
	rows := []models.Row{row("A", "Q")}
	assert.Equal(t, rows, Reorder(rows, nil, "PROTOCOL", true))
}

func TestReorder_NoKeyColumnReturnsRawRows(t *testing.T) {
	rows := []models.Row{row("A", "Q")}
	assert.Equal(t, rows, Reorder(rows, []string{"A"}, "", true))
}

func TestReorder_NonStringKeysCompareByStringForm(t *testing.T) {
	rows := []models.Row{{"SERVICE_ORDER_ID": int64(42)}}
	out := Reorder(rows, []string{"42"}, "SERVICE_ORDER_ID", false)

	require.Len(t, out, 1)
	assert.Equal(t, int64(42), out[0]["SERVICE_ORDER_ID"])
}

func TestReorder_PaddedKeysMatchTrimmedValues(t *testing.T) {
	// Backends pad fixed-width character columns; a padded key must still
	// match the cleaned input value instead of producing a placeholder.
	rows := []models.Row{row("  B  ", "DISPATCH")}
	out := Reorder(rows, []string{"A", "B"}, "PROTOCOL", true)

	require.Len(t, out, 2)
	assert.Equal(t, NotFoundSentinel, out[0]["CURRENT_QUEUE"])
	assert.Equal(t, "DISPATCH", out[1]["CURRENT_QUEUE"])
}
