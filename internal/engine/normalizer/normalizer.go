// Package normalizer turns raw multi-line user input into the canonical
// ordered term list the query compilers consume.
package normalizer

import (
	"strings"

	"provision-search/internal/models"
)

// MaxInListSize is the backend-imposed ceiling on IN-list length.
const MaxInListSize = 1000

// CleanAndSplit splits raw input on line breaks, trims whitespace, drops
// empty lines and removes duplicates while preserving first-occurrence
// order. Empty or whitespace-only input yields an empty list, not an error.
func CleanAndSplit(raw string) []string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	seen := make(map[string]struct{}, len(lines))
	values := []string{}
	for _, line := range lines {
		v := strings.TrimSpace(line)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// PadProtocol prepends the two-character protocol prefix. The transform is
// plain concatenation with no format validation.
func PadProtocol(v string) string {
	return "00" + v
}

// PadCircuit prepends the one-character circuit prefix.
func PadCircuit(v string) string {
	return "0" + v
}

// padApplies gates a padding transform on the search-type label. The check
// is a substring match on the label, not type equality.
func padApplies(searchType models.SearchType, label string) bool {
	return strings.Contains(string(searchType), label)
}

// Normalize produces the canonical ProcessedParams for a request: the
// cleaned, de-duplicated value list with padding applied when the matching
// flag is set, plus every pass-through option field.
func Normalize(req *models.SearchRequest) *models.ProcessedParams {
	original := CleanAndSplit(req.RawValues)

	values := original
	padded := false
	switch {
	case req.PadProtocol && padApplies(req.SearchType, "protocol"):
		values = applyPad(original, PadProtocol)
		padded = true
	case req.PadCircuit && padApplies(req.SearchType, "circuit"):
		values = applyPad(original, PadCircuit)
		padded = true
	}

	return &models.ProcessedParams{
		SearchType:        req.SearchType,
		Values:            values,
		OriginalValues:    original,
		PaddingApplied:    padded,
		Queue:             req.Queue,
		Port:              req.Port,
		NodeRef:           req.NodeRef,
		NodeRefKind:       req.NodeRefKind,
		CreatedAfter:      req.CreatedAfter,
		QueueEnteredAfter: req.QueueEnteredAfter,
		CorrectiveOnly:    req.CorrectiveOnly,
		Sources:           req.Sources,
		SelectedFields:    req.SelectedFields,
	}
}

func applyPad(values []string, pad func(string) string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = pad(v)
	}
	return out
}

// ChunkValues partitions values into groups of at most size elements,
// preserving order. An empty input yields no chunks.
func ChunkValues(values []string, size int) [][]string {
	if size <= 0 || len(values) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
