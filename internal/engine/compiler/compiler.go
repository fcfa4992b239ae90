// Package compiler turns normalized search parameters into parameterized
// SQL for one data source. Each source owns a field map, a default column
// set and a search-type dispatch table; the shared IN-list builder keeps
// every predicate list under the backend's 1000-element limit by chunking.
package compiler

import (
	"fmt"
	"strings"

	"provision-search/internal/engine/normalizer"
	"provision-search/internal/models"
)

// filterFunc builds one filter fragment (prefixed with " AND ") plus its
// bind parameters. An empty fragment means the filter does not apply.
type filterFunc func(p *models.ProcessedParams) (string, []models.BindParam)

// SourceSpec is the static query configuration of one data source.
type SourceSpec struct {
	Source         models.DataSource
	Table          string
	BaseClause     string // appended right after WHERE 1=1
	FieldMap       map[string]string
	DefaultColumns []string

	filters       map[models.SearchType]filterFunc
	crossCutting  []filterFunc
	orderColumns  map[models.SearchType]string
	emptyMessages map[models.SearchType]string
	defaultEmpty  string
}

// Compile assembles the full parameterized query for the given parameters.
// A search type with no registered filter (or a filter that does not apply)
// still yields a valid query restricted only by the source's base clause.
func (s *SourceSpec) Compile(p *models.ProcessedParams) *models.CompiledFilter {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(s.selectColumns(p.SelectedFields), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(s.Table)
	sb.WriteString(" WHERE 1=1")
	sb.WriteString(s.BaseClause)

	var params []models.BindParam
	if fn, ok := s.filters[p.SearchType]; ok {
		clause, fp := fn(p)
		sb.WriteString(clause)
		params = append(params, fp...)
	}
	for _, fn := range s.crossCutting {
		clause, fp := fn(p)
		sb.WriteString(clause)
		params = append(params, fp...)
	}

	return &models.CompiledFilter{Clause: sb.String(), Params: params}
}

// selectColumns maps the caller's field selection to column expressions,
// falling back to the default set when nothing is recognized.
func (s *SourceSpec) selectColumns(fields []string) []string {
	var columns []string
	for _, f := range fields {
		if col, ok := s.FieldMap[f]; ok {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return s.DefaultColumns
	}
	return columns
}

// Supports reports whether this source has a filter for the search type.
func (s *SourceSpec) Supports(t models.SearchType) bool {
	_, ok := s.filters[t]
	return ok
}

// OrderColumn returns the column reconciliation orders by for a search
// type, or "" when the type skips reconciliation.
func (s *SourceSpec) OrderColumn(t models.SearchType) string {
	return s.orderColumns[t]
}

// EmptyMessage returns the message attached to a zero-row result.
func (s *SourceSpec) EmptyMessage(t models.SearchType) string {
	if msg, ok := s.emptyMessages[t]; ok {
		return msg
	}
	return s.defaultEmpty
}

// ResultColumn reduces a select expression to the column name it produces
// in result rows, honoring AS aliases.
func ResultColumn(expr string) string {
	if i := strings.LastIndex(strings.ToUpper(expr), " AS "); i >= 0 {
		return strings.TrimSpace(expr[i+4:])
	}
	return strings.TrimSpace(expr)
}

// buildInClause emits an IN-list filter for column over values, chunked to
// the backend's predicate-list limit. Parameter names are prefix_N for a
// single chunk and prefix_cC_N per chunk otherwise; multi-chunk fragments
// are OR-joined inside one parenthesized group so the whole filter still
// ANDs into the query.
func buildInClause(column, prefix string, values []string) (string, []models.BindParam) {
	if len(values) == 0 {
		return "", nil
	}

	chunks := normalizer.ChunkValues(values, normalizer.MaxInListSize)
	params := make([]models.BindParam, 0, len(values))

	if len(chunks) == 1 {
		names := make([]string, len(chunks[0]))
		for i, v := range chunks[0] {
			name := fmt.Sprintf("%s_%d", prefix, i+1)
			names[i] = ":" + name
			params = append(params, models.BindParam{Name: name, Value: v})
		}
		return fmt.Sprintf(" AND %s IN (%s)", column, strings.Join(names, ", ")), params
	}

	groups := make([]string, len(chunks))
	for c, chunk := range chunks {
		names := make([]string, len(chunk))
		for i, v := range chunk {
			name := fmt.Sprintf("%s_c%d_%d", prefix, c+1, i+1)
			names[i] = ":" + name
			params = append(params, models.BindParam{Name: name, Value: v})
		}
		groups[c] = fmt.Sprintf("%s IN (%s)", column, strings.Join(names, ", "))
	}
	return fmt.Sprintf(" AND (%s)", strings.Join(groups, " OR ")), params
}

// inFilter binds a plain value-list search type to one column.
func inFilter(column, prefix string) filterFunc {
	return func(p *models.ProcessedParams) (string, []models.BindParam) {
		return buildInClause(column, prefix, p.Values)
	}
}
