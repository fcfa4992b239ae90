// internal/engine/projection.go
package engine

import (
	"strings"

	"provision-search/internal/engine/compiler"
	"provision-search/internal/models"
)

// applyFieldProjection narrows consolidated rows to the caller's selected
// fields. An empty selection returns the rows unfiltered; data is never
// dropped by default. Selected fields resolve through the originating
// source's field map, with unmapped names falling back to their uppercased
// form. The source tag (and chained-search markers, when present) always
// survive projection, and a record whose projection would keep no data
// field at all is passed through unfiltered instead.
func (e *Engine) applyFieldProjection(rows []models.Row, fields []string) []models.Row {
	if len(fields) == 0 || len(rows) == 0 {
		if rows == nil {
			return []models.Row{}
		}
		return rows
	}

	out := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		src, _ := row[models.SourceTagField].(string)
		var spec *compiler.SourceSpec
		if b := e.backends[models.DataSource(src)]; b != nil {
			spec = b.Spec
		}

		projected := models.Row{models.SourceTagField: row[models.SourceTagField]}
		if v, ok := row[models.ChainedMarkerField]; ok {
			projected[models.ChainedMarkerField] = v
		}
		if v, ok := row[models.OriginalTypeField]; ok {
			projected[models.OriginalTypeField] = v
		}

		kept := 0
		for _, f := range fields {
			column := strings.ToUpper(f)
			if spec != nil {
				if expr, ok := spec.FieldMap[f]; ok {
					column = compiler.ResultColumn(expr)
				}
			}
			if v, ok := row[column]; ok {
				projected[column] = v
				kept++
			}
		}

		if kept == 0 {
			out = append(out, row)
			continue
		}
		out = append(out, projected)
	}
	return out
}
