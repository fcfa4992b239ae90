// internal/engine/chained.go
package engine

import (
	"context"
	"fmt"
	"strings"

	commonerrors "provision-search/internal/common/errors"
	"provision-search/internal/models"
)

// chainKeyColumn is the stage-1 column whose distinct values drive stage 2.
const chainKeyColumn = "CIRCUIT"

// runChained executes the two-stage pipeline: the caller's search against
// the orders source, circuit-key extraction, then a circuit search against
// the inventory source over the extracted key set. A stage failure is fatal
// to the remainder; empty intermediate results are successful terminal
// outcomes, not errors.
func (e *Engine) runChained(ctx context.Context, p *models.ProcessedParams) *models.ConsolidatedResult {
	summary := &models.ChainSummary{
		State:              models.ChainStateInit,
		OriginalSearchType: p.SearchType,
	}
	result := &models.ConsolidatedResult{
		QueriedSources: []models.DataSource{models.SourceOrders, models.SourceInventory},
		Rows:           []models.Row{},
		Chain:          summary,
	}

	summary.State = models.ChainStateStage1
	s1ctx, cancel := context.WithTimeout(ctx, e.timeout)
	stage1 := e.querySource(s1ctx, models.SourceOrders, p, false)
	cancel()

	if !stage1.Success {
		summary.State = models.ChainStateStage1Failed
		result.Errors = append(result.Errors, models.SourceError{
			Source:  models.SourceOrders,
			Code:    string(commonerrors.ErrCodeChainStageFailed),
			Message: fmt.Sprintf("stage 1 (%s): %s", stage1.ErrorCode, stage1.Error),
		})
		result.Message = "Chained search aborted: primary source query failed."
		e.log.Error("chained search stage 1 failed", map[string]interface{}{
			"error": stage1.Error,
		})
		return result
	}

	summary.PrimaryRecords = stage1.Count
	result.SuccessfulSources = append(result.SuccessfulSources, models.SourceOrders)

	if stage1.Count == 0 {
		summary.State = models.ChainStateStage1Empty
		result.Success = true
		result.Message = "Chained search: the primary source returned no records."
		return result
	}

	summary.State = models.ChainStateExtract
	keySet := make(map[string]struct{})
	for _, row := range stage1.Rows {
		if v := stringValue(row[chainKeyColumn]); v != "" {
			keySet[v] = struct{}{}
		}
	}
	summary.ExtractedKeys = len(keySet)

	if len(keySet) == 0 {
		summary.State = models.ChainStateNoKeysExtracted
		result.Success = true
		result.Message = fmt.Sprintf(
			"Chained search: no circuit keys found across %d primary records.", stage1.Count)
		return result
	}

	// Stage 2 reuses the caller's options but overrides the search type and
	// values with the cross-reference key set.
	stage2Params := *p
	stage2Params.SearchType = models.SearchTypeCircuit
	stage2Params.Values = keySlice(keySet)
	stage2Params.OriginalValues = stage2Params.Values

	summary.State = models.ChainStateStage2
	s2ctx, cancel := context.WithTimeout(ctx, e.timeout)
	stage2 := e.querySource(s2ctx, models.SourceInventory, &stage2Params, false)
	cancel()

	if !stage2.Success {
		summary.State = models.ChainStateStage2Failed
		result.Errors = append(result.Errors, models.SourceError{
			Source:  models.SourceInventory,
			Code:    string(commonerrors.ErrCodeChainStageFailed),
			Message: fmt.Sprintf("stage 2 (%s): %s", stage2.ErrorCode, stage2.Error),
		})
		result.Message = fmt.Sprintf(
			"Chained search failed at stage 2 after %d primary records and %d extracted keys.",
			summary.PrimaryRecords, summary.ExtractedKeys)
		e.log.Error("chained search stage 2 failed", map[string]interface{}{
			"primaryRecords": summary.PrimaryRecords,
			"extractedKeys":  summary.ExtractedKeys,
			"error":          stage2.Error,
		})
		return result
	}

	summary.SecondaryRecords = stage2.Count
	summary.State = models.ChainStateDone

	rows := make([]models.Row, 0, len(stage2.Rows))
	for _, row := range stage2.Rows {
		row[models.SourceTagField] = string(models.SourceInventory)
		row[models.ChainedMarkerField] = true
		row[models.OriginalTypeField] = string(p.SearchType)
		rows = append(rows, row)
	}

	result.Success = true
	result.SuccessfulSources = append(result.SuccessfulSources, models.SourceInventory)
	result.TotalRecords = stage2.Count
	result.Rows = e.applyFieldProjection(rows, p.SelectedFields)
	result.Message = fmt.Sprintf(
		"Chained search complete: %d primary records, %d distinct circuits, %d inventory records.",
		summary.PrimaryRecords, summary.ExtractedKeys, summary.SecondaryRecords)
	return result
}

func keySlice(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}

// stringValue renders a row field as a trimmed string, so padded values
// collapse onto the same extracted key.
func stringValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
