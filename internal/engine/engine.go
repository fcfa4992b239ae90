// Package engine is the federated search core: request validation, input
// normalization, per-source fan-out, result consolidation and the chained
// two-stage search coordinator.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	commonerrors "provision-search/internal/common/errors"
	"provision-search/internal/common/logger"
	"provision-search/internal/common/metrics"
	"provision-search/internal/engine/compiler"
	"provision-search/internal/engine/normalizer"
	"provision-search/internal/engine/reconciler"
	"provision-search/internal/models"
)

// Executor runs a compiled query against one data source. Connection
// lifecycle, pooling and retries live behind this interface.
type Executor interface {
	Execute(ctx context.Context, query string, params []models.BindParam) (*models.QueryResult, error)
	Ping(ctx context.Context) error
}

// Backend pairs a source's query spec with its executor.
type Backend struct {
	Spec *compiler.SourceSpec
	Exec Executor
}

// Engine orchestrates searches across the configured backends. It holds no
// per-request state; concurrent requests only share the backends.
type Engine struct {
	name     string
	version  string
	backends map[models.DataSource]*Backend
	timeout  time.Duration
	log      logger.Logger
}

func New(name, version string, backends map[models.DataSource]*Backend, timeout time.Duration, log logger.Logger) *Engine {
	return &Engine{
		name:     name,
		version:  version,
		backends: backends,
		timeout:  timeout,
		log:      log.WithFields(map[string]interface{}{"component": "engine"}),
	}
}

// ProcessSearchRequest is the engine's single inbound operation: validate,
// normalize, then either fan out across the selected sources or run the
// chained two-stage pipeline. Every failure path returns a value; nothing
// here panics the caller.
func (e *Engine) ProcessSearchRequest(ctx context.Context, req *models.SearchRequest) *models.ConsolidatedResult {
	start := time.Now()
	metrics.SearchRequestsTotal.WithLabelValues(string(req.SearchType)).Inc()

	if stdErr := validateRequest(req); stdErr != nil {
		metrics.SearchFailuresTotal.WithLabelValues(string(req.SearchType), string(stdErr.Code)).Inc()
		e.log.Warn("request rejected", map[string]interface{}{
			"searchType": req.SearchType,
			"code":       stdErr.Code,
		})
		return validationFailure(stdErr)
	}

	params := normalizer.Normalize(req)

	var result *models.ConsolidatedResult
	if req.Chained {
		result = e.runChained(ctx, params)
	} else {
		result = e.fanOut(ctx, params)
	}

	if !result.Success {
		code := "SOURCE_FAILURE"
		if len(result.Errors) > 0 {
			code = result.Errors[0].Code
		}
		metrics.SearchFailuresTotal.WithLabelValues(string(req.SearchType), code).Inc()
	}
	metrics.SearchDuration.WithLabelValues(string(req.SearchType)).Observe(time.Since(start).Seconds())

	e.log.Info("search processed", map[string]interface{}{
		"searchType":   req.SearchType,
		"chained":      req.Chained,
		"success":      result.Success,
		"totalRecords": result.TotalRecords,
		"durationMs":   time.Since(start).Milliseconds(),
	})
	return result
}

// validateRequest applies the request-level checks that run before any
// query: the search type must be in the enumerated set and a non-empty
// value list is required for every type except queue searches.
func validateRequest(req *models.SearchRequest) *commonerrors.StandardError {
	if req.SearchType == "" {
		return commonerrors.NewMissingRequiredFieldsError("search_type")
	}
	if !req.SearchType.IsValid() {
		return commonerrors.NewInvalidSearchTypeError(string(req.SearchType))
	}
	if req.SearchType != models.SearchTypeQueue && strings.TrimSpace(req.RawValues) == "" {
		return commonerrors.NewMissingSearchValuesError(string(req.SearchType))
	}
	return nil
}

func validationFailure(stdErr *commonerrors.StandardError) *models.ConsolidatedResult {
	return &models.ConsolidatedResult{
		Success: false,
		Rows:    []models.Row{},
		Message: stdErr.Message,
		Errors: []models.SourceError{
			{Code: string(stdErr.Code), Message: stdErr.Details},
		},
	}
}

// fanOut queries each selected source independently and in parallel. One
// source's failure or timeout never aborts its sibling; each goroutine
// reports through its slot in results and always returns nil.
func (e *Engine) fanOut(ctx context.Context, p *models.ProcessedParams) *models.ConsolidatedResult {
	sources := p.Sources
	if len(sources) == 0 {
		sources = models.AllSources
	}

	results := make([]*models.QueryResult, len(sources))
	g := new(errgroup.Group)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()
			results[i] = e.querySource(qctx, src, p, true)
			return nil
		})
	}
	_ = g.Wait()

	return e.consolidate(sources, results, p)
}

// querySource compiles, executes and reconciles one source's query. The
// returned QueryResult is always non-nil; execution errors come back as a
// failed result, not an error value. Reconciliation is skipped for chained
// stages, where rows feed key extraction rather than the caller and
// placeholder rows would distort the stage counts.
func (e *Engine) querySource(ctx context.Context, src models.DataSource, p *models.ProcessedParams, reorder bool) *models.QueryResult {
	b := e.backends[src]
	if b == nil {
		stdErr := commonerrors.NewSourceUnavailableError(string(src))
		metrics.SourceQueryFailures.WithLabelValues(string(src), string(stdErr.Code)).Inc()
		return &models.QueryResult{
			Success:   false,
			Message:   stdErr.Message,
			Error:     stdErr.Details,
			ErrorCode: string(stdErr.Code),
		}
	}

	cf := b.Spec.Compile(p)

	start := time.Now()
	qr, err := b.Exec.Execute(ctx, cf.Clause, cf.Params)
	metrics.SourceQueryDuration.WithLabelValues(string(src)).Observe(time.Since(start).Seconds())

	if err != nil {
		var stdErr *commonerrors.StandardError
		if ctx.Err() == context.DeadlineExceeded {
			stdErr = commonerrors.NewQueryTimeoutError(string(src))
		} else {
			stdErr = commonerrors.NewQueryExecutionFailedError(string(src), err)
		}
		metrics.SourceQueryFailures.WithLabelValues(string(src), string(stdErr.Code)).Inc()
		e.log.Error("source query failed", map[string]interface{}{
			"source": src,
			"code":   stdErr.Code,
			"error":  err.Error(),
		})
		return &models.QueryResult{
			Success:   false,
			Message:   stdErr.Message,
			Error:     err.Error(),
			ErrorCode: string(stdErr.Code),
		}
	}

	if col := b.Spec.OrderColumn(p.SearchType); reorder && col != "" {
		qr.Rows = reconciler.Reorder(qr.Rows, p.Values, col, p.SearchType == models.SearchTypeProtocol)
		qr.Count = len(qr.Rows)
	}

	metrics.SourceRowsReturned.WithLabelValues(string(src)).Add(float64(qr.Count))
	if qr.Count == 0 {
		qr.Message = b.Spec.EmptyMessage(p.SearchType)
	}
	return qr
}

// consolidate merges the per-source results: rows are concatenated and
// tagged with their origin, counts are summed before projection, and the
// overall result succeeds when at least one source did.
func (e *Engine) consolidate(sources []models.DataSource, results []*models.QueryResult, p *models.ProcessedParams) *models.ConsolidatedResult {
	consolidated := &models.ConsolidatedResult{
		QueriedSources: sources,
		Rows:           []models.Row{},
	}

	var rows []models.Row
	var emptyMessages []string
	for i, src := range sources {
		qr := results[i]
		if qr == nil {
			continue
		}
		if !qr.Success {
			consolidated.Errors = append(consolidated.Errors, models.SourceError{
				Source:  src,
				Code:    qr.ErrorCode,
				Message: qr.Error,
			})
			continue
		}

		consolidated.SuccessfulSources = append(consolidated.SuccessfulSources, src)
		consolidated.TotalRecords += qr.Count
		if qr.Count == 0 && qr.Message != "" {
			emptyMessages = append(emptyMessages, qr.Message)
		}
		for _, row := range qr.Rows {
			row[models.SourceTagField] = string(src)
			rows = append(rows, row)
		}
	}

	consolidated.Success = len(consolidated.SuccessfulSources) > 0
	consolidated.Rows = e.applyFieldProjection(rows, p.SelectedFields)

	switch {
	case !consolidated.Success:
		consolidated.Message = "All queried sources failed."
	case consolidated.TotalRecords == 0:
		consolidated.Message = strings.Join(emptyMessages, " ")
	default:
		consolidated.Message = fmt.Sprintf("Found %d records across %d of %d sources.",
			consolidated.TotalRecords, len(consolidated.SuccessfulSources), len(sources))
	}
	return consolidated
}

// Connectivity pings every backend and reports per-source reachability.
func (e *Engine) Connectivity(ctx context.Context) *models.HealthStatus {
	status := &models.HealthStatus{
		Healthy: true,
		Checks:  make(map[string]string, len(e.backends)),
	}
	for src, b := range e.backends {
		if err := b.Exec.Ping(ctx); err != nil {
			status.Checks[string(src)] = "error: " + err.Error()
			status.Healthy = false
		} else {
			status.Checks[string(src)] = "ok"
		}
	}
	return status
}

// Info describes the engine's capabilities.
func (e *Engine) Info() *models.SystemInfo {
	searchTypes := make([]string, len(models.ValidSearchTypes))
	for i, t := range models.ValidSearchTypes {
		searchTypes[i] = string(t)
	}
	sources := make([]string, 0, len(e.backends))
	for src := range e.backends {
		sources = append(sources, string(src))
	}
	queues := make([]string, 0)
	for _, q := range compiler.AvailableQueues() {
		queues = append(queues, string(q))
	}
	return &models.SystemInfo{
		Service:          e.name,
		Version:          e.version,
		SearchTypes:      searchTypes,
		Sources:          sources,
		Queues:           queues,
		MaxInListSize:    normalizer.MaxInListSize,
		ChainedSupported: true,
	}
}
