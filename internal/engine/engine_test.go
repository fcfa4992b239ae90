package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provision-search/internal/common/logger"
	"provision-search/internal/engine/compiler"
	"provision-search/internal/engine/reconciler"
	"provision-search/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubExecutor struct {
	mu      sync.Mutex
	execFn  func(ctx context.Context, query string, params []models.BindParam) (*models.QueryResult, error)
	pingErr error
	queries []string
	params  [][]models.BindParam
}

func (s *stubExecutor) Execute(ctx context.Context, query string, params []models.BindParam) (*models.QueryResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.params = append(s.params, params)
	s.mu.Unlock()
	return s.execFn(ctx, query, params)
}

func (s *stubExecutor) Ping(ctx context.Context) error {
	return s.pingErr
}

func okResult(rows ...models.Row) *models.QueryResult {
	return &models.QueryResult{
		Success: true,
		Rows:    rows,
		Count:   len(rows),
	}
}

func returning(result *models.QueryResult) *stubExecutor {
	return &stubExecutor{
		execFn: func(ctx context.Context, query string, params []models.BindParam) (*models.QueryResult, error) {
			return result, nil
		},
	}
}

func failing(err error) *stubExecutor {
	return &stubExecutor{
		execFn: func(ctx context.Context, query string, params []models.BindParam) (*models.QueryResult, error) {
			return nil, err
		},
	}
}

func newTestEngine(t *testing.T, ordersExec, inventoryExec Executor) *Engine {
	backends := map[models.DataSource]*Backend{
		models.SourceOrders:    {Spec: compiler.NewOrdersSpec(), Exec: ordersExec},
		models.SourceInventory: {Spec: compiler.NewInventorySpec(), Exec: inventoryExec},
	}
	return New("provision-search", "test", backends, 5*time.Second, logger.NewTestLogger(t))
}

// ==========================
// Validation Tests
// ==========================

func TestProcessSearchRequest_Validation(t *testing.T) {
	tests := []struct {
		name     string
		req      *models.SearchRequest
		wantCode string
	}{
		{
			name:     "missing search type",
			req:      &models.SearchRequest{RawValues: "123"},
			wantCode: "MISSING_REQUIRED_FIELDS",
		},
		{
			name:     "invalid search type",
			req:      &models.SearchRequest{SearchType: "telepathy", RawValues: "123"},
			wantCode: "INVALID_SEARCH_TYPE",
		},
		{
			name:     "missing values",
			req:      &models.SearchRequest{SearchType: models.SearchTypeProtocol, RawValues: "  \n "},
			wantCode: "MISSING_SEARCH_VALUES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := returning(okResult())
			e := newTestEngine(t, exec, exec)

			result := e.ProcessSearchRequest(context.Background(), tt.req)

			assert.False(t, result.Success)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.wantCode, result.Errors[0].Code)
			// Short-circuit: no query ran.
			assert.Empty(t, exec.queries)
		})
	}
}

func TestProcessSearchRequest_QueueSearchNeedsNoValues(t *testing.T) {
	exec := returning(okResult(models.Row{"PROTOCOL": "1"}))
	e := newTestEngine(t, exec, exec)

	result := e.ProcessSearchRequest(context.Background(), &models.SearchRequest{
		SearchType: models.SearchTypeQueue,
		Queue:      models.QueueDispatch,
		Sources:    []models.DataSource{models.SourceOrders},
	})

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.TotalRecords)
}

// ==========================
// Fan-Out / Consolidation Tests
// ==========================

func TestProcessSearchRequest_PartialSuccessIsSuccess(t *testing.T) {
	ordersExec := failing(errors.New("connection refused"))
	inventoryExec := returning(okResult(
		models.Row{"CIRCUIT": "0123"},
		models.Row{"CIRCUIT": "0456"},
	))
	e := newTestEngine(t, ordersExec, inventoryExec)

	result := e.ProcessSearchRequest(context.Background(), &models.SearchRequest{
		SearchType: models.SearchTypeCircuit,
		RawValues:  "123\n456",
		PadCircuit: true,
	})

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalRecords)
	assert.Equal(t, []models.DataSource{models.SourceInventory}, result.SuccessfulSources)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, models.SourceOrders, result.Errors[0].Source)
	assert.Equal(t, "QUERY_EXECUTION_FAILED", result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Message, "connection refused")
}

func TestProcessSearchRequest_AllSourcesFailed(t *testing.T) {
	e := newTestEngine(t, failing(errors.New("down")), failing(errors.New("also down")))

	result := e.ProcessSearchRequest(context.Background(), &models.SearchRequest{
		SearchType: models.SearchTypeCircuit,
		RawValues:  "123",
	})

	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 2)
	assert.Empty(t, result.SuccessfulSources)
	assert.Equal(t, "All queried sources failed.", result.Message)
}

func TestProcessSearchRequest_RowsTaggedWithSource(t *testing.T) {
	ordersExec := returning(okResult(models.Row{"CIRCUIT": "0123", "PROTOCOL": "1"}))
	inventoryExec := returning(okResult(models.Row{"CIRCUIT": "0123", "NODE": "OLT-1"}))
	e := newTestEngine(t, ordersExec, inventoryExec)

	result := e.ProcessSearchRequest(context.Background(), &models.SearchRequest{
		SearchType: models.SearchTypeCircuit,
		RawValues:  "0123",
	})

	require.True(t, result.Success)
	require.Len(t, result.Rows, 2)
	tags := map[string]bool{}
	for _, row := range result.Rows {
		tags[row[models.SourceTagField].(string)] = true
	}
	assert.True(t, tags["orders"])
	assert.True(t, tags["inventory"])
}

func TestProcessSearchRequest_DefaultsToAllSources(t *testing.T) {
	ordersExec := returning(okResult())
	inventoryExec := returning(okResult())
	e := newTestEngine(t, ordersExec, inventoryExec)

	result := e.ProcessSearchRequest(context.Background(), &models.SearchRequest{
		SearchType: models.SearchTypeCircuit,
		RawValues:  "1",
	})

	assert.ElementsMatch(t, models.AllSources, result.QueriedSources)
	assert.Len(t, ordersExec.queries, 1)
	assert.Len(t, inventoryExec.queries, 1)
}

func TestProcessSearchRequest_UnknownSourceSurfacesError(t *testing.T) {
	exec := returning(okResult())
	e := newTestEngine(t, exec, exec)

	result := e.ProcessSearchRequest(context.Background(), &models.SearchRequest{
		SearchType: models.SearchTypeCircuit,
		RawValues:  "1",
		Sources:    []models.DataSource{models.SourceOrders, models.DataSource("archive")},
	})

	assert.True(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "SOURCE_UNAVAILABLE", result.Errors[0].Code)
}

func TestProcessSearchRequest_ProtocolPlaceholderCoverage(t *testing.T) {
	ordersExec := returning(okResult(models.Row{"PROTOCOL": "B", "CURRENT_QUEUE": "DISPATCH"}))
	e := newTestEngine(t, ordersExec, returning(okResult()))

	result := e.ProcessSearchRequest(context.Background(), &models.SearchRequest{
		SearchType: models.SearchTypeProtocol,
		RawValues:  "A\nB\nC",
		Sources:    []models.DataSource{models.SourceOrders},
	})

	require.True(t, result.Success)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "A", result.Rows[0]["PROTOCOL"])
	assert.Equal(t, reconciler.NotFoundSentinel, result.Rows[0]["CURRENT_QUEUE"])
	assert.Equal(t, "B", result.Rows[1]["PROTOCOL"])
	assert.Equal(t, "DISPATCH", result.Rows[1]["CURRENT_QUEUE"])
	assert.Equal(t, "C", result.Rows[2]["PROTOCOL"])
	assert.Equal(t, 3, result.TotalRecords)
}

func TestProcessSearchRequest_EmptyResultIsSuccess(t *testing.T) {
	e := newTestEngine(t, returning(okResult()), returning(okResult()))

	result := e.ProcessSearchRequest(context.Background(), &models.SearchRequest{
		SearchType: models.SearchTypeLocality,
		RawValues:  "METRO-WEST",
		Sources:    []models.DataSource{models.SourceInventory},
	})

	assert.True(t, result.Success)
	assert.Zero(t, result.TotalRecords)
	assert.Contains(t, result.Message, "No records found in the inventory source.")
}

// ==========================
// Projection Tests
// ==========================

func TestApplyFieldProjection(t *testing.T) {
	e := newTestEngine(t, returning(okResult()), returning(okResult()))

	rows := []models.Row{
		{
			models.SourceTagField: "orders",
			"PROTOCOL":            "00123",
			"CIRCUIT":             "0456",
			"CURRENT_QUEUE":       "DISPATCH",
		},
	}

	projected := e.applyFieldProjection(rows, []string{"protocol", "current_queue"})

	require.Len(t, projected, 1)
	assert.Equal(t, "00123", projected[0]["PROTOCOL"])
	assert.Equal(t, "DISPATCH", projected[0]["CURRENT_QUEUE"])
	assert.Equal(t, "orders", projected[0][models.SourceTagField])
	assert.NotContains(t, projected[0], "CIRCUIT")
}

func TestApplyFieldProjection_UppercaseFallbackForUnmappedField(t *testing.T) {
	e := newTestEngine(t, returning(okResult()), returning(okResult()))

	rows := []models.Row{
		{
			models.SourceTagField: "orders",
			"CUSTOM_EXTRA":        "x",
			"PROTOCOL":            "1",
		},
	}

	projected := e.applyFieldProjection(rows, []string{"custom_extra"})

	require.Len(t, projected, 1)
	assert.Equal(t, "x", projected[0]["CUSTOM_EXTRA"])
	assert.NotContains(t, projected[0], "PROTOCOL")
}

func TestApplyFieldProjection_KeepsRecordWhenProjectionWouldEmptyIt(t *testing.T) {
	e := newTestEngine(t, returning(okResult()), returning(okResult()))

	rows := []models.Row{
		{
			models.SourceTagField: "inventory",
			"CIRCUIT":             "0123",
		},
	}

	projected := e.applyFieldProjection(rows, []string{"technician"})

	require.Len(t, projected, 1)
	// The whole record survives rather than an effectively empty row.
	assert.Equal(t, "0123", projected[0]["CIRCUIT"])
}

func TestApplyFieldProjection_EmptySelectionReturnsUnfiltered(t *testing.T) {
	e := newTestEngine(t, returning(okResult()), returning(okResult()))

	rows := []models.Row{{models.SourceTagField: "orders", "PROTOCOL": "1"}}
	assert.Equal(t, rows, e.applyFieldProjection(rows, nil))
}

// ==========================
// Health / Info Tests
// ==========================

func TestConnectivity(t *testing.T) {
	ordersExec := returning(okResult())
	inventoryExec := returning(okResult())
	inventoryExec.pingErr = errors.New("dial timeout")
	e := newTestEngine(t, ordersExec, inventoryExec)

	status := e.Connectivity(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, "ok", status.Checks["orders"])
	assert.Contains(t, status.Checks["inventory"], "dial timeout")
}

func TestInfo(t *testing.T) {
	e := newTestEngine(t, returning(okResult()), returning(okResult()))

	info := e.Info()

	assert.Equal(t, "provision-search", info.Service)
	assert.Len(t, info.SearchTypes, 8)
	assert.ElementsMatch(t, []string{"orders", "inventory"}, info.Sources)
	assert.Equal(t, 1000, info.MaxInListSize)
	assert.True(t, info.ChainedSupported)
}
