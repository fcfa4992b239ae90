// internal/models/results.go
package models

// Row is a single result record keyed by backend column name, plus the
// engine-owned tag fields below.
type Row map[string]interface{}

// Engine-owned row fields. SourceTagField is always retained by output
// projection; the chained-search fields are only present on stage-2 rows.
const (
	SourceTagField     = "_source"
	ChainedMarkerField = "_chained_search"
	OriginalTypeField  = "_original_search_type"
)

// QueryResult is the outcome of one source's query execution. An empty row
// set with Success true is a valid outcome, not an error.
type QueryResult struct {
	Success       bool     `json:"success"`
	Rows          []Row    `json:"rows"`
	Columns       []string `json:"column_names"`
	Count         int      `json:"count"`
	ExecutionTime int64    `json:"execution_time_ms"`
	Message       string   `json:"message,omitempty"`
	Error         string   `json:"error,omitempty"`
	ErrorCode     string   `json:"error_code,omitempty"`
}

// SourceError records one source's failure inside an otherwise usable
// consolidated result.
type SourceError struct {
	Source  DataSource `json:"source"`
	Code    string     `json:"code"`
	Message string     `json:"message"`
}

// ChainState tracks the chained-search state machine.
type ChainState string

const (
	ChainStateInit    ChainState = "INIT"
	ChainStateStage1  ChainState = "STAGE1"
	ChainStateExtract ChainState = "EXTRACT"
	ChainStateStage2  ChainState = "STAGE2"
	ChainStateDone    ChainState = "DONE"

	ChainStateStage1Failed    ChainState = "STAGE1_FAILED"
	ChainStateStage1Empty     ChainState = "STAGE1_EMPTY"
	ChainStateNoKeysExtracted ChainState = "NO_KEYS_EXTRACTED"
	ChainStateStage2Failed    ChainState = "STAGE2_FAILED"
)

// ChainSummary records the two-stage pipeline outcome of a chained search.
type ChainSummary struct {
	State              ChainState `json:"state"`
	PrimaryRecords     int        `json:"primary_records"`
	ExtractedKeys      int        `json:"extracted_keys"`
	SecondaryRecords   int        `json:"secondary_records"`
	OriginalSearchType SearchType `json:"original_search_type"`
}

// ConsolidatedResult merges the per-source results of one search request.
// TotalRecords is the pre-projection sum of per-source row counts; Success
// is true when at least one queried source succeeded. Chain is populated
// only for chained searches.
type ConsolidatedResult struct {
	Success           bool          `json:"success"`
	Rows              []Row         `json:"rows"`
	TotalRecords      int           `json:"total_records"`
	QueriedSources    []DataSource  `json:"queried_sources"`
	SuccessfulSources []DataSource  `json:"successful_sources"`
	Errors            []SourceError `json:"errors,omitempty"`
	Message           string        `json:"message,omitempty"`
	Chain             *ChainSummary `json:"chain,omitempty"`
}

// SystemInfo describes the engine's capabilities for the info endpoint.
type SystemInfo struct {
	Service          string   `json:"service"`
	Version          string   `json:"version"`
	SearchTypes      []string `json:"search_types"`
	Sources          []string `json:"sources"`
	Queues           []string `json:"queues"`
	MaxInListSize    int      `json:"max_in_list_size"`
	ChainedSupported bool     `json:"chained_supported"`
}

// HealthStatus aggregates per-backend reachability for the health endpoint.
type HealthStatus struct {
	Healthy bool              `json:"healthy"`
	Checks  map[string]string `json:"checks"`
}
