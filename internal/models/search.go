// internal/models/search.go
package models

// SearchType is the enumerated category of a search request.
type SearchType string

const (
	SearchTypeProtocol   SearchType = "protocol"
	SearchTypeCircuit    SearchType = "circuit"
	SearchTypeOrderID    SearchType = "order_id"
	SearchTypeNode       SearchType = "node"
	SearchTypeAccessNode SearchType = "access_node"
	SearchTypePort       SearchType = "port_id"
	SearchTypeQueue      SearchType = "queue"
	SearchTypeLocality   SearchType = "locality"

	// Compiler-internal types, not accepted at the request boundary.
	// They back filter variants the inventory source supports directly.
	SearchTypeOuterVLAN SearchType = "outer_vlan"
	SearchTypeNodeIP    SearchType = "node_ip"
)

// ValidSearchTypes lists the search types accepted in a SearchRequest.
var ValidSearchTypes = []SearchType{
	SearchTypeProtocol,
	SearchTypeCircuit,
	SearchTypeOrderID,
	SearchTypeNode,
	SearchTypeAccessNode,
	SearchTypePort,
	SearchTypeQueue,
	SearchTypeLocality,
}

// IsValid reports whether t is an accepted request-level search type.
func (t SearchType) IsValid() bool {
	for _, v := range ValidSearchTypes {
		if t == v {
			return true
		}
	}
	return false
}

// DataSource identifies one of the two relational backends.
type DataSource string

const (
	SourceOrders    DataSource = "orders"
	SourceInventory DataSource = "inventory"
)

// AllSources lists every known data source.
var AllSources = []DataSource{SourceOrders, SourceInventory}

// QueueName selects one of the fixed work queues for queue searches.
type QueueName string

const (
	QueueMassOutage QueueName = "mass_outage"
	QueueDispatch   QueueName = "dispatch"
	QueueTriage     QueueName = "triage"
)

// NodeRefKind selects how the node coordinate of a port search is interpreted.
type NodeRefKind string

const (
	NodeRefName      NodeRefKind = "name"
	NodeRefMgmtName  NodeRefKind = "mgmt_name"
	NodeRefIP        NodeRefKind = "ip"
	NodeRefOuterVLAN NodeRefKind = "outer_vlan"
)

// SearchRequest is the inbound request produced by the presentation layer.
// RawValues carries one search term per line; option fields only apply to
// the search types that use them.
type SearchRequest struct {
	SearchType        SearchType   `json:"search_type"`
	RawValues         string       `json:"raw_values"`
	PadProtocol       bool         `json:"pad_protocol,omitempty"`
	PadCircuit        bool         `json:"pad_circuit,omitempty"`
	Queue             QueueName    `json:"queue,omitempty"`
	Port              string       `json:"port,omitempty"`
	NodeRef           string       `json:"node_ref,omitempty"`
	NodeRefKind       NodeRefKind  `json:"node_ref_kind,omitempty"`
	CreatedAfter      string       `json:"created_after,omitempty"`       // DD/MM/YYYY
	QueueEnteredAfter string       `json:"queue_entered_after,omitempty"` // DD/MM/YYYY
	CorrectiveOnly    bool         `json:"corrective_only,omitempty"`
	Chained           bool         `json:"chained,omitempty"`
	Sources           []DataSource `json:"selected_sources,omitempty"`
	SelectedFields    []string     `json:"selected_fields,omitempty"`
}

// ProcessedParams is the normalized form of a SearchRequest. Values holds
// the cleaned, de-duplicated, first-occurrence-ordered term list with any
// padding transform already applied; OriginalValues holds the pre-transform
// list for diagnostics.
type ProcessedParams struct {
	SearchType        SearchType
	Values            []string
	OriginalValues    []string
	PaddingApplied    bool
	Queue             QueueName
	Port              string
	NodeRef           string
	NodeRefKind       NodeRefKind
	CreatedAfter      string
	QueueEnteredAfter string
	CorrectiveOnly    bool
	Sources           []DataSource
	SelectedFields    []string
}

// BindParam is one named bind parameter of a compiled filter. Parameter
// order matters: the database layer assigns positional arguments by the
// first occurrence of each name in the clause text.
type BindParam struct {
	Name  string
	Value interface{}
}

// CompiledFilter is a parameterized query compiled for one data source.
// No literal search value ever appears in Clause; every value travels
// through Params, and every parameter name is unique within one filter.
type CompiledFilter struct {
	Clause string
	Params []BindParam
}
