// internal/engine/compiler/inventory.go
package compiler

import (
	"provision-search/internal/models"
)

// nodeRefColumns maps the node-identifier kind of a port search to the
// inventory column that coordinate filters on.
var nodeRefColumns = map[models.NodeRefKind]string{
	models.NodeRefName:      "NODE",
	models.NodeRefMgmtName:  "NODE_MGMT_NAME",
	models.NodeRefIP:        "NODE_IP",
	models.NodeRefOuterVLAN: "OUTER_VLAN",
}

// NewInventorySpec builds the query spec for the fiber facility inventory
// source. Every query is scoped to occupied facilities.
func NewInventorySpec() *SourceSpec {
	spec := &SourceSpec{
		Source:     models.SourceInventory,
		Table:      "CIRCUIT_INVENTORY",
		BaseClause: " AND STATUS = 'OCCUPIED'",
		FieldMap: map[string]string{
			"circuit":        "CIRCUIT",
			"access_node":    "ACCESS_NODE",
			"locality":       "LOCALITY",
			"node":           "NODE",
			"node_mgmt_name": "NODE_MGMT_NAME",
			"node_ip":        "NODE_IP",
			"outer_vlan":     "OUTER_VLAN",
			"port":           "SHELF_SLOT_PORT",
			"customer":       "CUSTOMER_ID",
			"service_type":   "SERVICE_TYPE",
			"status":         "STATUS",
		},
		DefaultColumns: []string{
			"CIRCUIT",
			"ACCESS_NODE",
			"LOCALITY",
			"NODE",
			"NODE_IP",
			"SHELF_SLOT_PORT",
			"OUTER_VLAN",
			"STATUS",
		},
		orderColumns: map[models.SearchType]string{
			models.SearchTypeCircuit:    "CIRCUIT",
			models.SearchTypeAccessNode: "ACCESS_NODE",
			models.SearchTypeLocality:   "LOCALITY",
			models.SearchTypeNode:       "NODE",
			models.SearchTypeOuterVLAN:  "OUTER_VLAN",
			models.SearchTypeNodeIP:     "NODE_IP",
		},
		defaultEmpty: "No records found in the inventory source.",
	}

	spec.filters = map[models.SearchType]filterFunc{
		models.SearchTypeCircuit:    inFilter("CIRCUIT", "circuit"),
		models.SearchTypeAccessNode: inFilter("ACCESS_NODE", "anode"),
		models.SearchTypeLocality:   inFilter("LOCALITY", "loc"),
		models.SearchTypeNode:       inFilter("NODE", "node"),
		models.SearchTypeOuterVLAN:  inFilter("OUTER_VLAN", "vlan"),
		models.SearchTypeNodeIP:     inFilter("NODE_IP", "nodeip"),
		models.SearchTypePort:       portFilter,
	}

	spec.crossCutting = []filterFunc{serviceTypeFilter}

	return spec
}

// serviceTypeFilter restricts facilities to the corrective record class
// when the caller asks for it. The constant still binds as a parameter.
func serviceTypeFilter(p *models.ProcessedParams) (string, []models.BindParam) {
	if !p.CorrectiveOnly {
		return "", nil
	}
	params := []models.BindParam{{Name: "service_type", Value: "CORRECTIVE"}}
	return " AND SERVICE_TYPE = :service_type", params
}

// portFilter builds the compound PON predicate. Both coordinates are
// required together; with either one missing (or an unknown node kind) the
// filter is omitted entirely.
func portFilter(p *models.ProcessedParams) (string, []models.BindParam) {
	if p.Port == "" || p.NodeRef == "" {
		return "", nil
	}
	nodeColumn, ok := nodeRefColumns[p.NodeRefKind]
	if !ok {
		return "", nil
	}

	clause := " AND SHELF_SLOT_PORT = :port AND " + nodeColumn + " = :node_ref"
	params := []models.BindParam{
		{Name: "port", Value: p.Port},
		{Name: "node_ref", Value: p.NodeRef},
	}
	return clause, params
}
