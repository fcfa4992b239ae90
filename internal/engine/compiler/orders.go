// internal/engine/compiler/orders.go
package compiler

import (
	"provision-search/internal/models"
)

// queuePredicate is a named queue's fixed predicate fragment. The values
// are constants, but they still go through bind parameters like every
// other predicate.
type queuePredicate struct {
	clause string
	params []models.BindParam
}

// queuePredicates maps each named queue to its predicate pair. Dispatch
// and triage are scoped to the corrective service class; triage matches the
// activity by pattern because several triage queues share the suffix.
var queuePredicates = map[models.QueueName]queuePredicate{
	models.QueueMassOutage: {
		clause: " AND ACTIVITY = :queue_activity",
		params: []models.BindParam{
			{Name: "queue_activity", Value: "SUSPECTED MASS OUTAGE"},
		},
	},
	models.QueueDispatch: {
		clause: " AND ACTIVITY = :queue_activity AND SERVICE = :queue_service",
		params: []models.BindParam{
			{Name: "queue_activity", Value: "DISPATCH"},
			{Name: "queue_service", Value: "CORRECTIVE DATA"},
		},
	},
	models.QueueTriage: {
		clause: " AND ACTIVITY LIKE :queue_activity AND SERVICE = :queue_service",
		params: []models.BindParam{
			{Name: "queue_activity", Value: "%TRIAGE%"},
			{Name: "queue_service", Value: "CORRECTIVE DATA"},
		},
	},
}

// AvailableQueues lists the named queues a queue search accepts.
func AvailableQueues() []models.QueueName {
	return []models.QueueName{models.QueueDispatch, models.QueueMassOutage, models.QueueTriage}
}

// NewOrdersSpec builds the query spec for the service-order worklist source.
func NewOrdersSpec() *SourceSpec {
	spec := &SourceSpec{
		Source: models.SourceOrders,
		Table:  "SERVICE_ORDERS",
		FieldMap: map[string]string{
			"order_id":         "SERVICE_ORDER_ID",
			"protocol":         "PROTOCOL",
			"circuit":          "CIRCUIT",
			"current_queue":    "ACTIVITY AS CURRENT_QUEUE",
			"order_type":       "SERVICE AS ORDER_TYPE",
			"locality":         "LOCALITY",
			"creation_date":    "CREATION_DATE",
			"queue_entry_date": "START_DATE AS QUEUE_ENTRY_DATE",
			"technician":       "TECHNICIAN",
			"status":           "STATUS",
		},
		DefaultColumns: []string{
			"PROTOCOL",
			"CIRCUIT",
			"SERVICE_ORDER_ID",
			"ACTIVITY AS CURRENT_QUEUE",
			"SERVICE AS ORDER_TYPE",
			"LOCALITY",
			"CREATION_DATE",
			"START_DATE AS QUEUE_ENTRY_DATE",
		},
		orderColumns: map[models.SearchType]string{
			models.SearchTypeProtocol: "PROTOCOL",
			models.SearchTypeCircuit:  "CIRCUIT",
			models.SearchTypeOrderID:  "SERVICE_ORDER_ID",
			models.SearchTypeLocality: "LOCALITY",
		},
		emptyMessages: map[models.SearchType]string{
			models.SearchTypeOrderID: "No service order found: the order may have been cancelled or closed.",
		},
		defaultEmpty: "No records found in the orders source.",
	}

	spec.filters = map[models.SearchType]filterFunc{
		models.SearchTypeProtocol: inFilter("PROTOCOL", "protocol"),
		models.SearchTypeCircuit:  inFilter("CIRCUIT", "circuit"),
		models.SearchTypeOrderID:  inFilter("SERVICE_ORDER_ID", "order"),
		models.SearchTypeLocality: inFilter("LOCALITY", "loc"),
		models.SearchTypeQueue:    queueFilter,
	}

	spec.crossCutting = []filterFunc{dateRangeFilter, correctiveFilter}

	return spec
}

// queueFilter resolves a named queue to its fixed predicate pair. Unknown
// queue names contribute no filter.
func queueFilter(p *models.ProcessedParams) (string, []models.BindParam) {
	pred, ok := queuePredicates[p.Queue]
	if !ok {
		return "", nil
	}
	return pred.clause, pred.params
}

// dateRangeFilter bounds creation and queue-entry dates from the requested
// lower bound up to now, inclusive.
func dateRangeFilter(p *models.ProcessedParams) (string, []models.BindParam) {
	var clause string
	var params []models.BindParam

	if p.CreatedAfter != "" {
		clause += " AND CREATION_DATE BETWEEN TO_DATE(:created_after, 'DD/MM/YYYY') AND NOW()"
		params = append(params, models.BindParam{Name: "created_after", Value: p.CreatedAfter})
	}
	if p.QueueEnteredAfter != "" {
		clause += " AND START_DATE BETWEEN TO_DATE(:queue_entered_after, 'DD/MM/YYYY') AND NOW()"
		params = append(params, models.BindParam{Name: "queue_entered_after", Value: p.QueueEnteredAfter})
	}
	return clause, params
}

// correctiveFilter restricts results to the data-fault service class.
func correctiveFilter(p *models.ProcessedParams) (string, []models.BindParam) {
	if !p.CorrectiveOnly {
		return "", nil
	}
	params := []models.BindParam{{Name: "corrective_service", Value: "CORRECTIVE DATA"}}
	return " AND SERVICE = :corrective_service", params
}
