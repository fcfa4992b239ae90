package api

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	commonerrors "provision-search/internal/common/errors"
)

// searchRequestSchema is the JSON Schema enforced on the search endpoint
// before the payload reaches the engine. It rejects unknown fields and
// out-of-range enum values early, with field-level messages.
const searchRequestSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["search_type"],
	"additionalProperties": false,
	"properties": {
		"search_type": {
			"type": "string",
			"enum": ["protocol", "circuit", "order_id", "node", "access_node", "port_id", "queue", "locality"]
		},
		"raw_values": {"type": "string"},
		"pad_protocol": {"type": "boolean"},
		"pad_circuit": {"type": "boolean"},
		"queue": {
			"type": "string",
			"enum": ["mass_outage", "dispatch", "triage"]
		},
		"port": {"type": "string"},
		"node_ref": {"type": "string"},
		"node_ref_kind": {
			"type": "string",
			"enum": ["name", "mgmt_name", "ip", "outer_vlan"]
		},
		"created_after": {
			"type": "string",
			"pattern": "^[0-9]{2}/[0-9]{2}/[0-9]{4}$"
		},
		"queue_entered_after": {
			"type": "string",
			"pattern": "^[0-9]{2}/[0-9]{2}/[0-9]{4}$"
		},
		"corrective_only": {"type": "boolean"},
		"chained": {"type": "boolean"},
		"selected_sources": {
			"type": "array",
			"items": {
				"type": "string",
				"enum": ["orders", "inventory"]
			}
		},
		"selected_fields": {
			"type": "array",
			"items": {"type": "string"}
		}
	}
}`

var compiledSearchSchema = gojsonschema.NewStringLoader(searchRequestSchema)

// validateSearchPayload checks a raw request body against the search request
// schema. Malformed JSON and schema violations both come back as an
// INVALID_REQUEST_FORMAT error listing every violation.
func validateSearchPayload(body []byte) *commonerrors.StandardError {
	result, err := gojsonschema.Validate(compiledSearchSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return commonerrors.NewInvalidRequestFormatError(err.Error())
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return commonerrors.NewInvalidRequestFormatError(strings.Join(errs, "; "))
	}
	return nil
}
