package integration

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/signalmesh/alertgate/internal/errors"
)

// The webhook body must be an object; the alerts array, when present, must
// hold objects. Anything else is a malformed payload, while absence of the
// array is a valid empty delivery.
const alertmanagerSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"alerts": {
			"type": "array",
			"items": { "type": "object" }
		}
	}
}`

var alertmanagerPayload = jsonschema.MustCompileString("alertmanager-webhook.json", alertmanagerSchema)

// Alertmanager handles Alertmanager-compatible webhook deliveries, which
// covers native Alertmanager and Grafana's unified alerting. Every entry of
// the alerts array becomes one raw alert, preserving input order; the
// surrounding envelope (status, groupLabels and so on) is left to the
// consumer.
type Alertmanager struct{}

func (Alertmanager) Normalize(_ int64, payload json.RawMessage) (Batch, error) {
	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Batch{}, apperrors.NewMalformedPayload("invalid json: %v", err)
	}
	if err := alertmanagerPayload.Validate(doc); err != nil {
		return Batch{}, apperrors.NewMalformedPayload("not an alertmanager payload: %v", err)
	}

	var body struct {
		Alerts []json.RawMessage `json:"alerts"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return Batch{}, apperrors.NewMalformedPayload("invalid alerts array: %v", err)
	}
	return Batch{RawAlerts: body.Alerts}, nil
}
