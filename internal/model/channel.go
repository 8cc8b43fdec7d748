package model

// IntegrationType identifies the monitoring system an alert channel ingests
// from. The set is closed: payload handling is selected by switching on the
// type, so an unlisted value is rejected at the edge rather than guessed at.
type IntegrationType string

const (
	IntegrationAlertmanager     IntegrationType = "alertmanager"
	IntegrationGrafanaAlerting  IntegrationType = "grafana_alerting"
	IntegrationGrafana          IntegrationType = "grafana"
	IntegrationAmazonSNS        IntegrationType = "amazon_sns"
	IntegrationMaintenance      IntegrationType = "maintenance"
	IntegrationWebhook          IntegrationType = "webhook"
	IntegrationFormattedWebhook IntegrationType = "formatted_webhook"
	IntegrationHeartbeat        IntegrationType = "heartbeat"
	IntegrationInboundEmail     IntegrationType = "inbound_email"
	IntegrationManual           IntegrationType = "manual"
)

var knownIntegrations = map[IntegrationType]struct{}{
	IntegrationAlertmanager:     {},
	IntegrationGrafanaAlerting:  {},
	IntegrationGrafana:          {},
	IntegrationAmazonSNS:        {},
	IntegrationMaintenance:      {},
	IntegrationWebhook:          {},
	IntegrationFormattedWebhook: {},
	IntegrationHeartbeat:        {},
	IntegrationInboundEmail:     {},
	IntegrationManual:           {},
}

// Known reports whether t names one of the supported integrations.
func (t IntegrationType) Known() bool {
	_, ok := knownIntegrations[t]
	return ok
}

// AlertmanagerShaped reports whether channels of this type receive payloads
// in the Alertmanager webhook format. Grafana's unified alerting emits the
// same shape as Alertmanager itself.
func (t IntegrationType) AlertmanagerShaped() bool {
	return t == IntegrationAlertmanager || t == IntegrationGrafanaAlerting
}

func (t IntegrationType) String() string {
	return string(t)
}

// Channel is a provisioned alert destination. The gateway only reads
// channels; provisioning them belongs to the management plane. Channels are
// serialized as-is into routing snapshots, hence the JSON tags.
type Channel struct {
	ID             int64           `json:"id"`
	Token          string          `json:"token"`
	Integration    IntegrationType `json:"integration_type"`
	OrganizationID int64           `json:"organization_id"`
	CreatedByID    int64           `json:"created_by_id"`
}
