package integration

import (
	"encoding/json"
	"reflect"
	"testing"

	apperrors "github.com/signalmesh/alertgate/internal/errors"
	"github.com/signalmesh/alertgate/internal/model"
)

func TestAlertmanagerNormalize(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantRaw []string
		wantErr bool
	}{
		{
			name:    "alerts kept in input order",
			payload: `{"status":"firing","alerts":[{"labels":{"alertname":"first"}},{"labels":{"alertname":"second"}},{"labels":{"alertname":"third"}}]}`,
			wantRaw: []string{
				`{"labels":{"alertname":"first"}}`,
				`{"labels":{"alertname":"second"}}`,
				`{"labels":{"alertname":"third"}}`,
			},
		},
		{
			name:    "missing alerts key is an empty delivery",
			payload: `{"status":"resolved"}`,
			wantRaw: nil,
		},
		{
			name:    "empty alerts array is an empty delivery",
			payload: `{"alerts":[]}`,
			wantRaw: nil,
		},
		{
			name:    "alerts must be an array",
			payload: `{"alerts":"boom"}`,
			wantErr: true,
		},
		{
			name:    "alerts entries must be objects",
			payload: `{"alerts":[1,2]}`,
			wantErr: true,
		},
		{
			name:    "alerts null is rejected",
			payload: `{"alerts":null}`,
			wantErr: true,
		},
		{
			name:    "top level must be an object",
			payload: `[{"alerts":[]}]`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			payload: `{"alerts":`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Alertmanager{}.Normalize(42, json.RawMessage(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("Alertmanager.Normalize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !apperrors.IsMalformedPayload(err) {
					t.Errorf("Alertmanager.Normalize() error = %v, want malformed payload class", err)
				}
				return
			}
			if len(got.Alerts) != 0 {
				t.Errorf("Alertmanager.Normalize() produced %d canonical alerts, want 0", len(got.Alerts))
			}
			if len(got.RawAlerts) != len(tt.wantRaw) {
				t.Fatalf("Alertmanager.Normalize() produced %d raw alerts, want %d", len(got.RawAlerts), len(tt.wantRaw))
			}
			for i := range tt.wantRaw {
				if string(got.RawAlerts[i]) != tt.wantRaw[i] {
					t.Errorf("Alertmanager.Normalize() raw[%d] = %s, want %s", i, got.RawAlerts[i], tt.wantRaw[i])
				}
			}
		})
	}
}

func TestGrafanaNormalize(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantRaw    int
		wantAlerts int
		wantErr    bool
	}{
		{
			name:    "unified alerting payload splits per alert",
			payload: `{"alerts":[{"labels":{"a":"1"}},{"labels":{"a":"2"}}]}`,
			wantRaw: 2,
		},
		{
			name:       "legacy notification ingests whole",
			payload:    `{"title":"[Alerting] Panel Title alert","state":"alerting"}`,
			wantAlerts: 1,
		},
		{
			name:    "explicit empty alerts produces nothing",
			payload: `{"alerts":[]}`,
		},
		{
			name:    "non-object payload rejected",
			payload: `["alerts"]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Grafana{}.Normalize(7, json.RawMessage(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("Grafana.Normalize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if len(got.RawAlerts) != tt.wantRaw {
				t.Errorf("Grafana.Normalize() raw alerts = %d, want %d", len(got.RawAlerts), tt.wantRaw)
			}
			if len(got.Alerts) != tt.wantAlerts {
				t.Errorf("Grafana.Normalize() canonical alerts = %d, want %d", len(got.Alerts), tt.wantAlerts)
			}
			if tt.wantAlerts == 1 {
				alert := got.Alerts[0]
				if alert.Title != nil || alert.Message != nil || alert.ImageURL != nil || alert.LinkToUpstreamDetails != nil {
					t.Errorf("Grafana.Normalize() legacy alert extracted fields, want all null")
				}
				if alert.AlertReceiveChannelPK != 7 {
					t.Errorf("Grafana.Normalize() channel pk = %d, want 7", alert.AlertReceiveChannelPK)
				}
				if string(alert.RawRequestData) != tt.payload {
					t.Errorf("Grafana.Normalize() raw request = %s, want %s", alert.RawRequestData, tt.payload)
				}
			}
		})
	}
}

func TestAmazonSNSNormalize(t *testing.T) {
	subject := "ALARM: high latency"
	message := "Threshold crossed"

	tests := []struct {
		name      string
		payload   string
		wantCount int
		wantTitle *string
		wantMsg   *string
		wantErr   bool
	}{
		{
			name:      "notification with subject and message",
			payload:   `{"Type":"Notification","Subject":"ALARM: high latency","Message":"Threshold crossed"}`,
			wantCount: 1,
			wantTitle: &subject,
			wantMsg:   &message,
		},
		{
			name:      "notification without subject",
			payload:   `{"Type":"Notification","Message":"Threshold crossed"}`,
			wantCount: 1,
			wantMsg:   &message,
		},
		{
			name:    "subscription handshake produces nothing",
			payload: `{"Type":"SubscriptionConfirmation","SubscribeURL":"https://sns.example/confirm"}`,
		},
		{
			name:    "unsubscribe handshake produces nothing",
			payload: `{"Type":"UnsubscribeConfirmation"}`,
		},
		{
			name:    "non-object payload rejected",
			payload: `[1,2,3]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmazonSNS{}.Normalize(9, json.RawMessage(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("AmazonSNS.Normalize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if len(got.Alerts) != tt.wantCount {
				t.Fatalf("AmazonSNS.Normalize() alerts = %d, want %d", len(got.Alerts), tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			alert := got.Alerts[0]
			if !reflect.DeepEqual(alert.Title, tt.wantTitle) {
				t.Errorf("AmazonSNS.Normalize() title = %v, want %v", deref(alert.Title), deref(tt.wantTitle))
			}
			if !reflect.DeepEqual(alert.Message, tt.wantMsg) {
				t.Errorf("AmazonSNS.Normalize() message = %v, want %v", deref(alert.Message), deref(tt.wantMsg))
			}
			if string(alert.RawRequestData) != tt.payload {
				t.Errorf("AmazonSNS.Normalize() raw request = %s, want %s", alert.RawRequestData, tt.payload)
			}
		})
	}
}

func TestMaintenanceNormalize(t *testing.T) {
	title := "DB failover drill"

	got, err := Maintenance{}.Normalize(3, json.RawMessage(`{"title":"DB failover drill"}`))
	if err != nil {
		t.Fatalf("Maintenance.Normalize() error = %v", err)
	}
	if len(got.Alerts) != 1 {
		t.Fatalf("Maintenance.Normalize() alerts = %d, want 1", len(got.Alerts))
	}
	alert := got.Alerts[0]
	if !reflect.DeepEqual(alert.Title, &title) {
		t.Errorf("Maintenance.Normalize() title = %v, want %q", deref(alert.Title), title)
	}
	if alert.Message != nil {
		t.Errorf("Maintenance.Normalize() message = %v, want null", deref(alert.Message))
	}
}

func TestGenericNormalize(t *testing.T) {
	payload := json.RawMessage(`{"anything":["goes",1,null]}`)

	got, err := Generic{}.Normalize(11, payload)
	if err != nil {
		t.Fatalf("Generic.Normalize() error = %v", err)
	}
	if len(got.Alerts) != 1 || len(got.RawAlerts) != 0 {
		t.Fatalf("Generic.Normalize() batch = %d/%d, want 1 canonical alert", len(got.Alerts), len(got.RawAlerts))
	}
	alert := got.Alerts[0]
	if alert.Title != nil || alert.Message != nil || alert.ImageURL != nil || alert.LinkToUpstreamDetails != nil {
		t.Errorf("Generic.Normalize() extracted fields, want all null")
	}
	if alert.AlertReceiveChannelPK != 11 {
		t.Errorf("Generic.Normalize() channel pk = %d, want 11", alert.AlertReceiveChannelPK)
	}
	if string(alert.RawRequestData) != string(payload) {
		t.Errorf("Generic.Normalize() raw request = %s, want %s", alert.RawRequestData, payload)
	}
}

func TestForType(t *testing.T) {
	tests := []struct {
		integration model.IntegrationType
		want        Normalizer
		wantErr     bool
	}{
		{integration: model.IntegrationAlertmanager, want: Alertmanager{}},
		{integration: model.IntegrationGrafanaAlerting, want: Alertmanager{}},
		{integration: model.IntegrationGrafana, want: Grafana{}},
		{integration: model.IntegrationAmazonSNS, want: AmazonSNS{}},
		{integration: model.IntegrationMaintenance, want: Maintenance{}},
		{integration: model.IntegrationWebhook, want: Generic{}},
		{integration: model.IntegrationFormattedWebhook, want: Generic{}},
		{integration: model.IntegrationHeartbeat, want: Generic{}},
		{integration: model.IntegrationInboundEmail, want: Generic{}},
		{integration: model.IntegrationManual, want: Generic{}},
		{integration: "pagerduty", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.integration), func(t *testing.T) {
			got, err := ForType(tt.integration)
			if (err != nil) != tt.wantErr {
				t.Errorf("ForType(%q) error = %v, wantErr %v", tt.integration, err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ForType(%q) = %T, want %T", tt.integration, got, tt.want)
			}
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
