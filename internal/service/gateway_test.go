package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/signalmesh/alertgate/internal/cache"
	"github.com/signalmesh/alertgate/internal/dispatch"
	apperrors "github.com/signalmesh/alertgate/internal/errors"
	"github.com/signalmesh/alertgate/internal/model"
)

type fakeResolver struct {
	refs map[string]cache.ChannelRef
}

func (f fakeResolver) Resolve(token string) (cache.ChannelRef, error) {
	ref, ok := f.refs[token]
	if !ok {
		return cache.ChannelRef{}, apperrors.NewUnknownChannel("no channel for token")
	}
	return ref, nil
}

type enqueued struct {
	task      string
	channelID int64
	alert     model.NormalizedAlert
	raw       string
}

type fakeDispatcher struct {
	mu        sync.Mutex
	calls     []enqueued
	failFirst bool
}

func (f *fakeDispatcher) Start(ctx context.Context) {}
func (f *fakeDispatcher) Close(ctx context.Context) {}

func (f *fakeDispatcher) EnqueueCreateAlert(ctx context.Context, alert model.NormalizedAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst {
		f.failFirst = false
		return fmt.Errorf("broker unavailable")
	}
	f.calls = append(f.calls, enqueued{
		task:      dispatch.TaskCreateAlert,
		channelID: alert.AlertReceiveChannelPK,
		alert:     alert,
	})
	return nil
}

func (f *fakeDispatcher) EnqueueAlertmanagerAlert(ctx context.Context, channelID int64, rawAlert json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst {
		f.failFirst = false
		return fmt.Errorf("broker unavailable")
	}
	f.calls = append(f.calls, enqueued{
		task:      dispatch.TaskCreateAlertmanagerAlerts,
		channelID: channelID,
		raw:       string(rawAlert),
	})
	return nil
}

func testResolver() fakeResolver {
	return fakeResolver{refs: map[string]cache.ChannelRef{
		"tok-am":      {ChannelID: 1, Integration: model.IntegrationAlertmanager},
		"tok-ga":      {ChannelID: 2, Integration: model.IntegrationGrafanaAlerting},
		"tok-grafana": {ChannelID: 3, Integration: model.IntegrationGrafana},
		"tok-sns":     {ChannelID: 4, Integration: model.IntegrationAmazonSNS},
		"tok-webhook": {ChannelID: 5, Integration: model.IntegrationWebhook},
		"tok-maint":   {ChannelID: 6, Integration: model.IntegrationMaintenance},
	}}
}

func newTestIngestService(disp *fakeDispatcher) IngestService {
	return NewIngestService(testResolver(), disp, 0, slog.Default())
}

func TestIngestAlertmanagerDispatchesInOrder(t *testing.T) {
	disp := &fakeDispatcher{}
	svc := newTestIngestService(disp)

	payload := `{"alerts":[{"labels":{"n":"1"}},{"labels":{"n":"2"}},{"labels":{"n":"3"}}]}`
	if err := svc.IngestAlertmanager(context.Background(), "tok-am", json.RawMessage(payload)); err != nil {
		t.Fatalf("IngestAlertmanager() error = %v", err)
	}

	if len(disp.calls) != 3 {
		t.Fatalf("dispatched %d tasks, want 3", len(disp.calls))
	}
	for i, want := range []string{`{"labels":{"n":"1"}}`, `{"labels":{"n":"2"}}`, `{"labels":{"n":"3"}}`} {
		call := disp.calls[i]
		if call.task != dispatch.TaskCreateAlertmanagerAlerts {
			t.Errorf("call %d task = %q, want %q", i, call.task, dispatch.TaskCreateAlertmanagerAlerts)
		}
		if call.channelID != 1 {
			t.Errorf("call %d channel = %d, want 1", i, call.channelID)
		}
		if call.raw != want {
			t.Errorf("call %d raw = %s, want %s", i, call.raw, want)
		}
	}
}

func TestIngestAlertmanagerEndpointChecks(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		payload string
		wantErr func(error) bool
		wantN   int
	}{
		{
			name:    "grafana_alerting channel shares the endpoint contract",
			token:   "tok-ga",
			payload: `{"alerts":[{"labels":{}}]}`,
			wantN:   1,
		},
		{
			name:    "missing alerts accepted with nothing dispatched",
			token:   "tok-am",
			payload: `{"status":"firing"}`,
			wantN:   0,
		},
		{
			name:    "webhook channel refused",
			token:   "tok-webhook",
			payload: `{"alerts":[]}`,
			wantErr: apperrors.IsWrongIntegration,
		},
		{
			name:    "unknown token refused",
			token:   "tok-nobody",
			payload: `{"alerts":[]}`,
			wantErr: apperrors.IsUnknownChannel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disp := &fakeDispatcher{}
			svc := newTestIngestService(disp)

			err := svc.IngestAlertmanager(context.Background(), tt.token, json.RawMessage(tt.payload))
			if tt.wantErr != nil {
				if err == nil || !tt.wantErr(err) {
					t.Errorf("IngestAlertmanager() error = %v, want matching rejection class", err)
				}
				if len(disp.calls) != 0 {
					t.Errorf("dispatched %d tasks on rejection, want 0", len(disp.calls))
				}
				return
			}
			if err != nil {
				t.Fatalf("IngestAlertmanager() error = %v", err)
			}
			if len(disp.calls) != tt.wantN {
				t.Errorf("dispatched %d tasks, want %d", len(disp.calls), tt.wantN)
			}
		})
	}
}

func TestIngestGrafanaBranches(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		payload   string
		wantTasks []string
		wantErr   func(error) bool
	}{
		{
			name:      "alerts payload splits per alert",
			token:     "tok-grafana",
			payload:   `{"alerts":[{"a":1},{"a":2}]}`,
			wantTasks: []string{dispatch.TaskCreateAlertmanagerAlerts, dispatch.TaskCreateAlertmanagerAlerts},
		},
		{
			name:      "legacy payload ingested whole",
			token:     "tok-grafana",
			payload:   `{"title":"[Alerting] CPU alert","state":"alerting"}`,
			wantTasks: []string{dispatch.TaskCreateAlert},
		},
		{
			name:      "explicit empty alerts dispatches nothing",
			token:     "tok-grafana",
			payload:   `{"alerts":[]}`,
			wantTasks: nil,
		},
		{
			name:    "grafana_alerting channel refused here",
			token:   "tok-ga",
			payload: `{}`,
			wantErr: apperrors.IsWrongIntegration,
		},
		{
			name:    "alertmanager channel refused here",
			token:   "tok-am",
			payload: `{"alerts":[{"a":1}]}`,
			wantErr: apperrors.IsWrongIntegration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disp := &fakeDispatcher{}
			svc := newTestIngestService(disp)

			err := svc.IngestGrafana(context.Background(), tt.token, json.RawMessage(tt.payload))
			if tt.wantErr != nil {
				if err == nil || !tt.wantErr(err) {
					t.Errorf("IngestGrafana() error = %v, want matching rejection class", err)
				}
				if len(disp.calls) != 0 {
					t.Errorf("dispatched %d tasks on rejection, want 0", len(disp.calls))
				}
				return
			}
			if err != nil {
				t.Fatalf("IngestGrafana() error = %v", err)
			}
			var gotTasks []string
			for _, call := range disp.calls {
				gotTasks = append(gotTasks, call.task)
			}
			if len(gotTasks) != len(tt.wantTasks) {
				t.Fatalf("dispatched %v, want %v", gotTasks, tt.wantTasks)
			}
			for i := range tt.wantTasks {
				if gotTasks[i] != tt.wantTasks[i] {
					t.Errorf("task %d = %q, want %q", i, gotTasks[i], tt.wantTasks[i])
				}
			}
		})
	}
}

func TestIngestAmazonSNSHandshake(t *testing.T) {
	disp := &fakeDispatcher{}
	svc := newTestIngestService(disp)

	payload := `{"Type":"SubscriptionConfirmation","SubscribeURL":"https://sns.example"}`
	if err := svc.IngestAmazonSNS(context.Background(), "tok-sns", json.RawMessage(payload)); err != nil {
		t.Fatalf("IngestAmazonSNS() error = %v", err)
	}
	if len(disp.calls) != 0 {
		t.Errorf("dispatched %d tasks for handshake, want 0", len(disp.calls))
	}
}

func TestIngestUniversal(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		token   string
		payload string
		wantN   int
		wantErr func(error) bool
	}{
		{
			name:    "webhook channel on its own url",
			slug:    "webhook",
			token:   "tok-webhook",
			payload: `{"foo":"bar"}`,
			wantN:   1,
		},
		{
			name:    "maintenance channel on its own url",
			slug:    "maintenance",
			token:   "tok-maint",
			payload: `{"title":"planned work"}`,
			wantN:   1,
		},
		{
			name:    "slug must match the channel integration",
			slug:    "heartbeat",
			token:   "tok-webhook",
			payload: `{}`,
			wantErr: apperrors.IsWrongIntegration,
		},
		{
			name:    "unknown slug refused",
			slug:    "carrier_pigeon",
			token:   "tok-webhook",
			payload: `{}`,
			wantErr: apperrors.IsWrongIntegration,
		},
		{
			name:    "unknown token refused",
			slug:    "webhook",
			token:   "tok-nobody",
			payload: `{}`,
			wantErr: apperrors.IsUnknownChannel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disp := &fakeDispatcher{}
			svc := newTestIngestService(disp)

			err := svc.IngestUniversal(context.Background(), tt.slug, tt.token, json.RawMessage(tt.payload))
			if tt.wantErr != nil {
				if err == nil || !tt.wantErr(err) {
					t.Errorf("IngestUniversal() error = %v, want matching rejection class", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("IngestUniversal() error = %v", err)
			}
			if len(disp.calls) != tt.wantN {
				t.Errorf("dispatched %d tasks, want %d", len(disp.calls), tt.wantN)
			}
		})
	}
}

// One failed enqueue drops that alert alone; the rest of the batch and the
// request outcome are unaffected.
func TestDispatchBatchAbsorbsEnqueueFailure(t *testing.T) {
	disp := &fakeDispatcher{failFirst: true}
	svc := newTestIngestService(disp)

	payload := `{"alerts":[{"n":1},{"n":2}]}`
	if err := svc.IngestAlertmanager(context.Background(), "tok-am", json.RawMessage(payload)); err != nil {
		t.Fatalf("IngestAlertmanager() error = %v, want nil despite enqueue failure", err)
	}

	if len(disp.calls) != 1 {
		t.Fatalf("dispatched %d tasks, want 1 surviving", len(disp.calls))
	}
	if disp.calls[0].raw != `{"n":2}` {
		t.Errorf("surviving task = %s, want the second alert", disp.calls[0].raw)
	}
}

func TestIngestRateLimited(t *testing.T) {
	disp := &fakeDispatcher{}
	svc := NewIngestService(testResolver(), disp, 2, slog.Default())

	payload := json.RawMessage(`{"foo":"bar"}`)
	for i := 0; i < 2; i++ {
		if err := svc.IngestUniversal(context.Background(), "webhook", "tok-webhook", payload); err != nil {
			t.Fatalf("IngestUniversal() request %d error = %v", i+1, err)
		}
	}

	err := svc.IngestUniversal(context.Background(), "webhook", "tok-webhook", payload)
	if !apperrors.IsRateLimited(err) {
		t.Errorf("IngestUniversal() error = %v, want rate limited class", err)
	}
	if len(disp.calls) != 2 {
		t.Errorf("dispatched %d tasks, want 2", len(disp.calls))
	}
}
