package dispatch

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/signalmesh/alertgate/internal/model"
)

// Task names understood by the alert pipeline workers.
const (
	TaskCreateAlert              = "create_alert"
	TaskCreateAlertmanagerAlerts = "create_alertmanager_alerts"
)

// TaskMessage is the envelope published to the task topic. Delivery is
// at-least-once; TaskID lets consumers deduplicate replays. Args and Kwargs
// mirror the worker call convention: create_alert passes the alert by
// keyword, create_alertmanager_alerts passes positional arguments.
type TaskMessage struct {
	TaskID string        `json:"task_id"`
	Task   string        `json:"task"`
	Args   []interface{} `json:"args"`
	Kwargs interface{}   `json:"kwargs"`
}

func NewCreateAlertTask(alert model.NormalizedAlert) TaskMessage {
	return TaskMessage{
		TaskID: uuid.New().String(),
		Task:   TaskCreateAlert,
		Args:   []interface{}{},
		Kwargs: alert,
	}
}

func NewAlertmanagerAlertTask(channelID int64, rawAlert json.RawMessage) TaskMessage {
	return TaskMessage{
		TaskID: uuid.New().String(),
		Task:   TaskCreateAlertmanagerAlerts,
		Args:   []interface{}{channelID, rawAlert},
		Kwargs: nil,
	}
}
