package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskBulkSyncRun = "jurisprudence.bulk_sync.run"

type BulkSyncRunPayload struct {
	Unit     string `json:"unit,omitempty"`
	MaxFiles int    `json:"maxFiles,omitempty"`
	Force    bool   `json:"force,omitempty"`
}

func NewBulkSyncRunTask(payload BulkSyncRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBulkSyncRun, data), nil
}

func ParseBulkSyncRunPayload(task *asynq.Task) (BulkSyncRunPayload, error) {
	var payload BulkSyncRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BulkSyncRunPayload{}, err
	}
	return payload, nil
}
