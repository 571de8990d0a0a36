package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskActivationSweep = "workorders.activation_sweep"

type ActivationSweepPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
	Source      string    `json:"source"`
}

func NewActivationSweepTask(payload ActivationSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivationSweep, data), nil
}

func ParseActivationSweepPayload(task *asynq.Task) (ActivationSweepPayload, error) {
	var payload ActivationSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ActivationSweepPayload{}, err
	}
	return payload, nil
}
