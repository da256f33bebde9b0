package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGenerateInstances materialises obligation instances for active bindings.
	TaskGenerateInstances = "obligations:generate"
	// TaskRefreshStatuses advances time-derived instance statuses.
	TaskRefreshStatuses = "obligations:refresh"
	// TaskNotifyDueDay emails accountants about instances due today.
	TaskNotifyDueDay = "obligations:notify"
	// TaskSendEmail delivers one transactional email.
	TaskSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendEmail, data), nil
}

// NewGenerateInstancesTask constructs the generator task. The payload is
// empty; the window is configured on the worker side.
func NewGenerateInstancesTask() *asynq.Task {
	return asynq.NewTask(TaskGenerateInstances, nil)
}

// NewRefreshStatusesTask constructs the status refresher task.
func NewRefreshStatusesTask() *asynq.Task {
	return asynq.NewTask(TaskRefreshStatuses, nil)
}

// NewNotifyDueDayTask constructs the due-day notifier task.
func NewNotifyDueDayTask() *asynq.Task {
	return asynq.NewTask(TaskNotifyDueDay, nil)
}
