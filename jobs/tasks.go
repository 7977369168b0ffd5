// Package jobs runs background work over Asynq: overdue payment
// reminder sweeps, recurring invoice generation and outbound mail.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypePaymentReminder sweeps overdue invoices and mails reminders.
	TaskTypePaymentReminder = "invoice:remind"
	// TaskTypeRecurringRun materializes due recurring profiles.
	TaskTypeRecurringRun = "invoice:recurring"
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
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewPaymentReminderTask constructs the reminder sweep task. The sweep
// takes no payload; it derives its working set from the database.
func NewPaymentReminderTask() *asynq.Task {
	return asynq.NewTask(TaskTypePaymentReminder, nil)
}

// NewRecurringRunTask constructs the recurring generation task.
func NewRecurringRunTask() *asynq.Task {
	return asynq.NewTask(TaskTypeRecurringRun, nil)
}
