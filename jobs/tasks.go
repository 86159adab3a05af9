package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeSessionReap is the task type for purging expired session records.
	TaskTypeSessionReap = "sessions:reap"
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

// NewSessionReapTask constructs the periodic session purge task. It
// carries no payload; the handler reaps everything past expiry.
func NewSessionReapTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionReap, nil)
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// TODO: wire the SMTP relay once the mail host is provisioned.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// WelcomeEmail builds the payload sent to newly registered accounts.
func WelcomeEmail(to, name string) SendEmailPayload {
	return SendEmailPayload{
		To:      to,
		Subject: "Welcome to the Finishing School Program",
		Body:    "Hello " + name + ",\n\nYour portal account is ready. Sign in to view your batch, timetable and attendance.\n",
	}
}
