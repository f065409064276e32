package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DD-DeCaF/metabolic-ninja/internal/clients/sendgrid"
	"github.com/DD-DeCaF/metabolic-ninja/internal/messaging"
)

const (
	notificationSender     = "notifications@dd-decaf.eu"
	notificationSenderName = "DD-DeCaF"

	// Dynamic transactional template "design job completed" in the
	// DD-DeCaF SendGrid account.
	notificationTemplate = "d-8caebf4f862b4c67932515c45c5404cc"
)

// Notifier tells the user that their prediction job has finished.
type Notifier interface {
	NotifyCompleted(ctx context.Context, payload messaging.DesignTaskPayload) error
}

// EmailNotifier sends the completion mail through SendGrid, linking back to
// the job's result page in the frontend.
type EmailNotifier struct {
	client      *sendgrid.Client
	frontendURL string
}

func NewEmailNotifier(client *sendgrid.Client, frontendURL string) *EmailNotifier {
	return &EmailNotifier{client: client, frontendURL: frontendURL}
}

func (n *EmailNotifier) NotifyCompleted(ctx context.Context, payload messaging.DesignTaskPayload) error {
	slog.Debug("sending email notification", "job_id", payload.JobID, "recipient", payload.UserEmail)

	return n.client.Send(ctx, sendgrid.Mail{
		From:       sendgrid.Address{Email: notificationSender, Name: notificationSenderName},
		TemplateID: notificationTemplate,
		Personalizations: []sendgrid.Personalization{
			{
				To: []sendgrid.Address{{Email: payload.UserEmail}},
				DynamicTemplateData: map[string]any{
					"name":        payload.UserName,
					"product":     payload.ProductName,
					"organism":    payload.OrganismName,
					"results_url": fmt.Sprintf("%s/jobs/%d", n.frontendURL, payload.JobID),
				},
			},
		},
	})
}
