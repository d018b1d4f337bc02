package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tgrieger/inkwell/internal/domain"
)

// Dispatcher maps domain events to notification actions. It is wired as
// the queue consumer's handler; returning an error triggers the
// consumer's retry/dead-letter path.
type Dispatcher struct {
	mailer  *Mailer
	webhook *Webhook
	log     *logrus.Entry
}

func NewDispatcher(mailer *Mailer, webhook *Webhook) *Dispatcher {
	return &Dispatcher{
		mailer:  mailer,
		webhook: webhook,
		log:     logrus.WithField("component", "notify"),
	}
}

func (d *Dispatcher) Handle(ctx context.Context, event domain.Event) error {
	switch event.Type {
	case domain.EventUserRegistered:
		subject := "Welcome to Inkwell"
		body := fmt.Sprintf("Hi %s,\n\nyour account is ready. Happy writing!\n", event.Name)
		return d.mailer.Send(event.Email, subject, body)

	case domain.EventUserDeleted:
		message := fmt.Sprintf("account deleted: %s (%s)", event.Name, event.UserID)
		return d.webhook.Notify(ctx, message)

	case domain.EventPostPublished:
		message := fmt.Sprintf("new post %q by %s", event.PostTitle, event.UserID)
		return d.webhook.Notify(ctx, message)

	default:
		// Unknown event types are dropped, not retried
		d.log.WithField("event", event.Type).Warn("unhandled event type")
		return nil
	}
}
