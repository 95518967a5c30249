package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/enterprise/user-service/internal/domain/entity"
	"github.com/enterprise/user-service/pkg/mailer"
)

// ErrMalformedEvent marks a message that can never be processed and must not be requeued.
var ErrMalformedEvent = errors.New("malformed user event")

// MailSender is the subset of the Mailgun client used for welcome emails.
type MailSender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// EventProcessor consumes user events: it keeps the search index in sync and
// optionally sends a welcome email on creation.
type EventProcessor struct {
	Search  *SearchService
	Mail    MailSender // nil disables welcome emails
	AppName string
	Logger  *logrus.Logger
}

// Handle processes one raw message body. Errors wrapping ErrMalformedEvent
// are permanent; any other error is worth retrying.
func (p *EventProcessor) Handle(ctx context.Context, body []byte) error {
	var ev entity.UserEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.UserID <= 0 {
		return fmt.Errorf("%w: missing user_id", ErrMalformedEvent)
	}

	switch ev.Type {
	case entity.UserCreated:
		if err := p.index(ctx, ev); err != nil {
			return err
		}
		return p.welcome(ctx, ev)
	case entity.UserUpdated:
		return p.index(ctx, ev)
	case entity.UserDeleted:
		err := p.Search.DeleteUser(ctx, ev.UserID)
		if errors.Is(err, ErrSearchUnavailable) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, ev.Type)
	}
}

func (p *EventProcessor) index(ctx context.Context, ev entity.UserEvent) error {
	err := p.Search.IndexUser(ctx, ev)
	if errors.Is(err, ErrSearchUnavailable) {
		return nil
	}
	return err
}

func (p *EventProcessor) welcome(ctx context.Context, ev entity.UserEvent) error {
	if p.Mail == nil || ev.Email == "" {
		return nil
	}
	subject, text, html, err := mailer.RenderWelcome(mailer.WelcomeData{AppName: p.AppName, Name: ev.Name, Email: ev.Email})
	if err != nil {
		return fmt.Errorf("%w: render welcome: %v", ErrMalformedEvent, err)
	}
	if err := p.Mail.Send(ctx, ev.Email, subject, text, html); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}
	if p.Logger != nil {
		p.Logger.WithField("user_id", ev.UserID).Info("welcome email sent")
	}
	return nil
}
