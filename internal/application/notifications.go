package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storefront-auth/internal/domain/entity"
	"github.com/oksasatya/storefront-auth/pkg/helpers"
	"github.com/oksasatya/storefront-auth/pkg/mailer"
	mailtpl "github.com/oksasatya/storefront-auth/pkg/mailer/templates"
)

// Publisher puts a JSON message on the notification queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// ClientInfo describes the caller of a workflow, for account notifications.
type ClientInfo struct {
	IP        string
	UserAgent string
}

func (c ClientInfo) options(at time.Time) []mailtpl.Option {
	return []mailtpl.Option{
		mailtpl.WithIP(c.IP),
		mailtpl.WithUserAgent(c.UserAgent),
		mailtpl.WithTime(at),
	}
}

// notify enqueues one email. Delivery is best-effort: a failure is logged
// and counted, never returned.
func (s *AuthService) notify(ctx context.Context, u *entity.User, data map[string]any) {
	if s.Publisher == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Universal,
		Data:     data,
	}
	if err := s.Publisher.PublishJSON(context.WithoutCancel(ctx), job); err != nil {
		count(statNotificationFailed)
		helpers.LogError(s.Logger, "enqueue notification failed", err, logrus.Fields{
			"user_id": u.ID,
			"type":    data["Type"],
		})
	}
}

func (s *AuthService) notifyWelcome(ctx context.Context, u *entity.User, client ClientInfo) {
	s.notify(ctx, u, mailtpl.NewWelcomeData(s.Brand, u.Name, u.Email, client.options(s.now())...))
}

func (s *AuthService) notifyLogin(ctx context.Context, u *entity.User, client ClientInfo) {
	s.notify(ctx, u, mailtpl.NewLoginNotificationData(s.Brand, u.Name, u.Email, client.options(s.now())...))
}

func (s *AuthService) notifyPasswordReset(ctx context.Context, u *entity.User, client ClientInfo) {
	s.notify(ctx, u, mailtpl.NewPasswordResetData(s.Brand, u.Name, u.Email, client.options(s.now())...))
}

func (s *AuthService) notifyProfileUpdated(ctx context.Context, u *entity.User, changes []string, client ClientInfo) {
	s.notify(ctx, u, mailtpl.NewProfileUpdatedData(s.Brand, u.Name, u.Email, changes, client.options(s.now())...))
}
