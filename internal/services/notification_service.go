package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fortifund/fortifund-api/internal/models"
	pkglogger "github.com/fortifund/fortifund-api/pkg/logger"
)

const signupNotificationTimeout = 30 * time.Second

// SignupNotifier tells the admin mailbox about accounts waiting for activation.
// Delivery happens off the request path and never fails the signup.
type SignupNotifier struct {
	mailer     Mailer
	adminEmail string
	logger     *slog.Logger
	timeout    time.Duration
	wg         sync.WaitGroup
}

func NewSignupNotifier(mailer Mailer, adminEmail string, logger *slog.Logger) *SignupNotifier {
	return &SignupNotifier{
		mailer:     mailer,
		adminEmail: adminEmail,
		logger:     logger,
		timeout:    signupNotificationTimeout,
	}
}

// NotifySignup sends the activation request in the background
func (n *SignupNotifier) NotifySignup(user *models.User) {
	msg := buildSignupNotification(n.adminEmail, user)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.mailer.Send(ctx, msg); err != nil {
			n.logger.Error("failed to send signup notification",
				slog.String("user_id", user.ID),
				slog.Any("error", err))
			return
		}

		n.logger.Info("signup notification sent",
			slog.String("user_id", user.ID),
			slog.String("email", pkglogger.SanitizedEmail(user.Email)))
	}()
}

// Wait blocks until in-flight notifications finish
func (n *SignupNotifier) Wait() {
	n.wg.Wait()
}

func buildSignupNotification(adminEmail string, user *models.User) EmailMessage {
	body := fmt.Sprintf(`Hi Admin,

A new user has signed up and requires activation:

User Details:
- Name: %s
- Email: %s
- Status: Pending (Requires Activation)

Please log into the admin dashboard to activate this user's account.

Best regards,
System Notification
`, user.DisplayName(), user.Email)

	return EmailMessage{
		To:      adminEmail,
		Subject: "New User Registration - Action Required",
		Body:    body,
	}
}
