package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"task_backend/internal/shared/ratelimiter"
)

const defaultSendTimeout = 10 * time.Second

// Notifier sends the account lifecycle emails in the background.
// Delivery failures are logged and never reported to the caller.
type Notifier struct {
	sender  Sender
	limiter ratelimiter.Limiter
	timeout time.Duration
	wg      conc.WaitGroup
}

// NewNotifier creates a Notifier. A nil limiter disables throttling and a
// non-positive timeout falls back to 10 seconds.
func NewNotifier(sender Sender, limiter ratelimiter.Limiter, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Notifier{sender: sender, limiter: limiter, timeout: timeout}
}

// SendWelcome greets a newly registered user.
func (n *Notifier) SendWelcome(email, name string) {
	n.dispatch(WelcomeMessage(email, name))
}

// SendCancellation says goodbye to a user who deleted their account.
func (n *Notifier) SendCancellation(email, name string) {
	n.dispatch(CancellationMessage(email, name))
}

// Wait blocks until every dispatched message has been handled.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(msg Message) {
	n.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if n.limiter != nil {
			if err := n.limiter.Wait(ctx); err != nil {
				zap.L().Warn("mail dropped by rate limiter", zap.String("subject", msg.Subject), zap.Error(err))
				return
			}
		}
		if err := n.sender.Send(ctx, msg); err != nil {
			zap.L().Warn("mail delivery failed", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		zap.L().Debug("mail delivered", zap.String("subject", msg.Subject))
	})
}

// WelcomeMessage builds the registration email.
func WelcomeMessage(email, name string) Message {
	return Message{
		To:      email,
		Subject: "Thanks for joining us",
		Text:    fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", name),
	}
}

// CancellationMessage builds the account deletion email.
func CancellationMessage(email, name string) Message {
	return Message{
		To:      email,
		Subject: "Sorry to see you go!",
		Text:    fmt.Sprintf("Goodbye, %s. I hope to see you back sometime soon.", name),
	}
}
