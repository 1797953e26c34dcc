package port

import "context"

// Mailer delivers notification emails. Implementations degrade to logging the
// message when no SMTP transport is configured, so flows that hand out
// one-time secrets stay testable without a mail server.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
