// Package notify delivers finished reports to an external recipient.
package notify

import "context"

// Notifier sends a compiled report somewhere out of band. Delivery is
// best-effort: a failed send never fails the assessment.
type Notifier interface {
	SendReport(ctx context.Context, subject, body string) error
}

// Noop discards reports. Used when no delivery channel is configured.
type Noop struct{}

// SendReport does nothing.
func (Noop) SendReport(ctx context.Context, subject, body string) error {
	_ = ctx
	_ = subject
	_ = body
	return nil
}

var _ Notifier = Noop{}
