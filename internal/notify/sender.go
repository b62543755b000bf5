// Package notify implements the outbound delivery channel used to push
// rendered offer notifications and command replies to recipients.
//
// The Sender interface is the seam the dispatcher and the webhook handlers
// depend on; the Telegram Bot API implementation lives in telegram.go and
// test doubles implement Sender directly.
package notify

import "context"

// Sender attempts a single message delivery to one recipient.
//
// Implementations must return an error on any failed send (transport error,
// blocked recipient, invalid chat id); callers treat all failure causes
// identically. Send must honor ctx cancellation and deadlines so one
// unresponsive recipient cannot stall a broadcast.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}
