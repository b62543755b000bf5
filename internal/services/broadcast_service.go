// Package services – BroadcastService
//
// This file implements the broadcast dispatcher: for a batch of newly stored
// offers it renders one deterministic notification per offer and attempts to
// send it to every registered recipient, appending a delivery-ledger row per
// attempt. Failure isolation is the central contract here: no recipient's
// failure may prevent attempts to the remaining recipients or offers.
//
// Observability: Broadcast is OpenTelemetry-instrumented and feeds the
// promo_sends_total counter.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dfcarvalho/go-promo-bot/internal/feed"
	"github.com/dfcarvalho/go-promo-bot/internal/notify"
	"github.com/dfcarvalho/go-promo-bot/internal/repo"
)

// StoredOffer pairs an upserted offer's internal id with its canonical
// candidate, exactly as produced by the ingestion cycle.
type StoredOffer struct {
	ID    string
	Offer feed.Candidate
}

// BroadcastResult summarizes one broadcast call.
type BroadcastResult struct {
	Recipients int // recipients loaded for this call
	Attempted  int // send attempts made (offers × recipients)
	Delivered  int // attempts that succeeded
	Failed     int // attempts that failed
}

// BroadcastService fans newly stored offers out to all registered users.
type BroadcastService struct {
	DB     *gorm.DB
	Sender notify.Sender

	// SendTimeout bounds each individual send. Zero disables the per-send
	// deadline (the sender may still enforce its own).
	SendTimeout time.Duration
}

// Broadcast sends each offer in newOffers to every registered recipient and
// appends one DeliveryRecord per (offer, recipient) attempt.
//
// The recipient list is loaded once per call, not once per offer. Offers are
// processed in slice order; recipients in registration order. A failed send
// is recorded with delivered=false and the loop continues; errors from the
// delivery channel never propagate. The only error Broadcast itself returns
// is a failure to load the recipient list, which makes the whole call a
// no-op.
//
// An empty recipient set or empty batch is a legal no-op.
func (s *BroadcastService) Broadcast(ctx context.Context, newOffers []StoredOffer) (BroadcastResult, error) {
	tr := otel.Tracer("services/BroadcastService")
	ctx, span := tr.Start(ctx, "Broadcast",
		trace.WithAttributes(attribute.Int("offers.count", len(newOffers))),
	)
	defer span.End()

	var res BroadcastResult
	if len(newOffers) == 0 {
		return res, nil
	}

	users, err := repo.ListUsers(ctx, s.DB)
	if err != nil {
		return res, err
	}
	res.Recipients = len(users)
	if len(users) == 0 {
		return res, nil
	}

	for _, so := range newOffers {
		text := RenderOfferMessage(so.Offer)

		for _, u := range users {
			res.Attempted++
			delivered := s.trySend(ctx, u.TelegramID, text)
			if delivered {
				res.Delivered++
				sendsAttempted.WithLabelValues("delivered").Inc()
			} else {
				res.Failed++
				sendsAttempted.WithLabelValues("failed").Inc()
			}

			if lerr := repo.AppendDelivery(ctx, s.DB, u.ID, so.ID, delivered); lerr != nil {
				// The attempt already happened; a ledger write failure must
				// not stop the remaining recipients.
				log.Warn().Err(lerr).
					Str("user_id", u.ID).
					Str("offer_id", so.ID).
					Msg("delivery ledger append failed")
			}
		}
	}

	span.SetAttributes(
		attribute.Int("sends.delivered", res.Delivered),
		attribute.Int("sends.failed", res.Failed),
	)
	return res, nil
}

// trySend attempts one delivery under the per-send timeout and reports the
// outcome. All failure causes (transport, blocked recipient, invalid chat,
// timeout) are treated identically.
func (s *BroadcastService) trySend(ctx context.Context, chatID int64, text string) bool {
	sendCtx := ctx
	if s.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.SendTimeout)
		defer cancel()
	}
	if err := s.Sender.Send(sendCtx, chatID, text); err != nil {
		log.Debug().Err(err).Int64("chat_id", chatID).Msg("send failed")
		return false
	}
	return true
}

// RenderOfferMessage builds the notification text for one offer:
// a title line, a price line in the feed's currency, a discount annotation
// only when the reference price strictly exceeds the current price, and a
// trailing link line only when a URL is present.
func RenderOfferMessage(c feed.Candidate) string {
	text := fmt.Sprintf("%s\nPreço: R$%.2f", c.Title, c.Price)
	if c.OldPrice > 0 && c.OldPrice > c.Price {
		text += fmt.Sprintf(" (De R$%.2f)", c.OldPrice)
	}
	if c.URL != "" {
		text += "\n" + c.URL
	}
	return text
}
