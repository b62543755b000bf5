// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the delivery
// ledger (DeliveryRecord model).
//
// The ledger is append-only: one row per send attempt, never updated. The
// same (user, offer) pair may legitimately appear more than once across
// broadcast cycles.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
)

// AppendDelivery records one notification attempt for (userID, offerID) with
// its outcome. It is called exactly once per attempt by the broadcast
// dispatcher, for both successful and failed sends.
//
// On success, it returns nil. On failure, it returns a DB error.
func AppendDelivery(ctx context.Context, db *gorm.DB, userID, offerID string, delivered bool) error {
	rec := &domain.DeliveryRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		OfferID:   offerID,
		Delivered: delivered,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(rec).Error
}

// ListDeliveriesForOffer returns the ledger rows for one offer in attempt
// order. Mostly useful for diagnostics and tests.
func ListDeliveriesForOffer(ctx context.Context, db *gorm.DB, offerID string) ([]domain.DeliveryRecord, error) {
	var out []domain.DeliveryRecord
	err := db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
