// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Offer model.
//
// Offer identity is the (external_id, store) pair, enforced by a unique
// index. UpsertOffer is the single write path: it never creates a second row
// for a known identity and only price fields plus last_seen move on conflict.
//
// Error semantics:
//   - UpsertOffer returns ErrNotFound when the row cannot be re-read by its
//     own identity key right after the upsert. Callers should treat that as
//     a recoverable per-candidate failure, not a batch abort.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
)

// UpsertOffer inserts o keyed by (external_id, store), or, when that identity
// already exists, updates price, old_price, and last_seen in place. Insert-time
// title, url, image_url, and category are deliberately left untouched on
// conflict.
//
// After the write the row is re-read by its identity key and its stable
// internal id is returned. A missing re-read signals a persistence
// inconsistency and yields ErrNotFound.
func UpsertOffer(ctx context.Context, db *gorm.DB, o *domain.Offer) (string, error) {
	now := time.Now().UTC()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.LastSeen = now
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}, {Name: "store"}},
		DoUpdates: clause.Assignments(map[string]any{
			"price":     o.Price,
			"old_price": o.OldPrice,
			"last_seen": now,
		}),
	}).Create(o).Error
	if err != nil {
		return "", err
	}

	// Re-read by identity key: on conflict the insert above kept the original
	// row (and its id), not the one we just built.
	var row domain.Offer
	if err := db.WithContext(ctx).
		Select("id").
		Where("external_id = ? AND store = ?", o.ExternalID, o.Store).
		First(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

// GetOffer fetches a single offer by its internal id. If the record does not
// exist, it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetOffer(ctx context.Context, db *gorm.DB, id string) (*domain.Offer, error) {
	var o domain.Offer
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListRecentOffers returns the most recently seen offers, newest first.
// Ordering follows last_seen so a refreshed offer resurfaces at the top.
// Non-positive limits fall back to 20, the dashboard page size.
func ListRecentOffers(ctx context.Context, db *gorm.DB, limit int) ([]domain.Offer, error) {
	if limit <= 0 {
		limit = 20
	}
	var offers []domain.Offer
	err := db.WithContext(ctx).
		Order("last_seen DESC").
		Limit(limit).
		Find(&offers).Error
	return offers, err
}

// CountOffers returns the total number of stored offers.
func CountOffers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Offer{}).Count(&total).Error
	return total, err
}
