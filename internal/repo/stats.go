// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries over
// the delivery ledger, used by the HTTP stats endpoint and by operators
// checking pipeline health. Each function is context-aware and safe to call
// from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
)

// DeliveryStats returns aggregate metadata for the delivery ledger: the total
// number of attempts, how many succeeded, and the timestamp of the most
// recent attempt.
//
// When the ledger is empty, counts are 0 and lastAttempt is nil.
//
// Return values:
//   - total:       all recorded attempts
//   - delivered:   attempts with delivered = true
//   - lastAttempt: pointer to the greatest CreatedAt, or nil if no rows
//   - err:         database error, if any
func DeliveryStats(ctx context.Context, db *gorm.DB) (total, delivered int64, lastAttempt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.DeliveryRecord{})

	if err = q.Count(&total).Error; err != nil {
		return 0, 0, nil, err
	}
	if total == 0 {
		return 0, 0, nil, nil
	}

	if err = db.WithContext(ctx).
		Model(&domain.DeliveryRecord{}).
		Where("delivered = ?", true).
		Count(&delivered).Error; err != nil {
		return 0, 0, nil, err
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = db.WithContext(ctx).
		Model(&domain.DeliveryRecord{}).
		Select("created_at").
		Order("created_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return total, delivered, &row.CreatedAt, nil
}
