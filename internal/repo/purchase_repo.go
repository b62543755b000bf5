// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Purchase
// model (manual expense entries).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
)

// CreatePurchase inserts a new expense entry for userID dated day.
//
// Amount validation (positive, parseable) is expected to be enforced at the
// service layer. On success, it returns the persisted Purchase.
func CreatePurchase(ctx context.Context, db *gorm.DB, userID string, amount float64, description string, day time.Time) (*domain.Purchase, error) {
	p := &domain.Purchase{
		ID:           uuid.NewString(),
		UserID:       userID,
		Amount:       amount,
		Description:  description,
		PurchaseDate: day,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// SumPurchases returns the total amount spent by userID across all entries.
// A user with no purchases totals 0.
func SumPurchases(ctx context.Context, db *gorm.DB, userID string) (float64, error) {
	var row struct {
		Total float64
	}
	err := db.WithContext(ctx).
		Model(&domain.Purchase{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Scan(&row).Error
	return row.Total, err
}
