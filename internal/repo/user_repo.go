// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - EnsureUser(ctx, db, telegramID, username, firstName, lastName) -> *domain.User, error
//     Returns the user for a Telegram principal, inserting it on first sight.
//
//   - GetUserByTelegramID(ctx, db, telegramID) -> *domain.User, error
//     Fetches a single user by Telegram id, or ErrNotFound if missing.
//
//   - ListUsers(ctx, db) -> []domain.User, error
//     Returns all registered users ordered by creation time.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// EnsureUser resolves a Telegram principal to its internal User row,
// creating the row on first sight.
//
// Lookup is by telegram_id only. When the row already exists it is returned
// unchanged: display attributes are not refreshed even if they changed
// upstream. When missing, a new row is inserted with the provided display
// attributes and a fresh UUID.
//
// The users table carries a unique index on telegram_id, so a concurrent
// insert of the same principal loses the race with a duplicate-key error;
// in that case the existing row is re-read and returned, preserving the
// one-user-per-principal invariant without application-level locking.
func EnsureUser(ctx context.Context, db *gorm.DB, telegramID int64, username, firstName, lastName string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	nu := &domain.User{
		ID:         uuid.NewString(),
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(nu).Error; err != nil {
		// Lost a check-then-insert race: another request created the row
		// between our lookup and insert. Re-read and return the winner.
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			var existing domain.User
			if rerr := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&existing).Error; rerr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return nu, nil
}

// GetUserByTelegramID fetches a single user by its Telegram id. If the record
// does not exist, it returns ErrNotFound. On other DB errors, the raw error
// is returned.
func GetUserByTelegramID(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every registered user ordered by creation time ascending.
// The broadcast dispatcher loads this list once per broadcast call.
func ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).Order("created_at asc").Find(&out).Error
	return out, err
}

// isUniqueViolation attempts to detect unique-constraint violations across
// drivers that may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
