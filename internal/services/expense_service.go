// Package services – ExpenseService
//
// Manual expense ledger behind the /compra and /relatorio commands. This
// feature is unrelated to the offer pipeline and shares only the user
// registry with it. Input validation happens here so the webhook handler can
// map sentinel errors straight to reply texts.
package services

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
	"github.com/dfcarvalho/go-promo-bot/internal/repo"
)

// maxDescriptionRunes caps the free-text description of a purchase.
const maxDescriptionRunes = 500

// ExpenseService implements the expense-ledger use-cases.
type ExpenseService struct {
	DB *gorm.DB
}

// AddPurchase records an expense for principal from raw command arguments.
//
// args is the tokenized command tail: the first token is the amount (a
// decimal comma is accepted, "12,50" == "12.50"), the rest is an optional
// description capped at 500 runes.
//
// Errors:
//   - ErrMissingAmount when args is empty.
//   - ErrInvalidAmount when the amount does not parse.
//   - Underlying DB errors otherwise.
func (s *ExpenseService) AddPurchase(ctx context.Context, p Principal, args []string) (*domain.Purchase, error) {
	if len(args) < 1 {
		return nil, ErrMissingAmount
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	desc := strings.Join(args[1:], " ")
	if utf8.RuneCountInString(desc) > maxDescriptionRunes {
		desc = string([]rune(desc)[:maxDescriptionRunes])
	}

	u, err := repo.EnsureUser(ctx, s.DB, p.TelegramID, p.Username, p.FirstName, p.LastName)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	return repo.CreatePurchase(ctx, s.DB, u.ID, amount, desc, today)
}

// Summary returns the total amount spent by principal, ensuring the user
// exists first (any command creates the user lazily). A principal with no
// purchases totals 0.
func (s *ExpenseService) Summary(ctx context.Context, p Principal) (float64, error) {
	u, err := repo.EnsureUser(ctx, s.DB, p.TelegramID, p.Username, p.FirstName, p.LastName)
	if err != nil {
		return 0, err
	}
	return repo.SumPurchases(ctx, s.DB, u.ID)
}
