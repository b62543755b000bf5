// Package services – RegisterService
//
// Recipient registry: resolves a Telegram principal to an internal user,
// creating it on first sight. Registration is idempotent; repeated /start
// commands from the same principal always resolve to the same user row.
package services

import (
	"context"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
	"github.com/dfcarvalho/go-promo-bot/internal/repo"
)

// Principal is the external identity of an inbound Telegram user, with
// best-effort display attributes.
type Principal struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// RegisterService implements the recipient registry use-cases.
type RegisterService struct {
	DB *gorm.DB
}

// Register ensures principal has a User row and returns it. Display
// attributes are only captured on first sight; later changes upstream are
// not backfilled here.
func (s *RegisterService) Register(ctx context.Context, p Principal) (*domain.User, error) {
	tr := otel.Tracer("services/RegisterService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(attribute.Int64("telegram.id", p.TelegramID)),
	)
	defer span.End()

	return repo.EnsureUser(ctx, s.DB, p.TelegramID, p.Username, p.FirstName, p.LastName)
}
