// Package domain defines the persistence models for users, offers, the
// delivery ledger, and manual purchases. These types are mapped with GORM
// and form the core data layer of the promo bot.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User is an internal identity record for a Telegram principal. Exactly one
// row exists per distinct Telegram id; the row is created lazily the first
// time the principal interacts with the bot and is never deleted.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - TelegramID: external principal id; immutable and unique.
//   - Username / FirstName / LastName: best-effort display attributes
//     captured at first sight. They are not refreshed on later sightings.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	TelegramID int64     `json:"telegram_id" gorm:"not null;uniqueIndex:ux_users_telegram_id"`
	Username   string    `json:"username"    gorm:"type:varchar(64)"`
	FirstName  string    `json:"first_name"  gorm:"type:varchar(128)"`
	LastName   string    `json:"last_name"   gorm:"type:varchar(128)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Offer is a canonical marketplace listing. Identity is the pair
// (ExternalID, Store): re-ingesting the same pair updates the price fields
// and LastSeen but never creates a second row. Title, URL, image, and
// category keep their insert-time values.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ExternalID: feed-assigned identifier; may be empty when the source
//     record carried none (such records share one identity per store).
//   - Store: source store label; part of the identity key by design, so the
//     same real-world item under two stores is two Offers.
//   - Price / OldPrice: current and reference price in major currency units.
//     OldPrice zero means "no discount context".
//   - LastSeen: when the feed last reported this identity.
type Offer struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	ExternalID string         `json:"external_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_offers_external_store,priority:1"`
	Store      string         `json:"store"       gorm:"type:varchar(128);not null;uniqueIndex:ux_offers_external_store,priority:2"`
	Title      string         `json:"title"       gorm:"type:varchar(512);not null"`
	Price      float64        `json:"price"       gorm:"not null"`
	OldPrice   float64        `json:"old_price"   gorm:"not null;default:0"`
	URL        string         `json:"url"         gorm:"type:text"`
	ImageURL   string         `json:"image_url"   gorm:"type:text"`
	Category   string         `json:"category"    gorm:"type:varchar(128)"`
	LastSeen   time.Time      `json:"last_seen"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Offer.
func (Offer) TableName() string { return "offers" }

// DeliveryRecord audits one notification attempt for an (offer, recipient)
// pair. The ledger is append-only history: a new row is written per attempt,
// never upserted, and rows are never mutated or deleted.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID / OfferID: foreign keys to the recipient and the offer.
//   - Delivered: outcome of the send attempt.
//   - CreatedAt: attempt timestamp, managed by GORM.
type DeliveryRecord struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"   gorm:"type:char(36);not null;index:idx_deliveries_user"`
	OfferID   string    `json:"offer_id"  gorm:"type:char(36);not null;index:idx_deliveries_offer"`
	Delivered bool      `json:"delivered" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	// FK associations; ledger rows go away only if their user/offer row does.
	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Offer Offer `json:"-" gorm:"foreignKey:OfferID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for DeliveryRecord.
func (DeliveryRecord) TableName() string { return "sent_offers" }

// Purchase is a manual expense entry recorded through the /compra command.
// It belongs to the expense-ledger feature and shares only the User table
// with the offer pipeline.
type Purchase struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"       gorm:"type:char(36);not null;index:idx_purchases_user"`
	Amount       float64   `json:"amount"        gorm:"not null"`
	Description  string    `json:"description"   gorm:"type:varchar(500)"`
	PurchaseDate time.Time `json:"purchase_date" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Purchase.
func (Purchase) TableName() string { return "purchases" }
