package repo

import (
	"context"
	"testing"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
	"gorm.io/gorm"
)

// seedLedgerParents creates user and offer rows so ledger inserts hold up
// even with FK enforcement on.
func seedLedgerParents(t *testing.T, db *gorm.DB, userIDs, offerIDs []string) {
	t.Helper()
	for _, id := range userIDs {
		var tid int64
		for _, b := range []byte(id) {
			tid = tid*131 + int64(b)
		}
		if err := db.Create(&domain.User{ID: id, TelegramID: tid}).Error; err != nil {
			t.Fatalf("seed user %s: %v", id, err)
		}
	}
	for _, id := range offerIDs {
		if err := db.Create(&domain.Offer{ID: id, ExternalID: id, Store: "s"}).Error; err != nil {
			t.Fatalf("seed offer %s: %v", id, err)
		}
	}
}

func TestAppendDelivery_IsAppendOnly(t *testing.T) {
	db := newTestDB(t, "deliveryappend", &domain.User{}, &domain.Offer{}, &domain.DeliveryRecord{})
	ctx := context.Background()
	seedLedgerParents(t, db, []string{"u1"}, []string{"o1"})

	// The same pair may be attempted again in a later cycle: both attempts
	// must survive as distinct rows.
	if err := AppendDelivery(ctx, db, "u1", "o1", false); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if err := AppendDelivery(ctx, db, "u1", "o1", true); err != nil {
		t.Fatalf("second attempt: %v", err)
	}

	rows, err := ListDeliveriesForOffer(ctx, db, "o1")
	if err != nil {
		t.Fatalf("ListDeliveriesForOffer: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Delivered || !rows[1].Delivered {
		t.Fatalf("outcomes not preserved in order: %+v", rows)
	}
}

func TestListDeliveriesForOffer_FiltersByOffer(t *testing.T) {
	db := newTestDB(t, "deliveryfilter", &domain.User{}, &domain.Offer{}, &domain.DeliveryRecord{})
	ctx := context.Background()
	seedLedgerParents(t, db, []string{"u1"}, []string{"o1", "o2"})

	_ = AppendDelivery(ctx, db, "u1", "o1", true)
	_ = AppendDelivery(ctx, db, "u1", "o2", true)

	rows, err := ListDeliveriesForOffer(ctx, db, "o2")
	if err != nil {
		t.Fatalf("ListDeliveriesForOffer: %v", err)
	}
	if len(rows) != 1 || rows[0].OfferID != "o2" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestDeliveryStats(t *testing.T) {
	db := newTestDB(t, "deliverystats", &domain.User{}, &domain.Offer{}, &domain.DeliveryRecord{})
	ctx := context.Background()

	total, delivered, last, err := DeliveryStats(ctx, db)
	if err != nil {
		t.Fatalf("empty stats: %v", err)
	}
	if total != 0 || delivered != 0 || last != nil {
		t.Fatalf("empty ledger stats = %d/%d/%v", total, delivered, last)
	}

	seedLedgerParents(t, db, []string{"u1", "u2", "u3"}, []string{"o1"})
	_ = AppendDelivery(ctx, db, "u1", "o1", true)
	_ = AppendDelivery(ctx, db, "u2", "o1", false)
	_ = AppendDelivery(ctx, db, "u3", "o1", true)

	total, delivered, last, err = DeliveryStats(ctx, db)
	if err != nil {
		t.Fatalf("DeliveryStats: %v", err)
	}
	if total != 3 || delivered != 2 {
		t.Fatalf("stats = %d/%d, want 3/2", total, delivered)
	}
	if last == nil || last.IsZero() {
		t.Fatalf("last attempt missing: %v", last)
	}
}
