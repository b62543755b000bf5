package services

import (
	"context"
	"errors"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
	"github.com/dfcarvalho/go-promo-bot/internal/feed"
	"github.com/dfcarvalho/go-promo-bot/internal/repo"
)

func newServiceDB(t *testing.T, name string, migrate ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// fakeSender records every send and fails the chat ids listed in failFor.
type fakeSender struct {
	sent    []sentCall
	failFor map[int64]bool
}

type sentCall struct {
	chatID int64
	text   string
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, sentCall{chatID: chatID, text: text})
	if f.failFor[chatID] {
		return errors.New("chat blocked")
	}
	return nil
}

func seedOffers(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := db.Create(&domain.Offer{ID: id, ExternalID: id, Store: "s"}).Error; err != nil {
			t.Fatalf("seed offer %s: %v", id, err)
		}
	}
}

func seedUsers(t *testing.T, db *gorm.DB, telegramIDs ...int64) []string {
	t.Helper()
	ids := make([]string, 0, len(telegramIDs))
	for _, tid := range telegramIDs {
		u, err := repo.EnsureUser(context.Background(), db, tid, "", "", "")
		if err != nil {
			t.Fatalf("seed user %d: %v", tid, err)
		}
		ids = append(ids, u.ID)
	}
	return ids
}

func TestBroadcast_EmptyBatchIsNoOp(t *testing.T) {
	db := newServiceDB(t, "bcastempty", &domain.User{}, &domain.DeliveryRecord{})
	seedUsers(t, db, 1)

	sender := &fakeSender{}
	svc := &BroadcastService{DB: db, Sender: sender}
	res, err := svc.Broadcast(context.Background(), nil)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if res.Attempted != 0 || len(sender.sent) != 0 {
		t.Fatalf("no-op broadcast made attempts: %+v", res)
	}
}

func TestBroadcast_NoRecipientsIsNoOp(t *testing.T) {
	db := newServiceDB(t, "bcastnousers", &domain.User{}, &domain.DeliveryRecord{})

	sender := &fakeSender{}
	svc := &BroadcastService{DB: db, Sender: sender}
	res, err := svc.Broadcast(context.Background(), []StoredOffer{{ID: "o1", Offer: feed.Candidate{Title: "x"}}})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if res.Recipients != 0 || res.Attempted != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestBroadcast_OneAttemptPerRecipientPerOffer(t *testing.T) {
	db := newServiceDB(t, "bcastfan", &domain.User{}, &domain.Offer{}, &domain.DeliveryRecord{})
	seedUsers(t, db, 10, 20)
	seedOffers(t, db, "o1", "o2")

	sender := &fakeSender{}
	svc := &BroadcastService{DB: db, Sender: sender}
	offers := []StoredOffer{
		{ID: "o1", Offer: feed.Candidate{Title: "A", Price: 1}},
		{ID: "o2", Offer: feed.Candidate{Title: "B", Price: 2}},
	}
	res, err := svc.Broadcast(context.Background(), offers)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if res.Attempted != 4 || res.Delivered != 4 || res.Failed != 0 {
		t.Fatalf("result = %+v, want 4 delivered attempts", res)
	}

	var count int64
	db.Model(&domain.DeliveryRecord{}).Count(&count)
	if count != 4 {
		t.Fatalf("ledger rows = %d, want 4", count)
	}
}

func TestBroadcast_FailureDoesNotStopRemainingRecipients(t *testing.T) {
	db := newServiceDB(t, "bcastisolate", &domain.User{}, &domain.Offer{}, &domain.DeliveryRecord{})
	seedUsers(t, db, 1, 2, 3)
	seedOffers(t, db, "o1")

	sender := &fakeSender{failFor: map[int64]bool{2: true}}
	svc := &BroadcastService{DB: db, Sender: sender}
	res, err := svc.Broadcast(context.Background(), []StoredOffer{
		{ID: "o1", Offer: feed.Candidate{Title: "A", Price: 1}},
	})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if res.Attempted != 3 || res.Delivered != 2 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
	// All three recipients were actually attempted despite the middle failure.
	if len(sender.sent) != 3 {
		t.Fatalf("sends = %d, want 3", len(sender.sent))
	}

	rows, err := repo.ListDeliveriesForOffer(context.Background(), db, "o1")
	if err != nil {
		t.Fatalf("ledger read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("ledger rows = %d, want 3 (failures included)", len(rows))
	}
	var failed int
	for _, r := range rows {
		if !r.Delivered {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("failed ledger rows = %d, want 1", failed)
	}
}

func TestRenderOfferMessage(t *testing.T) {
	cases := []struct {
		name string
		in   feed.Candidate
		want string
	}{
		{
			"title and price only",
			feed.Candidate{Title: "Phone", Price: 1999.00},
			"Phone\nPreço: R$1999.00",
		},
		{
			"discount shown when reference exceeds current",
			feed.Candidate{Title: "Phone", Price: 1899.00, OldPrice: 1999.00, URL: "http://x/1"},
			"Phone\nPreço: R$1899.00 (De R$1999.00)\nhttp://x/1",
		},
		{
			"no discount line when reference is lower",
			feed.Candidate{Title: "Phone", Price: 1999.00, OldPrice: 250.0, URL: "http://x/1"},
			"Phone\nPreço: R$1999.00\nhttp://x/1",
		},
		{
			"no discount line when reference equals current",
			feed.Candidate{Title: "Phone", Price: 100, OldPrice: 100},
			"Phone\nPreço: R$100.00",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderOfferMessage(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
