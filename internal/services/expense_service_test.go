package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
)

func TestAddPurchase_MissingAmount(t *testing.T) {
	db := newServiceDB(t, "expensemissing", &domain.User{}, &domain.Purchase{})
	svc := &ExpenseService{DB: db}

	_, err := svc.AddPurchase(context.Background(), Principal{TelegramID: 1}, nil)
	if !errors.Is(err, ErrMissingAmount) {
		t.Fatalf("err = %v, want ErrMissingAmount", err)
	}
}

func TestAddPurchase_InvalidAmount(t *testing.T) {
	db := newServiceDB(t, "expenseinvalid", &domain.User{}, &domain.Purchase{})
	svc := &ExpenseService{DB: db}

	for _, arg := range []string{"abc", "12.3.4", ""} {
		_, err := svc.AddPurchase(context.Background(), Principal{TelegramID: 1}, []string{arg})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("args[0]=%q: err = %v, want ErrInvalidAmount", arg, err)
		}
	}
}

func TestAddPurchase_AcceptsDecimalComma(t *testing.T) {
	db := newServiceDB(t, "expensecomma", &domain.User{}, &domain.Purchase{})
	svc := &ExpenseService{DB: db}

	p, err := svc.AddPurchase(context.Background(), Principal{TelegramID: 1}, []string{"12,50", "almoço"})
	if err != nil {
		t.Fatalf("AddPurchase: %v", err)
	}
	if p.Amount != 12.50 || p.Description != "almoço" {
		t.Fatalf("purchase = %+v", p)
	}
}

func TestAddPurchase_CapsDescription(t *testing.T) {
	db := newServiceDB(t, "expensecap", &domain.User{}, &domain.Purchase{})
	svc := &ExpenseService{DB: db}

	long := strings.Repeat("é", 600)
	p, err := svc.AddPurchase(context.Background(), Principal{TelegramID: 1}, []string{"10", long})
	if err != nil {
		t.Fatalf("AddPurchase: %v", err)
	}
	if n := utf8.RuneCountInString(p.Description); n != 500 {
		t.Fatalf("description runes = %d, want 500", n)
	}
}

func TestAddPurchase_CreatesUserLazily(t *testing.T) {
	db := newServiceDB(t, "expenselazy", &domain.User{}, &domain.Purchase{})
	svc := &ExpenseService{DB: db}

	if _, err := svc.AddPurchase(context.Background(), Principal{TelegramID: 77, Username: "dana"}, []string{"5"}); err != nil {
		t.Fatalf("AddPurchase: %v", err)
	}
	var count int64
	db.Model(&domain.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("users = %d, want 1", count)
	}
}

func TestSummary_TotalsAcrossEntries(t *testing.T) {
	db := newServiceDB(t, "expensesummary", &domain.User{}, &domain.Purchase{})
	svc := &ExpenseService{DB: db}
	ctx := context.Background()
	p := Principal{TelegramID: 5}

	total, err := svc.Summary(ctx, p)
	if err != nil || total != 0 {
		t.Fatalf("empty summary = %v, %v", total, err)
	}

	for _, amt := range []string{"10,50", "4.25"} {
		if _, err := svc.AddPurchase(ctx, p, []string{amt}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	total, err = svc.Summary(ctx, p)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if total != 14.75 {
		t.Fatalf("total = %v, want 14.75", total)
	}
}

func TestRegister_IsIdempotent(t *testing.T) {
	db := newServiceDB(t, "registeridem", &domain.User{})
	svc := &RegisterService{DB: db}
	ctx := context.Background()
	p := Principal{TelegramID: 9, Username: "eve", FirstName: "Eve"}

	first, err := svc.Register(ctx, p)
	if err != nil {
		t.Fatalf("first Register: %v", err)
	}
	second, err := svc.Register(ctx, p)
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %q vs %q", first.ID, second.ID)
	}
	var count int64
	db.Model(&domain.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("users = %d, want 1", count)
	}
}
