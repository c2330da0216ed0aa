package services

import (
	"errors"
	"testing"
	"time"

	"neldrac_go/models"
	"neldrac_go/utils"

	"github.com/shopspring/decimal"
)

func TestCanTransitionInvoice(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{models.InvoiceStatusPending, models.InvoiceStatusPaid, true},
		{models.InvoiceStatusPending, models.InvoiceStatusOverdue, true},
		{models.InvoiceStatusPending, models.InvoiceStatusCancelled, true},
		{models.InvoiceStatusOverdue, models.InvoiceStatusPaid, true},
		{models.InvoiceStatusOverdue, models.InvoiceStatusCancelled, true},
		{models.InvoiceStatusOverdue, models.InvoiceStatusPending, false},
		{models.InvoiceStatusPaid, models.InvoiceStatusPending, false},
		{models.InvoiceStatusPaid, models.InvoiceStatusCancelled, false},
		{models.InvoiceStatusCancelled, models.InvoiceStatusPaid, false},
		{models.InvoiceStatusCancelled, models.InvoiceStatusPending, false},
		{models.InvoiceStatusPending, models.InvoiceStatusPending, false},
		{"", models.InvoiceStatusPaid, false},
	}

	for _, tc := range tests {
		if got := CanTransitionInvoice(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransitionInvoice(%q, %q) = %v, expected %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestCanTransitionReceipt(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{models.ReceiptStatusPending, models.ReceiptStatusPartial, true},
		{models.ReceiptStatusPending, models.ReceiptStatusCollected, true},
		{models.ReceiptStatusPending, models.ReceiptStatusCancelled, true},
		{models.ReceiptStatusPartial, models.ReceiptStatusCollected, true},
		{models.ReceiptStatusPartial, models.ReceiptStatusCancelled, true},
		{models.ReceiptStatusPartial, models.ReceiptStatusPending, false},
		{models.ReceiptStatusCollected, models.ReceiptStatusPending, false},
		{models.ReceiptStatusCollected, models.ReceiptStatusCancelled, false},
		{models.ReceiptStatusCancelled, models.ReceiptStatusCollected, false},
		{"", models.ReceiptStatusCollected, false},
	}

	for _, tc := range tests {
		if got := CanTransitionReceipt(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransitionReceipt(%q, %q) = %v, expected %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestReceiptTotal(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		other string
		exp   string
	}{
		{"base only", "18000", "0", "18000"},
		{"base plus other fees", "18000", "2000", "20000"},
		{"fractional amounts round once", "999.995", "0.004", "1000"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := ReceiptTotal(dec(tc.base), dec(tc.other))
			if !got.Equal(dec(tc.exp)) {
				t.Fatalf("expected %s, got %s", tc.exp, got)
			}
		})
	}
}

func TestInvoiceDueDate(t *testing.T) {
	issue := time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		dueDays int
		exp     time.Time
	}{
		{"default thirty days", 30, time.Date(2025, 5, 31, 6, 0, 0, 0, time.UTC)},
		{"short terms", 7, time.Date(2025, 5, 8, 6, 0, 0, 0, time.UTC)},
		{"crosses month boundary", 45, time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := InvoiceDueDate(issue, tc.dueDays); !got.Equal(tc.exp) {
				t.Fatalf("expected %v, got %v", tc.exp, got)
			}
		})
	}
}

func TestInvoiceBillingPeriod(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		exp  string
	}{
		{"pads single digit months", time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC), "2025-05"},
		{"december", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), "2025-12"},
		{"year rollover", time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC), "2026-01"},
	}

	for _, tc := range tests {
		if got := InvoiceBillingPeriod(tc.at); got != tc.exp {
			t.Errorf("InvoiceBillingPeriod(%v) = %q, expected %q", tc.at, got, tc.exp)
		}
	}
}

func TestReceiptChanges(t *testing.T) {
	now := time.Date(2025, 5, 20, 11, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	collector := uint(7)

	decPtr := func(s string) *decimal.Decimal {
		d := dec(s)
		return &d
	}

	tests := []struct {
		name     string
		receipt  models.Receipt
		update   ReceiptUpdate
		actorID  uint
		wantKind utils.ErrorKind
		wantKeys []string
		noKeys   []string
		check    func(t *testing.T, r *models.Receipt, updates map[string]interface{})
	}{
		{
			name: "notes only on a collected receipt keeps the audit trail",
			receipt: models.Receipt{
				Status:          models.ReceiptStatusCollected,
				TotalAmount:     dec("18000"),
				AmountCollected: dec("18000"),
				CollectedBy:     &collector,
				PaymentDate:     &earlier,
			},
			update:   ReceiptUpdate{Notes: "parent confirmed by phone"},
			actorID:  42,
			wantKeys: []string{"notes"},
			noKeys:   []string{"status", "amount_collected", "collected_by", "payment_date"},
			check: func(t *testing.T, r *models.Receipt, updates map[string]interface{}) {
				if r.CollectedBy == nil || *r.CollectedBy != collector {
					t.Fatalf("collected_by changed: %v", r.CollectedBy)
				}
				if r.PaymentDate == nil || !r.PaymentDate.Equal(earlier) {
					t.Fatalf("payment_date changed: %v", r.PaymentDate)
				}
				if !r.AmountCollected.Equal(dec("18000")) {
					t.Fatalf("amount_collected changed: %s", r.AmountCollected)
				}
			},
		},
		{
			name: "payment method only on a collected receipt",
			receipt: models.Receipt{
				Status:          models.ReceiptStatusCollected,
				TotalAmount:     dec("18000"),
				AmountCollected: dec("18000"),
				CollectedBy:     &collector,
				PaymentDate:     &earlier,
			},
			update:   ReceiptUpdate{PaymentMethod: "UPI"},
			actorID:  42,
			wantKeys: []string{"payment_method"},
			noKeys:   []string{"collected_by", "payment_date", "amount_collected"},
		},
		{
			name:     "pending to collected defaults to the full amount",
			receipt:  models.Receipt{Status: models.ReceiptStatusPending, TotalAmount: dec("18000")},
			update:   ReceiptUpdate{Status: models.ReceiptStatusCollected},
			actorID:  42,
			wantKeys: []string{"status", "amount_collected", "collected_by", "payment_date"},
			check: func(t *testing.T, r *models.Receipt, updates map[string]interface{}) {
				if !r.AmountCollected.Equal(dec("18000")) {
					t.Fatalf("expected full amount, got %s", r.AmountCollected)
				}
				if r.CollectedBy == nil || *r.CollectedBy != 42 {
					t.Fatalf("expected collector 42, got %v", r.CollectedBy)
				}
				if r.PaymentDate == nil || !r.PaymentDate.Equal(now) {
					t.Fatalf("expected payment date %v, got %v", now, r.PaymentDate)
				}
			},
		},
		{
			name:     "collected amount above the total is rejected",
			receipt:  models.Receipt{Status: models.ReceiptStatusPending, TotalAmount: dec("18000")},
			update:   ReceiptUpdate{Status: models.ReceiptStatusCollected, AmountCollected: decPtr("18001")},
			actorID:  42,
			wantKind: utils.ErrValidation,
		},
		{
			name:     "pending to partial without an amount is rejected",
			receipt:  models.Receipt{Status: models.ReceiptStatusPending, TotalAmount: dec("18000")},
			update:   ReceiptUpdate{Status: models.ReceiptStatusPartial},
			actorID:  42,
			wantKind: utils.ErrValidation,
		},
		{
			name:     "pending to partial records the amount",
			receipt:  models.Receipt{Status: models.ReceiptStatusPending, TotalAmount: dec("18000")},
			update:   ReceiptUpdate{Status: models.ReceiptStatusPartial, AmountCollected: decPtr("5000")},
			actorID:  42,
			wantKeys: []string{"status", "amount_collected"},
			noKeys:   []string{"collected_by"},
		},
		{
			name: "amount against an already partial receipt is a top-up",
			receipt: models.Receipt{
				Status:          models.ReceiptStatusPartial,
				TotalAmount:     dec("18000"),
				AmountCollected: dec("5000"),
			},
			update:   ReceiptUpdate{AmountCollected: decPtr("9000")},
			actorID:  42,
			wantKeys: []string{"amount_collected"},
			noKeys:   []string{"status", "collected_by", "payment_date"},
			check: func(t *testing.T, r *models.Receipt, updates map[string]interface{}) {
				if !r.AmountCollected.Equal(dec("9000")) {
					t.Fatalf("expected 9000 collected, got %s", r.AmountCollected)
				}
			},
		},
		{
			name: "partial amount reaching the total is rejected",
			receipt: models.Receipt{
				Status:          models.ReceiptStatusPartial,
				TotalAmount:     dec("18000"),
				AmountCollected: dec("5000"),
			},
			update:   ReceiptUpdate{AmountCollected: decPtr("18000")},
			actorID:  42,
			wantKind: utils.ErrValidation,
		},
		{
			name:     "collected back to pending is a conflict",
			receipt:  models.Receipt{Status: models.ReceiptStatusCollected, TotalAmount: dec("18000")},
			update:   ReceiptUpdate{Status: models.ReceiptStatusPending},
			actorID:  42,
			wantKind: utils.ErrConflict,
		},
		{
			name:    "empty update yields no changes",
			receipt: models.Receipt{Status: models.ReceiptStatusPending, TotalAmount: dec("18000")},
			update:  ReceiptUpdate{},
			actorID: 42,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			updates, err := receiptChanges(&tc.receipt, tc.update, tc.actorID, now)
			if tc.wantKind != "" {
				var appErr *utils.AppError
				if !errors.As(err, &appErr) || appErr.Kind != tc.wantKind {
					t.Fatalf("expected %s error, got %v", tc.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tc.wantKeys) == 0 && len(tc.noKeys) == 0 && len(updates) != 0 {
				t.Fatalf("expected no updates, got %v", updates)
			}
			for _, key := range tc.wantKeys {
				if _, ok := updates[key]; !ok {
					t.Fatalf("expected update for %q, got %v", key, updates)
				}
			}
			for _, key := range tc.noKeys {
				if _, ok := updates[key]; ok {
					t.Fatalf("unexpected update for %q: %v", key, updates[key])
				}
			}
			if tc.check != nil {
				tc.check(t, &tc.receipt, updates)
			}
		})
	}
}

func TestDaysOverdue(t *testing.T) {
	today := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		exp  int
	}{
		{"ten days late", time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC), 10},
		{"one day late", time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC), 1},
		{"due today is not overdue", today, 0},
		{"future due date is not overdue", time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysOverdue(tc.due, today); got != tc.exp {
				t.Fatalf("expected %d days overdue, got %d", tc.exp, got)
			}
		})
	}
}
