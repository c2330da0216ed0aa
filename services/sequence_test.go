package services

import (
	"testing"
	"time"
)

func TestCurrentBucket(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		exp  string
	}{
		{"mid year", time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC), "2505"},
		{"january", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2601"},
		{"december", time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), "2412"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := CurrentBucket(tc.at); got != tc.exp {
				t.Fatalf("expected bucket %s, got %s", tc.exp, got)
			}
		})
	}
}

func TestFormatCode(t *testing.T) {
	tests := []struct {
		name   string
		series SequenceSeries
		bucket string
		serial int
		exp    string
	}{
		{"first student of the month", SeriesStudent, "2505", 1, "NKD2505001"},
		{"student serial is three wide", SeriesStudent, "2505", 42, "NKD2505042"},
		{"student serial past width is not truncated", SeriesStudent, "2505", 1234, "NKD25051234"},
		{"invoice serial is four wide", SeriesInvoice, "2505", 1, "INV25050001"},
		{"receipt serial is four wide", SeriesReceipt, "2601", 207, "RCP26010207"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatCode(tc.series, tc.bucket, tc.serial); got != tc.exp {
				t.Fatalf("expected %s, got %s", tc.exp, got)
			}
		})
	}
}

func TestParseSerial(t *testing.T) {
	tests := []struct {
		name    string
		series  SequenceSeries
		code    string
		exp     int
		wantErr bool
	}{
		{"student round trip", SeriesStudent, "NKD2505001", 1, false},
		{"invoice round trip", SeriesInvoice, "INV25050042", 42, false},
		{"receipt round trip", SeriesReceipt, "RCP26010207", 207, false},
		{"too short", SeriesStudent, "NKD", 0, true},
		{"non-numeric serial", SeriesStudent, "NKD2505abc", 0, true},
		{"empty", SeriesInvoice, "", 0, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSerial(tc.series, tc.code)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.exp {
				t.Fatalf("expected serial %d, got %d", tc.exp, got)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	bucket := CurrentBucket(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	for serial := 1; serial <= 3; serial++ {
		code := FormatCode(SeriesInvoice, bucket, serial)
		parsed, err := ParseSerial(SeriesInvoice, code)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", code, err)
		}
		if parsed != serial {
			t.Fatalf("round trip lost the serial: wrote %d, read %d", serial, parsed)
		}
	}
}
