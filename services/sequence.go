package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"neldrac_go/models"
	"neldrac_go/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceSeries describes one logical code series. Codes look like
// PREFIX + YYMM + zero-padded serial (NKD2505001, INV25050001); the
// serial restarts at 1 every month.
type SequenceSeries struct {
	Name        string
	Prefix      string
	SerialWidth int

	// Legacy table/column scanned to seed a counter the first time a
	// bucket is used, so codes continue from rows issued before the
	// counter table existed.
	legacyTable  string
	legacyColumn string
}

var (
	SeriesStudent = SequenceSeries{Name: "student", Prefix: "NKD", SerialWidth: 3, legacyTable: "children", legacyColumn: "student_id"}
	SeriesInvoice = SequenceSeries{Name: "invoice", Prefix: "INV", SerialWidth: 4, legacyTable: "invoices", legacyColumn: "invoice_number"}
	SeriesReceipt = SequenceSeries{Name: "receipt", Prefix: "RCP", SerialWidth: 4, legacyTable: "receipts", legacyColumn: "receipt_number"}
)

// CurrentBucket returns the YYMM bucket for a point in time.
func CurrentBucket(t time.Time) string {
	return t.Format("0601")
}

// FormatCode composes the full human-readable code.
func FormatCode(series SequenceSeries, bucket string, serial int) string {
	return fmt.Sprintf("%s%s%0*d", series.Prefix, bucket, series.SerialWidth, serial)
}

// ParseSerial extracts the trailing numeric serial from a code of the
// given series. Used when seeding a counter from legacy rows.
func ParseSerial(series SequenceSeries, code string) (int, error) {
	if len(code) <= series.SerialWidth {
		return 0, fmt.Errorf("code %q too short for series %s", code, series.Name)
	}
	serial, err := strconv.Atoi(code[len(code)-series.SerialWidth:])
	if err != nil {
		return 0, fmt.Errorf("code %q has a non-numeric serial: %w", code, err)
	}
	return serial, nil
}

// NextCode allocates the next code in the series for the current bucket.
// It must be called inside the same transaction that inserts the row the
// code identifies: the counter row is read FOR UPDATE, so two concurrent
// allocations serialize on the row lock and cannot observe the same
// serial. The naive read-max-then-insert approach is kept only as the
// one-time seed for buckets that predate the counter table.
func NextCode(tx *gorm.DB, series SequenceSeries, now time.Time) (string, error) {
	bucket := CurrentBucket(now)

	var counter models.SequenceCounter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("series = ? AND bucket = ?", series.Name, bucket).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed, seedErr := legacyMaxSerial(tx, series, bucket)
		if seedErr != nil {
			return "", seedErr
		}
		counter = models.SequenceCounter{Series: series.Name, Bucket: bucket, LastSerial: seed}
		if createErr := tx.Create(&counter).Error; createErr != nil {
			// Lost the insert race against a concurrent first
			// allocation for this bucket; lock the winner's row.
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("series = ? AND bucket = ?", series.Name, bucket).
				First(&counter).Error
			if err != nil {
				return "", utils.NewInternalError("failed to acquire sequence counter", err)
			}
		}
	} else if err != nil {
		return "", utils.NewInternalError("failed to read sequence counter", err)
	}

	counter.LastSerial++
	if err := tx.Model(&models.SequenceCounter{}).
		Where("id = ?", counter.ID).
		Update("last_serial", counter.LastSerial).Error; err != nil {
		return "", utils.NewInternalError("failed to advance sequence counter", err)
	}

	return FormatCode(series, bucket, counter.LastSerial), nil
}

// legacyMaxSerial finds the highest serial already persisted for the
// bucket in the series' owning table.
func legacyMaxSerial(tx *gorm.DB, series SequenceSeries, bucket string) (int, error) {
	prefix := series.Prefix + bucket
	var codes []string
	err := tx.Table(series.legacyTable).
		Where(series.legacyColumn+" LIKE ?", prefix+"%").
		Order(series.legacyColumn + " DESC").
		Limit(1).
		Pluck(series.legacyColumn, &codes).Error
	if err != nil {
		return 0, utils.NewInternalError("failed to scan legacy codes", err)
	}
	if len(codes) == 0 || codes[0] == "" {
		return 0, nil
	}
	serial, err := ParseSerial(series, codes[0])
	if err != nil {
		// Malformed legacy data; start the counter fresh rather than
		// blocking every new allocation for the month.
		return 0, nil
	}
	return serial, nil
}
