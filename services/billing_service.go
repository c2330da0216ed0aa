package services

import (
	"errors"
	"fmt"
	"time"

	"neldrac_go/database"
	"neldrac_go/models"
	"neldrac_go/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillingService issues monthly invoices for invoice-mode children and
// manages cash receipts for cash-mode children.
type BillingService struct {
	// DueDays is added to the issue date to produce the invoice due date.
	DueDays int
}

func NewBillingService(dueDays int) *BillingService {
	if dueDays <= 0 {
		dueDays = 30
	}
	return &BillingService{DueDays: dueDays}
}

// InvoiceBatchReport summarizes one monthly generation run. Errors are
// per-child: one bad record never aborts the batch.
type InvoiceBatchReport struct {
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// invoiceCandidate is one eligible child row with its billing inputs,
// produced by the eligibility join.
type invoiceCandidate struct {
	ChildID        string
	FirstName      string
	LastName       string
	CenterID       uint
	FeeStructureID string
	ProgramName    string
	MonthlyFee     decimal.Decimal
	ParentName     string
	ParentPhone    string
	ParentEmail    string
}

// GenerateMonthlyInvoices creates one invoice per eligible child for the
// month containing now. Eligible means: active, payment mode Invoice,
// enrolled on or before today, with an active Monthly fee structure on
// the child's classroom. Children already invoiced this month are
// skipped. Concurrent batch runs cannot double-issue: the unique index
// on (child, billing period) makes the insert itself the arbiter, and a
// duplicate-key failure is counted as a skip. The pre-insert existence
// read is only a fast path; under REPEATABLE READ its snapshot can miss
// a row committed by a concurrent run.
func (s *BillingService) GenerateMonthlyInvoices(centerID uint, now time.Time) (*InvoiceBatchReport, error) {
	report := &InvoiceBatchReport{Errors: []string{}}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var candidates []invoiceCandidate
		err := tx.Table("children").
			Select(`children.id AS child_id,
				children.first_name,
				children.last_name,
				children.center_id,
				fee_structures.id AS fee_structure_id,
				fee_structures.program_name,
				fee_structures.monthly_fee,
				CONCAT(parents.first_name, ' ', parents.last_name) AS parent_name,
				parents.phone_number AS parent_phone,
				parents.email AS parent_email`).
			Joins(`JOIN fee_structures ON fee_structures.classroom_id = children.classroom_id
				AND fee_structures.is_active = true
				AND fee_structures.billing_frequency = ?`, FrequencyMonthly).
			Joins(`JOIN parent_child_links ON parent_child_links.child_id = children.id
				AND parent_child_links.is_primary = true
				AND parent_child_links.deleted_at IS NULL`).
			Joins("JOIN parents ON parents.id = parent_child_links.parent_id").
			Where("children.center_id = ?", centerID).
			Where("children.status = ?", "active").
			Where("children.payment_mode = ?", models.PaymentModeInvoice).
			Where("children.enrollment_date <= ?", now).
			Where("children.deleted_at IS NULL").
			Scan(&candidates).Error
		if err != nil {
			return utils.NewInternalError("failed to load invoice candidates", err)
		}

		for _, cand := range candidates {
			if err := s.issueInvoice(tx, cand, now); err != nil {
				var appErr *utils.AppError
				if errors.As(err, &appErr) && appErr.Kind == utils.ErrConflict {
					report.Skipped++
					continue
				}
				report.Errors = append(report.Errors,
					fmt.Sprintf("child %s %s (%s): %v", cand.FirstName, cand.LastName, cand.ChildID, err))
				continue
			}
			report.Generated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"center_id": centerID,
		"generated": report.Generated,
		"skipped":   report.Skipped,
		"errors":    len(report.Errors),
	}).Info("Monthly invoice batch completed")
	return report, nil
}

// issueInvoice creates one invoice plus its tuition line item, unless
// one already exists for the child this billing period.
func (s *BillingService) issueInvoice(tx *gorm.DB, cand invoiceCandidate, now time.Time) error {
	period := InvoiceBillingPeriod(now)

	var count int64
	err := tx.Model(&models.Invoice{}).
		Where("child_id = ? AND billing_period = ?", cand.ChildID, period).
		Count(&count).Error
	if err != nil {
		return utils.NewInternalError("failed to check existing invoices", err)
	}
	if count > 0 {
		return utils.NewConflictError("invoice already issued this month")
	}

	number, err := NextCode(tx, SeriesInvoice, now)
	if err != nil {
		return err
	}

	amount := cand.MonthlyFee.Round(2)
	invoice := models.Invoice{
		InvoiceNumber: number,
		ChildID:       cand.ChildID,
		CenterID:      cand.CenterID,
		BillingPeriod: &period,
		ParentName:    cand.ParentName,
		ParentPhone:   cand.ParentPhone,
		ParentEmail:   cand.ParentEmail,
		IssueDate:     now,
		DueDate:       InvoiceDueDate(now, s.DueDays),
		TotalAmount:   amount,
		Status:        models.InvoiceStatusPending,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		// A concurrent run inserted the same (child, period) after our
		// snapshot was taken; the unique index catches what the
		// existence read could not see.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.NewConflictError("invoice already issued this month")
		}
		return utils.NewInternalError("failed to create invoice", err)
	}

	item := models.InvoiceLineItem{
		InvoiceID:      invoice.ID,
		Description:    fmt.Sprintf("%s tuition for %s", cand.ProgramName, now.Format("January 2006")),
		Quantity:       1,
		UnitPrice:      amount,
		TotalPrice:     amount,
		FeeStructureID: cand.FeeStructureID,
	}
	if err := tx.Create(&item).Error; err != nil {
		return utils.NewInternalError("failed to create invoice line item", err)
	}
	return nil
}

// InvoiceDueDate derives the due date from the issue date.
func InvoiceDueDate(issue time.Time, dueDays int) time.Time {
	return issue.AddDate(0, 0, dueDays)
}

// InvoiceBillingPeriod is the canonical YYYY-MM key for the month an
// invoice covers.
func InvoiceBillingPeriod(t time.Time) string {
	return t.Format("2006-01")
}

// CanTransitionInvoice is the invoice status transition table. Paid and
// Cancelled are terminal.
func CanTransitionInvoice(from, to string) bool {
	switch from {
	case models.InvoiceStatusPending:
		return to == models.InvoiceStatusPaid || to == models.InvoiceStatusOverdue || to == models.InvoiceStatusCancelled
	case models.InvoiceStatusOverdue:
		return to == models.InvoiceStatusPaid || to == models.InvoiceStatusCancelled
	}
	return false
}

// CanTransitionReceipt is the receipt status transition table. Collected
// and Cancelled are terminal.
func CanTransitionReceipt(from, to string) bool {
	switch from {
	case models.ReceiptStatusPending:
		return to == models.ReceiptStatusPartial || to == models.ReceiptStatusCollected || to == models.ReceiptStatusCancelled
	case models.ReceiptStatusPartial:
		return to == models.ReceiptStatusCollected || to == models.ReceiptStatusCancelled
	}
	return false
}

// UpdateInvoiceStatus moves an invoice along the transition table. The
// row is locked so two concurrent updates serialize and the second sees
// the first's result.
func (s *BillingService) UpdateInvoiceStatus(invoiceID string, newStatus string, centerID uint, isSuperAdmin bool) (*models.Invoice, error) {
	var invoice models.Invoice
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", invoiceID).
			First(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Invoice not found")
			}
			return utils.NewInternalError("failed to load invoice", err)
		}
		if !isSuperAdmin && invoice.CenterID != centerID {
			return utils.NewAccessDeniedError("Invoice belongs to a different center")
		}
		if !CanTransitionInvoice(invoice.Status, newStatus) {
			return utils.NewConflictError(
				fmt.Sprintf("cannot move invoice from %s to %s", invoice.Status, newStatus))
		}
		updates := map[string]interface{}{"status": newStatus}
		if newStatus == models.InvoiceStatusCancelled {
			// Release the period so a corrected invoice can be issued
			updates["billing_period"] = nil
			invoice.BillingPeriod = nil
		}
		if err := tx.Model(&invoice).Updates(updates).Error; err != nil {
			return utils.NewInternalError("failed to update invoice status", err)
		}
		invoice.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ReceiptInput is the payload for creating a cash receipt.
type ReceiptInput struct {
	ChildID            string           `json:"child_id" validate:"required"`
	ParentID           string           `json:"parent_id"`
	BillingPeriodStart time.Time        `json:"billing_period_start" validate:"required"`
	BillingPeriodEnd   time.Time        `json:"billing_period_end" validate:"required"`
	DueDate            time.Time        `json:"due_date" validate:"required"`
	BaseAmount         decimal.Decimal  `json:"base_amount" validate:"required"`
	OtherFees          decimal.Decimal  `json:"other_fees"`
	Status             string           `json:"status"`
	PaymentDate        *time.Time       `json:"payment_date"`
	PaymentMethod      string           `json:"payment_method"`
	AmountCollected    *decimal.Decimal `json:"amount_collected"`
	Notes              string           `json:"notes"`
}

// ReceiptTotal sums the base amount and other fees, rounded to 2 places.
func ReceiptTotal(base, other decimal.Decimal) decimal.Decimal {
	return base.Add(other).Round(2)
}

// CreateReceipt records a cash charge for a cash-mode child. A receipt
// created directly in Collected state captures the full amount and the
// collecting user.
func (s *BillingService) CreateReceipt(input ReceiptInput, actor *models.User) (*models.Receipt, error) {
	if input.BaseAmount.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewValidationError("base amount must be positive")
	}
	if input.BillingPeriodEnd.Before(input.BillingPeriodStart) {
		return nil, utils.NewValidationError("billing period end precedes start")
	}
	status := input.Status
	if status == "" {
		status = models.ReceiptStatusPending
	}
	if status != models.ReceiptStatusPending && status != models.ReceiptStatusCollected {
		return nil, utils.NewValidationError("a new receipt starts as Pending or Collected")
	}

	var receipt models.Receipt
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var child models.Child
		query := tx.Where("id = ?", input.ChildID)
		if actor.Role != "super_admin" {
			query = query.Where("center_id = ?", actor.CenterID)
		}
		if err := query.First(&child).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Child not found")
			}
			return utils.NewInternalError("failed to load child", err)
		}
		if child.PaymentMode != models.PaymentModeCash {
			return utils.NewValidationError("receipts can only be issued for cash-mode children")
		}

		// Explicit parent wins; otherwise bill the primary link
		parentID := input.ParentID
		if parentID != "" {
			var link models.ParentChildLink
			if err := tx.Where("child_id = ? AND parent_id = ?", child.ID, parentID).First(&link).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.NewValidationError("parent is not linked to this child")
				}
				return utils.NewInternalError("failed to load parent link", err)
			}
		} else {
			var link models.ParentChildLink
			if err := tx.Where("child_id = ? AND is_primary = true", child.ID).First(&link).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.NewValidationError("child has no primary parent to bill")
				}
				return utils.NewInternalError("failed to load primary parent link", err)
			}
			parentID = link.ParentID
		}

		number, err := NextCode(tx, SeriesReceipt, time.Now())
		if err != nil {
			return err
		}

		total := ReceiptTotal(input.BaseAmount, input.OtherFees)
		receipt = models.Receipt{
			ReceiptNumber:      number,
			ChildID:            child.ID,
			ParentID:           parentID,
			CenterID:           child.CenterID,
			BillingPeriodStart: input.BillingPeriodStart,
			BillingPeriodEnd:   input.BillingPeriodEnd,
			DueDate:            input.DueDate,
			BaseAmount:         input.BaseAmount.Round(2),
			OtherFees:          input.OtherFees.Round(2),
			TotalAmount:        total,
			PaymentMethod:      input.PaymentMethod,
			Notes:              input.Notes,
			Status:             status,
		}
		if receipt.PaymentMethod == "" {
			receipt.PaymentMethod = "Cash"
		}
		if status == models.ReceiptStatusCollected {
			receipt.AmountCollected = total
			receipt.CollectedBy = &actor.ID
			now := time.Now()
			receipt.PaymentDate = &now
			if input.PaymentDate != nil {
				receipt.PaymentDate = input.PaymentDate
			}
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return utils.NewInternalError("failed to create receipt", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ReceiptUpdate carries the mutable fields of a receipt payment.
type ReceiptUpdate struct {
	Status          string           `json:"status"`
	AmountCollected *decimal.Decimal `json:"amount_collected"`
	PaymentDate     *time.Time       `json:"payment_date"`
	PaymentMethod   string           `json:"payment_method"`
	Notes           string           `json:"notes"`
}

// receiptChanges computes the column updates for a receipt mutation and
// mutates the in-memory receipt to match. The collection fields
// (amount_collected, collected_by, payment_date) are stamped only when
// this call transitions the status, or when an amount is supplied
// against a receipt that is already Partial (a top-up). A notes-only
// update on a settled receipt must not touch the payment audit trail.
func receiptChanges(receipt *models.Receipt, update ReceiptUpdate, actorID uint, now time.Time) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	transitioned := false
	if update.Status != "" && update.Status != receipt.Status {
		if !CanTransitionReceipt(receipt.Status, update.Status) {
			return nil, utils.NewConflictError(
				fmt.Sprintf("cannot move receipt from %s to %s", receipt.Status, update.Status))
		}
		updates["status"] = update.Status
		receipt.Status = update.Status
		transitioned = true
	}

	switch {
	case transitioned && receipt.Status == models.ReceiptStatusCollected:
		collected := receipt.TotalAmount
		if update.AmountCollected != nil {
			collected = update.AmountCollected.Round(2)
			if collected.LessThanOrEqual(decimal.Zero) || collected.GreaterThan(receipt.TotalAmount) {
				return nil, utils.NewValidationError("collected amount must be positive and not exceed the total")
			}
		}
		updates["amount_collected"] = collected
		receipt.AmountCollected = collected
		updates["collected_by"] = actorID
		receipt.CollectedBy = &actorID
		when := now
		if update.PaymentDate != nil {
			when = *update.PaymentDate
		}
		updates["payment_date"] = when
		receipt.PaymentDate = &when
	case receipt.Status == models.ReceiptStatusPartial && (transitioned || update.AmountCollected != nil):
		if update.AmountCollected == nil {
			return nil, utils.NewValidationError("a partial payment requires amount_collected")
		}
		collected := update.AmountCollected.Round(2)
		if collected.LessThanOrEqual(decimal.Zero) || collected.GreaterThanOrEqual(receipt.TotalAmount) {
			return nil, utils.NewValidationError("partial amount must be positive and below the total")
		}
		updates["amount_collected"] = collected
		receipt.AmountCollected = collected
		if update.PaymentDate != nil {
			updates["payment_date"] = *update.PaymentDate
			receipt.PaymentDate = update.PaymentDate
		}
	}

	if update.PaymentMethod != "" {
		updates["payment_method"] = update.PaymentMethod
		receipt.PaymentMethod = update.PaymentMethod
	}
	if update.Notes != "" {
		updates["notes"] = update.Notes
		receipt.Notes = update.Notes
	}
	return updates, nil
}

// UpdateReceipt records a payment against a receipt or cancels it. The
// transition table forbids reopening Collected or Cancelled receipts.
func (s *BillingService) UpdateReceipt(receiptID string, update ReceiptUpdate, actor *models.User) (*models.Receipt, error) {
	var receipt models.Receipt
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", receiptID)
		if actor.Role != "super_admin" {
			query = query.Where("center_id = ?", actor.CenterID)
		}
		if err := query.First(&receipt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Receipt not found")
			}
			return utils.NewInternalError("failed to load receipt", err)
		}

		updates, err := receiptChanges(&receipt, update, actor.ID, time.Now())
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Receipt{}).Where("id = ?", receipt.ID).Updates(updates).Error; err != nil {
			return utils.NewInternalError("failed to update receipt", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// OverdueReceipt is a receipt past its due date with the lateness derived
// at read time. Overdue is never a stored status.
type OverdueReceipt struct {
	models.Receipt
	DaysOverdue int `json:"days_overdue"`
}

// OverdueReceipts lists unpaid receipts whose due date has passed.
func (s *BillingService) OverdueReceipts(centerID uint, isSuperAdmin bool, now time.Time) ([]OverdueReceipt, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	query := database.DB.
		Preload("Child").
		Preload("Parent").
		Where("status IN ?", []string{models.ReceiptStatusPending, models.ReceiptStatusPartial}).
		Where("due_date < ?", today)
	if !isSuperAdmin {
		query = query.Where("center_id = ?", centerID)
	}

	var receipts []models.Receipt
	if err := query.Order("due_date ASC").Find(&receipts).Error; err != nil {
		return nil, utils.NewInternalError("failed to list overdue receipts", err)
	}

	out := make([]OverdueReceipt, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, OverdueReceipt{
			Receipt:     r,
			DaysOverdue: DaysOverdue(r.DueDate, today),
		})
	}
	return out, nil
}

// DaysOverdue counts whole days between the due date and today. Due
// today or in the future is zero.
func DaysOverdue(due, today time.Time) int {
	days := int(today.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
