package services

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"neldrac_go/database"
	"neldrac_go/models"
	"neldrac_go/utils"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// InvoiceDocument is the fully-joined printable view of an invoice.
type InvoiceDocument struct {
	Invoice     models.Invoice           `json:"invoice"`
	Center      models.Center            `json:"center"`
	Child       models.Child             `json:"child"`
	LineItems   []models.InvoiceLineItem `json:"line_items"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// ReceiptDocument is the printable view of a cash receipt.
type ReceiptDocument struct {
	Receipt     models.Receipt  `json:"receipt"`
	Center      models.Center   `json:"center"`
	Child       models.Child    `json:"child"`
	Parent      models.Parent   `json:"parent"`
	Balance     decimal.Decimal `json:"balance"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// DocumentRenderer turns an assembled document into a downloadable
// artifact. The default deployment has none configured and serves the
// document as JSON; a PDF renderer can be plugged in without touching
// the controllers.
type DocumentRenderer interface {
	RenderInvoice(doc InvoiceDocument) ([]byte, string, error)
	RenderReceipt(doc ReceiptDocument) ([]byte, string, error)
}

// DocumentService assembles printable documents and spreadsheet exports.
type DocumentService struct {
	Renderer DocumentRenderer
}

func NewDocumentService(renderer DocumentRenderer) *DocumentService {
	return &DocumentService{Renderer: renderer}
}

// BuildInvoiceDocument loads everything an invoice printout needs.
func (s *DocumentService) BuildInvoiceDocument(invoiceID string, centerID uint, isSuperAdmin bool) (*InvoiceDocument, error) {
	var invoice models.Invoice
	query := database.DB.Preload("LineItems").Preload("Child").Where("id = ?", invoiceID)
	if !isSuperAdmin {
		query = query.Where("center_id = ?", centerID)
	}
	if err := query.First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Invoice not found")
		}
		return nil, utils.NewInternalError("failed to load invoice", err)
	}

	var center models.Center
	if err := database.DB.First(&center, invoice.CenterID).Error; err != nil {
		return nil, utils.NewInternalError("failed to load center", err)
	}

	return &InvoiceDocument{
		Invoice:     invoice,
		Center:      center,
		Child:       invoice.Child,
		LineItems:   invoice.LineItems,
		GeneratedAt: time.Now(),
	}, nil
}

// BuildReceiptDocument loads everything a receipt printout needs.
func (s *DocumentService) BuildReceiptDocument(receiptID string, centerID uint, isSuperAdmin bool) (*ReceiptDocument, error) {
	var receipt models.Receipt
	query := database.DB.Preload("Child").Preload("Parent").Where("id = ?", receiptID)
	if !isSuperAdmin {
		query = query.Where("center_id = ?", centerID)
	}
	if err := query.First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Receipt not found")
		}
		return nil, utils.NewInternalError("failed to load receipt", err)
	}

	var center models.Center
	if err := database.DB.First(&center, receipt.CenterID).Error; err != nil {
		return nil, utils.NewInternalError("failed to load center", err)
	}

	return &ReceiptDocument{
		Receipt:     receipt,
		Center:      center,
		Child:       receipt.Child,
		Parent:      receipt.Parent,
		Balance:     receipt.TotalAmount.Sub(receipt.AmountCollected),
		GeneratedAt: time.Now(),
	}, nil
}

// InvoiceExportFilter narrows the spreadsheet export.
type InvoiceExportFilter struct {
	CenterID     uint
	IsSuperAdmin bool
	Status       string
	Month        int
	Year         int
}

// ExportInvoicesXLSX writes the filtered invoices into a spreadsheet and
// returns the serialized bytes.
func (s *DocumentService) ExportInvoicesXLSX(filter InvoiceExportFilter) (*bytes.Buffer, error) {
	query := database.DB.Preload("Child").Order("issue_date DESC")
	if !filter.IsSuperAdmin {
		query = query.Where("center_id = ?", filter.CenterID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Year > 0 {
		query = query.Where("YEAR(issue_date) = ?", filter.Year)
	}
	if filter.Month > 0 {
		query = query.Where("MONTH(issue_date) = ?", filter.Month)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, utils.NewInternalError("failed to load invoices for export", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Invoices"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Invoice Number", "Student ID", "Child Name", "Parent", "Issue Date", "Due Date", "Amount", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", endCell, headerStyle)

	for row, inv := range invoices {
		values := []interface{}{
			inv.InvoiceNumber,
			inv.Child.StudentID,
			fmt.Sprintf("%s %s", inv.Child.FirstName, inv.Child.LastName),
			inv.ParentName,
			inv.IssueDate.Format("2006-01-02"),
			inv.DueDate.Format("2006-01-02"),
			inv.TotalAmount.InexactFloat64(),
			inv.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "A", "H", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, utils.NewInternalError("failed to serialize export", err)
	}
	return buf, nil
}

// RenderInvoice produces the downloadable invoice artifact, or reports
// that no renderer is configured so the controller can fall back to the
// JSON document.
func (s *DocumentService) RenderInvoice(doc *InvoiceDocument) ([]byte, string, error) {
	if s.Renderer == nil {
		return nil, "", utils.NewValidationError("no document renderer configured")
	}
	return s.Renderer.RenderInvoice(*doc)
}

// RenderReceipt is the receipt analog of RenderInvoice.
func (s *DocumentService) RenderReceipt(doc *ReceiptDocument) ([]byte, string, error) {
	if s.Renderer == nil {
		return nil, "", utils.NewValidationError("no document renderer configured")
	}
	return s.Renderer.RenderReceipt(*doc)
}
