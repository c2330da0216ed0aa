package controllers

import (
	"fmt"
	"strconv"
	"time"

	"neldrac_go/database"
	"neldrac_go/middleware"
	"neldrac_go/models"
	"neldrac_go/services"
	"neldrac_go/utils"

	"github.com/gofiber/fiber/v2"
)

type InvoiceController struct {
	billing   *services.BillingService
	documents *services.DocumentService
}

func NewInvoiceController(billing *services.BillingService, documents *services.DocumentService) *InvoiceController {
	return &InvoiceController{
		billing:   billing,
		documents: documents,
	}
}

// GenerateMonthly runs the invoice batch for the caller's center and
// returns the per-child report.
func (ic *InvoiceController) GenerateMonthly(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	report, err := ic.billing.GenerateMonthlyInvoices(user.CenterID, time.Now())
	if err != nil {
		return utils.RespondError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "invoices", "", fiber.Map{
		"batch":     true,
		"generated": report.Generated,
		"skipped":   report.Skipped,
	})

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Generated %d invoices, skipped %d", report.Generated, report.Skipped),
		"report":  report,
	})
}

// GetInvoices lists invoices with status/month/year filters and
// pagination.
func (ic *InvoiceController) GetInvoices(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := database.DB.Model(&models.Invoice{}).Preload("Child")
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if childID := c.Query("child_id"); childID != "" {
		query = query.Where("child_id = ?", childID)
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil && year > 0 {
		query = query.Where("YEAR(issue_date) = ?", year)
	}
	if month, err := strconv.Atoi(c.Query("month")); err == nil && month >= 1 && month <= 12 {
		query = query.Where("MONTH(issue_date) = ?", month)
	}

	var total int64
	query.Count(&total)

	var invoices []models.Invoice
	if err := query.Order("issue_date DESC").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch invoices"})
	}

	return c.JSON(fiber.Map{
		"invoices": invoices,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetInvoice returns one invoice with line items.
func (ic *InvoiceController) GetInvoice(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	query := database.DB.Preload("Child").Preload("LineItems").Where("id = ?", c.Params("id"))
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}

	var invoice models.Invoice
	if err := query.First(&invoice).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
	}
	return c.JSON(fiber.Map{"invoice": invoice})
}

// UpdateStatus moves an invoice along its lifecycle.
func (ic *InvoiceController) UpdateStatus(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	invoice, err := ic.billing.UpdateInvoiceStatus(c.Params("id"), req.Status, user.CenterID, user.Role == "super_admin")
	if err != nil {
		return utils.RespondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "invoices", invoice.ID, fiber.Map{
		"status": req.Status,
	})

	return c.JSON(fiber.Map{
		"message": "Invoice status updated",
		"invoice": invoice,
	})
}

// DownloadInvoice serves the printable invoice. Without a configured
// renderer the assembled document is returned as JSON.
func (ic *InvoiceController) DownloadInvoice(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	doc, err := ic.documents.BuildInvoiceDocument(c.Params("id"), user.CenterID, user.Role == "super_admin")
	if err != nil {
		return utils.RespondError(c, err)
	}

	data, contentType, err := ic.documents.RenderInvoice(doc)
	if err != nil {
		return c.JSON(fiber.Map{"document": doc})
	}

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, doc.Invoice.InvoiceNumber))
	return c.Send(data)
}

// ExportInvoices streams the filtered invoices as a spreadsheet.
func (ic *InvoiceController) ExportInvoices(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	filter := services.InvoiceExportFilter{
		CenterID:     user.CenterID,
		IsSuperAdmin: user.Role == "super_admin",
		Status:       c.Query("status"),
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if month, err := strconv.Atoi(c.Query("month")); err == nil {
		filter.Month = month
	}

	buf, err := ic.documents.ExportInvoicesXLSX(filter)
	if err != nil {
		return utils.RespondError(c, err)
	}

	filename := fmt.Sprintf("invoices_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}
