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

type ReceiptController struct {
	billing   *services.BillingService
	documents *services.DocumentService
}

func NewReceiptController(billing *services.BillingService, documents *services.DocumentService) *ReceiptController {
	return &ReceiptController{billing: billing, documents: documents}
}

// CreateReceipt records a cash charge for a cash-mode child.
func (rc *ReceiptController) CreateReceipt(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var input services.ReceiptInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	receipt, err := rc.billing.CreateReceipt(input, user)
	if err != nil {
		return utils.RespondError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "receipts", receipt.ID, fiber.Map{
		"receipt_number": receipt.ReceiptNumber,
		"child_id":       receipt.ChildID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Receipt created successfully",
		"receipt": receipt,
	})
}

// GetReceipts lists receipts with status and child filters plus
// pagination.
func (rc *ReceiptController) GetReceipts(c *fiber.Ctx) error {
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

	query := database.DB.Model(&models.Receipt{}).Preload("Child").Preload("Parent")
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if childID := c.Query("child_id"); childID != "" {
		query = query.Where("child_id = ?", childID)
	}

	var total int64
	query.Count(&total)

	var receipts []models.Receipt
	if err := query.Order("due_date DESC").Offset(offset).Limit(limit).Find(&receipts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch receipts"})
	}

	return c.JSON(fiber.Map{
		"receipts": receipts,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetReceipt returns one receipt with its child and parent.
func (rc *ReceiptController) GetReceipt(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	query := database.DB.Preload("Child").Preload("Parent").Where("id = ?", c.Params("id"))
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}

	var receipt models.Receipt
	if err := query.First(&receipt).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Receipt not found"})
	}
	return c.JSON(fiber.Map{"receipt": receipt})
}

// UpdateReceipt records a payment against a receipt or cancels it.
func (rc *ReceiptController) UpdateReceipt(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var update services.ReceiptUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	receipt, err := rc.billing.UpdateReceipt(c.Params("id"), update, user)
	if err != nil {
		return utils.RespondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "receipts", receipt.ID, fiber.Map{
		"status": receipt.Status,
	})

	return c.JSON(fiber.Map{
		"message": "Receipt updated successfully",
		"receipt": receipt,
	})
}

// GetOverdueReceipts lists unpaid receipts past their due date. Lateness
// is derived at read time, never stored.
func (rc *ReceiptController) GetOverdueReceipts(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	overdue, err := rc.billing.OverdueReceipts(user.CenterID, user.Role == "super_admin", time.Now())
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"receipts": overdue,
		"count":    len(overdue),
	})
}

// DownloadReceipt serves the printable receipt, falling back to the JSON
// document when no renderer is configured.
func (rc *ReceiptController) DownloadReceipt(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	doc, err := rc.documents.BuildReceiptDocument(c.Params("id"), user.CenterID, user.Role == "super_admin")
	if err != nil {
		return utils.RespondError(c, err)
	}

	data, contentType, err := rc.documents.RenderReceipt(doc)
	if err != nil {
		return c.JSON(fiber.Map{"document": doc})
	}

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, doc.Receipt.ReceiptNumber))
	return c.Send(data)
}
