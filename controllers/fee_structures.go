package controllers

import (
	"neldrac_go/database"
	"neldrac_go/middleware"
	"neldrac_go/models"
	"neldrac_go/services"
	"neldrac_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type FeeStructureController struct{}

// FeeStructureRequest creates or replaces a pricing template.
type FeeStructureRequest struct {
	ClassroomID              string                `json:"classroom_id"`
	ProgramName              string                `json:"program_name" validate:"required,min=2,max=100"`
	ServiceHours             string                `json:"service_hours"`
	MonthlyFee               decimal.Decimal       `json:"monthly_fee" validate:"required"`
	RegistrationFee          decimal.Decimal       `json:"registration_fee"`
	SecurityDeposit          decimal.Decimal       `json:"security_deposit"`
	MaterialFee              decimal.Decimal       `json:"material_fee"`
	QuarterlyDiscountPercent decimal.Decimal       `json:"quarterly_discount_percent"`
	AnnualDiscountPercent    decimal.Decimal       `json:"annual_discount_percent"`
	BillingFrequency         string                `json:"billing_frequency"`
	AgeGroup                 string                `json:"age_group"`
	AcademicYear             string                `json:"academic_year"`
	Components               []FeeComponentRequest `json:"components" validate:"dive"`
}

type FeeComponentRequest struct {
	Name          string          `json:"name" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	ComponentType string          `json:"component_type"`
	IsRefundable  bool            `json:"is_refundable"`
	IsOptional    bool            `json:"is_optional"`
	Description   string          `json:"description"`
}

// CreateFeeStructure adds a pricing template with its components.
func (fc *FeeStructureController) CreateFeeStructure(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var req FeeStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.MonthlyFee.LessThanOrEqual(decimal.Zero) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "monthly_fee must be positive"})
	}

	frequency := req.BillingFrequency
	if frequency == "" {
		frequency = services.FrequencyMonthly
	}
	if !services.IsValidFrequency(frequency) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid billing frequency"})
	}

	structure := models.FeeStructure{
		CenterID:                 user.CenterID,
		ClassroomID:              req.ClassroomID,
		ProgramName:              req.ProgramName,
		ServiceHours:             req.ServiceHours,
		MonthlyFee:               req.MonthlyFee,
		RegistrationFee:          req.RegistrationFee,
		SecurityDeposit:          req.SecurityDeposit,
		MaterialFee:              req.MaterialFee,
		QuarterlyDiscountPercent: req.QuarterlyDiscountPercent,
		AnnualDiscountPercent:    req.AnnualDiscountPercent,
		BillingFrequency:         frequency,
		AgeGroup:                 req.AgeGroup,
		AcademicYear:             req.AcademicYear,
		IsActive:                 true,
	}

	for _, comp := range req.Components {
		componentType := comp.ComponentType
		if componentType == "" {
			componentType = models.ComponentTypeRecurring
		}
		structure.Components = append(structure.Components, models.FeeComponent{
			Name:          comp.Name,
			Amount:        comp.Amount,
			ComponentType: componentType,
			IsRefundable:  comp.IsRefundable,
			IsOptional:    comp.IsOptional,
			Description:   comp.Description,
		})
	}

	if err := database.DB.Create(&structure).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create fee structure"})
	}

	middleware.LogActivity(c, "CREATE", "fee_structures", structure.ID, fiber.Map{
		"program_name": structure.ProgramName,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Fee structure created successfully",
		"fee_structure": structure,
	})
}

// GetFeeStructures lists the center's pricing templates.
func (fc *FeeStructureController) GetFeeStructures(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	query := database.DB.Preload("Components")
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}
	if c.Query("active_only", "true") == "true" {
		query = query.Where("is_active = ?", true)
	}
	if classroomID := c.Query("classroom_id"); classroomID != "" {
		query = query.Where("classroom_id = ?", classroomID)
	}

	var structures []models.FeeStructure
	if err := query.Order("program_name ASC").Find(&structures).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch fee structures"})
	}

	return c.JSON(fiber.Map{"fee_structures": structures})
}

// GetFeeStructure returns one pricing template with components.
func (fc *FeeStructureController) GetFeeStructure(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	query := database.DB.Preload("Components").Where("id = ?", c.Params("id"))
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}

	var structure models.FeeStructure
	if err := query.First(&structure).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Fee structure not found"})
	}
	return c.JSON(fiber.Map{"fee_structure": structure})
}

// DeactivateFeeStructure retires a template. Templates are never deleted
// because issued invoices reference them.
func (fc *FeeStructureController) DeactivateFeeStructure(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	query := database.DB.Where("id = ?", c.Params("id"))
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}

	var structure models.FeeStructure
	if err := query.First(&structure).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Fee structure not found"})
	}

	if err := database.DB.Model(&structure).Update("is_active", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate fee structure"})
	}

	middleware.LogActivity(c, "UPDATE", "fee_structures", structure.ID, fiber.Map{
		"action": "deactivate",
	})

	return c.JSON(fiber.Map{"message": "Fee structure deactivated"})
}

// CalculateFee quotes the amount due for a template at a billing
// frequency, optionally itemizing one-time components.
func (fc *FeeStructureController) CalculateFee(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var req struct {
		FeeStructureID string `json:"fee_structure_id" validate:"required"`
		Frequency      string `json:"payment_frequency" validate:"required"`
		IncludeOneTime bool   `json:"include_one_time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	query := database.DB.Preload("Components").Where("id = ?", req.FeeStructureID)
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}

	var structure models.FeeStructure
	if err := query.First(&structure).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Fee structure not found"})
	}

	quote, err := services.ComputeFee(structure, structure.Components, req.Frequency, req.IncludeOneTime)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"fee_structure_id": structure.ID,
		"program_name":     structure.ProgramName,
		"quote":            quote,
	})
}
