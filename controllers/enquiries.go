package controllers

import (
	"fmt"
	"strconv"
	"time"

	"neldrac_go/database"
	"neldrac_go/middleware"
	"neldrac_go/models"
	"neldrac_go/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type EnquiryController struct{}

// EnquiryRequest is the intake payload for a new lead.
type EnquiryRequest struct {
	Source          string     `json:"source" validate:"required"`
	EnquiryDate     *time.Time `json:"enquiry_date"`
	ChildName       string     `json:"child_name" validate:"required,min=2,max=100"`
	ChildDOB        *time.Time `json:"child_dob"`
	ParentName      string     `json:"parent_name" validate:"required,min=2,max=100"`
	MobileNumber    string     `json:"mobile_number" validate:"required,min=7,max=20"`
	Email           string     `json:"email" validate:"omitempty,email"`
	Company         string     `json:"company"`
	ParentLocation  string     `json:"parent_location"`
	MajorProgram    string     `json:"major_program"`
	SpecificProgram string     `json:"specific_program"`
	ServiceHours    string     `json:"service_hours"`
	AssignedTo      string     `json:"assigned_to"`
	Remarks         string     `json:"remarks"`
}

// CreateEnquiry records a new lead. The company field is matched against
// corporate tie-ups so the discount eligibility is captured at intake.
func (ec *EnquiryController) CreateEnquiry(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var req EnquiryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	enquiryDate := time.Now()
	if req.EnquiryDate != nil {
		enquiryDate = *req.EnquiryDate
	}

	enquiry := models.Enquiry{
		CenterID:        user.CenterID,
		Source:          utils.SanitizeString(req.Source),
		EnquiryDate:     enquiryDate,
		ChildName:       utils.SanitizeString(req.ChildName),
		ChildDOB:        req.ChildDOB,
		ParentName:      utils.SanitizeString(req.ParentName),
		MobileNumber:    utils.NormalizePhone(req.MobileNumber),
		Email:           req.Email,
		Company:         utils.SanitizeString(req.Company),
		HasTieUp:        companyHasTieUp(req.Company),
		ParentLocation:  req.ParentLocation,
		MajorProgram:    req.MajorProgram,
		SpecificProgram: req.SpecificProgram,
		ServiceHours:    req.ServiceHours,
		Status:          models.EnquiryStatusOpen,
		AssignedTo:      req.AssignedTo,
		Remarks:         req.Remarks,
		ApprovalStatus:  models.ApprovalStatusNone,
	}

	if err := database.DB.Create(&enquiry).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create enquiry"})
	}

	middleware.LogActivity(c, "CREATE", "enquiries", fmt.Sprint(enquiry.ID), fiber.Map{
		"child_name": enquiry.ChildName,
		"source":     enquiry.Source,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Enquiry created successfully",
		"enquiry": enquiry,
	})
}

// GetEnquiries lists enquiries for the caller's center with search,
// status and follow-up filters plus pagination.
func (ec *EnquiryController) GetEnquiries(c *fiber.Ctx) error {
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

	query := database.DB.Model(&models.Enquiry{})
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if approval := c.Query("approval_status"); approval != "" {
		query = query.Where("approval_status = ?", approval)
	}
	if c.Query("follow_up_due") == "true" {
		query = query.Where("follow_up_flag = ? AND follow_up_date <= ?", true, time.Now())
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("child_name LIKE ? OR parent_name LIKE ? OR mobile_number LIKE ?", like, like, like)
	}

	var total int64
	query.Count(&total)

	var enquiries []models.Enquiry
	if err := query.Order("enquiry_date DESC").Offset(offset).Limit(limit).Find(&enquiries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch enquiries"})
	}

	return c.JSON(fiber.Map{
		"enquiries": enquiries,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetEnquiry returns one enquiry by ID.
func (ec *EnquiryController) GetEnquiry(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	query := database.DB.Where("id = ?", c.Params("id"))
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}

	var enquiry models.Enquiry
	if err := query.First(&enquiry).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enquiry not found"})
	}
	return c.JSON(fiber.Map{"enquiry": enquiry})
}

// EnquiryUpdateRequest carries the mutable lead fields. Status moves are
// audited into the remarks trail; closure requires a reason.
type EnquiryUpdateRequest struct {
	Status           string     `json:"status"`
	ReasonForClosure string     `json:"reason_for_closure"`
	FollowUpFlag     *bool      `json:"follow_up_flag"`
	FollowUpDate     *time.Time `json:"follow_up_date"`
	AssignedTo       string     `json:"assigned_to"`
	Visited          *bool      `json:"visited"`
	Remark           string     `json:"remark"`
}

// UpdateEnquiry mutates lead tracking fields. Enquiries are never
// deleted; Lost and Closed are the terminal outcomes.
func (ec *EnquiryController) UpdateEnquiry(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var req EnquiryUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	query := database.DB.Where("id = ?", c.Params("id"))
	if user.Role != "super_admin" {
		query = query.Where("center_id = ?", user.CenterID)
	}

	var enquiry models.Enquiry
	if err := query.First(&enquiry).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enquiry not found"})
	}

	updates := map[string]interface{}{}
	remarks := enquiry.Remarks

	if req.Status != "" && req.Status != enquiry.Status {
		if !isValidEnquiryStatus(req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		if req.Status == models.EnquiryStatusLost && req.ReasonForClosure == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Closing an enquiry as Lost requires a reason"})
		}
		updates["status"] = req.Status
		if req.ReasonForClosure != "" {
			updates["reason_for_closure"] = req.ReasonForClosure
		}
		entry := fmt.Sprintf("Status changed from %s to %s by %s", enquiry.Status, req.Status, user.Username)
		if remarks == "" {
			remarks = entry
		} else {
			remarks = remarks + "\n" + entry
		}
	}
	if req.FollowUpFlag != nil {
		updates["follow_up_flag"] = *req.FollowUpFlag
	}
	if req.FollowUpDate != nil {
		updates["follow_up_date"] = *req.FollowUpDate
	}
	if req.AssignedTo != "" {
		updates["assigned_to"] = req.AssignedTo
	}
	if req.Visited != nil {
		updates["visited"] = *req.Visited
	}
	if req.Remark != "" {
		if remarks == "" {
			remarks = req.Remark
		} else {
			remarks = remarks + "\n" + req.Remark
		}
	}
	if remarks != enquiry.Remarks {
		updates["remarks"] = remarks
	}

	if len(updates) == 0 {
		return c.JSON(fiber.Map{"message": "Nothing to update", "enquiry": enquiry})
	}

	if err := database.DB.Model(&enquiry).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update enquiry"})
	}

	middleware.LogActivity(c, "UPDATE", "enquiries", fmt.Sprint(enquiry.ID), updates)

	database.DB.First(&enquiry, enquiry.ID)
	return c.JSON(fiber.Map{
		"message": "Enquiry updated successfully",
		"enquiry": enquiry,
	})
}

// CheckCompany reports whether a company name has a corporate tie-up.
func (ec *EnquiryController) CheckCompany(c *fiber.Ctx) error {
	company := c.Query("company")
	if company == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "company query parameter is required"})
	}
	return c.JSON(fiber.Map{
		"company":    company,
		"has_tie_up": companyHasTieUp(company),
	})
}

func isValidEnquiryStatus(status string) bool {
	switch status {
	case models.EnquiryStatusOpen, models.EnquiryStatusFollowUp, models.EnquiryStatusClosed, models.EnquiryStatusLost:
		return true
	}
	return false
}

// Corporate tie-up partners eligible for company discounts. Kept as a
// static list until partner management gets its own module.
var tieUpCompanies = map[string]bool{
	"infosys":   true,
	"tcs":       true,
	"wipro":     true,
	"accenture": true,
	"cognizant": true,
}

func companyHasTieUp(company string) bool {
	return tieUpCompanies[utils.NormalizeCompany(company)]
}
