package controllers

import (
	"fmt"
	"strconv"

	"neldrac_go/middleware"
	"neldrac_go/services"
	"neldrac_go/utils"

	"github.com/gofiber/fiber/v2"
)

type AdmissionController struct {
	admissions *services.AdmissionService
}

func NewAdmissionController() *AdmissionController {
	return &AdmissionController{admissions: services.NewAdmissionService()}
}

// SubmitForApproval stages an admission draft for director sign-off.
func (ac *AdmissionController) SubmitForApproval(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	enquiryID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enquiry ID"})
	}

	var sub services.AdmissionSubmission
	if err := c.BodyParser(&sub); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&sub); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	approval, err := ac.admissions.SubmitForApproval(uint(enquiryID), sub, user)
	if err != nil {
		return utils.RespondError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "admission_approvals", approval.ID, fiber.Map{
		"enquiry_id": enquiryID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Admission submitted for approval",
		"approval": approval,
	})
}

// GetPendingApprovals lists the director's queue, oldest first.
func (ac *AdmissionController) GetPendingApprovals(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	approvals, err := ac.admissions.ListPending(user.CenterID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"approvals": approvals,
		"count":     len(approvals),
	})
}

type decisionRequest struct {
	Notes string `json:"notes"`
}

// ApproveAdmission commits a pending admission and returns the created
// child with its allocated student ID.
func (ac *AdmissionController) ApproveAdmission(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var req decisionRequest
	// Body is optional on approve
	_ = c.BodyParser(&req)

	child, err := ac.admissions.Approve(c.Params("id"), user, req.Notes)
	if err != nil {
		return utils.RespondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "admission_approvals", c.Params("id"), fiber.Map{
		"decision":   "approved",
		"student_id": child.StudentID,
	})

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Admission approved. Student ID: %s", child.StudentID),
		"child":   child,
	})
}

// RejectAdmission resolves a pending admission without creating a child.
func (ac *AdmissionController) RejectAdmission(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var req decisionRequest
	_ = c.BodyParser(&req)

	if err := ac.admissions.Reject(c.Params("id"), user, req.Notes); err != nil {
		return utils.RespondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "admission_approvals", c.Params("id"), fiber.Map{
		"decision": "rejected",
	})

	return c.JSON(fiber.Map{
		"message": "Admission rejected. The enquiry remains open for resubmission.",
	})
}

// ConvertEnquiry is the legacy direct conversion without the approval
// gate.
func (ac *AdmissionController) ConvertEnquiry(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	enquiryID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enquiry ID"})
	}

	var input services.ConversionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	child, err := ac.admissions.Convert(uint(enquiryID), input, user)
	if err != nil {
		return utils.RespondError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "children", child.ID, fiber.Map{
		"enquiry_id": enquiryID,
		"student_id": child.StudentID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Converted to Student ID: " + child.StudentID,
		"child":   child,
	})
}
