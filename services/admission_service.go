package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"neldrac_go/database"
	"neldrac_go/models"
	"neldrac_go/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdmissionService orchestrates the enquiry → student conversion, with
// or without the director-approval gate. Every mutating operation runs
// in a single database transaction; a failure after partial writes rolls
// everything back before the error is surfaced.
type AdmissionService struct{}

func NewAdmissionService() *AdmissionService {
	return &AdmissionService{}
}

// DraftChildInput is the not-yet-committed child of an admission.
type DraftChildInput struct {
	FirstName           string     `json:"first_name" validate:"required,min=2,max=50"`
	LastName            string     `json:"last_name" validate:"max=50"`
	DateOfBirth         *time.Time `json:"date_of_birth"`
	Gender              string     `json:"gender"`
	PaymentMode         string     `json:"payment_mode"`
	ProbableJoiningDate *time.Time `json:"probable_joining_date"`
}

type DraftParentInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	Relation  string `json:"relation"`
	IsPrimary bool   `json:"is_primary"`
}

type FeeDetailsInput struct {
	OriginalFeePerMonth *decimal.Decimal `json:"original_fee_per_month"`
	FinalFeePerMonth    *decimal.Decimal `json:"final_fee_per_month"`
	DiscountPercent     decimal.Decimal  `json:"discount_percent"`
	AnnualFeeWaiveOff   bool             `json:"annual_fee_waive_off"`
	KitAmount           decimal.Decimal  `json:"kit_amount"`
}

// AdmissionSubmission is the full draft submitted for approval.
type AdmissionSubmission struct {
	Child       DraftChildInput    `json:"child" validate:"required"`
	Parents     []DraftParentInput `json:"parents" validate:"required,min=1,dive"`
	ClassroomID string             `json:"classroom_id"`
	FeeDetails  FeeDetailsInput    `json:"fee_details"`
	Notes       string             `json:"notes"`
}

// ConversionInput is the legacy direct-convert payload: the same draft
// shape without negotiated fee terms.
type ConversionInput struct {
	Child       DraftChildInput    `json:"child" validate:"required"`
	Parents     []DraftParentInput `json:"parents" validate:"required,min=1,dive"`
	ClassroomID string             `json:"classroom_id"`
}

// validateFeeDetails enforces that a submission carries both the
// original and the negotiated fee per month.
func validateFeeDetails(fd FeeDetailsInput) error {
	if fd.OriginalFeePerMonth == nil || fd.OriginalFeePerMonth.LessThanOrEqual(decimal.Zero) {
		return utils.NewValidationError("original fee per month is required")
	}
	if fd.FinalFeePerMonth == nil || fd.FinalFeePerMonth.LessThanOrEqual(decimal.Zero) {
		return utils.NewValidationError("final fee per month is required")
	}
	return nil
}

// eligibleParents filters draft parents down to those that can be
// linked: a first name and a phone number are both required. If no
// surviving parent is flagged primary, the first one becomes the billing
// contact so monthly invoicing always has a target.
func eligibleParents(parents []DraftParentInput) []DraftParentInput {
	out := make([]DraftParentInput, 0, len(parents))
	hasPrimary := false
	for _, p := range parents {
		if strings.TrimSpace(p.FirstName) == "" || utils.NormalizePhone(p.Phone) == "" {
			continue
		}
		if p.IsPrimary {
			hasPrimary = true
		}
		out = append(out, p)
	}
	if !hasPrimary && len(out) > 0 {
		out[0].IsPrimary = true
	}
	return out
}

// appendAuditRemark adds one line to an enquiry's remark trail.
func appendAuditRemark(remarks, entry string) string {
	if strings.TrimSpace(remarks) == "" {
		return entry
	}
	return remarks + "\n" + entry
}

// paymentModeOrDefault maps a draft payment mode to a valid child mode.
func paymentModeOrDefault(mode string) string {
	if mode == models.PaymentModeCash {
		return models.PaymentModeCash
	}
	return models.PaymentModeInvoice
}

// admissionBlocked reports why an enquiry cannot start a new admission
// right now. A closed enquiry has already produced a student; a pending
// approval owns the enquiry until a director decides it, so a direct
// conversion in that window would mint a second student for the same
// enquiry.
func admissionBlocked(enquiry *models.Enquiry) error {
	if enquiry.Status == models.EnquiryStatusClosed {
		return utils.NewConflictError("Enquiry is already closed")
	}
	if enquiry.ApprovalStatus == models.ApprovalStatusPending {
		return utils.NewConflictError("An approval is already pending for this enquiry")
	}
	return nil
}

// SubmitForApproval stages a draft admission for director sign-off.
// Policy: a second submission while one approval is pending is rejected
// with a conflict; the existing draft must be decided first.
func (s *AdmissionService) SubmitForApproval(enquiryID uint, sub AdmissionSubmission, submitter *models.User) (*models.AdmissionApproval, error) {
	if err := validateFeeDetails(sub.FeeDetails); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sub.Child.FirstName) == "" {
		return nil, utils.NewValidationError("draft child first name is required")
	}
	if len(eligibleParents(sub.Parents)) == 0 {
		return nil, utils.NewValidationError("at least one parent with a first name and phone is required")
	}

	var approval models.AdmissionApproval
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var enquiry models.Enquiry
		if err := tx.Where("id = ? AND center_id = ?", enquiryID, submitter.CenterID).
			First(&enquiry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Enquiry not found")
			}
			return utils.NewInternalError("failed to load enquiry", err)
		}
		if err := admissionBlocked(&enquiry); err != nil {
			return err
		}

		// Re-check the at-most-one-pending invariant under the
		// transaction; the locked read serializes concurrent submits
		// for the same enquiry.
		var existing models.AdmissionApproval
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("enquiry_id = ? AND status = ?", enquiryID, models.ApprovalStatusPending).
			First(&existing).Error
		if err == nil {
			return utils.NewConflictError("An approval is already pending for this enquiry")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewInternalError("failed to check pending approvals", err)
		}

		feeDetails := models.FeeDetails{
			OriginalFeePerMonth: *sub.FeeDetails.OriginalFeePerMonth,
			FinalFeePerMonth:    *sub.FeeDetails.FinalFeePerMonth,
			DiscountPercent:     sub.FeeDetails.DiscountPercent,
			AnnualFeeWaiveOff:   sub.FeeDetails.AnnualFeeWaiveOff,
			KitAmount:           sub.FeeDetails.KitAmount,
		}
		if err := tx.Create(&feeDetails).Error; err != nil {
			return utils.NewInternalError("failed to create fee details", err)
		}

		approval = models.AdmissionApproval{
			EnquiryID:    enquiryID,
			FeeDetailsID: feeDetails.ID,
			Status:       models.ApprovalStatusPending,
			SubmittedBy:  submitter.ID,
			SubmittedAt:  time.Now(),
			Notes:        sub.Notes,
		}
		if err := tx.Create(&approval).Error; err != nil {
			return utils.NewInternalError("failed to create approval", err)
		}

		draft := models.AdmissionDraft{
			ApprovalID:          approval.ID,
			FirstName:           sub.Child.FirstName,
			LastName:            sub.Child.LastName,
			DateOfBirth:         sub.Child.DateOfBirth,
			Gender:              sub.Child.Gender,
			ClassroomID:         sub.ClassroomID,
			ProbableJoiningDate: sub.Child.ProbableJoiningDate,
			PaymentMode:         paymentModeOrDefault(sub.Child.PaymentMode),
		}
		if err := tx.Create(&draft).Error; err != nil {
			return utils.NewInternalError("failed to stage admission draft", err)
		}
		for _, p := range sub.Parents {
			dp := models.AdmissionDraftParent{
				DraftID:   draft.ID,
				FirstName: p.FirstName,
				LastName:  p.LastName,
				Phone:     utils.NormalizePhone(p.Phone),
				Email:     p.Email,
				Relation:  p.Relation,
				IsPrimary: p.IsPrimary,
			}
			if err := tx.Create(&dp).Error; err != nil {
				return utils.NewInternalError("failed to stage draft parent", err)
			}
		}

		if err := tx.Model(&models.Enquiry{}).Where("id = ?", enquiryID).Updates(map[string]interface{}{
			"approval_required": true,
			"approval_status":   models.ApprovalStatusPending,
		}).Error; err != nil {
			return utils.NewInternalError("failed to flag enquiry for approval", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// ListPending returns the pending approvals for a center, oldest
// submission first, with their enquiry, fee terms and staged draft.
func (s *AdmissionService) ListPending(centerID uint) ([]models.AdmissionApproval, error) {
	var approvals []models.AdmissionApproval
	err := database.DB.
		Joins("JOIN enquiries ON enquiries.id = admission_approvals.enquiry_id").
		Where("admission_approvals.status = ? AND enquiries.center_id = ?", models.ApprovalStatusPending, centerID).
		Preload("Enquiry").
		Preload("FeeDetails").
		Preload("Draft").
		Preload("Draft.Parents").
		Order("admission_approvals.submitted_at ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, utils.NewInternalError("failed to list pending approvals", err)
	}
	return approvals, nil
}

// Approve commits a pending admission: allocates the student ID, creates
// the child, links parents (deduplicated by phone), transfers the fee
// terms to the child, and closes the enquiry with an audit remark. All
// inside one transaction.
func (s *AdmissionService) Approve(approvalID string, approver *models.User, notes string) (*models.Child, error) {
	var child *models.Child
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		approval, enquiry, err := s.lockPendingApproval(tx, approvalID, approver)
		if err != nil {
			return err
		}
		// A direct conversion may have closed the enquiry while this
		// approval sat in the queue. Approving it now would mint a second
		// student for the same enquiry; the stale approval can only be
		// rejected.
		if enquiry.Status == models.EnquiryStatusClosed {
			return utils.NewConflictError("Enquiry was already converted to a student")
		}

		var draft models.AdmissionDraft
		if err := tx.Preload("Parents").Where("approval_id = ?", approval.ID).First(&draft).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewValidationError("Approval has no staged admission draft")
			}
			return utils.NewInternalError("failed to load admission draft", err)
		}
		if strings.TrimSpace(draft.FirstName) == "" {
			return utils.NewValidationError("Staged admission draft is malformed")
		}

		parents := make([]DraftParentInput, 0, len(draft.Parents))
		for _, p := range draft.Parents {
			parents = append(parents, DraftParentInput{
				FirstName: p.FirstName,
				LastName:  p.LastName,
				Phone:     p.Phone,
				Email:     p.Email,
				Relation:  p.Relation,
				IsPrimary: p.IsPrimary,
			})
		}

		child, err = s.createChildWithParents(tx, childSpec{
			FirstName:           draft.FirstName,
			LastName:            draft.LastName,
			DateOfBirth:         draft.DateOfBirth,
			Gender:              draft.Gender,
			ClassroomID:         draft.ClassroomID,
			CenterID:            enquiry.CenterID,
			ProbableJoiningDate: draft.ProbableJoiningDate,
			PaymentMode:         draft.PaymentMode,
		}, parents)
		if err != nil {
			return err
		}

		// Fee terms now belong to the live child record
		if err := tx.Model(&models.FeeDetails{}).
			Where("id = ?", approval.FeeDetailsID).
			Update("child_id", child.ID).Error; err != nil {
			return utils.NewInternalError("failed to link fee details", err)
		}

		now := time.Now()
		if err := tx.Model(&models.AdmissionApproval{}).Where("id = ?", approval.ID).Updates(map[string]interface{}{
			"status":      models.ApprovalStatusApproved,
			"resolved_by": approver.ID,
			"resolved_at": now,
			"notes":       appendAuditRemark(approval.Notes, notes),
		}).Error; err != nil {
			return utils.NewInternalError("failed to finalize approval", err)
		}

		remark := appendAuditRemark(enquiry.Remarks,
			fmt.Sprintf("Admission approved. Converted to Student ID: %s", child.StudentID))
		if err := tx.Model(&models.Enquiry{}).Where("id = ?", enquiry.ID).Updates(map[string]interface{}{
			"status":          models.EnquiryStatusClosed,
			"approval_status": models.ApprovalStatusApproved,
			"remarks":         remark,
		}).Error; err != nil {
			return utils.NewInternalError("failed to close enquiry", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

// Reject resolves a pending admission without creating a child. The
// enquiry stays open so the admission can be re-submitted with revised
// terms.
func (s *AdmissionService) Reject(approvalID string, approver *models.User, notes string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		approval, enquiry, err := s.lockPendingApproval(tx, approvalID, approver)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.AdmissionApproval{}).Where("id = ?", approval.ID).Updates(map[string]interface{}{
			"status":      models.ApprovalStatusRejected,
			"resolved_by": approver.ID,
			"resolved_at": now,
			"notes":       appendAuditRemark(approval.Notes, notes),
		}).Error; err != nil {
			return utils.NewInternalError("failed to finalize rejection", err)
		}

		remark := appendAuditRemark(enquiry.Remarks, "Admission rejected."+noteSuffix(notes))
		if err := tx.Model(&models.Enquiry{}).Where("id = ?", enquiry.ID).Updates(map[string]interface{}{
			"approval_status": models.ApprovalStatusRejected,
			"remarks":         remark,
		}).Error; err != nil {
			return utils.NewInternalError("failed to update enquiry", err)
		}
		return nil
	})
}

func noteSuffix(notes string) string {
	if strings.TrimSpace(notes) == "" {
		return ""
	}
	return " Reason: " + notes
}

// Convert is the legacy direct path kept for backward compatibility: it
// creates the child, parents and links straight from the submitted
// payload without an approval row. The creation logic is shared with
// Approve so the two paths cannot drift.
func (s *AdmissionService) Convert(enquiryID uint, input ConversionInput, actor *models.User) (*models.Child, error) {
	if strings.TrimSpace(input.Child.FirstName) == "" {
		return nil, utils.NewValidationError("child first name is required")
	}
	if len(eligibleParents(input.Parents)) == 0 {
		return nil, utils.NewValidationError("at least one parent with a first name and phone is required")
	}

	var child *models.Child
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var enquiry models.Enquiry
		if err := tx.Where("id = ? AND center_id = ?", enquiryID, actor.CenterID).
			First(&enquiry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Enquiry not found")
			}
			return utils.NewInternalError("failed to load enquiry", err)
		}
		if err := admissionBlocked(&enquiry); err != nil {
			return err
		}

		var err error
		child, err = s.createChildWithParents(tx, childSpec{
			FirstName:           input.Child.FirstName,
			LastName:            input.Child.LastName,
			DateOfBirth:         input.Child.DateOfBirth,
			Gender:              input.Child.Gender,
			ClassroomID:         input.ClassroomID,
			CenterID:            actor.CenterID,
			ProbableJoiningDate: input.Child.ProbableJoiningDate,
			PaymentMode:         paymentModeOrDefault(input.Child.PaymentMode),
		}, input.Parents)
		if err != nil {
			return err
		}

		remark := appendAuditRemark(enquiry.Remarks, "Converted to Student ID: "+child.StudentID)
		if err := tx.Model(&models.Enquiry{}).Where("id = ?", enquiry.ID).Updates(map[string]interface{}{
			"status":  models.EnquiryStatusClosed,
			"remarks": remark,
		}).Error; err != nil {
			return utils.NewInternalError("failed to close enquiry", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

// lockPendingApproval loads an approval FOR UPDATE, verifies it is still
// pending and that the approver's center owns the underlying enquiry.
// Re-checking status under the row lock is what makes double-approve
// safe: the second transaction blocks until the first commits, then sees
// a non-pending status.
func (s *AdmissionService) lockPendingApproval(tx *gorm.DB, approvalID string, approver *models.User) (*models.AdmissionApproval, *models.Enquiry, error) {
	var approval models.AdmissionApproval
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", approvalID).
		First(&approval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NewNotFoundError("Approval not found")
		}
		return nil, nil, utils.NewInternalError("failed to load approval", err)
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, nil, utils.NewConflictError("Approval has already been processed")
	}

	var enquiry models.Enquiry
	if err := tx.First(&enquiry, approval.EnquiryID).Error; err != nil {
		return nil, nil, utils.NewInternalError("failed to load enquiry for approval", err)
	}
	if approver.Role != "super_admin" && enquiry.CenterID != approver.CenterID {
		return nil, nil, utils.NewAccessDeniedError("Approval belongs to a different center")
	}
	return &approval, &enquiry, nil
}

type childSpec struct {
	FirstName           string
	LastName            string
	DateOfBirth         *time.Time
	Gender              string
	ClassroomID         string
	CenterID            uint
	ProbableJoiningDate *time.Time
	PaymentMode         string
}

// createChildWithParents is the single code path that turns a draft into
// live Child/Parent/ParentChildLink rows. Parents are deduplicated by
// phone number: an admission either links to the existing Parent row or
// creates one.
func (s *AdmissionService) createChildWithParents(tx *gorm.DB, spec childSpec, parents []DraftParentInput) (*models.Child, error) {
	studentID, err := NextCode(tx, SeriesStudent, time.Now())
	if err != nil {
		return nil, err
	}

	child := models.Child{
		FirstName:           spec.FirstName,
		LastName:            spec.LastName,
		DateOfBirth:         spec.DateOfBirth,
		Gender:              spec.Gender,
		StudentID:           studentID,
		ClassroomID:         spec.ClassroomID,
		CenterID:            spec.CenterID,
		EnrollmentDate:      time.Now(),
		ProbableJoiningDate: spec.ProbableJoiningDate,
		Status:              "active",
		PaymentMode:         paymentModeOrDefault(spec.PaymentMode),
	}
	if err := tx.Create(&child).Error; err != nil {
		return nil, utils.NewInternalError("failed to create child", err)
	}

	for _, p := range eligibleParents(parents) {
		phone := utils.NormalizePhone(p.Phone)

		var parent models.Parent
		err := tx.Where("phone_number = ?", phone).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			parent = models.Parent{
				FirstName:   p.FirstName,
				LastName:    p.LastName,
				PhoneNumber: phone,
				Email:       p.Email,
			}
			if err := tx.Create(&parent).Error; err != nil {
				return nil, utils.NewInternalError("failed to create parent", err)
			}
		} else if err != nil {
			return nil, utils.NewInternalError("failed to look up parent", err)
		}

		link := models.ParentChildLink{
			ParentID:  parent.ID,
			ChildID:   child.ID,
			Relation:  p.Relation,
			IsPrimary: p.IsPrimary,
		}
		if err := tx.Create(&link).Error; err != nil {
			return nil, utils.NewInternalError("failed to link parent to child", err)
		}
	}

	return &child, nil
}
