package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// UUIDModel is the base for rows keyed by a char(36) UUID, matching the
// legacy billing schema where children, parents and financial documents
// carry UUID primary keys.
type UUIDModel struct {
	ID        string         `json:"id" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (m *UUIDModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Enquiry lifecycle statuses
const (
	EnquiryStatusOpen     = "Open"
	EnquiryStatusFollowUp = "Follow-up"
	EnquiryStatusClosed   = "Closed"
	EnquiryStatusLost     = "Lost"
)

// Admission approval statuses (enquiry.approval_status additionally uses "none")
const (
	ApprovalStatusNone     = "none"
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// Invoice statuses
const (
	InvoiceStatusPending   = "Pending"
	InvoiceStatusPaid      = "Paid"
	InvoiceStatusOverdue   = "Overdue"
	InvoiceStatusCancelled = "Cancelled"
)

// Receipt statuses
const (
	ReceiptStatusPending   = "Pending"
	ReceiptStatusPartial   = "Partial"
	ReceiptStatusCollected = "Collected"
	ReceiptStatusCancelled = "Cancelled"
)

// Child payment modes
const (
	PaymentModeCash    = "Cash"
	PaymentModeInvoice = "Invoice"
)

// Center is one daycare center. Every operational row is scoped to one.
type Center struct {
	BaseModel
	Name    string `json:"name" gorm:"size:255;not null"`
	Address string `json:"address" gorm:"size:500"`
	Phone   string `json:"phone" gorm:"size:20"`
	Email   string `json:"email" gorm:"size:255"`
	Active  bool   `json:"active" gorm:"default:true"`

	// Relationships
	Users      []User      `json:"users,omitempty" gorm:"foreignKey:CenterID"`
	Classrooms []Classroom `json:"classrooms,omitempty" gorm:"foreignKey:CenterID"`
}

// User model
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;uniqueIndex"`
	Phone    string `json:"phone" gorm:"size:20"`
	Role     string `json:"role" gorm:"size:50;not null;default:'admin';type:enum('super_admin','owner','admin','center_director','staff')"` // super_admin, owner, admin, center_director, staff
	CenterID uint   `json:"center_id" gorm:"not null"`
	Status   string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"` // active, inactive, suspended

	// Relationships
	Center Center `json:"center,omitempty" gorm:"foreignKey:CenterID"`
}

// Classroom model
type Classroom struct {
	UUIDModel
	CenterID uint   `json:"center_id" gorm:"not null;index"`
	Name     string `json:"name" gorm:"size:100;not null"`
	AgeGroup string `json:"age_group" gorm:"size:50"`
	Capacity int    `json:"capacity"`
	Active   bool   `json:"active" gorm:"default:true"`

	// Relationships
	Center Center `json:"center,omitempty" gorm:"foreignKey:CenterID"`
}

// Enquiry is a prospective family's lead record. Never physically
// deleted; the remarks column accumulates the audit trail.
type Enquiry struct {
	BaseModel
	CenterID         uint       `json:"center_id" gorm:"not null;index"`
	Source           string     `json:"source" gorm:"size:100;not null"`
	EnquiryDate      time.Time  `json:"enquiry_date"`
	ChildName        string     `json:"child_name" gorm:"size:100;not null"`
	ChildDOB         *time.Time `json:"child_dob"`
	ParentName       string     `json:"parent_name" gorm:"size:100;not null"`
	MobileNumber     string     `json:"mobile_number" gorm:"size:20;not null;index"`
	Email            string     `json:"email" gorm:"size:255"`
	Company          string     `json:"company" gorm:"size:255"`
	HasTieUp         bool       `json:"has_tie_up" gorm:"default:false"`
	ParentLocation   string     `json:"parent_location" gorm:"size:255"`
	MajorProgram     string     `json:"major_program" gorm:"size:100"`
	SpecificProgram  string     `json:"specific_program" gorm:"size:100"`
	ServiceHours     string     `json:"service_hours" gorm:"size:50"`
	Status           string     `json:"status" gorm:"size:50;not null;default:'Open';type:enum('Open','Follow-up','Closed','Lost')"` // Open, Follow-up, Closed, Lost
	ReasonForClosure string     `json:"reason_for_closure" gorm:"size:255"`
	FollowUpFlag     bool       `json:"follow_up_flag" gorm:"default:false"`
	FollowUpDate     *time.Time `json:"follow_up_date"`
	AssignedTo       string     `json:"assigned_to" gorm:"size:100"`
	Visited          bool       `json:"visited" gorm:"default:false"`
	Remarks          string     `json:"remarks" gorm:"type:text"`
	ApprovalRequired bool       `json:"approval_required" gorm:"default:false"`
	ApprovalStatus   string     `json:"approval_status" gorm:"size:50;not null;default:'none';type:enum('none','pending','approved','rejected')"` // none, pending, approved, rejected

	// Relationships
	Center Center `json:"center,omitempty" gorm:"foreignKey:CenterID"`
}

// AdmissionApproval is one pending-or-resolved director sign-off for an
// enquiry. At most one pending row may exist per enquiry at a time; the
// transition out of pending happens exactly once.
type AdmissionApproval struct {
	UUIDModel
	EnquiryID    uint       `json:"enquiry_id" gorm:"not null;index"`
	FeeDetailsID string     `json:"fee_details_id" gorm:"type:char(36);not null"`
	Status       string     `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','approved','rejected')"` // pending, approved, rejected
	SubmittedBy  uint       `json:"submitted_by" gorm:"not null"`
	SubmittedAt  time.Time  `json:"submitted_at" gorm:"not null"`
	ResolvedBy   *uint      `json:"resolved_by"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	Notes        string     `json:"notes" gorm:"type:text"`

	// Relationships
	Enquiry    Enquiry         `json:"enquiry,omitempty" gorm:"foreignKey:EnquiryID"`
	FeeDetails FeeDetails      `json:"fee_details,omitempty" gorm:"foreignKey:FeeDetailsID"`
	Draft      *AdmissionDraft `json:"draft,omitempty" gorm:"foreignKey:ApprovalID"`
}

// AdmissionDraft holds the not-yet-committed child data for a pending
// approval. Staging rows, consumed exactly once on approval.
type AdmissionDraft struct {
	UUIDModel
	ApprovalID          string     `json:"approval_id" gorm:"type:char(36);not null;uniqueIndex"`
	FirstName           string     `json:"first_name" gorm:"size:100;not null"`
	LastName            string     `json:"last_name" gorm:"size:100"`
	DateOfBirth         *time.Time `json:"date_of_birth"`
	Gender              string     `json:"gender" gorm:"size:20"`
	ClassroomID         string     `json:"classroom_id" gorm:"type:char(36)"`
	ProbableJoiningDate *time.Time `json:"probable_joining_date"`
	PaymentMode         string     `json:"payment_mode" gorm:"size:20;default:'Invoice';type:enum('Cash','Invoice')"`

	// Relationships
	Parents []AdmissionDraftParent `json:"parents,omitempty" gorm:"foreignKey:DraftID"`
}

type AdmissionDraftParent struct {
	UUIDModel
	DraftID   string `json:"draft_id" gorm:"type:char(36);not null;index"`
	FirstName string `json:"first_name" gorm:"size:100"`
	LastName  string `json:"last_name" gorm:"size:100"`
	Phone     string `json:"phone" gorm:"size:20"`
	Email     string `json:"email" gorm:"size:255"`
	Relation  string `json:"relation" gorm:"size:50"`
	IsPrimary bool   `json:"is_primary" gorm:"default:false"`
}

// FeeDetails holds the negotiated financial terms for one admission. Owned by
// the approval while pending; child_id is set when the admission commits.
type FeeDetails struct {
	UUIDModel
	OriginalFeePerMonth decimal.Decimal `json:"original_fee_per_month" gorm:"type:decimal(10,2);not null"`
	FinalFeePerMonth    decimal.Decimal `json:"final_fee_per_month" gorm:"type:decimal(10,2);not null"`
	DiscountPercent     decimal.Decimal `json:"discount_percent" gorm:"type:decimal(5,2);default:0"`
	AnnualFeeWaiveOff   bool            `json:"annual_fee_waive_off" gorm:"default:false"`
	KitAmount           decimal.Decimal `json:"kit_amount" gorm:"type:decimal(10,2);default:0"`
	ChildID             *string         `json:"child_id" gorm:"type:char(36);index"`
}

// Child is the enrolled learner. Created only through an admission
// (approval or legacy direct convert); never deleted, only
// status-transitioned.
type Child struct {
	UUIDModel
	FirstName           string     `json:"first_name" gorm:"size:100;not null"`
	LastName            string     `json:"last_name" gorm:"size:100"`
	DateOfBirth         *time.Time `json:"date_of_birth"`
	Gender              string     `json:"gender" gorm:"size:20"`
	StudentID           string     `json:"student_id" gorm:"size:20;not null;uniqueIndex"`
	ClassroomID         string     `json:"classroom_id" gorm:"type:char(36);index"`
	CenterID            uint       `json:"center_id" gorm:"not null;index"`
	EnrollmentDate      time.Time  `json:"enrollment_date"`
	ProbableJoiningDate *time.Time `json:"probable_joining_date"`
	Status              string     `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','paused','left')"` // active, paused, left
	PaymentMode         string     `json:"payment_mode" gorm:"size:20;not null;default:'Invoice';type:enum('Cash','Invoice')"`  // Cash, Invoice
	PausedAt            *time.Time `json:"paused_at"`
	ExitDate            *time.Time `json:"exit_date"`
	ExitReason          string     `json:"exit_reason" gorm:"size:255"`

	// Relationships
	Classroom Classroom `json:"classroom,omitempty" gorm:"foreignKey:ClassroomID"`
	Center    Center    `json:"center,omitempty" gorm:"foreignKey:CenterID"`
}

// Parent rows are deduplicated by phone number across admissions.
type Parent struct {
	UUIDModel
	FirstName   string `json:"first_name" gorm:"size:100;not null"`
	LastName    string `json:"last_name" gorm:"size:100"`
	PhoneNumber string `json:"phone_number" gorm:"size:20;not null;uniqueIndex"`
	Email       string `json:"email" gorm:"size:255"`
	Address     string `json:"address" gorm:"size:500"`
}

// ParentChildLink is the many-to-many join; the primary link designates the
// billing contact used by invoice generation
type ParentChildLink struct {
	UUIDModel
	ParentID  string `json:"parent_id" gorm:"type:char(36);not null;uniqueIndex:idx_parent_child"`
	ChildID   string `json:"child_id" gorm:"type:char(36);not null;uniqueIndex:idx_parent_child"`
	Relation  string `json:"relation_to_child" gorm:"size:50"`
	IsPrimary bool   `json:"is_primary" gorm:"default:false"`

	// Relationships
	Parent Parent `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Child  Child  `json:"child,omitempty" gorm:"foreignKey:ChildID"`
}

// FeeStructure is a center/classroom/program-scoped pricing template.
// Read-only input to billing.
type FeeStructure struct {
	UUIDModel
	CenterID                 uint            `json:"center_id" gorm:"not null;index"`
	ClassroomID              string          `json:"classroom_id" gorm:"type:char(36);index"`
	ProgramName              string          `json:"program_name" gorm:"size:100;not null"`
	ServiceHours             string          `json:"service_hours" gorm:"size:50"`
	MonthlyFee               decimal.Decimal `json:"monthly_fee" gorm:"type:decimal(10,2);not null"`
	RegistrationFee          decimal.Decimal `json:"registration_fee" gorm:"type:decimal(10,2);default:0"`
	SecurityDeposit          decimal.Decimal `json:"security_deposit" gorm:"type:decimal(10,2);default:0"`
	MaterialFee              decimal.Decimal `json:"material_fee" gorm:"type:decimal(10,2);default:0"`
	QuarterlyDiscountPercent decimal.Decimal `json:"quarterly_discount_percent" gorm:"type:decimal(5,2);default:0"`
	AnnualDiscountPercent    decimal.Decimal `json:"annual_discount_percent" gorm:"type:decimal(5,2);default:0"`
	BillingFrequency         string          `json:"billing_frequency" gorm:"size:20;not null;default:'Monthly';type:enum('Monthly','Quarterly','Annually')"`
	AgeGroup                 string          `json:"age_group" gorm:"size:50"`
	AcademicYear             string          `json:"academic_year" gorm:"size:20"`
	IsActive                 bool            `json:"is_active" gorm:"default:true"`

	// Relationships
	Components []FeeComponent `json:"components,omitempty" gorm:"foreignKey:FeeStructureID"`
}

// Fee component types
const (
	ComponentTypeRecurring = "recurring"
	ComponentTypeOneTime   = "one_time"
)

type FeeComponent struct {
	UUIDModel
	FeeStructureID string          `json:"fee_structure_id" gorm:"type:char(36);not null;index"`
	Name           string          `json:"name" gorm:"size:100;not null"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	ComponentType  string          `json:"component_type" gorm:"size:20;not null;default:'recurring';type:enum('recurring','one_time')"` // recurring, one_time
	IsRefundable   bool            `json:"is_refundable" gorm:"default:false"`
	IsOptional     bool            `json:"is_optional" gorm:"default:false"`
	Description    string          `json:"description" gorm:"size:255"`
}

// Invoice is one billing document for one child for one period. Parent
// contact fields are snapshotted at issue time so later parent edits do
// not rewrite issued documents. The unique index on child plus billing
// period makes the database the arbiter against double-issuing a month;
// cancelling an invoice clears its period so a corrected one can be
// issued.
type Invoice struct {
	UUIDModel
	InvoiceNumber string          `json:"invoice_number" gorm:"size:20;not null;uniqueIndex"`
	ChildID       string          `json:"child_id" gorm:"type:char(36);not null;index;uniqueIndex:idx_invoice_child_period"`
	CenterID      uint            `json:"center_id" gorm:"not null;index"`
	BillingPeriod *string         `json:"billing_period" gorm:"size:7;uniqueIndex:idx_invoice_child_period"`
	ParentName    string          `json:"parent_name" gorm:"size:200"`
	ParentPhone   string          `json:"parent_phone" gorm:"size:20"`
	ParentEmail   string          `json:"parent_email" gorm:"size:255"`
	IssueDate     time.Time       `json:"issue_date" gorm:"not null;index"`
	DueDate       time.Time       `json:"due_date" gorm:"not null"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Status        string          `json:"status" gorm:"size:20;not null;default:'Pending';type:enum('Pending','Paid','Overdue','Cancelled')"` // Pending, Paid, Overdue, Cancelled

	// Relationships
	Child     Child             `json:"child,omitempty" gorm:"foreignKey:ChildID"`
	LineItems []InvoiceLineItem `json:"line_items,omitempty" gorm:"foreignKey:InvoiceID"`
}

type InvoiceLineItem struct {
	UUIDModel
	InvoiceID      string          `json:"invoice_id" gorm:"type:char(36);not null;index"`
	Description    string          `json:"description" gorm:"size:255;not null"`
	Quantity       int             `json:"quantity" gorm:"not null;default:1"`
	UnitPrice      decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice     decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2);not null"`
	FeeStructureID string          `json:"fee_structure_id" gorm:"type:char(36)"`
}

// Receipt is the cash-payment analog of an invoice. Only issuable for
// children whose payment mode is Cash. Overdue is derived from due_date,
// never stored.
type Receipt struct {
	UUIDModel
	ReceiptNumber      string          `json:"receipt_number" gorm:"size:20;not null;uniqueIndex"`
	ChildID            string          `json:"child_id" gorm:"type:char(36);not null;index"`
	ParentID           string          `json:"parent_id" gorm:"type:char(36);not null"`
	CenterID           uint            `json:"center_id" gorm:"not null;index"`
	BillingPeriodStart time.Time       `json:"billing_period_start" gorm:"not null"`
	BillingPeriodEnd   time.Time       `json:"billing_period_end" gorm:"not null"`
	DueDate            time.Time       `json:"due_date" gorm:"not null;index"`
	BaseAmount         decimal.Decimal `json:"base_amount" gorm:"type:decimal(10,2);not null"`
	OtherFees          decimal.Decimal `json:"other_fees" gorm:"type:decimal(10,2);default:0"`
	TotalAmount        decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	AmountCollected    decimal.Decimal `json:"amount_collected" gorm:"type:decimal(10,2);default:0"`
	PaymentDate        *time.Time      `json:"payment_date"`
	PaymentMethod      string          `json:"payment_method" gorm:"size:50;default:'Cash'"`
	CollectedBy        *uint           `json:"collected_by"`
	Notes              string          `json:"notes" gorm:"type:text"`
	Status             string          `json:"status" gorm:"size:20;not null;default:'Pending';type:enum('Pending','Partial','Collected','Cancelled')"` // Pending, Partial, Collected, Cancelled

	// Relationships
	Child  Child  `json:"child,omitempty" gorm:"foreignKey:ChildID"`
	Parent Parent `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
}

// SequenceCounter is the atomic allocator row behind human-readable codes
// (student IDs, invoice numbers, receipt numbers). One row per
// (series, bucket); the row is locked FOR UPDATE inside the transaction
// that consumes the next serial.
type SequenceCounter struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Series     string    `json:"series" gorm:"size:20;not null;uniqueIndex:idx_series_bucket"`
	Bucket     string    `json:"bucket" gorm:"size:10;not null;uniqueIndex:idx_series_bucket"`
	LastSerial int       `json:"last_serial" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID string `json:"resource_id" gorm:"size:64"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
