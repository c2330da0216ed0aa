package services

import (
	"testing"

	"neldrac_go/models"

	"github.com/shopspring/decimal"
)

func TestEligibleParents(t *testing.T) {
	tests := []struct {
		name       string
		parents    []DraftParentInput
		expCount   int
		expPrimary []bool
	}{
		{
			name: "parent without phone is dropped",
			parents: []DraftParentInput{
				{FirstName: "Asha", Phone: "9876543210"},
				{FirstName: "Ravi", Phone: ""},
			},
			expCount:   1,
			expPrimary: []bool{true},
		},
		{
			name: "parent without name is dropped",
			parents: []DraftParentInput{
				{FirstName: "", Phone: "9876543210"},
				{FirstName: "Asha", Phone: "9876543211"},
			},
			expCount:   1,
			expPrimary: []bool{true},
		},
		{
			name: "first eligible becomes primary when none flagged",
			parents: []DraftParentInput{
				{FirstName: "Asha", Phone: "9876543210"},
				{FirstName: "Ravi", Phone: "9876543211"},
			},
			expCount:   2,
			expPrimary: []bool{true, false},
		},
		{
			name: "explicit primary is preserved",
			parents: []DraftParentInput{
				{FirstName: "Asha", Phone: "9876543210"},
				{FirstName: "Ravi", Phone: "9876543211", IsPrimary: true},
			},
			expCount:   2,
			expPrimary: []bool{false, true},
		},
		{
			name: "phone with only formatting is dropped",
			parents: []DraftParentInput{
				{FirstName: "Asha", Phone: " - "},
			},
			expCount: 0,
		},
		{
			name:     "empty input yields empty output",
			parents:  nil,
			expCount: 0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := eligibleParents(tc.parents)
			if len(got) != tc.expCount {
				t.Fatalf("expected %d eligible parents, got %d", tc.expCount, len(got))
			}
			for i, p := range got {
				if p.IsPrimary != tc.expPrimary[i] {
					t.Fatalf("parent %d: expected primary=%v, got %v", i, tc.expPrimary[i], p.IsPrimary)
				}
			}
		})
	}
}

func TestValidateFeeDetails(t *testing.T) {
	original := decimal.NewFromInt(18000)
	final := decimal.NewFromInt(16000)
	zero := decimal.Zero

	tests := []struct {
		name    string
		fd      FeeDetailsInput
		wantErr bool
	}{
		{
			name:    "both fees present",
			fd:      FeeDetailsInput{OriginalFeePerMonth: &original, FinalFeePerMonth: &final},
			wantErr: false,
		},
		{
			name:    "missing original fee",
			fd:      FeeDetailsInput{FinalFeePerMonth: &final},
			wantErr: true,
		},
		{
			name:    "missing final fee",
			fd:      FeeDetailsInput{OriginalFeePerMonth: &original},
			wantErr: true,
		},
		{
			name:    "zero final fee",
			fd:      FeeDetailsInput{OriginalFeePerMonth: &original, FinalFeePerMonth: &zero},
			wantErr: true,
		},
		{
			name:    "empty input",
			fd:      FeeDetailsInput{},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := validateFeeDetails(tc.fd)
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAppendAuditRemark(t *testing.T) {
	tests := []struct {
		name    string
		remarks string
		entry   string
		exp     string
	}{
		{"empty trail starts fresh", "", "Admission approved. Student ID: NKD2505001", "Admission approved. Student ID: NKD2505001"},
		{"appends on a new line", "Visited on Monday", "Converted to Student ID: NKD2505002", "Visited on Monday\nConverted to Student ID: NKD2505002"},
		{"whitespace-only trail treated as empty", "   ", "entry", "entry"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := appendAuditRemark(tc.remarks, tc.entry); got != tc.exp {
				t.Fatalf("expected %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestPaymentModeOrDefault(t *testing.T) {
	tests := []struct {
		input string
		exp   string
	}{
		{models.PaymentModeCash, models.PaymentModeCash},
		{models.PaymentModeInvoice, models.PaymentModeInvoice},
		{"", models.PaymentModeInvoice},
		{"cheque", models.PaymentModeInvoice},
	}

	for _, tc := range tests {
		if got := paymentModeOrDefault(tc.input); got != tc.exp {
			t.Errorf("paymentModeOrDefault(%q) = %q, expected %q", tc.input, got, tc.exp)
		}
	}
}

func TestAdmissionBlocked(t *testing.T) {
	tests := []struct {
		name    string
		enquiry models.Enquiry
		wantErr bool
	}{
		{
			name:    "open enquiry with no approval proceeds",
			enquiry: models.Enquiry{Status: models.EnquiryStatusOpen, ApprovalStatus: models.ApprovalStatusNone},
			wantErr: false,
		},
		{
			name:    "closed enquiry is blocked",
			enquiry: models.Enquiry{Status: models.EnquiryStatusClosed, ApprovalStatus: models.ApprovalStatusApproved},
			wantErr: true,
		},
		{
			name:    "open enquiry with pending approval is blocked",
			enquiry: models.Enquiry{Status: models.EnquiryStatusOpen, ApprovalStatus: models.ApprovalStatusPending},
			wantErr: true,
		},
		{
			name:    "follow-up enquiry with pending approval is blocked",
			enquiry: models.Enquiry{Status: models.EnquiryStatusFollowUp, ApprovalStatus: models.ApprovalStatusPending},
			wantErr: true,
		},
		{
			name:    "rejected approval allows a fresh attempt",
			enquiry: models.Enquiry{Status: models.EnquiryStatusOpen, ApprovalStatus: models.ApprovalStatusRejected},
			wantErr: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := admissionBlocked(&tc.enquiry)
			if tc.wantErr && err == nil {
				t.Fatalf("expected conflict, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNoteSuffix(t *testing.T) {
	if got := noteSuffix(""); got != "" {
		t.Fatalf("expected empty suffix, got %q", got)
	}
	if got := noteSuffix("fee too low"); got != " Reason: fee too low" {
		t.Fatalf("unexpected suffix %q", got)
	}
}
