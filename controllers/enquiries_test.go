package controllers

import "testing"

func TestCompanyHasTieUp(t *testing.T) {
	tests := []struct {
		name    string
		company string
		exp     bool
	}{
		{"exact match", "infosys", true},
		{"case insensitive", "Infosys", true},
		{"surrounding whitespace", "  TCS  ", true},
		{"unknown company", "Initech", false},
		{"empty company", "", false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := companyHasTieUp(tc.company); got != tc.exp {
				t.Fatalf("companyHasTieUp(%q) = %v, expected %v", tc.company, got, tc.exp)
			}
		})
	}
}

func TestIsValidEnquiryStatus(t *testing.T) {
	for _, status := range []string{"Open", "Follow-up", "Closed", "Lost"} {
		if !isValidEnquiryStatus(status) {
			t.Errorf("expected %q to be a valid status", status)
		}
	}
	for _, status := range []string{"open", "Pending", ""} {
		if isValidEnquiryStatus(status) {
			t.Errorf("expected %q to be rejected", status)
		}
	}
}
