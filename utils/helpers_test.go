package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		exp   string
	}{
		{"plain digits unchanged", "9876543210", "9876543210"},
		{"spaces and dashes removed", "+91 98765-43210", "+919876543210"},
		{"parentheses removed", "(080) 4123 4567", "08041234567"},
		{"leading and trailing space trimmed", "  9876543210  ", "9876543210"},
		{"formatting only yields empty", " - ", ""},
		{"empty input", "", ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizePhone(tc.input); got != tc.exp {
				t.Fatalf("expected %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		input string
		exp   string
	}{
		{"Infosys", "infosys"},
		{"  TATA   Consultancy  Services ", "tata consultancy services"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := NormalizeCompany(tc.input); got != tc.exp {
			t.Errorf("NormalizeCompany(%q) = %q, expected %q", tc.input, got, tc.exp)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	valid := []string{"super_admin", "owner", "admin", "center_director", "staff"}
	for _, role := range valid {
		if !IsValidRole(role) {
			t.Errorf("expected %q to be a valid role", role)
		}
	}
	for _, role := range []string{"teacher", "Admin", ""} {
		if IsValidRole(role) {
			t.Errorf("expected %q to be rejected", role)
		}
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckPassword("password123", hash); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword("wrong", hash); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
