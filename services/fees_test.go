package services

import (
	"testing"

	"neldrac_go/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name           string
		monthlyFee     string
		quarterlyDisc  string
		annualDisc     string
		frequency      string
		includeOneTime bool
		components     []models.FeeComponent
		expTotal       string
	}{
		{
			name:       "monthly is the base fee unchanged",
			monthlyFee: "1000",
			frequency:  FrequencyMonthly,
			expTotal:   "1000",
		},
		{
			name:          "quarterly applies three months and discount",
			monthlyFee:    "1000",
			quarterlyDisc: "10",
			frequency:     FrequencyQuarterly,
			expTotal:      "2700",
		},
		{
			name:       "annual applies twelve months and discount",
			monthlyFee: "1000",
			annualDisc: "20",
			frequency:  FrequencyAnnually,
			expTotal:   "9600",
		},
		{
			name:          "quarterly without discount",
			monthlyFee:    "1500",
			quarterlyDisc: "0",
			frequency:     FrequencyQuarterly,
			expTotal:      "4500",
		},
		{
			name:           "one-time components are added after discount",
			monthlyFee:     "1000",
			quarterlyDisc:  "10",
			frequency:      FrequencyQuarterly,
			includeOneTime: true,
			components: []models.FeeComponent{
				{Name: "Registration", Amount: dec("500"), ComponentType: models.ComponentTypeOneTime},
				{Name: "Kit", Amount: dec("300"), ComponentType: models.ComponentTypeOneTime},
			},
			expTotal: "3500",
		},
		{
			name:           "recurring components are never itemized",
			monthlyFee:     "1000",
			frequency:      FrequencyMonthly,
			includeOneTime: true,
			components: []models.FeeComponent{
				{Name: "Meals", Amount: dec("2000"), ComponentType: models.ComponentTypeRecurring},
			},
			expTotal: "1000",
		},
		{
			name:           "one-time components ignored when not requested",
			monthlyFee:     "1000",
			frequency:      FrequencyMonthly,
			includeOneTime: false,
			components: []models.FeeComponent{
				{Name: "Registration", Amount: dec("500"), ComponentType: models.ComponentTypeOneTime},
			},
			expTotal: "1000",
		},
		{
			name:          "rounds half up once after the discount",
			monthlyFee:    "999.99",
			quarterlyDisc: "7.5",
			frequency:     FrequencyQuarterly,
			// 2999.97 * 0.925 = 2774.97225, rounded once
			expTotal: "2774.97",
		},
		{
			name:       "no intermediate rounding on annual discount",
			monthlyFee: "333.33",
			annualDisc: "12.5",
			frequency:  FrequencyAnnually,
			// 3999.96 * 0.875 = 3499.965, rounds half up
			expTotal: "3499.97",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			structure := models.FeeStructure{
				MonthlyFee: dec(tc.monthlyFee),
			}
			if tc.quarterlyDisc != "" {
				structure.QuarterlyDiscountPercent = dec(tc.quarterlyDisc)
			}
			if tc.annualDisc != "" {
				structure.AnnualDiscountPercent = dec(tc.annualDisc)
			}

			quote, err := ComputeFee(structure, tc.components, tc.frequency, tc.includeOneTime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !quote.Total.Equal(dec(tc.expTotal)) {
				t.Fatalf("expected total %s, got %s", tc.expTotal, quote.Total)
			}
		})
	}
}

func TestComputeFeeUnknownFrequency(t *testing.T) {
	structure := models.FeeStructure{MonthlyFee: dec("1000")}
	if _, err := ComputeFee(structure, nil, "Weekly", false); err == nil {
		t.Fatalf("expected error for unknown frequency")
	}
}

func TestComputeFeeItemizesOneTime(t *testing.T) {
	structure := models.FeeStructure{MonthlyFee: dec("1000")}
	components := []models.FeeComponent{
		{Name: "Registration", Amount: dec("500"), ComponentType: models.ComponentTypeOneTime},
		{Name: "Meals", Amount: dec("2000"), ComponentType: models.ComponentTypeRecurring},
		{Name: "Kit", Amount: dec("300"), ComponentType: models.ComponentTypeOneTime},
	}

	quote, err := ComputeFee(structure, components, FrequencyMonthly, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quote.OneTimeFees) != 2 {
		t.Fatalf("expected 2 itemized one-time fees, got %d", len(quote.OneTimeFees))
	}
	if quote.OneTimeFees[0].Name != "Registration" || quote.OneTimeFees[1].Name != "Kit" {
		t.Fatalf("unexpected itemization order: %+v", quote.OneTimeFees)
	}
}

func TestIsValidFrequency(t *testing.T) {
	tests := []struct {
		frequency string
		valid     bool
	}{
		{FrequencyMonthly, true},
		{FrequencyQuarterly, true},
		{FrequencyAnnually, true},
		{"Weekly", false},
		{"monthly", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := IsValidFrequency(tc.frequency); got != tc.valid {
			t.Errorf("IsValidFrequency(%q) = %v, expected %v", tc.frequency, got, tc.valid)
		}
	}
}
