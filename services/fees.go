package services

import (
	"neldrac_go/models"
	"neldrac_go/utils"

	"github.com/shopspring/decimal"
)

// Billing frequencies
const (
	FrequencyMonthly   = "Monthly"
	FrequencyQuarterly = "Quarterly"
	FrequencyAnnually  = "Annually"
)

// OneTimeFee is one itemized one-time component in a quote.
type OneTimeFee struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// FeeQuote is the computed outcome of a fee calculation.
type FeeQuote struct {
	BaseFee         decimal.Decimal `json:"base_fee"`
	Frequency       string          `json:"payment_frequency"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	OneTimeFees     []OneTimeFee    `json:"one_time_fees"`
	Total           decimal.Decimal `json:"total_fee"`
}

var oneHundred = decimal.NewFromInt(100)

// ComputeFee quotes the amount due for a fee structure at the given
// billing frequency. Pure: no database access, deterministic for the
// same inputs. All amounts are rounded half-up to 2 decimal places, and
// only once, after the discount multiplication.
func ComputeFee(structure models.FeeStructure, components []models.FeeComponent, frequency string, includeOneTime bool) (FeeQuote, error) {
	quote := FeeQuote{
		BaseFee:         structure.MonthlyFee.Round(2),
		Frequency:       frequency,
		DiscountPercent: decimal.Zero,
		OneTimeFees:     []OneTimeFee{},
	}

	var total decimal.Decimal
	switch frequency {
	case FrequencyMonthly:
		total = structure.MonthlyFee
	case FrequencyQuarterly:
		quote.DiscountPercent = structure.QuarterlyDiscountPercent
		total = applyDiscount(structure.MonthlyFee.Mul(decimal.NewFromInt(3)), structure.QuarterlyDiscountPercent)
	case FrequencyAnnually:
		quote.DiscountPercent = structure.AnnualDiscountPercent
		total = applyDiscount(structure.MonthlyFee.Mul(decimal.NewFromInt(12)), structure.AnnualDiscountPercent)
	default:
		return FeeQuote{}, utils.NewValidationError("unknown billing frequency: " + frequency)
	}
	total = total.Round(2)

	if includeOneTime {
		for _, comp := range components {
			if comp.ComponentType != models.ComponentTypeOneTime {
				continue
			}
			amount := comp.Amount.Round(2)
			quote.OneTimeFees = append(quote.OneTimeFees, OneTimeFee{Name: comp.Name, Amount: amount})
			total = total.Add(amount)
		}
	}

	quote.Total = total
	return quote, nil
}

// applyDiscount multiplies by (1 - percent/100) without intermediate
// rounding.
func applyDiscount(amount, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return amount
	}
	factor := decimal.NewFromInt(1).Sub(percent.Div(oneHundred))
	return amount.Mul(factor)
}

// IsValidFrequency reports whether the frequency is one billing supports.
func IsValidFrequency(frequency string) bool {
	switch frequency {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	}
	return false
}
