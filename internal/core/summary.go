package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CategoryTotal is one row of the monthly breakdown.
type CategoryTotal struct {
	CategoryName string          `json:"category_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// Report is the server-computed summary for one year+month.
type Report struct {
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	ExpensesByCategory []CategoryTotal `json:"expenses_by_category"`
}

// IsEmpty reports whether there is nothing to chart.
func (r Report) IsEmpty() bool {
	return len(r.ExpensesByCategory) == 0
}

// ClampMonth forces a month into the 1-12 range.
func ClampMonth(month int) int {
	if month < 1 {
		return 1
	}
	if month > 12 {
		return 12
	}
	return month
}

// PadMonth is the two-digit month used on the wire ("05").
func PadMonth(month int) string {
	return fmt.Sprintf("%02d", month)
}
