package payments

import "github.com/shopspring/decimal"

// PlanAllocation spreads amount over the invoices in the given order, giving
// each min(left, remaining). Invoices with nothing remaining are skipped. It
// returns the planned allocations and the amount left over.
func PlanAllocation(amount decimal.Decimal, open []Outstanding) ([]Allocation, decimal.Decimal) {
	left := amount
	var plan []Allocation
	for _, o := range open {
		if !left.IsPositive() {
			break
		}
		if !o.Remaining.IsPositive() {
			continue
		}
		share := decimal.Min(left, o.Remaining)
		plan = append(plan, Allocation{
			InvoiceID: o.InvoiceID,
			Amount:    share,
			Remaining: o.Remaining.Sub(share),
		})
		left = left.Sub(share)
	}
	if left.IsNegative() {
		left = decimal.Zero
	}
	return plan, left
}
