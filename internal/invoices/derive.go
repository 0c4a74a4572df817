package invoices

import "github.com/shopspring/decimal"

// Derive computes the remaining amount and both statuses from total and paid.
//
// An invoice with nothing billed and nothing paid stays pending. Otherwise a
// non-positive remainder settles the invoice, and any payment at all moves
// the status to paid with a partial payment status.
func Derive(total, paid decimal.Decimal) (remaining decimal.Decimal, paymentStatus, status string) {
	remaining = total.Sub(paid)
	switch {
	case total.IsZero() && paid.IsZero():
		return remaining, PaymentPending, StatusPending
	case !remaining.IsPositive():
		return remaining, PaymentPaid, StatusPaid
	case paid.IsPositive():
		return remaining, PaymentPartial, StatusPaid
	default:
		return remaining, PaymentPending, StatusPending
	}
}

// Rederive refreshes the derived fields in place. A cancelled invoice keeps
// its status.
func (inv *Invoice) Rederive() {
	remaining, paymentStatus, status := Derive(inv.TotalAmount, inv.PaidAmount)
	inv.RemainingAmount = remaining
	inv.PaymentStatus = paymentStatus
	if inv.Status != StatusCancelled {
		inv.Status = status
	}
}

// Outstanding reports whether the invoice can still take client payments.
func (inv Invoice) Outstanding() bool {
	if inv.Status == StatusCancelled {
		return false
	}
	return inv.PaymentStatus == PaymentPending || inv.PaymentStatus == PaymentPartial
}
