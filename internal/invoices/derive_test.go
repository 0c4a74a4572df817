package invoices

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	d := decimal.NewFromInt
	cases := []struct {
		name          string
		total, paid   decimal.Decimal
		remaining     decimal.Decimal
		paymentStatus string
		status        string
	}{
		{"empty", d(0), d(0), d(0), PaymentPending, StatusPending},
		{"unpaid", d(100), d(0), d(100), PaymentPending, StatusPending},
		{"partial", d(100), d(40), d(60), PaymentPartial, StatusPaid},
		{"settled", d(100), d(100), d(0), PaymentPaid, StatusPaid},
		{"overpaid", d(100), d(130), d(-30), PaymentPaid, StatusPaid},
		{"paid with no lines", d(0), d(10), d(-10), PaymentPaid, StatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			remaining, paymentStatus, status := Derive(tc.total, tc.paid)
			require.True(t, remaining.Equal(tc.remaining), "remaining %s", remaining)
			require.Equal(t, tc.paymentStatus, paymentStatus)
			require.Equal(t, tc.status, status)
		})
	}
}

func TestRederiveKeepsCancelled(t *testing.T) {
	inv := Invoice{TotalAmount: decimal.NewFromInt(50), PaidAmount: decimal.NewFromInt(50), Status: StatusCancelled}
	inv.Rederive()
	require.Equal(t, StatusCancelled, inv.Status)
	require.Equal(t, PaymentPaid, inv.PaymentStatus)
	require.True(t, inv.RemainingAmount.IsZero())
	require.False(t, inv.Outstanding())
}
