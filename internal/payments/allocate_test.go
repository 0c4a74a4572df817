package payments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPlanAllocationOldestFirst(t *testing.T) {
	plan, unused := PlanAllocation(dec("50"), []Outstanding{
		{InvoiceID: 1, Remaining: dec("30")},
		{InvoiceID: 2, Remaining: dec("70")},
	})
	require.Len(t, plan, 2)
	require.True(t, plan[0].Amount.Equal(dec("30")))
	require.True(t, plan[0].Remaining.IsZero())
	require.True(t, plan[1].Amount.Equal(dec("20")))
	require.True(t, plan[1].Remaining.Equal(dec("50")))
	require.True(t, unused.IsZero())
}

func TestPlanAllocationSurplus(t *testing.T) {
	plan, unused := PlanAllocation(dec("200"), []Outstanding{{InvoiceID: 1, Remaining: dec("100")}})
	require.Len(t, plan, 1)
	require.True(t, plan[0].Amount.Equal(dec("100")))
	require.True(t, unused.Equal(dec("100")))
}

func TestPlanAllocationStopsWhenSpent(t *testing.T) {
	plan, unused := PlanAllocation(dec("10"), []Outstanding{
		{InvoiceID: 1, Remaining: dec("10")},
		{InvoiceID: 2, Remaining: dec("5")},
	})
	require.Len(t, plan, 1)
	require.True(t, unused.IsZero())
}

func TestPlanAllocationSkipsSettled(t *testing.T) {
	plan, unused := PlanAllocation(dec("5"), []Outstanding{
		{InvoiceID: 1, Remaining: dec("-2")},
		{InvoiceID: 2, Remaining: dec("0")},
		{InvoiceID: 3, Remaining: dec("8.25")},
	})
	require.Len(t, plan, 1)
	require.Equal(t, int64(3), plan[0].InvoiceID)
	require.True(t, plan[0].Remaining.Equal(dec("3.25")))
	require.True(t, unused.IsZero())
}

func TestPlanAllocationNoDebt(t *testing.T) {
	plan, unused := PlanAllocation(dec("12.5"), nil)
	require.Empty(t, plan)
	require.True(t, unused.Equal(dec("12.5")))
}
