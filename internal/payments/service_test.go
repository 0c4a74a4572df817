package payments

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/clients"
	"github.com/denimstock/denimstock/internal/invoices"
	"github.com/denimstock/denimstock/internal/shared"
)

type memoryRepo struct {
	clients  map[int64]clients.Client
	invoices map[int64]invoices.Invoice
	payments []Payment
	failOn   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		clients:  map[int64]clients.Client{1: {ID: 1, Name: "Budi"}},
		invoices: make(map[int64]invoices.Invoice),
	}
}

func (m *memoryRepo) addInvoice(id int64, day int, total, paid string) {
	inv := invoices.Invoice{
		ID:            id,
		InvoiceNumber: fmt.Sprintf("INV-%d", id),
		ClientID:      1,
		InvoiceDate:   time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		TotalAmount:   dec(total),
		PaidAmount:    dec(paid),
	}
	inv.Rederive()
	m.invoices[id] = inv
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: m, invoices: make(map[int64]invoices.Invoice, len(m.invoices))}
	for k, v := range m.invoices {
		tx.invoices[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.invoices = tx.invoices
	m.payments = append(m.payments, tx.payments...)
	return nil
}

type memoryTx struct {
	repo     *memoryRepo
	invoices map[int64]invoices.Invoice
	payments []Payment
}

func (t *memoryTx) LockInvoice(ctx context.Context, id int64) (invoices.Invoice, error) {
	inv, ok := t.invoices[id]
	if !ok {
		return invoices.Invoice{}, fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	return inv, nil
}

func (t *memoryTx) UpdateInvoiceAmounts(ctx context.Context, inv invoices.Invoice) error {
	t.invoices[inv.ID] = inv
	return nil
}

func (t *memoryTx) InsertClient(ctx context.Context, req clients.CreateClientRequest) (clients.Client, error) {
	return clients.Client{}, fmt.Errorf("not supported")
}

func (t *memoryTx) LockClient(ctx context.Context, id int64) (clients.Client, error) {
	c, ok := t.repo.clients[id]
	if !ok {
		return clients.Client{}, fmt.Errorf("client %d: %w", id, shared.ErrNotFound)
	}
	return c, nil
}

func (t *memoryTx) LockOutstandingInvoices(ctx context.Context, clientID int64) ([]invoices.Invoice, error) {
	var out []invoices.Invoice
	for _, inv := range t.invoices {
		if inv.ClientID == clientID && inv.Outstanding() {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].InvoiceDate.Equal(out[j].InvoiceDate) {
			return out[i].InvoiceDate.Before(out[j].InvoiceDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memoryTx) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	if p.InvoiceID == t.repo.failOn {
		return Payment{}, fmt.Errorf("insert failed")
	}
	p.ID = int64(len(t.repo.payments) + len(t.payments) + 1)
	t.payments = append(t.payments, p)
	return p, nil
}

type memoryIdempotency struct {
	keys map[string]bool
}

func (m *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

type recordingMetrics struct {
	rows   map[string]int
	unused decimal.Decimal
}

func (m *recordingMetrics) PaymentRecorded(path string, rows int) { m.rows[path] += rows }
func (m *recordingMetrics) UnusedPayment(amount decimal.Decimal) { m.unused = m.unused.Add(amount) }

func newTestService(repo *memoryRepo) (*Service, *memoryIdempotency, *recordingMetrics) {
	idem := &memoryIdempotency{keys: make(map[string]bool)}
	metrics := &recordingMetrics{rows: make(map[string]int)}
	return NewService(repo, idem, nil, metrics), idem, metrics
}

func TestAddPaymentPartialThenSettled(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(10, 1, "100", "0")
	svc, _, metrics := newTestService(repo)

	inv, p, err := svc.AddPayment(context.Background(), 10, Input{Amount: dec("40"), PaymentMethod: "cash"})
	require.NoError(t, err)
	require.Equal(t, int64(10), p.InvoiceID)
	require.Equal(t, invoices.PaymentPartial, inv.PaymentStatus)
	require.Equal(t, invoices.StatusPaid, inv.Status)
	require.True(t, inv.RemainingAmount.Equal(dec("60")))

	inv, _, err = svc.AddPayment(context.Background(), 10, Input{Amount: dec("60"), PaymentMethod: "visa"})
	require.NoError(t, err)
	require.Equal(t, invoices.PaymentPaid, inv.PaymentStatus)
	require.Equal(t, "visa", inv.PaymentMethod)
	require.True(t, inv.RemainingAmount.IsZero())
	require.Equal(t, 2, metrics.rows["single"])
}

func TestAddPaymentAllowsOverpayment(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(10, 1, "100", "0")
	svc, _, _ := newTestService(repo)

	inv, _, err := svc.AddPayment(context.Background(), 10, Input{Amount: dec("130"), PaymentMethod: "cash"})
	require.NoError(t, err)
	require.True(t, inv.RemainingAmount.Equal(dec("-30")))
	require.Equal(t, invoices.PaymentPaid, inv.PaymentStatus)
}

func TestAddPaymentRejectsNonPositive(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(10, 1, "100", "0")
	svc, _, _ := newTestService(repo)

	for _, amount := range []string{"0", "-5"} {
		_, _, err := svc.AddPayment(context.Background(), 10, Input{Amount: dec(amount), PaymentMethod: "cash"})
		require.ErrorIs(t, err, shared.ErrValidation)
	}
	require.Empty(t, repo.payments)
}

func TestAddPaymentRejectsSubCentAmounts(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(10, 1, "100", "0")
	svc, _, _ := newTestService(repo)

	for _, amount := range []string{"10.005", "10.004", "0.004"} {
		_, _, err := svc.AddPayment(context.Background(), 10, Input{Amount: dec(amount), PaymentMethod: "cash"})
		require.ErrorIs(t, err, shared.ErrValidation, amount)
		require.ErrorContains(t, err, "amount", amount)
	}
	require.Empty(t, repo.payments)
	require.True(t, repo.invoices[10].PaidAmount.IsZero())

	inv, _, err := svc.AddPayment(context.Background(), 10, Input{Amount: dec("10.50"), PaymentMethod: "cash"})
	require.NoError(t, err)
	require.True(t, inv.RemainingAmount.Equal(dec("89.50")))
}

func TestAddPaymentUnknownInvoice(t *testing.T) {
	svc, idem, _ := newTestService(newMemoryRepo())
	_, _, err := svc.AddPayment(context.Background(), 99, Input{Amount: dec("1"), PaymentMethod: "cash", IdempotencyKey: "k1"})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, idem.keys)
}

func TestAddPaymentIdempotencyKeyRejectsReplay(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(10, 1, "100", "0")
	svc, _, _ := newTestService(repo)

	in := Input{Amount: dec("10"), PaymentMethod: "cash", IdempotencyKey: "abc"}
	_, _, err := svc.AddPayment(context.Background(), 10, in)
	require.NoError(t, err)
	_, _, err = svc.AddPayment(context.Background(), 10, in)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, repo.payments, 1)
	require.True(t, repo.invoices[10].PaidAmount.Equal(dec("10")))
}

func TestAddClientPaymentOldestFirst(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(21, 5, "70", "0")
	repo.addInvoice(20, 1, "30", "0")
	svc, _, metrics := newTestService(repo)

	res, err := svc.AddClientPayment(context.Background(), 1, Input{Amount: dec("50"), PaymentMethod: "cash", Notes: "march"})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)
	require.Equal(t, int64(20), res.Allocations[0].InvoiceID)
	require.True(t, res.Allocations[0].Amount.Equal(dec("30")))
	require.Equal(t, invoices.PaymentPaid, res.Allocations[0].PaymentStatus)
	require.Equal(t, int64(21), res.Allocations[1].InvoiceID)
	require.True(t, res.Allocations[1].Amount.Equal(dec("20")))
	require.Equal(t, invoices.PaymentPartial, res.Allocations[1].PaymentStatus)
	require.True(t, res.Applied.Equal(dec("50")))
	require.True(t, res.Unused.IsZero())
	require.False(t, res.FullySettled)

	require.True(t, repo.invoices[20].RemainingAmount.IsZero())
	require.True(t, repo.invoices[21].RemainingAmount.Equal(dec("50")))
	require.Len(t, repo.payments, 2)
	for _, p := range repo.payments {
		require.True(t, strings.HasPrefix(p.Notes, "Payment from Budi"), p.Notes)
		require.Contains(t, p.Notes, "march")
	}
	require.Equal(t, 2, metrics.rows["client"])
}

func TestAddClientPaymentSurplusIsReported(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(20, 1, "100", "0")
	svc, _, metrics := newTestService(repo)

	res, err := svc.AddClientPayment(context.Background(), 1, Input{Amount: dec("200"), PaymentMethod: "cash"})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	require.True(t, res.Applied.Equal(dec("100")))
	require.True(t, res.Unused.Equal(dec("100")))
	require.True(t, res.FullySettled)
	require.True(t, repo.invoices[20].RemainingAmount.IsZero())
	require.True(t, metrics.unused.Equal(dec("100")))
}

func TestAddClientPaymentRejectsSubCentAmounts(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(20, 1, "100", "0")
	svc, _, _ := newTestService(repo)

	_, err := svc.AddClientPayment(context.Background(), 1, Input{Amount: dec("10.005"), PaymentMethod: "cash"})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.payments)
	require.True(t, repo.invoices[20].PaidAmount.IsZero())
}

func TestAddClientPaymentIgnoresEmptyInvoiceWhenSettling(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(20, 1, "100", "0")
	repo.addInvoice(21, 2, "0", "0")
	svc, _, _ := newTestService(repo)

	res, err := svc.AddClientPayment(context.Background(), 1, Input{Amount: dec("100"), PaymentMethod: "cash"})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	require.True(t, res.Unused.IsZero())
	require.True(t, res.FullySettled)
	require.Equal(t, invoices.PaymentPending, repo.invoices[21].PaymentStatus)
}

func TestAddClientPaymentSkipsCancelledAndPaid(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(20, 1, "50", "50")
	repo.addInvoice(21, 2, "40", "0")
	cancelled := repo.invoices[21]
	cancelled.Status = invoices.StatusCancelled
	repo.invoices[21] = cancelled
	repo.addInvoice(22, 3, "10", "0")
	svc, _, _ := newTestService(repo)

	res, err := svc.AddClientPayment(context.Background(), 1, Input{Amount: dec("10"), PaymentMethod: "wallet"})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	require.Equal(t, int64(22), res.Allocations[0].InvoiceID)
	require.True(t, repo.invoices[21].PaidAmount.IsZero())
	require.True(t, res.FullySettled)
}

func TestAddClientPaymentFailureRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.addInvoice(20, 1, "30", "0")
	repo.addInvoice(21, 2, "70", "0")
	repo.failOn = 21
	svc, idem, _ := newTestService(repo)

	_, err := svc.AddClientPayment(context.Background(), 1, Input{Amount: dec("50"), PaymentMethod: "cash", IdempotencyKey: "retry-me"})
	require.Error(t, err)
	require.Empty(t, repo.payments)
	require.True(t, repo.invoices[20].PaidAmount.IsZero())
	require.NotContains(t, idem.keys, "retry-me")
}

func TestAddClientPaymentUnknownClient(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())
	_, err := svc.AddClientPayment(context.Background(), 7, Input{Amount: dec("5"), PaymentMethod: "cash"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
