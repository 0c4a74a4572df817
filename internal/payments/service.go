package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/denimstock/denimstock/internal/invoices"
	"github.com/denimstock/denimstock/internal/observability"
	"github.com/denimstock/denimstock/internal/shared"
)

const idempotencyModule = "payments"

// IdempotencyPort guards against a payment post being applied twice.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// MetricsPort receives payment counters.
type MetricsPort interface {
	PaymentRecorded(path string, rows int)
	UnusedPayment(amount decimal.Decimal)
}

// Service records payments against invoices.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	logger      *slog.Logger
	metrics     MetricsPort
	now         func() time.Time
}

// NewService builds Service. idempotency may be nil.
func NewService(repo RepositoryPort, idempotency IdempotencyPort, logger *slog.Logger, metrics MetricsPort) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = (*observability.Metrics)(nil)
	}
	return &Service{repo: repo, idempotency: idempotency, logger: logger, metrics: metrics, now: time.Now}
}

func (in Input) validate() error {
	if !in.Amount.IsPositive() {
		return shared.Invalid("amount", "must be greater than 0")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return shared.Invalid("amount", "must have at most 2 decimal places")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return shared.Invalid("payment_method", "is required")
	}
	return nil
}

// AddPayment applies the full amount to one invoice. Paying more than the
// remainder is allowed and leaves a negative remaining amount.
func (s *Service) AddPayment(ctx context.Context, invoiceID int64, in Input) (invoices.Invoice, Payment, error) {
	if err := in.validate(); err != nil {
		return invoices.Invoice{}, Payment{}, err
	}
	release, err := s.claim(ctx, in.IdempotencyKey)
	if err != nil {
		return invoices.Invoice{}, Payment{}, err
	}

	var inv invoices.Invoice
	var payment Payment
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		payment, err = tx.InsertPayment(ctx, Payment{
			InvoiceID:     invoiceID,
			Amount:        in.Amount,
			PaymentMethod: in.PaymentMethod,
			PaidAt:        s.now(),
			Notes:         strings.TrimSpace(in.Notes),
		})
		if err != nil {
			return err
		}
		locked.PaidAmount = locked.PaidAmount.Add(in.Amount)
		locked.PaymentMethod = in.PaymentMethod
		locked.Rederive()
		if err := tx.UpdateInvoiceAmounts(ctx, locked); err != nil {
			return err
		}
		inv = locked
		return nil
	})
	if err != nil {
		release()
		return invoices.Invoice{}, Payment{}, err
	}
	s.metrics.PaymentRecorded(observability.PaymentPathSingle, 1)
	if inv.RemainingAmount.IsNegative() {
		s.logger.Warn("invoice overpaid",
			slog.Int64("invoice_id", invoiceID),
			slog.String("remaining", inv.RemainingAmount.StringFixed(2)))
	}
	return inv, payment, nil
}

// AddClientPayment spreads a payment over the client's open invoices, oldest
// first. Whatever exceeds the open debt is reported back as Unused.
func (s *Service) AddClientPayment(ctx context.Context, clientID int64, in Input) (ClientPaymentResult, error) {
	if err := in.validate(); err != nil {
		return ClientPaymentResult{}, err
	}
	release, err := s.claim(ctx, in.IdempotencyKey)
	if err != nil {
		return ClientPaymentResult{}, err
	}

	result := ClientPaymentResult{ClientID: clientID}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		client, err := tx.LockClient(ctx, clientID)
		if err != nil {
			return err
		}
		open, err := tx.LockOutstandingInvoices(ctx, clientID)
		if err != nil {
			return err
		}
		byID := make(map[int64]invoices.Invoice, len(open))
		outstanding := make([]Outstanding, 0, len(open))
		for _, inv := range open {
			byID[inv.ID] = inv
			outstanding = append(outstanding, Outstanding{InvoiceID: inv.ID, Remaining: inv.RemainingAmount})
		}

		plan, unused := PlanAllocation(in.Amount, outstanding)
		notes := fmt.Sprintf("Payment from %s", client.Name)
		if n := strings.TrimSpace(in.Notes); n != "" {
			notes += ": " + n
		}
		paidAt := s.now()
		applied := decimal.Zero
		for i, a := range plan {
			payment, err := tx.InsertPayment(ctx, Payment{
				InvoiceID:     a.InvoiceID,
				Amount:        a.Amount,
				PaymentMethod: in.PaymentMethod,
				PaidAt:        paidAt,
				Notes:         notes,
			})
			if err != nil {
				return err
			}
			inv := byID[a.InvoiceID]
			inv.PaidAmount = inv.PaidAmount.Add(a.Amount)
			inv.PaymentMethod = in.PaymentMethod
			inv.Rederive()
			if err := tx.UpdateInvoiceAmounts(ctx, inv); err != nil {
				return err
			}
			byID[inv.ID] = inv
			plan[i].PaymentID = payment.ID
			plan[i].InvoiceNumber = inv.InvoiceNumber
			plan[i].Remaining = inv.RemainingAmount
			plan[i].PaymentStatus = inv.PaymentStatus
			applied = applied.Add(a.Amount)
		}

		settled := true
		for _, inv := range byID {
			if inv.Outstanding() && inv.RemainingAmount.IsPositive() {
				settled = false
				break
			}
		}
		result.Allocations = plan
		result.Applied = applied
		result.Unused = unused
		result.FullySettled = settled
		return nil
	})
	if err != nil {
		release()
		return ClientPaymentResult{}, err
	}
	if result.Allocations == nil {
		result.Allocations = []Allocation{}
	}

	s.metrics.PaymentRecorded(observability.PaymentPathClient, len(result.Allocations))
	if result.Unused.IsPositive() {
		s.metrics.UnusedPayment(result.Unused)
		s.logger.Warn("client payment exceeds open debt",
			slog.Int64("client_id", clientID),
			slog.String("amount", in.Amount.StringFixed(2)),
			slog.String("unused", result.Unused.StringFixed(2)))
	}
	return result, nil
}

// claim reserves the idempotency key and returns a func that frees it when
// the payment fails.
func (s *Service) claim(ctx context.Context, key string) (func(), error) {
	key = strings.TrimSpace(key)
	if key == "" || s.idempotency == nil {
		return func() {}, nil
	}
	if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("payments: idempotency: %w", err)
	}
	return func() {
		if err := s.idempotency.Delete(ctx, key); err != nil {
			s.logger.Warn("idempotency key release failed", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
