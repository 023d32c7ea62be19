package worker

import (
	"context"
	"fmt"
	"time"

	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/rs/zerolog/log"
)

// LedgerWorker posts external bookkeeping entries for committed sales.
// One entry per payment, account "sales:<method>". Jobs may be redelivered
// after a crash, so posting is guarded by a reference check.
type LedgerWorker struct {
	orders repository.OrderRepository
	ledger repository.LedgerRepository
}

func NewLedgerWorker(orders repository.OrderRepository, ledger repository.LedgerRepository) *LedgerWorker {
	return &LedgerWorker{orders: orders, ledger: ledger}
}

func (w *LedgerWorker) Process(ctx context.Context, job LedgerJob) error {
	posted, err := w.ledger.ExistsForReference(ctx, job.OrderID)
	if err != nil {
		return fmt.Errorf("ledger: reference check for order %s: %w", job.OrderID, err)
	}
	if posted {
		log.Debug().
			Str("order_id", job.OrderID.String()).
			Msg("ledger: already posted, skipping")
		return nil
	}

	order, err := w.orders.FindByID(ctx, job.OrderID)
	if err != nil {
		return fmt.Errorf("ledger: load order %s: %w", job.OrderID, err)
	}

	now := time.Now().UTC()
	entries := make([]model.LedgerEntry, 0, len(order.Payments))
	for _, p := range order.Payments {
		entries = append(entries, model.LedgerEntry{
			Account:   "sales:" + string(p.Method),
			Direction: model.Inflow,
			Amount:    p.Amount,
			Reference: job.OrderID,
			SessionID: job.SessionID,
			PostedAt:  now,
		})
	}

	if err := w.ledger.Create(ctx, entries); err != nil {
		return fmt.Errorf("ledger: post entries for order %s: %w", job.OrderID, err)
	}

	log.Info().
		Str("order_id", job.OrderID.String()).
		Int("ticket", job.Ticket).
		Int("entries", len(entries)).
		Msg("ledger: entries posted")
	return nil
}
