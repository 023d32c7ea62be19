package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Domain error kinds. All are returned before any state is written, except
// InsufficientStockError, which aborts (and rolls back) the checkout
// transaction. Each carries the context the operator needs to correct and
// resubmit.

// SessionClosedError: a cash or sale mutation was attempted with no open
// session on the terminal.
type SessionClosedError struct {
	Terminal int
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("no open cash session on terminal %d", e.Terminal)
}

// SessionAlreadyOpenError: OpenSession called while a session is already open.
type SessionAlreadyOpenError struct {
	Terminal  int
	SessionID uuid.UUID
}

func (e *SessionAlreadyOpenError) Error() string {
	return fmt.Sprintf("terminal %d already has an open cash session (%s)", e.Terminal, e.SessionID)
}

// InsufficientStockError: the conditional decrement at commit time found less
// stock than the line requested. The whole checkout is rolled back.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.Name, e.Requested, e.Available)
}

// InsufficientTenderError: FinalizeSale called while part of the total is
// still due.
type InsufficientTenderError struct {
	RemainingDue decimal.Decimal
}

func (e *InsufficientTenderError) Error() string {
	return fmt.Sprintf("order not fully tendered: %s still due", e.RemainingDue)
}

// InvalidAmountError: a non-positive discount, tender, or movement amount.
type InvalidAmountError struct {
	Field  string
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid %s amount: %s (must be positive)", e.Field, e.Amount)
}

// TerminalBusyError: Resume called while the terminal's working cart still
// holds an in-progress order. The caller must finalize, suspend, or clear it
// first; resume never overwrites a live cart.
type TerminalBusyError struct {
	Terminal int
}

func (e *TerminalBusyError) Error() string {
	return fmt.Sprintf("terminal %d has an in-progress order; finalize, suspend, or clear it before resuming", e.Terminal)
}

// SuspendedOrderNotFoundError: unknown id on resume/cancel — including a
// record already consumed by an earlier resume.
type SuspendedOrderNotFoundError struct {
	ID uuid.UUID
}

func (e *SuspendedOrderNotFoundError) Error() string {
	return fmt.Sprintf("suspended order %s not found", e.ID)
}
