package service

import (
	"context"
	"fmt"

	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type SessionService interface {
	Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionReportResponse, error)
	Close(ctx context.Context, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error)
	RecordWithdrawal(ctx context.Context, operatorID uuid.UUID, req dto.WithdrawalRequest) error
	RecordReinforcement(ctx context.Context, operatorID uuid.UUID, req dto.ReinforcementRequest) error
	Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	Active(ctx context.Context, operatorID uuid.UUID) (*dto.SessionReportResponse, error)
	History(ctx context.Context, page, limit int) ([]dto.SessionReportResponse, int64, error)
	Movements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error)
	// RequireOpen is called by the cart and checkout services before any sale
	// mutation: no open session, no sale.
	RequireOpen(ctx context.Context, terminal int) (*model.CashSession, error)
}

type sessionService struct {
	repo repository.SessionRepository
}

func NewSessionService(repo repository.SessionRepository) SessionService {
	return &sessionService{repo: repo}
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *sessionService) Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionReportResponse, error) {
	// Guard: at most one open session per terminal
	if existing, err := s.repo.FindOpenByTerminal(ctx, req.Terminal); err == nil && existing != nil {
		return nil, &SessionAlreadyOpenError{Terminal: req.Terminal, SessionID: existing.ID}
	}

	sess := &model.CashSession{
		Terminal:       req.Terminal,
		OperatorID:     operatorID,
		OpeningBalance: req.OpeningBalance,
		Status:         model.SessionOpen,
		OpenedAt:       nowUTC(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	return s.buildReport(ctx, sess)
}

// ── Close ────────────────────────────────────────────────────────────────────
// Soft reconciliation: the counted cash is compared against the expected cash
// balance, the signed variance is recorded, and the session closes regardless
// of the mismatch. Recovery of a variance is a supervisor matter, never a
// reason to keep the drawer open.

func (s *sessionService) Close(ctx context.Context, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session_id: %w", err)
	}

	sess, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("cash session not found")
	}
	if sess.Status != model.SessionOpen {
		return nil, &SessionClosedError{Terminal: sess.Terminal}
	}

	expected, err := s.expectedBalances(ctx, sess)
	if err != nil {
		return nil, err
	}

	variance := req.CountedCash.Sub(expected.Cash)
	var variancePct decimal.Decimal
	if !expected.Cash.IsZero() {
		variancePct = variance.Div(expected.Cash).Mul(decimal.NewFromInt(100)).Round(2)
	}
	level := classifyVariance(variancePct)
	if level == "critical" {
		log.Warn().
			Str("session_id", sess.ID.String()).
			Str("variance", variance.String()).
			Str("variance_pct", variancePct.String()).
			Msg("cash session closed with critical variance")
	}

	now := nowUTC()
	expectedCash := expected.Cash
	counted := req.CountedCash
	sess.ExpectedBalance = &expectedCash
	sess.CountedBalance = &counted
	sess.Variance = &variance
	sess.VariancePct = &variancePct
	sess.VarianceLevel = &level
	sess.Notes = req.Notes
	sess.Status = model.SessionClosed
	sess.ClosedAt = &now

	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	return &dto.CloseSessionResponse{
		SessionID:   sessionID.String(),
		Expected:    expected,
		CountedCash: req.CountedCash,
		Variance: dto.VarianceResponse{
			Amount:  variance,
			Percent: variancePct,
			Level:   level,
		},
		Status: string(model.SessionClosed),
	}, nil
}

// ── Manual movements ─────────────────────────────────────────────────────────
// Withdrawals and reinforcements move physical cash, so the method is always
// cash. Movements are immutable — no Update/Delete exists on the repository.

func (s *sessionService) RecordWithdrawal(ctx context.Context, operatorID uuid.UUID, req dto.WithdrawalRequest) error {
	return s.recordManual(ctx, operatorID, req.SessionID, req.Amount, model.Outflow, model.CategoryWithdrawal, req.Reason)
}

func (s *sessionService) RecordReinforcement(ctx context.Context, operatorID uuid.UUID, req dto.ReinforcementRequest) error {
	return s.recordManual(ctx, operatorID, req.SessionID, req.Amount, model.Inflow, model.CategoryReinforcement, req.Notes)
}

func (s *sessionService) recordManual(ctx context.Context, operatorID uuid.UUID, sessionID string, amount decimal.Decimal, dir model.MovementDirection, cat model.MovementCategory, description string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("invalid session_id: %w", err)
	}
	if !amount.IsPositive() {
		return &InvalidAmountError{Field: "movement", Amount: amount}
	}

	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("cash session not found")
	}
	if sess.Status != model.SessionOpen {
		return &SessionClosedError{Terminal: sess.Terminal}
	}

	mov := &model.CashMovement{
		SessionID:   id,
		Direction:   dir,
		Category:    cat,
		Method:      model.MethodCash,
		Amount:      amount,
		Description: description,
		CreatedBy:   operatorID,
	}
	return s.repo.CreateMovement(ctx, mov)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *sessionService) Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	sess, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("cash session not found")
	}
	return s.buildReport(ctx, sess)
}

func (s *sessionService) Active(ctx context.Context, operatorID uuid.UUID) (*dto.SessionReportResponse, error) {
	sess, err := s.repo.FindOpenByOperator(ctx, operatorID)
	if err != nil || sess == nil {
		return nil, nil
	}
	return s.buildReport(ctx, sess)
}

func (s *sessionService) History(ctx context.Context, page, limit int) ([]dto.SessionReportResponse, int64, error) {
	sessions, total, err := s.repo.ListSessions(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.SessionReportResponse, 0, len(sessions))
	for i := range sessions {
		r, err := s.buildReport(ctx, &sessions[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, nil
}

func (s *sessionService) Movements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error) {
	movs, err := s.repo.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		var ref *string
		if m.ReferenceID != nil {
			v := m.ReferenceID.String()
			ref = &v
		}
		out = append(out, dto.MovementResponse{
			ID:          m.ID.String(),
			Direction:   string(m.Direction),
			Category:    string(m.Category),
			Method:      string(m.Method),
			Amount:      m.Amount,
			Description: m.Description,
			ReferenceID: ref,
			CreatedAt:   m.CreatedAt.Format(timeFormat),
		})
	}
	return out, nil
}

// ── RequireOpen ──────────────────────────────────────────────────────────────

func (s *sessionService) RequireOpen(ctx context.Context, terminal int) (*model.CashSession, error) {
	sess, err := s.repo.FindOpenByTerminal(ctx, terminal)
	if err != nil || sess == nil {
		return nil, &SessionClosedError{Terminal: terminal}
	}
	return sess, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// classifyVariance returns "normal" | "warning" | "critical"
// normal: |pct| <= 1%, warning: <= 5%, critical: > 5%
func classifyVariance(pct decimal.Decimal) string {
	abs := pct.Abs()
	one := decimal.NewFromInt(1)
	five := decimal.NewFromInt(5)
	switch {
	case abs.LessThanOrEqual(one):
		return "normal"
	case abs.LessThanOrEqual(five):
		return "warning"
	default:
		return "critical"
	}
}

// expectedBalances: opening balance counts toward cash only; every other
// method is just the signed net of its movements.
func (s *sessionService) expectedBalances(ctx context.Context, sess *model.CashSession) (dto.MethodBalances, error) {
	sums, err := s.repo.SumMovementsByMethod(ctx, sess.ID)
	if err != nil {
		return dto.MethodBalances{}, err
	}
	b := dto.MethodBalances{
		Cash:     sess.OpeningBalance.Add(sums[model.MethodCash]),
		Debit:    sums[model.MethodDebit],
		Credit:   sums[model.MethodCredit],
		Transfer: sums[model.MethodTransfer],
	}
	b.Total = b.Cash.Add(b.Debit).Add(b.Credit).Add(b.Transfer)
	return b, nil
}

func (s *sessionService) buildReport(ctx context.Context, sess *model.CashSession) (*dto.SessionReportResponse, error) {
	expected, err := s.expectedBalances(ctx, sess)
	if err != nil {
		return nil, err
	}

	report := &dto.SessionReportResponse{
		SessionID:      sess.ID.String(),
		Terminal:       sess.Terminal,
		Operator:       sess.OperatorID.String(),
		OpeningBalance: sess.OpeningBalance,
		Expected:       expected,
		CountedCash:    sess.CountedBalance,
		Status:         string(sess.Status),
		Notes:          sess.Notes,
		OpenedAt:       sess.OpenedAt.Format(timeFormat),
	}

	if sess.Variance != nil && sess.VariancePct != nil && sess.VarianceLevel != nil {
		report.Variance = &dto.VarianceResponse{
			Amount:  *sess.Variance,
			Percent: *sess.VariancePct,
			Level:   *sess.VarianceLevel,
		}
	}
	if sess.ClosedAt != nil {
		t := sess.ClosedAt.Format(timeFormat)
		report.ClosedAt = &t
	}

	return report, nil
}
