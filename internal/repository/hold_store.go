package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// PartsHoldParams carries everything a parts hold writes in one
// transaction.
type PartsHoldParams struct {
	TicketID string
	Urgency  domain.HoldUrgency
	Summary  string
	Notes    string
	Items    []domain.PartsRequestItem
	Now      time.Time
}

// IssueHoldParams carries everything an issue hold writes in one
// transaction.
type IssueHoldParams struct {
	TicketID    string
	Category    domain.IssueCategory
	Severity    domain.IssueSeverity
	Description string
	Summary     string
	Metadata    map[string]any
	Now         time.Time
}

// HoldReceipt identifies the records a hold transition created.
type HoldReceipt struct {
	HoldID       string
	DetailID     string
	TimerStopped bool
}

// HoldStore executes hold lifecycle transitions. Every mutation is a
// single transaction: the stopped timer, the hold row, the detail
// record, and the ticket flag commit together or not at all.
type HoldStore interface {
	PlacePartsHold(ctx context.Context, params PartsHoldParams) (*HoldReceipt, error)
	PlaceIssueHold(ctx context.Context, params IssueHoldParams) (*HoldReceipt, error)
	ResolveHold(ctx context.Context, ticketID string, resolutionNotes *string, now time.Time) (*domain.Hold, error)
	GetActiveHold(ctx context.Context, ticketID string) (*domain.Hold, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Hold, error)
}

type holdStore struct {
	pool *pgxpool.Pool
}

// NewHoldStore instantiates the store.
func NewHoldStore(pool *pgxpool.Pool) HoldStore {
	return &holdStore{pool: pool}
}

func (s *holdStore) PlacePartsHold(ctx context.Context, params PartsHoldParams) (*HoldReceipt, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	receipt, err := placeHold(ctx, tx, params.TicketID, domain.HoldTypeParts, params.Urgency, params.Summary, params.Notes, params.Now)
	if err != nil {
		return nil, err
	}

	var requestID string
	const insertRequest = `
        INSERT INTO parts_requests (hold_id, ticket_id)
        VALUES ($1,$2) RETURNING id`
	if err := tx.QueryRow(ctx, insertRequest, receipt.HoldID, params.TicketID).Scan(&requestID); err != nil {
		return nil, err
	}
	const insertItem = `
        INSERT INTO parts_request_items (request_id, part_id, quantity, notes, preferred_source)
        VALUES ($1,$2,$3,$4,$5)`
	for _, item := range params.Items {
		if _, err := tx.Exec(ctx, insertItem, requestID, item.PartID, item.Quantity, item.Notes, item.PreferredSource); err != nil {
			return nil, err
		}
	}
	receipt.DetailID = requestID

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *holdStore) PlaceIssueHold(ctx context.Context, params IssueHoldParams) (*HoldReceipt, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Issue severity is graded on the same scale as parts urgency and
	// stored on the hold row for board sorting.
	receipt, err := placeHold(ctx, tx, params.TicketID, domain.HoldTypeIssue, domain.HoldUrgency(params.Severity), params.Summary, params.Description, params.Now)
	if err != nil {
		return nil, err
	}

	var reportID string
	const insertReport = `
        INSERT INTO issue_reports (hold_id, ticket_id, category, severity, description, metadata)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	if err := tx.QueryRow(ctx, insertReport,
		receipt.HoldID,
		params.TicketID,
		params.Category,
		params.Severity,
		params.Description,
		params.Metadata,
	).Scan(&reportID); err != nil {
		return nil, err
	}
	receipt.DetailID = reportID

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return receipt, nil
}

// placeHold performs the shared transition steps: flip the ticket's
// hold flag (guarding against a concurrent hold), stop any open timer
// on the ticket, and create the hold row.
func placeHold(ctx context.Context, tx pgx.Tx, ticketID string, holdType domain.HoldType, urgency domain.HoldUrgency, summary, notes string, now time.Time) (*HoldReceipt, error) {
	const flagTicket = `
        UPDATE tickets SET hold_active=TRUE, updated_at=NOW()
        WHERE id=$1 AND hold_active=FALSE`
	cmd, err := tx.Exec(ctx, flagTicket, ticketID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrAlreadyOnHold
	}

	const stopTimer = `
        UPDATE time_logs SET ended_at=$2
        WHERE ticket_id=$1 AND ended_at IS NULL`
	stopped, err := tx.Exec(ctx, stopTimer, ticketID, now)
	if err != nil {
		return nil, err
	}

	var holdID string
	const insertHold = `
        INSERT INTO ticket_holds (ticket_id, hold_type, urgency, summary, notes, active)
        VALUES ($1,$2,$3,$4,$5,TRUE) RETURNING id`
	if err := tx.QueryRow(ctx, insertHold, ticketID, holdType, urgency, summary, notes).Scan(&holdID); err != nil {
		return nil, err
	}

	return &HoldReceipt{
		HoldID:       holdID,
		TimerStopped: stopped.RowsAffected() > 0,
	}, nil
}

func (s *holdStore) ResolveHold(ctx context.Context, ticketID string, resolutionNotes *string, now time.Time) (*domain.Hold, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const clearTicket = `
        UPDATE tickets SET hold_active=FALSE, updated_at=NOW()
        WHERE id=$1 AND hold_active=TRUE`
	cmd, err := tx.Exec(ctx, clearTicket, ticketID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrNotOnHold
	}

	// The hold row stays on record as the audit trail of the pause.
	const resolveHold = `
        UPDATE ticket_holds SET active=FALSE, resolved_at=$2, resolution_notes=$3
        WHERE ticket_id=$1 AND active=TRUE
        RETURNING id, ticket_id, hold_type, urgency, summary, notes, active, created_at, resolved_at, resolution_notes`
	var hold domain.Hold
	if err := tx.QueryRow(ctx, resolveHold, ticketID, now, resolutionNotes).Scan(
		&hold.ID,
		&hold.TicketID,
		&hold.Type,
		&hold.Urgency,
		&hold.Summary,
		&hold.Notes,
		&hold.Active,
		&hold.CreatedAt,
		&hold.ResolvedAt,
		&hold.ResolutionNotes,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &hold, nil
}

func (s *holdStore) GetActiveHold(ctx context.Context, ticketID string) (*domain.Hold, error) {
	const query = holdSelect + ` WHERE ticket_id=$1 AND active=TRUE`
	var hold domain.Hold
	if err := s.pool.QueryRow(ctx, query, ticketID).Scan(holdFields(&hold)...); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &hold, nil
}

func (s *holdStore) ListByTicket(ctx context.Context, ticketID string) ([]domain.Hold, error) {
	const query = holdSelect + ` WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Hold
	for rows.Next() {
		var hold domain.Hold
		if err := rows.Scan(holdFields(&hold)...); err != nil {
			return nil, err
		}
		result = append(result, hold)
	}
	return result, rows.Err()
}

const holdSelect = `
        SELECT id, ticket_id, hold_type, urgency, summary, notes, active, created_at, resolved_at, resolution_notes
        FROM ticket_holds`

func holdFields(hold *domain.Hold) []any {
	return []any{
		&hold.ID,
		&hold.TicketID,
		&hold.Type,
		&hold.Urgency,
		&hold.Summary,
		&hold.Notes,
		&hold.Active,
		&hold.CreatedAt,
		&hold.ResolvedAt,
		&hold.ResolutionNotes,
	}
}
