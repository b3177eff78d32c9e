package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// TimeLogStore persists billable timers. A technician holds at most one
// open timer system-wide; the transaction re-checks under lock and a
// partial unique index backs the invariant up at the schema level.
type TimeLogStore interface {
	StartTimer(ctx context.Context, technicianID, ticketID string, startedAt time.Time) (*domain.TimeLog, error)
	StopTimer(ctx context.Context, technicianID, ticketID string, endedAt time.Time) (*domain.TimeLog, error)
	GetActiveTimer(ctx context.Context, technicianID string) (*domain.TimeLog, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TimeLog, error)
}

type timeLogStore struct {
	pool *pgxpool.Pool
}

// NewTimeLogStore instantiates the store.
func NewTimeLogStore(pool *pgxpool.Pool) TimeLogStore {
	return &timeLogStore{pool: pool}
}

func (s *timeLogStore) StartTimer(ctx context.Context, technicianID, ticketID string, startedAt time.Time) (*domain.TimeLog, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const checkOpen = `
        SELECT id FROM time_logs
        WHERE technician_id=$1 AND ended_at IS NULL
        FOR UPDATE`
	var openID string
	err = tx.QueryRow(ctx, checkOpen, technicianID).Scan(&openID)
	switch {
	case err == nil:
		return nil, ErrTimerRunning
	case err != pgx.ErrNoRows:
		return nil, err
	}

	const insert = `
        INSERT INTO time_logs (technician_id, ticket_id, started_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	log := &domain.TimeLog{
		TechnicianID: technicianID,
		TicketID:     ticketID,
		StartedAt:    startedAt,
	}
	if err := tx.QueryRow(ctx, insert, technicianID, ticketID, startedAt).Scan(&log.ID, &log.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *timeLogStore) StopTimer(ctx context.Context, technicianID, ticketID string, endedAt time.Time) (*domain.TimeLog, error) {
	const query = `
        UPDATE time_logs SET ended_at=$3
        WHERE technician_id=$1 AND ticket_id=$2 AND ended_at IS NULL
        RETURNING id, technician_id, ticket_id, started_at, ended_at, created_at`
	var log domain.TimeLog
	if err := s.pool.QueryRow(ctx, query, technicianID, ticketID, endedAt).Scan(
		&log.ID,
		&log.TechnicianID,
		&log.TicketID,
		&log.StartedAt,
		&log.EndedAt,
		&log.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNoOpenTimer
		}
		return nil, err
	}
	return &log, nil
}

// GetActiveTimer returns the technician's open timer, or nil when no
// timer is running.
func (s *timeLogStore) GetActiveTimer(ctx context.Context, technicianID string) (*domain.TimeLog, error) {
	const query = `
        SELECT id, technician_id, ticket_id, started_at, ended_at, created_at
        FROM time_logs WHERE technician_id=$1 AND ended_at IS NULL`
	var log domain.TimeLog
	if err := s.pool.QueryRow(ctx, query, technicianID).Scan(
		&log.ID,
		&log.TechnicianID,
		&log.TicketID,
		&log.StartedAt,
		&log.EndedAt,
		&log.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

func (s *timeLogStore) ListByTicket(ctx context.Context, ticketID string) ([]domain.TimeLog, error) {
	const query = `
        SELECT id, technician_id, ticket_id, started_at, ended_at, created_at
        FROM time_logs WHERE ticket_id=$1 ORDER BY started_at ASC`
	rows, err := s.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimeLog
	for rows.Next() {
		var log domain.TimeLog
		if err := rows.Scan(
			&log.ID,
			&log.TechnicianID,
			&log.TicketID,
			&log.StartedAt,
			&log.EndedAt,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, log)
	}
	return result, rows.Err()
}
