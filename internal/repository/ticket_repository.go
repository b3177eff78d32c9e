package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// TicketFilter captures dispatch board search parameters.
type TicketFilter struct {
	TechnicianID  *string
	Statuses      []domain.TicketStatus
	Priorities    []domain.TicketPriority
	HoldActive    *bool
	SearchTerm    *string
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
	Limit         int
	Offset        int
}

// CommitmentFilter narrows commitment materialization queries. Only
// tickets in an active status with hold_active=false are returned; a
// held ticket keeps its slot on the calendar but is not a commitment
// for conflict purposes.
type CommitmentFilter struct {
	TechnicianID    *string
	From            time.Time
	To              time.Time
	ExcludeTicketID *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListCommitments(ctx context.Context, filter CommitmentFilter) ([]domain.Commitment, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, customer_name, title, description, status, priority,
            technician_id, scheduled_at, duration_minutes, hold_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.CustomerName,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.TechnicianID,
		ticket.ScheduledAt,
		ticket.DurationMinutes,
		ticket.HoldActive,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET customer_name=$1, title=$2, description=$3, status=$4, priority=$5,
            technician_id=$6, scheduled_at=$7, duration_minutes=$8, hold_active=$9,
            completed_at=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.CustomerName,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.TechnicianID,
		ticket.ScheduledAt,
		ticket.DurationMinutes,
		ticket.HoldActive,
		ticket.CompletedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = ticketSelect + ` WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	const query = ticketSelect + ` WHERE ticket_number=$1`
	return r.fetchSingle(ctx, query, number)
}

const ticketSelect = `
        SELECT id, ticket_number, customer_name, title, description, status, priority,
               technician_id, scheduled_at, duration_minutes, hold_active,
               created_at, updated_at, completed_at
        FROM tickets`

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.CustomerName,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.TechnicianID,
		&ticket.ScheduledAt,
		&ticket.DurationMinutes,
		&ticket.HoldActive,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("technician_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.HoldActive != nil {
		args = append(args, *filter.HoldActive)
		clauses = append(clauses, fmt.Sprintf("hold_active=$%d", len(args)))
	}
	if filter.ScheduledFrom != nil {
		args = append(args, *filter.ScheduledFrom)
		clauses = append(clauses, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if filter.ScheduledTo != nil {
		args = append(args, *filter.ScheduledTo)
		clauses = append(clauses, fmt.Sprintf("scheduled_at < $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(customer_name) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketSelect, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListCommitments materializes commitments from scheduled tickets in an
// active status that are not on hold.
func (r *ticketRepository) ListCommitments(ctx context.Context, filter CommitmentFilter) ([]domain.Commitment, error) {
	clauses := []string{
		"scheduled_at IS NOT NULL",
		"technician_id IS NOT NULL",
		"hold_active = FALSE",
	}
	args := []any{}

	statuses := make([]string, len(domain.ActiveStatuses))
	for i, status := range domain.ActiveStatuses {
		args = append(args, status)
		statuses[i] = fmt.Sprintf("$%d", len(args))
	}
	clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(statuses, ",")))

	args = append(args, filter.From)
	clauses = append(clauses, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	args = append(args, filter.To)
	clauses = append(clauses, fmt.Sprintf("scheduled_at < $%d", len(args)))

	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("technician_id=$%d", len(args)))
	}
	if filter.ExcludeTicketID != nil {
		args = append(args, *filter.ExcludeTicketID)
		clauses = append(clauses, fmt.Sprintf("id <> $%d", len(args)))
	}

	query := fmt.Sprintf(`
        SELECT id, ticket_number, title, customer_name, technician_id, scheduled_at, duration_minutes
        FROM tickets WHERE %s ORDER BY scheduled_at ASC`, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Commitment
	for rows.Next() {
		var c domain.Commitment
		if err := rows.Scan(
			&c.TicketID,
			&c.TicketNumber,
			&c.Title,
			&c.CustomerName,
			&c.TechnicianID,
			&c.Start,
			&c.DurationMinutes,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.TicketNumber,
			&ticket.CustomerName,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.TechnicianID,
			&ticket.ScheduledAt,
			&ticket.DurationMinutes,
			&ticket.HoldActive,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.CompletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
