package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// DispatcherRepository handles persistence for dispatcher accounts.
type DispatcherRepository interface {
	Create(ctx context.Context, dispatcher *domain.Dispatcher) error
	Update(ctx context.Context, dispatcher *domain.Dispatcher) error
	GetByID(ctx context.Context, id string) (*domain.Dispatcher, error)
	GetByEmail(ctx context.Context, email string) (*domain.Dispatcher, error)
}

type dispatcherRepository struct {
	pool *pgxpool.Pool
}

// NewDispatcherRepository instantiates the repository.
func NewDispatcherRepository(pool *pgxpool.Pool) DispatcherRepository {
	return &dispatcherRepository{pool: pool}
}

func (r *dispatcherRepository) Create(ctx context.Context, dispatcher *domain.Dispatcher) error {
	const query = `
        INSERT INTO dispatchers (name, email, password_hash, role, active_flag)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		dispatcher.Name,
		dispatcher.Email,
		dispatcher.PasswordHash,
		dispatcher.Role,
		dispatcher.Active,
	).Scan(&dispatcher.ID, &dispatcher.CreatedAt, &dispatcher.UpdatedAt)
}

func (r *dispatcherRepository) Update(ctx context.Context, dispatcher *domain.Dispatcher) error {
	const query = `
        UPDATE dispatchers
        SET name=$1, email=$2, password_hash=$3, role=$4, active_flag=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		dispatcher.Name,
		dispatcher.Email,
		dispatcher.PasswordHash,
		dispatcher.Role,
		dispatcher.Active,
		dispatcher.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *dispatcherRepository) GetByID(ctx context.Context, id string) (*domain.Dispatcher, error) {
	const query = dispatcherSelect + ` WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *dispatcherRepository) GetByEmail(ctx context.Context, email string) (*domain.Dispatcher, error) {
	const query = dispatcherSelect + ` WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

const dispatcherSelect = `
        SELECT id, name, email, password_hash, role, active_flag, created_at, updated_at
        FROM dispatchers`

func (r *dispatcherRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Dispatcher, error) {
	var dispatcher domain.Dispatcher
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&dispatcher.ID,
		&dispatcher.Name,
		&dispatcher.Email,
		&dispatcher.PasswordHash,
		&dispatcher.Role,
		&dispatcher.Active,
		&dispatcher.CreatedAt,
		&dispatcher.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dispatcher, nil
}
