package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/event-wizard/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN           string
	MaxOpenConns  int32
	MaxIdleConns  int32
	MaxLifetime   time.Duration
	MigrationsDir string
}

// NewPostgresRepository connects to PostgreSQL and applies pending
// migrations when a migrations directory is configured
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.MigrationsDir != "" {
		if err := RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateEvent inserts an event or, when the id already exists, replaces
// its content and bumps updated_at
func (r *PostgresRepository) CreateEvent(ctx context.Context, ev *models.Event) error {
	query := `
		INSERT INTO events (id, session_id, title, category, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    category = EXCLUDED.category,
		    payload = EXCLUDED.payload,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		ev.ID,
		ev.SessionID,
		ev.Title,
		ev.Category,
		[]byte(ev.Payload),
		ev.CreatedAt,
		ev.UpdatedAt,
	).Scan(&ev.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetEvent retrieves an event by ID
func (r *PostgresRepository) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT id, session_id, title, category, payload, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	ev, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return ev, nil
}

// ListEvents returns events matching filters, newest first
func (r *PostgresRepository) ListEvents(ctx context.Context, filters models.EventFilters) ([]*models.Event, error) {
	query := `
		SELECT id, session_id, title, category, payload, created_at, updated_at
		FROM events
		WHERE 1=1
	`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, filters.Category)
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var ev models.Event
	var payload []byte

	err := row.Scan(
		&ev.ID,
		&ev.SessionID,
		&ev.Title,
		&ev.Category,
		&payload,
		&ev.CreatedAt,
		&ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ev.Payload = payload
	return &ev, nil
}
