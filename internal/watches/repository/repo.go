package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/watches"
)

// WatchRepository persists watches in notice_watches.
type WatchRepository struct {
	db *sql.DB
}

func NewWatchRepository(db *sql.DB) *WatchRepository {
	return &WatchRepository{db: db}
}

// Create assigns an id and stores the watch.
func (r *WatchRepository) Create(ctx context.Context, w watches.Watch) (watches.Watch, error) {
	w.ID = uuid.NewString()

	const q = `
INSERT INTO notice_watches (id, name, keywords, uf, min_value)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at;
`
	err := r.db.QueryRowContext(ctx, q, w.ID, w.Name, pq.Array(w.Keywords), w.UF, w.MinValue).
		Scan(&w.CreatedAt)
	if err != nil {
		// unique violation on lower(name)
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return watches.Watch{}, domain.ErrWatchExists
		}
		return watches.Watch{}, fmt.Errorf("create watch: %w", err)
	}
	return w, nil
}

func (r *WatchRepository) List(ctx context.Context) ([]watches.Watch, error) {
	const q = `
SELECT id, name, keywords, uf, min_value::float8, created_at
FROM notice_watches
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list watches: %w", err)
	}
	defer rows.Close()

	out := make([]watches.Watch, 0, 16)
	for rows.Next() {
		w, err := scanWatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *WatchRepository) Get(ctx context.Context, id string) (watches.Watch, error) {
	if _, err := uuid.Parse(id); err != nil {
		return watches.Watch{}, domain.ErrWatchNotFound
	}

	const q = `
SELECT id, name, keywords, uf, min_value::float8, created_at
FROM notice_watches
WHERE id = $1;
`
	w, err := scanWatch(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return watches.Watch{}, domain.ErrWatchNotFound
		}
		return watches.Watch{}, fmt.Errorf("get watch: %w", err)
	}
	return w, nil
}

func (r *WatchRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrWatchNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM notice_watches WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete watch: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrWatchNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWatch(s scanner) (watches.Watch, error) {
	var w watches.Watch
	err := s.Scan(&w.ID, &w.Name, pq.Array(&w.Keywords), &w.UF, &w.MinValue, &w.CreatedAt)
	return w, err
}
