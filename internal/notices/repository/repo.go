package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Filter narrows List. Empty fields are ignored; Org matches by substring.
type Filter struct {
	Status string
	Org    string
	UF     string
	Limit  int
	Offset int
}

func (f Filter) normalized() Filter {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const noticeColumns = `id, title, description, org, org_cnpj, uf, city, modality, status,
  published_at, deadline, value::float8, source_url`

// Upsert inserts the notice or refreshes the stored copy. It reports whether
// a new row was created.
func (r *Repo) Upsert(ctx context.Context, n domain.Notice) (bool, error) {
	if strings.TrimSpace(n.ID) == "" {
		return false, domain.ErrInvalidNoticeID
	}

	const q = `
insert into notices (id, title, description, org, org_cnpj, uf, city, modality, status,
  published_at, deadline, value, source_url, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
on conflict (id) do update
set
  title = excluded.title,
  description = excluded.description,
  org = excluded.org,
  org_cnpj = excluded.org_cnpj,
  uf = excluded.uf,
  city = excluded.city,
  modality = excluded.modality,
  status = excluded.status,
  published_at = coalesce(excluded.published_at, notices.published_at),
  deadline = coalesce(excluded.deadline, notices.deadline),
  value = excluded.value,
  source_url = excluded.source_url,
  updated_at = now()
returning (xmax = 0);
`
	var inserted bool
	err := r.db.QueryRow(ctx, q,
		n.ID, n.Title, n.Description, n.Org, n.OrgCNPJ, n.UF, n.City, n.Modality, n.Status,
		n.PublishedAt, n.Deadline, n.Value, n.SourceURL,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert notice %s: %w", n.ID, err)
	}
	return inserted, nil
}

func (r *Repo) Get(ctx context.Context, id string) (domain.Notice, error) {
	q := `select ` + noticeColumns + ` from notices where id = $1;`

	n, err := scanNotice(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Notice{}, domain.ErrNoticeNotFound
		}
		return domain.Notice{}, fmt.Errorf("get notice %s: %w", id, err)
	}
	return n, nil
}

// List returns one page of stored notices, newest first, plus the total
// number of rows matching the filter.
func (r *Repo) List(ctx context.Context, f Filter) ([]domain.Notice, int, error) {
	f = f.normalized()
	where, args := buildWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `select count(*) from notices`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notices: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`select %s from notices%s
order by published_at desc nulls last, id
limit $%d offset $%d;`, noticeColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Notice, 0, f.Limit)
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `delete from notices where id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete notice %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoticeNotFound
	}
	return nil
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Org != "" {
		args = append(args, "%"+f.Org+"%")
		conds = append(conds, fmt.Sprintf("org ilike $%d", len(args)))
	}
	if f.UF != "" {
		args = append(args, strings.ToUpper(f.UF))
		conds = append(conds, fmt.Sprintf("uf = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " where " + strings.Join(conds, " and "), args
}

func scanNotice(row pgx.Row) (domain.Notice, error) {
	var n domain.Notice
	err := row.Scan(
		&n.ID, &n.Title, &n.Description, &n.Org, &n.OrgCNPJ, &n.UF, &n.City, &n.Modality, &n.Status,
		&n.PublishedAt, &n.Deadline, &n.Value, &n.SourceURL,
	)
	return n, err
}
