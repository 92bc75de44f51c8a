package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/watches"
)

var watchColumns = []string{"id", "name", "keywords", "uf", "min_value", "created_at"}

func newMock(t *testing.T) (*WatchRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWatchRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO notice_watches").
		WithArgs(sqlmock.AnyArg(), "TI SP", sqlmock.AnyArg(), "SP", 1000.0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	w, err := repo.Create(context.Background(), watches.Watch{
		Name: "TI SP", Keywords: []string{"notebook"}, UF: "SP", MinValue: 1000,
	})
	require.NoError(t, err)

	assert.Len(t, w.ID, 36)
	assert.Equal(t, created, w.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateName(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("INSERT INTO notice_watches").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), watches.Watch{Name: "TI SP", Keywords: []string{"x"}})
	assert.ErrorIs(t, err, domain.ErrWatchExists)
}

func TestList(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)SELECT .+FROM notice_watches\s+ORDER BY`).
		WillReturnRows(sqlmock.NewRows(watchColumns).
			AddRow("0b9c5a38-0d5e-4a8e-9a64-6f1c2b7d1a11", "TI SP", []byte("{notebook,\"servidor rack\"}"), "SP", 0.0, now).
			AddRow("5f3e1c2a-7b8d-4e9f-8a1b-2c3d4e5f6a7b", "Obras", []byte("{pavimentacao}"), "", 500000.0, now))

	out, err := repo.List(context.Background())
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, []string{"notebook", "servidor rack"}, out[0].Keywords)
	assert.Equal(t, 500000.0, out[1].MinValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_QueryError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestGet(t *testing.T) {
	repo, mock := newMock(t)
	id := "0b9c5a38-0d5e-4a8e-9a64-6f1c2b7d1a11"

	mock.ExpectQuery(`FROM notice_watches\s+WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(watchColumns).AddRow(id, "TI SP", []byte("{notebook}"), "SP", 0.0, time.Now()))

	w, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "TI SP", w.Name)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	id := "0b9c5a38-0d5e-4a8e-9a64-6f1c2b7d1a11"

	mock.ExpectQuery(`FROM notice_watches\s+WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(watchColumns))

	_, err := repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrWatchNotFound)

	_, err = repo.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrWatchNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newMock(t)
	id := "0b9c5a38-0d5e-4a8e-9a64-6f1c2b7d1a11"

	mock.ExpectExec("DELETE FROM notice_watches").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM notice_watches").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), id))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), domain.ErrWatchNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
