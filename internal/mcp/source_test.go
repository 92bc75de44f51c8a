package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/pncp"
)

func TestStaticSource_Search(t *testing.T) {
	s := NewStaticSource(nil)

	page, err := s.Search(context.Background(), pncp.SearchParams{Query: "LIMPEZA"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "00394452000103-1-000102/2024", page.Items[0].ID)

	page, err = s.Search(context.Background(), pncp.SearchParams{Query: "camara municipal"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestStaticSource_FetchFilters(t *testing.T) {
	s := NewStaticSource(nil)

	page, err := s.Fetch(context.Background(), pncp.FetchParams{UF: "mg"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = s.Fetch(context.Background(), pncp.FetchParams{StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestStaticSource_Paginate(t *testing.T) {
	s := NewStaticSource(nil)

	page, err := s.Fetch(context.Background(), pncp.FetchParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	page, err = s.Fetch(context.Background(), pncp.FetchParams{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestStaticSource_GetNotFound(t *testing.T) {
	_, err := NewStaticSource(nil).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNoticeNotFound)
}
