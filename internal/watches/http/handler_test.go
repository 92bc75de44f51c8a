package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/watches"
)

type memStore struct {
	items map[string]watches.Watch
	seq   int
}

func (s *memStore) Create(_ context.Context, w watches.Watch) (watches.Watch, error) {
	for _, existing := range s.items {
		if strings.EqualFold(existing.Name, w.Name) {
			return watches.Watch{}, domain.ErrWatchExists
		}
	}
	s.seq++
	w.ID = "w" + string(rune('0'+s.seq))
	w.CreatedAt = time.Now()
	s.items[w.ID] = w
	return w, nil
}

func (s *memStore) List(context.Context) ([]watches.Watch, error) {
	out := []watches.Watch{}
	for _, w := range s.items {
		out = append(out, w)
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, id string) (watches.Watch, error) {
	w, ok := s.items[id]
	if !ok {
		return watches.Watch{}, domain.ErrWatchNotFound
	}
	return w, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return domain.ErrWatchNotFound
	}
	delete(s.items, id)
	return nil
}

func setup() (*gin.Engine, *memStore) {
	gin.SetMode(gin.TestMode)
	store := &memStore{items: map[string]watches.Watch{}}
	r := gin.New()
	New(store).Register(r.Group("/api/v1/watches"))
	return r, store
}

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rr, req)
	return rr
}

func TestWatchCRUD(t *testing.T) {
	r, store := setup()

	rr := call(r, http.MethodPost, "/api/v1/watches", `{"name":" TI SP ","keywords":["notebook"," "],"uf":"sp","min_value":1000}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		Watch watches.Watch `json:"watch"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "TI SP", created.Watch.Name)
	assert.Equal(t, []string{"notebook"}, created.Watch.Keywords)
	assert.Equal(t, "SP", created.Watch.UF)

	rr = call(r, http.MethodGet, "/api/v1/watches", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"TI SP"`)

	rr = call(r, http.MethodGet, "/api/v1/watches/"+created.Watch.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = call(r, http.MethodDelete, "/api/v1/watches/"+created.Watch.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, store.items)

	rr = call(r, http.MethodGet, "/api/v1/watches/"+created.Watch.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateWatch_Validation(t *testing.T) {
	r, _ := setup()

	for _, body := range []string{
		`{`,
		`{"keywords":["x"]}`,
		`{"name":"x","keywords":[]}`,
		`{"name":"x","keywords":["y"],"uf":"SPX"}`,
	} {
		rr := call(r, http.MethodPost, "/api/v1/watches", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestCreateWatch_Duplicate(t *testing.T) {
	r, _ := setup()
	body := `{"name":"Obras","keywords":["pavimentação"]}`

	require.Equal(t, http.StatusCreated, call(r, http.MethodPost, "/api/v1/watches", body).Code)
	assert.Equal(t, http.StatusConflict, call(r, http.MethodPost, "/api/v1/watches", body).Code)
}
