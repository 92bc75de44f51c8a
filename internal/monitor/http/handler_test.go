package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/monitor"
)

type fakeRunner struct {
	sum monitor.RunSummary
	err error
}

func (f fakeRunner) Run(context.Context) (monitor.RunSummary, error) { return f.sum, f.err }

func trigger(r Runner) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	New(r).Register(e.Group("/api/v1/monitor"))

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/monitor/run", nil))
	return rr
}

func TestRun_ReturnsSummary(t *testing.T) {
	rr := trigger(fakeRunner{sum: monitor.RunSummary{Fetched: 12, Matched: 2, Published: 2}})
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		OK      bool               `json:"ok"`
		Summary monitor.RunSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, 12, body.Summary.Fetched)
	assert.Equal(t, 2, body.Summary.Published)
}

func TestRun_Errors(t *testing.T) {
	assert.Equal(t, http.StatusConflict, trigger(fakeRunner{err: monitor.ErrRunInProgress}).Code)
	assert.Equal(t, http.StatusInternalServerError, trigger(fakeRunner{err: errors.New("db down")}).Code)
}
