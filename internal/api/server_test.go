package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goperm/domain/core"
	"goperm/domain/dataset"
	"goperm/domain/model"
	"goperm/internal/permutation"
)

type fakeRunner struct {
	report *model.Report
	err    error
	calls  int
}

func (f *fakeRunner) RunReport(ctx context.Context, ds *dataset.Dataset, outcome string, predictors []string, nreps int) (*model.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type memoryRepo struct {
	mu   sync.Mutex
	runs map[core.RunID]*model.Report
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{runs: make(map[core.RunID]*model.Report)}
}

func (m *memoryRepo) Save(ctx context.Context, report *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[report.RunID] = report
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id core.RunID) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.runs[id]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return report, nil
}

func (m *memoryRepo) ListRecent(ctx context.Context, limit int) ([]*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reports := make([]*model.Report, 0, len(m.runs))
	for _, r := range m.runs {
		if len(reports) == limit {
			break
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func stubReport(t *testing.T) *model.Report {
	t.Helper()

	coefs, err := model.NewCoefficients("Humanities", []string{"Engineering"}, []string{"Intercept"})
	require.NoError(t, err)

	nulls, err := model.NewNullDistribution(coefs, 2)
	require.NoError(t, err)
	for rep := 0; rep < 2; rep++ {
		draw, _ := model.NewCoefficients("Humanities", []string{"Engineering"}, []string{"Intercept"})
		require.NoError(t, nulls.Record(rep, draw))
	}

	pvals, err := model.NewPValueTable("Humanities", []string{"Engineering"}, []string{"Intercept"})
	require.NoError(t, err)
	require.NoError(t, pvals.Set("Engineering", "Intercept", 0.02))
	pvals.Seal()

	report, err := model.NewReport(core.RunID(core.NewID()), model.NewSpec("Major", []string{"Math_Score"}), 2, 1, 1, 10, coefs, nulls, pvals)
	require.NoError(t, err)
	return report
}

func validRunBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(RunRequest{
		Columns: []ColumnPayload{
			{Name: "Major", Kind: "categorical", Cats: []string{"Humanities", "Engineering", "Humanities"}},
			{Name: "Math_Score", Kind: "numeric", Nums: []float64{48, 61, 52}},
		},
		Outcome:    "Major",
		Predictors: []string{"Math_Score"},
		Nreps:      2,
	})
	require.NoError(t, err)
	return body
}

func TestHealthz(t *testing.T) {
	server := NewServer(&fakeRunner{report: stubReport(t)}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestCreateRun_Success(t *testing.T) {
	report := stubReport(t)
	runner := &fakeRunner{report: report}
	repo := newMemoryRepo()
	server := NewServer(runner, repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewReader(validRunBody(t)))
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, runner.calls)

	var decoded model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)

	stored, err := repo.GetByID(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.Nreps, stored.Nreps)
}

func TestCreateRun_InvalidJSON(t *testing.T) {
	server := NewServer(&fakeRunner{report: stubReport(t)}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewReader([]byte("{not json")))
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRun_BadColumnKind(t *testing.T) {
	body, err := json.Marshal(RunRequest{
		Columns: []ColumnPayload{{Name: "x", Kind: "interval", Nums: []float64{1}}},
		Outcome: "x", Predictors: []string{"x"}, Nreps: 5,
	})
	require.NoError(t, err)

	server := NewServer(&fakeRunner{report: stubReport(t)}, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestCreateRun_ValidationErrorMapsTo400(t *testing.T) {
	runner := &fakeRunner{err: core.NewInvalidArgumentError("nreps", "must be >= 1, got 0")}
	server := NewServer(runner, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewReader(validRunBody(t))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRun_FitFailureMapsTo422(t *testing.T) {
	runner := &fakeRunner{err: &permutation.FitFailure{
		Permutation: 7,
		Outcome:     "Major",
		Err:         core.NewFitError("optimizer stalled", nil),
	}}
	server := NewServer(runner, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewReader(validRunBody(t))))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "FIT_FAILURE")
}

func TestGetRun_NotFound(t *testing.T) {
	server := NewServer(&fakeRunner{report: stubReport(t)}, newMemoryRepo())

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/"+core.NewID().String(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRuns(t *testing.T) {
	report := stubReport(t)
	repo := newMemoryRepo()
	require.NoError(t, repo.Save(context.Background(), report))
	server := NewServer(&fakeRunner{report: report}, repo)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var reports []*model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	assert.Len(t, reports, 1)
}

func TestListRuns_BadLimit(t *testing.T) {
	server := NewServer(&fakeRunner{report: stubReport(t)}, newMemoryRepo())

	for _, limit := range []string{"zero", "0", "-5", "101", "100000"} {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs?limit="+limit, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestCreateRun_BodyTooLarge(t *testing.T) {
	runner := &fakeRunner{report: stubReport(t)}
	server := NewServer(runner, nil)

	oversized := append([]byte(`{"outcome":"`), bytes.Repeat([]byte("x"), maxRunBodyBytes+1)...)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewReader(oversized)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 0, runner.calls)
}
