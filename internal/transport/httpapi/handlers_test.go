package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/config"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/chat"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/lists"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/session"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/storage/postgres"
)

type fakeProvider struct {
	responses []string
	calls     int
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts core.CompleteOptions) (string, error) {
	if f.calls >= len(f.responses) {
		return "", nil
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

type fakeRunner struct {
	rows []core.Row
}

func (f *fakeRunner) Run(ctx context.Context, query string) ([]core.Row, error) {
	return f.rows, nil
}

func newTestChatHandlers(provider *fakeProvider, runner *fakeRunner) (*chatHandlers, *session.Registry) {
	cfg := &config.AppConfig{CompleteTimeout: time.Second, QueryTimeout: time.Second}
	registry := session.NewRegistry()
	pipeline := chat.NewPipeline(cfg, registry, provider, runner, "schema")
	return newChatHandlers(pipeline, registry), registry
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestChatQuery_RequiresQuestion(t *testing.T) {
	h, _ := newTestChatHandlers(&fakeProvider{}, &fakeRunner{})

	rec := postJSON(t, h.query, `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.query, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatQuery_GeneratesSessionID(t *testing.T) {
	h, registry := newTestChatHandlers(&fakeProvider{}, &fakeRunner{})

	rec := postJSON(t, h.query, `{"question":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Answer    string `json:"answer"`
		QueryType string `json:"query_type"`
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "conversation", resp.QueryType)
	assert.Equal(t, 1, registry.Len())
}

func TestChatQuery_DataTurn(t *testing.T) {
	provider := &fakeProvider{responses: []string{"list_all", "SELECT * FROM target_list_entries"}}
	runner := &fakeRunner{rows: []core.Row{
		{Columns: []string{"hcp_name"}, Values: []any{"Dr. Jane Doe"}},
	}}
	h, _ := newTestChatHandlers(provider, runner)

	rec := postJSON(t, h.query, `{"question":"show me target list entries","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Answer       string `json:"answer"`
		GeneratedSQL string `json:"generated_sql"`
		RowCount     int    `json:"row_count"`
		SessionID    string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SELECT * FROM target_list_entries", resp.GeneratedSQL)
	assert.Equal(t, 1, resp.RowCount)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Contains(t, resp.Answer, "Dr. Jane Doe")
}

func TestClearSession(t *testing.T) {
	h, registry := newTestChatHandlers(&fakeProvider{}, &fakeRunner{})
	registry.Acquire("s1")

	rec := postJSON(t, h.clearSession, `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, registry.Len())
	assert.Contains(t, rec.Body.String(), "Session s1 cleared")

	rec = postJSON(t, h.clearSession, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	h, registry := newTestChatHandlers(&fakeProvider{}, &fakeRunner{})
	registry.Acquire("s1")
	registry.Acquire("s2")

	req := httptest.NewRequest(http.MethodGet, "/chatbot/health", nil)
	rec := httptest.NewRecorder()
	h.health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status         string `json:"status"`
		ActiveSessions int    `json:"active_sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.ActiveSessions)
}

// listRepo is a minimal in-memory lists.Repository for handler tests.
type listRepo struct {
	requests map[int]*core.ListRequest
}

func (r *listRepo) ListRequests(_ context.Context, _, _ int) ([]core.ListRequest, error) {
	return nil, nil
}

func (r *listRepo) GetListRequest(_ context.Context, requestID int) (*core.ListRequest, error) {
	lr, ok := r.requests[requestID]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return lr, nil
}

func (r *listRepo) CreateListRequest(_ context.Context, lr *core.ListRequest) (*core.ListRequest, error) {
	lr.RequestID = 1
	return lr, nil
}

func (r *listRepo) UpdateListRequest(_ context.Context, requestID int, _ map[string]any) error {
	if _, ok := r.requests[requestID]; !ok {
		return postgres.ErrNotFound
	}
	return nil
}

func (r *listRepo) DeleteListRequest(_ context.Context, _ int) error { return nil }

func (r *listRepo) Versions(_ context.Context, _ int) ([]core.ListVersion, error) { return nil, nil }

func (r *listRepo) CurrentVersion(_ context.Context, _ int) (*core.ListVersion, error) {
	return nil, nil
}

func (r *listRepo) HCPIDs(_ context.Context, _ int) (map[string]struct{}, error) { return nil, nil }

func (r *listRepo) EntriesForVersion(_ context.Context, _ string, _ int) ([]map[string]any, error) {
	return nil, nil
}

func (r *listRepo) AddVersion(_ context.Context, _ int, _, _, _ string) (*core.ListVersion, error) {
	return &core.ListVersion{VersionID: 1, VersionNumber: 1}, nil
}

func (r *listRepo) InsertEntries(_ context.Context, _ string, _ int, _ []map[string]any) error {
	return nil
}

func newTestListHandlers(repo *listRepo) *listHandlers {
	return newListHandlers(lists.NewService(repo))
}

func TestLists_EmptyListIsJSONArray(t *testing.T) {
	h := newTestListHandlers(&listRepo{})

	req := httptest.NewRequest(http.MethodGet, "/lists", nil)
	rec := httptest.NewRecorder()
	h.list(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestLists_GetUnknownIDIs404(t *testing.T) {
	h := newTestListHandlers(&listRepo{})

	req := httptest.NewRequest(http.MethodGet, "/lists/99", nil)
	req.SetPathValue("id", "99")
	rec := httptest.NewRecorder()
	h.get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLists_InvalidIDIs400(t *testing.T) {
	h := newTestListHandlers(&listRepo{})

	for _, id := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/lists/"+id, nil)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		h.get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
	}
}

func TestLists_CreateValidationIs400(t *testing.T) {
	h := newTestListHandlers(&listRepo{})

	rec := postJSON(t, h.create, `{"requester_name":"Sam"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "subdomain_id is required")
}

func TestLists_CreateIs201(t *testing.T) {
	h := newTestListHandlers(&listRepo{})

	rec := postJSON(t, h.create, `{"subdomain_id":2,"requester_name":"Sam","request_purpose":"Q3 push"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created core.ListRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 1, created.RequestID)
	assert.Equal(t, "In Progress", created.Status)
}

func TestLists_AddItemsIs201(t *testing.T) {
	repo := &listRepo{requests: map[int]*core.ListRequest{
		7: {RequestID: 7, SubdomainName: "Target Lists"},
	}}
	h := newTestListHandlers(repo)

	req := httptest.NewRequest(http.MethodPost, "/lists/7/items",
		strings.NewReader(`{"items":[{"hcp_id":"HCP001"}],"updated_by":"Sam"}`))
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.addItems(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var version core.ListVersion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &version))
	assert.Equal(t, 1, version.VersionID)
}

func TestLists_ChangesWithNoVersions(t *testing.T) {
	h := newTestListHandlers(&listRepo{})

	req := httptest.NewRequest(http.MethodGet, "/lists/7/changes", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.changes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var analysis core.ChangeAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Empty(t, analysis.Comparisons)
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	limiter := newRateLimiter(1, 2)
	handler := limiter.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
