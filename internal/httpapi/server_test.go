package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/internal/model"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	t      *testing.T
	server *Server
	tokens *Tokens
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	clock := service.ClockFunc(func() time.Time { return testNow })
	opts := service.Options{Clock: clock, DefaultPageSize: 2, MaxPageSize: 5}
	taskRepo := repository.NewTaskRepository(db)
	tokens := NewTokens("test-secret", time.Hour)
	tokens.now = func() time.Time { return testNow }

	server := New(Deps{
		Lists:  service.NewListService(repository.NewListRepository(db), opts),
		Tasks:  service.NewTaskService(taskRepo, opts),
		Stats:  service.NewStatsService(taskRepo, opts),
		Tokens: tokens,
		Clock:  clock,
	})
	return &testAPI{t: t, server: server, tokens: tokens}
}

func (a *testAPI) token(userID string) string {
	a.t.Helper()
	token, err := a.tokens.Issue(userID)
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, userID string, body any) (int, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(userID))
	}
	resp, err := a.server.App().Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	status, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decode[healthResponse](t, body).Status)
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodGet, "/api/v1/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authorization header is required", decode[errorResponse](t, body).Message)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := api.server.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged, err := NewTokens("other-secret", time.Hour).Issue("alice")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = api.server.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	tokens.now = func() time.Time { return testNow }

	raw, err := tokens.Issue("alice")
	require.NoError(t, err)
	subject, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	tokens.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = tokens.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Issue(" ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestListAndTaskLifecycle(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/v1/lists", "alice", map[string]string{"title": "Groceries"})
	require.Equal(t, http.StatusCreated, status, string(body))
	list := decode[listResponse](t, body)
	assert.Equal(t, "Groceries", list.Title)

	status, body = api.do(http.MethodPost, "/api/v1/tasks", "alice", map[string]string{
		"title":    "Buy milk",
		"list_id":  list.ID,
		"due_date": "2025-03-09",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	task := decode[taskResponse](t, body)
	assert.Equal(t, "pending", task.Status)
	assert.True(t, task.Overdue)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2025-03-09", *task.DueDate)

	status, body = api.do(http.MethodGet, "/api/v1/stats", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, statsResponse{Total: 1, Pending: 1, Overdue: 1}, decode[statsResponse](t, body))

	status, _ = api.do(http.MethodGet, "/api/v1/tasks/"+task.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = api.do(http.MethodPatch, "/api/v1/tasks/"+task.ID, "alice", map[string]any{"status": "completed", "version": 1})
	require.Equal(t, http.StatusOK, status, string(body))
	updated := decode[taskResponse](t, body)
	assert.Equal(t, "completed", updated.Status)
	assert.False(t, updated.Overdue)
	assert.Equal(t, 2, updated.Version)

	status, body = api.do(http.MethodPatch, "/api/v1/tasks/"+task.ID, "alice", map[string]any{"title": "stale", "version": 1})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", decode[errorResponse](t, body).Error)

	status, body = api.do(http.MethodGet, "/api/v1/stats", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, statsResponse{Total: 1, Completed: 1}, decode[statsResponse](t, body))

	status, body = api.do(http.MethodGet, "/api/v1/lists/summary", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	summaries := decode[[]listSummaryResponse](t, body)
	require.Len(t, summaries, 1)
	assert.Equal(t, list.ID, summaries[0].ListID)
	assert.Equal(t, int64(1), summaries[0].Completed)

	status, body = api.do(http.MethodPatch, "/api/v1/tasks/"+task.ID, "alice", map[string]any{"due_date": ""})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Nil(t, decode[taskResponse](t, body).DueDate)

	status, _ = api.do(http.MethodDelete, "/api/v1/tasks/"+task.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodGet, "/api/v1/tasks/"+task.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/v1/lists", "alice", map[string]string{"title": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	resp := decode[errorResponse](t, body)
	assert.Equal(t, "validation_error", resp.Error)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "title", resp.Fields[0].Field)

	status, body = api.do(http.MethodPost, "/api/v1/tasks", "alice", map[string]string{"title": "x", "due_date": "tomorrow"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "due_date", decode[errorResponse](t, body).Fields[0].Field)

	status, _ = api.do(http.MethodGet, "/api/v1/tasks?page_size=6", "alice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = api.do(http.MethodGet, "/api/v1/tasks?status=archived", "alice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = api.do(http.MethodGet, "/api/v1/tasks?overdue=maybe", "alice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = api.do(http.MethodGet, "/api/v1/tasks?order=sideways", "alice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = api.do(http.MethodGet, "/api/v1/tasks?page=two", "alice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lists", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+api.token("alice"))
	raw, err := api.server.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	status, _ = api.do(http.MethodPost, "/api/v1/tasks", "alice", map[string]string{"title": "x", "list_id": "missing"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestQueryTasksOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	for _, due := range []string{"2025-03-01", "2025-03-20", ""} {
		status, body := api.do(http.MethodPost, "/api/v1/tasks", "alice", map[string]string{"title": "due " + due, "due_date": due})
		require.Equal(t, http.StatusCreated, status, string(body))
	}
	api.do(http.MethodPost, "/api/v1/tasks", "bob", map[string]string{"title": "bobs"})

	status, body := api.do(http.MethodGet, "/api/v1/tasks", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[pageResponse[taskResponse]](t, body)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.PageSize)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	status, body = api.do(http.MethodGet, "/api/v1/tasks?overdue=true", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	page = decode[pageResponse[taskResponse]](t, body)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "due 2025-03-01", page.Items[0].Title)

	status, body = api.do(http.MethodGet, "/api/v1/tasks?sort=due_date&order=asc&page_size=5", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	page = decode[pageResponse[taskResponse]](t, body)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "due 2025-03-01", page.Items[0].Title)
	assert.Equal(t, "due 2025-03-20", page.Items[1].Title)
	assert.Nil(t, page.Items[2].DueDate)

	status, body = api.do(http.MethodGet, "/api/v1/tasks?due_after=2025-03-10&due_before=2025-03-31", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	page = decode[pageResponse[taskResponse]](t, body)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "due 2025-03-20", page.Items[0].Title)
}

func TestDeleteListPolicies(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/v1/lists", "alice", map[string]string{"title": "Trip"})
	require.Equal(t, http.StatusCreated, status)
	list := decode[listResponse](t, body)
	status, _ = api.do(http.MethodPost, "/api/v1/tasks", "alice", map[string]string{"title": "passport", "list_id": list.ID})
	require.Equal(t, http.StatusCreated, status)

	status, body = api.do(http.MethodDelete, "/api/v1/lists/"+list.ID+"?policy=reject", "alice", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "list_not_empty", decode[errorResponse](t, body).Error)

	status, _ = api.do(http.MethodDelete, "/api/v1/lists/"+list.ID+"?policy=orphan", "alice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = api.do(http.MethodDelete, "/api/v1/lists/"+list.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(http.MethodDelete, "/api/v1/lists/"+list.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = api.do(http.MethodGet, "/api/v1/tasks", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), decode[pageResponse[taskResponse]](t, body).Total)
}

func TestUpdateAndListLists(t *testing.T) {
	api := newTestAPI(t)
	status, body := api.do(http.MethodPost, "/api/v1/lists", "alice", map[string]string{"title": "Work"})
	require.Equal(t, http.StatusCreated, status)
	list := decode[listResponse](t, body)

	status, body = api.do(http.MethodPatch, "/api/v1/lists/"+list.ID, "alice", map[string]any{"title": "Office", "version": 1})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Office", decode[listResponse](t, body).Title)

	status, body = api.do(http.MethodGet, "/api/v1/lists", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[pageResponse[listResponse]](t, body)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Items[0].Version)

	status, _ = api.do(http.MethodGet, "/api/v1/lists/"+list.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

type slowStats struct{ service.TaskStore }

func (slowStats) Stats(ctx context.Context, _ string, _ time.Time) (model.Statistics, error) {
	<-ctx.Done()
	return model.Statistics{}, ctx.Err()
}

func TestTimeoutMapsToGatewayTimeout(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	server := New(Deps{
		Stats:  service.NewStatsService(slowStats{}, service.Options{Timeout: 10 * time.Millisecond}),
		Tokens: tokens,
	})
	raw, err := tokens.Issue("alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	resp, err := server.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}
