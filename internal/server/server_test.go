package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wt/internal/auth"
	"wt/internal/item"
	"wt/internal/ledger"
	"wt/internal/store"
	"wt/internal/workflow"
)

const (
	devUser = "dev"
	devPass = "secret"
)

type testServer struct {
	srv    *httptest.Server
	engine *workflow.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	attachDir := filepath.Join(dir, "attachments")

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)

		return clock
	}

	engine := workflow.NewWithClock(
		store.NewWithClock(filepath.Join(dir, "tasks_data.json"), now),
		ledger.NewWithClock(attachDir, now),
		workflow.Policy{},
		now,
	)

	s := New(engine, auth.Credentials{Username: devUser, Password: devPass}, attachDir, zap.NewNop())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, engine: engine}
}

func (ts *testServer) request(t *testing.T, method, path string, body any, asDev bool) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if asDev {
		req.SetBasicAuth(devUser, devPass)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, data
}

func (ts *testServer) createItem(t *testing.T, title string) item.Item {
	t.Helper()

	resp, body := ts.request(t, http.MethodPost, "/items", map[string]any{
		"title":  title,
		"client": "Acme",
	}, false)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created item.Item
	require.NoError(t, json.Unmarshal(body, &created))

	return created
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp, body := ts.request(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "ok"}`, string(body))
}

func TestCreateAndGetItem(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	created := ts.createItem(t, "via http")

	resp, body := ts.request(t, http.MethodGet, "/items/"+created.ID, nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got item.Item
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "via http", got.Title)
	assert.Equal(t, item.StatusReady, got.Status)
}

func TestGetItemNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp, _ := ts.request(t, http.MethodGet, "/items/ghost", nil, false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp, _ := ts.request(t, http.MethodPost, "/items", map[string]any{"title": "  "}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDevRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	created := ts.createItem(t, "guarded")

	resp, _ := ts.request(t, http.MethodPost, "/items/"+created.ID+"/start", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.request(t, http.MethodPost, "/items/"+created.ID+"/start", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDevRoutesClosedWithoutCredentials(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	engine := workflow.New(
		store.New(filepath.Join(dir, "tasks_data.json")),
		ledger.New(filepath.Join(dir, "attachments")),
		workflow.Policy{},
	)

	s := New(engine, auth.Credentials{}, dir, zap.NewNop())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Post(srv.URL+"/items/x/start", "application/json", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	created := ts.createItem(t, "full cycle")

	resp, _ := ts.request(t, http.MethodPost, "/items/"+created.ID+"/start", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := ts.request(t, http.MethodPost, "/items/"+created.ID+"/complete", map[string]any{
		"hours":   2.5,
		"rate":    80,
		"comment": "done",
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var completed item.Item
	require.NoError(t, json.Unmarshal(body, &completed))
	require.NotNil(t, completed.Amount)
	assert.InDelta(t, 200.0, *completed.Amount, 0.0001)

	// Client approves without any credential.
	resp, _ = ts.request(t, http.MethodPost, "/items/"+created.ID+"/approve", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = ts.request(t, http.MethodPost, "/items/mark-paid", map[string]any{
		"ids": []string{created.ID, "ghost"},
	}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"updated": 1}`, string(body))

	resp, _ = ts.request(t, http.MethodPost, "/items/confirm-payment", map[string]any{
		"ids": []string{created.ID},
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	it, ok := ts.engine.Find(created.ID)
	require.True(t, ok)
	assert.True(t, it.Archived)
	assert.True(t, it.PaymentConfirmedByDev)
}

func TestTransitionConflict(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	created := ts.createItem(t, "conflict")

	// Approving a ready item is a state conflict.
	resp, _ := ts.request(t, http.MethodPost, "/items/"+created.ID+"/approve", nil, false)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCompleteValidationOverHTTP(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	created := ts.createItem(t, "strict")

	resp, _ := ts.request(t, http.MethodPost, "/items/"+created.ID+"/start", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.request(t, http.MethodPost, "/items/"+created.ID+"/complete", map[string]any{
		"hours":   0,
		"comment": "x",
	}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.createItem(t, "visible")

	resp, body := ts.request(t, http.MethodGet, "/items?status=ready", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listed struct {
		Items []item.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Len(t, listed.Items, 1)

	resp, body = ts.request(t, http.MethodGet, "/items?status=completed", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Empty(t, listed.Items)
}

func TestCommentWithMultipartAttachment(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	created := ts.createItem(t, "attachment target")

	var buf bytes.Buffer

	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("payload", `{"comment": "see attached"}`))

	part, err := form.CreateFormFile("attachment", "shot.png")
	require.NoError(t, err)

	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/items/"+created.ID+"/comments", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var updated item.Item
	require.NoError(t, json.Unmarshal(body, &updated))
	require.Len(t, updated.Attachments, 1)

	last := updated.CommentHistory[len(updated.CommentHistory)-1]
	assert.Equal(t, item.ActorClient, last.Actor)
	assert.Equal(t, "see attached", last.Comment)

	// The stored file is downloadable by base name.
	name := filepath.Base(updated.Attachments[0])

	resp, data := ts.request(t, http.MethodGet, "/attachments/"+name, nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png-bytes", string(data))
}

func TestAttachmentNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp, _ := ts.request(t, http.MethodGet, "/attachments/ghost.png", nil, false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEmptyCommentRejected(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	created := ts.createItem(t, "quiet")

	resp, _ := ts.request(t, http.MethodPost, "/items/"+created.ID+"/comments", map[string]any{}, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.createItem(t, "exported")

	resp, body := ts.request(t, http.MethodGet, "/export/csv", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(string(body), "id,type,title"))

	resp, body = ts.request(t, http.MethodGet, "/export/json", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []item.Item
	require.NoError(t, json.Unmarshal(body, &items))
	assert.Len(t, items, 1)
}

func TestDeleteAndEdit(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	created := ts.createItem(t, "mutable")

	resp, body := ts.request(t, http.MethodPatch, "/items/"+created.ID, map[string]any{
		"title":    "renamed",
		"billable": false,
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var edited item.Item
	require.NoError(t, json.Unmarshal(body, &edited))
	assert.Equal(t, "renamed", edited.Title)
	assert.False(t, edited.Billable)

	resp, _ = ts.request(t, http.MethodDelete, "/items/"+created.ID, nil, true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.request(t, http.MethodGet, "/items/"+created.ID, nil, false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestChangesAndRespondOverHTTP(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	created := ts.createItem(t, "iterate")

	resp, _ := ts.request(t, http.MethodPost, "/items/"+created.ID+"/start", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.request(t, http.MethodPost, "/items/"+created.ID+"/complete", map[string]any{
		"hours": 2.0, "rate": 80.0, "comment": "first pass",
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := ts.request(t, http.MethodPost, "/items/"+created.ID+"/request-changes", map[string]any{
		"comment": "needs polish",
	}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var bounced item.Item
	require.NoError(t, json.Unmarshal(body, &bounced))
	assert.True(t, bounced.ReviewRequested)
	assert.Equal(t, item.StatusInProgress, bounced.Status)

	resp, body = ts.request(t, http.MethodPost, "/items/"+created.ID+"/respond", map[string]any{
		"comment": "polished",
		"hours":   3.0,
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var resubmitted item.Item
	require.NoError(t, json.Unmarshal(body, &resubmitted))
	assert.Equal(t, item.StatusCompleted, resubmitted.Status)
	require.NotNil(t, resubmitted.Amount)
	assert.InDelta(t, 240.0, *resubmitted.Amount, 0.0001)
}
