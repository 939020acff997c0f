package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/msgdesk/internal/api"
	"github.com/tOgg1/msgdesk/internal/db"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(Config{Addr: ":0", DefaultTable: "messages"}, store)
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	routes := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	require.NotEmpty(t, resp.TS)
}

func TestDBTestEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv.Routes(), "/api/db-test", api.DBTestRequest{})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.DBTestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	require.True(t, resp.Connected)
}

func TestSendThenQuery(t *testing.T) {
	srv := newTestServer(t)
	routes := srv.Routes()

	rec := postJSON(t, routes, "/api/messages/send", api.SendRequest{
		Table:     "messages",
		UserID:    "u1",
		Sender:    "admin",
		AdminName: "support",
		Body:      "hello",
		CreatedAt: "2024-01-01T10:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sendResp api.SendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sendResp))
	require.True(t, sendResp.OK)
	require.True(t, sendResp.Inserted)

	rec = postJSON(t, routes, "/api/messages/query", api.QueryRequest{Table: "messages"})
	require.Equal(t, http.StatusOK, rec.Code)

	var queryResp api.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queryResp))
	require.True(t, queryResp.OK)
	require.Len(t, queryResp.Rows, 1)
	require.Equal(t, "hello", queryResp.Rows[0].Body)
	require.Equal(t, "u1", queryResp.Rows[0].UserID)
	require.NotEmpty(t, queryResp.Rows[0].ID)
}

func TestQuerySinceFilter(t *testing.T) {
	srv := newTestServer(t)
	routes := srv.Routes()

	for _, row := range []api.SendRequest{
		{UserID: "u1", Body: "old", CreatedAt: "2024-01-01T10:00:00Z"},
		{UserID: "u1", Body: "new", CreatedAt: "2024-02-01T10:00:00Z"},
	} {
		rec := postJSON(t, routes, "/api/messages/send", row)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	since := "2024-01-15T00:00:00Z"
	rec := postJSON(t, routes, "/api/messages/query", api.QueryRequest{Table: "messages", Since: &since})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	require.Equal(t, "new", resp.Rows[0].Body)
}

func TestQueryRejectsBadIdent(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv.Routes(), "/api/messages/query", api.QueryRequest{
		Table: "messages; drop table messages",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp api.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.OK)
	require.NotEmpty(t, resp.Error)
}

func TestSendValidation(t *testing.T) {
	srv := newTestServer(t)
	routes := srv.Routes()

	rec := postJSON(t, routes, "/api/messages/send", api.SendRequest{Body: "no user"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, routes, "/api/messages/send", api.SendRequest{UserID: "u1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendAttachment(t *testing.T) {
	srv := newTestServer(t)
	routes := srv.Routes()

	pdf := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 doc"))
	rec := postJSON(t, routes, "/api/messages/send", api.SendRequest{
		UserID:     "u1",
		Body:       "see attached",
		FileBase64: &pdf,
		CreatedAt:  "2024-01-01T10:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, routes, "/api/messages/query", api.QueryRequest{
		Table:   "messages",
		Columns: []string{"id", "user_identifier", "message", "file", "file_mime", "created_at"},
	})
	var resp api.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	require.Equal(t, pdf, resp.Rows[0].File)
	require.Equal(t, "application/pdf", resp.Rows[0].FileMime)
}

func TestSendRejectsBadAttachment(t *testing.T) {
	srv := newTestServer(t)

	junk := base64.StdEncoding.EncodeToString([]byte("just text"))
	rec := postJSON(t, srv.Routes(), "/api/messages/send", api.SendRequest{
		UserID:     "u1",
		FileBase64: &junk,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	notB64 := "%%%not-base64%%%"
	rec = postJSON(t, srv.Routes(), "/api/messages/send", api.SendRequest{
		UserID:     "u1",
		FileBase64: &notB64,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/messages/query", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
