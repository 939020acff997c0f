package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryDecodesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages/query", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "messages", req.Table)
		require.NotNil(t, req.Since)
		require.Equal(t, "2024-01-01T00:00:00Z", *req.Since)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"rows":[{"id":7,"user_identifier":"u1","sender":"user","message":"hi","created_at":"2024-01-02T00:00:00Z"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	since := "2024-01-01T00:00:00Z"
	resp, err := client.Query(context.Background(), QueryRequest{
		Table:   "messages",
		Columns: []string{"id", "user_identifier", "sender", "message", "created_at"},
		Since:   &since,
		Limit:   100,
	})
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Len(t, resp.Rows, 1)
	require.Equal(t, "7", resp.Rows[0].ID, "numeric ids decode as strings")
}

func TestQueryDecodesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error":"invalid identifier"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Query(context.Background(), QueryRequest{Table: "nope;drop"})
	require.NoError(t, err, "error payloads decode rather than failing the call")
	require.False(t, resp.OK)
	require.Equal(t, "invalid identifier", resp.Error)
}

func TestSendRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages/send", r.URL.Path)

		var req SendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "u1", req.UserID)
		require.Equal(t, "admin", req.Sender)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"inserted":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Send(context.Background(), SendRequest{
		Table: "messages", UserID: "u1", Sender: "admin", Body: "hello",
		CreatedAt: "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.True(t, resp.Inserted)
}

func TestHealthAndDBTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/health":
			w.Write([]byte(`{"ok":true,"ts":"2024-01-01T00:00:00Z"}`))
		case "/api/db-test":
			w.Write([]byte(`{"ok":true,"connected":true}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	require.True(t, health.OK)

	db, err := client.TestDB(context.Background(), "")
	require.NoError(t, err)
	require.True(t, db.Connected)
}

func TestNoBaseURL(t *testing.T) {
	client := NewClient("  ")
	_, err := client.Query(context.Background(), QueryRequest{Table: "messages"})
	require.ErrorIs(t, err, ErrNoBaseURL)

	_, err = client.Health(context.Background())
	require.ErrorIs(t, err, ErrNoBaseURL)
}

func TestBaseURLTrimmed(t *testing.T) {
	client := NewClient(" http://localhost:8000/ ")
	require.Equal(t, "http://localhost:8000", client.Base())
}
