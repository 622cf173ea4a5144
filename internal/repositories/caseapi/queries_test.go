package caseapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskpulserest/internal/identity"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		BaseURL:    server.URL,
		MaxRetries: 2,
		PageLimit:  100,
	}, identity.StaticToken("test-token"))
	require.NoError(t, err)
	return client
}

func TestFetch_FollowsPaging(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/incidents", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"value":           []map[string]interface{}{{"incidentid": "a"}, {"incidentid": "b"}},
			"@odata.nextLink": server.URL + "/incidents-page2",
		})
	})
	mux.HandleFunc("/incidents-page2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]interface{}{{"incidentid": "c"}},
		})
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(&Config{BaseURL: server.URL}, identity.StaticToken("test-token"))
	require.NoError(t, err)

	records, err := client.Fetch(context.Background(), Query{Collection: "incidents", Select: "incidentid"})
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "c", records[2].Str("incidentid"))
}

func TestCount_NativeCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("$count"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"value":        []map[string]interface{}{{"incidentid": "a"}},
			"@odata.count": 42,
		})
	})

	n, err := client.Count(context.Background(), "incidents", "statecode eq 0", "incidentid")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestCount_FallsBackToFetchAndMeasure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("$count") == "true" {
			// Backend rejects $count for this filter shape.
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"count not supported"}`))
			return
		}
		assert.Equal(t, "incidentid", r.URL.Query().Get("$select"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]interface{}{{"incidentid": "a"}, {"incidentid": "b"}, {"incidentid": "c"}},
		})
	})

	n, err := client.Count(context.Background(), "incidents", "statecode eq 0", "incidentid")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestGetPage_RetriesOnServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]interface{}{{"incidentid": "a"}},
		})
	})

	records, err := client.Fetch(context.Background(), Query{Collection: "incidents"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetPage_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Fetch(context.Background(), Query{Collection: "incidents"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_MissingTokenIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not be reached without a token")
	})
	client.tokens = identity.StaticToken("")

	_, err := client.Fetch(context.Background(), Query{Collection: "incidents"})
	assert.ErrorIs(t, err, identity.ErrNoToken)
}

func TestRecord_Helpers(t *testing.T) {
	rec := Record{
		"incidentid":            "abc",
		"actualdurationminutes": float64(0),
		"resolvebykpiid":        map[string]interface{}{"status": float64(4)},
	}

	assert.Equal(t, "abc", rec.Str("incidentid"))
	assert.Equal(t, float64(0), rec.Num("actualdurationminutes"))
	assert.Equal(t, float64(4), rec.Rel("resolvebykpiid").Num("status"))
	assert.Nil(t, rec.Rel("missing"))
	assert.True(t, IsAbandonedCall(rec))

	answered := Record{"actualdurationminutes": float64(3)}
	assert.False(t, IsAbandonedCall(answered))
}
