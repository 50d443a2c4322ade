package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigexhq/sigex-cli/internal/fetch"
	"github.com/sigexhq/sigex-cli/internal/signal"
)

const testPDQHash = "f8f8f0cee0f4a84f06370a22038f63f0b36e2ed596621e1d33e6b39c4e9c9b22"

func updatesHandler(t *testing.T, pages map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/threat_updates"), "path %s", r.URL.Path)
		require.Equal(t, "token-123", r.URL.Query().Get("access_token"))
		body, ok := pages[r.URL.Query().Get("after")]
		require.True(t, ok, "unexpected cursor %q", r.URL.Query().Get("after"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func TestClient_ThreatUpdatesPaging(t *testing.T) {
	page1, _ := json.Marshal(map[string]any{
		"data": []map[string]any{
			{"id": "1", "indicator": testPDQHash, "type": "HASH_PDQ", "last_updated": 100},
		},
		"paging": map[string]any{
			"cursors": map[string]any{"after": "cur-2"},
			"next":    "https://example.invalid/next",
		},
	})
	page2, _ := json.Marshal(map[string]any{
		"data": []map[string]any{
			{"id": "2", "indicator": "https://example.com/x", "type": "RAW_URI", "last_updated": 200, "should_delete": true},
		},
		"paging": map[string]any{"cursors": map[string]any{"after": "cur-3"}},
	})

	srv := httptest.NewServer(updatesHandler(t, map[string]string{"": string(page1), "cur-2": string(page2)}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-123")

	rows, next, err := c.ThreatUpdates(context.Background(), "12345", 0, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, testPDQHash, rows[0].Indicator)
	assert.Equal(t, "cur-2", next)

	rows, next, err = c.ThreatUpdates(context.Background(), "12345", 0, next)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].ShouldDelete)
	assert.Equal(t, "", next, "no next page means drained")
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "bad token"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL, "token-123").ThreatUpdates(context.Background(), "12345", 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestAPI_FetchOnce(t *testing.T) {
	page, _ := json.Marshal(map[string]any{
		"data": []map[string]any{
			{"id": "1", "indicator": testPDQHash, "type": "HASH_PDQ", "last_updated": 150, "owner": 42, "tags": []string{"media_type_photo"}},
			{"id": "2", "indicator": "not-a-valid-pdq", "type": "HASH_PDQ", "last_updated": 160},
			{"id": "3", "indicator": "https://example.com/x", "type": "RAW_URI", "last_updated": 170, "should_delete": true},
			{"id": "4", "indicator": "whatever", "type": "HASH_UNKNOWN", "last_updated": 180},
		},
		"paging": map[string]any{"cursors": map[string]any{"after": ""}},
	})
	srv := httptest.NewServer(updatesHandler(t, map[string]string{"": string(page)}))
	defer srv.Close()

	reg, err := signal.NewRegistry()
	require.NoError(t, err)
	api := NewAPI(NewClient(srv.URL, "token-123"), reg)

	collab := &fetch.Collab{Name: "c", API: APIName, Enabled: true, PrivacyGroup: "12345"}
	delta, err := api.FetchOnce(context.Background(), collab, nil)
	require.NoError(t, err)

	// Valid PDQ add + URL tombstone; invalid PDQ and unknown indicator dropped.
	require.Len(t, delta.Updates, 2)
	assert.Equal(t, signal.TypePDQ, delta.Updates[0].SignalType)
	require.NotNil(t, delta.Updates[0].Metadata)
	assert.Equal(t, int64(42), delta.Updates[0].Metadata.Opinions[0].Owner)
	assert.Equal(t, signal.TypeURL, delta.Updates[1].SignalType)
	assert.Nil(t, delta.Updates[1].Metadata, "should_delete becomes a tombstone")

	assert.Equal(t, int64(180), delta.Checkpoint.LastFetch)
	assert.False(t, delta.HasMore)
}

func TestAPI_RequiresPrivacyGroup(t *testing.T) {
	reg, err := signal.NewRegistry()
	require.NoError(t, err)
	api := NewAPI(NewClient("http://unused.invalid", "t"), reg)

	_, err = api.FetchOnce(context.Background(), &fetch.Collab{Name: "c", API: APIName}, nil)
	assert.Error(t, err)
}
