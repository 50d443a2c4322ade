package bank

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigexhq/sigex-cli/internal/signal"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

func newTestService(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	store := newTestStore(t)
	reg, err := signal.NewRegistry()
	require.NoError(t, err)
	indexes, err := index.NewStore(t.TempDir())
	require.NoError(t, err)

	svc := NewService(store, nil, reg, indexes, nil)
	e := echo.New()
	svc.Register(e)
	return e, svc
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestService_BankLifecycle(t *testing.T) {
	e, _ := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/banks", `{"name":"evil-urls","description":"known bad links"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var b Bank
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.True(t, b.IsActive)

	rec = doJSON(t, e, http.MethodPost, "/v1/banks", `{"description":"nameless"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/banks/"+b.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/banks/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodPatch, "/v1/banks/"+b.ID, `{"is_active":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated Bank
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.False(t, updated.IsActive)
	assert.Equal(t, "known bad links", updated.Description, "PATCH leaves omitted fields alone")
}

func TestService_AddMemberDerivesSignals(t *testing.T) {
	e, _ := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/banks", `{"name":"b"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var b Bank
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	rec = doJSON(t, e, http.MethodPost, "/v1/banks/"+b.ID+"/members",
		`{"content_type":"text","raw_content":"The Quick Brown Fox"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp addMemberResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// raw_text hashes short text; tlsh refuses it and is skipped.
	require.Len(t, resp.Signals, 1)
	assert.Equal(t, signal.TypeRawText, resp.Signals[0].SignalType)
	assert.Equal(t, "the quick brown fox", resp.Signals[0].Hash)

	rec = doJSON(t, e, http.MethodGet, "/v1/members/"+resp.Member.ID+"/signals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "the quick brown fox")

	// URL members hash through both url and url_md5.
	rec = doJSON(t, e, http.MethodPost, "/v1/banks/"+b.ID+"/members",
		`{"content_type":"url","raw_content":"HTTPS://Example.COM/bad"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp = addMemberResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	types := map[string]string{}
	for _, sig := range resp.Signals {
		types[sig.SignalType] = sig.Hash
	}
	assert.Equal(t, "https://example.com/bad", types[signal.TypeURL])
	assert.NotEmpty(t, types[signal.TypeURLMD5])

	rec = doJSON(t, e, http.MethodPost, "/v1/banks/"+b.ID+"/members", `{"content_type":"text"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "content is required")

	rec = doJSON(t, e, http.MethodPost, "/v1/banks/"+b.ID+"/members",
		`{"content_type":"hologram","raw_content":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestService_UploadURLWithoutMediaStore(t *testing.T) {
	e, _ := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/banks", `{"name":"b"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var b Bank
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	// The bank is checked before the media store, so a bad bank ID is a
	// 404 rather than a 501 even without an object store configured.
	rec = doJSON(t, e, http.MethodPost, "/v1/banks/nope/members/upload-url", `{"filename":"cat.jpg"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/v1/banks/"+b.ID+"/members/upload-url", `{"filename":"cat.jpg"}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestService_RemoveMember(t *testing.T) {
	e, _ := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/banks", `{"name":"b"}`)
	var b Bank
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	rec = doJSON(t, e, http.MethodPost, "/v1/banks/"+b.ID+"/members",
		`{"content_type":"text","raw_content":"gone soon"}`)
	var resp addMemberResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = doJSON(t, e, http.MethodDelete, "/v1/members/"+resp.Member.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/banks/"+b.ID+"/members", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Members []BankMember `json:"members"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Empty(t, listing.Members)

	rec = doJSON(t, e, http.MethodDelete, "/v1/members/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestService_Match(t *testing.T) {
	e, svc := newTestService(t)

	st, err := svc.registry.ByName(signal.TypeVideoMD5)
	require.NoError(t, err)
	idx, err := index.Build(st.IndexClass, st.IndexCompare(), []index.Entry{
		{Hash: "d1b9f60cd9857e8b2deed98ca4eeb1e2", Payload: "sample-collab"},
	})
	require.NoError(t, err)
	require.NoError(t, svc.indexes.Save(st.Name, st.IndexClass, idx))

	rec := doJSON(t, e, http.MethodGet,
		"/v1/match?signal_type=video_md5&hash=d1b9f60cd9857e8b2deed98ca4eeb1e2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Matches []matchResult `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Matches, 1)
	assert.Equal(t, 0, out.Matches[0].Distance)
	assert.Equal(t, "sample-collab", out.Matches[0].Payload)

	// Absent hash still answers, with no matches.
	rec = doJSON(t, e, http.MethodGet,
		"/v1/match?signal_type=video_md5&hash=00000000000000000000000000000000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out.Matches = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Empty(t, out.Matches)

	// Signal type with no stored index answers empty too.
	rec = doJSON(t, e, http.MethodGet,
		"/v1/match?signal_type=pdq&hash="+strings.Repeat("f", 64), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/match?signal_type=nope&hash=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/match?signal_type=video_md5&hash=tooshort", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/match?signal_type=video_md5", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
