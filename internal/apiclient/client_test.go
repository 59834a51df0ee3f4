package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuthFailsFastWithoutToken(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, &MemTokenStore{})
	_, err := c.Get(context.Background(), "papers", true)
	require.ErrorIs(t, err, ErrNoToken)
	assert.False(t, called, "no request should reach the server without a token")
}

func TestBearerTokenSent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []string{}})
	}))
	defer srv.Close()

	store := &MemTokenStore{}
	require.NoError(t, store.Save("tok123"))
	c := New(srv.URL, store)
	_, err := c.Get(context.Background(), "papers", true)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestErrorPrefersDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(409)
		json.NewEncoder(w).Encode(map[string]string{
			"error":  "conflict",
			"detail": "paper PP-1001 is already approved",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Post(context.Background(), "papers/42/approve", nil, false)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "paper PP-1001 is already approved", apiErr.Error())
}

func TestErrorFallsBackToGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Get(context.Background(), "papers", false)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "request failed with status 500", apiErr.Error())
}

func TestDeleteSendsBody(t *testing.T) {
	var gotMethod string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]string{"deleted": "42"}})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Delete(context.Background(), "papers/42", map[string]string{"reason": "duplicate"}, false)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "duplicate", gotBody["reason"])
}

func TestDecodeDataUnwrapsEnvelope(t *testing.T) {
	raw := json.RawMessage(`{"data":[{"id":"PP-0001"}],"meta":{"total":1}}`)
	var items []struct {
		ID string `json:"id"`
	}
	require.NoError(t, DecodeData(raw, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "PP-0001", items[0].ID)

	assert.Error(t, DecodeData(json.RawMessage(`{"other":1}`), &items))
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := &FileTokenStore{Path: path}

	tok, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, tok, "missing file reads as logged out")

	require.NoError(t, store.Save("abc"))
	tok, err = store.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")
	tok, err = store.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)
}
