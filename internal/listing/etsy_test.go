package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// #region fakes

type staticTokens struct{}

func (staticTokens) APIKey() (string, error)      { return "test-key", nil }
func (staticTokens) AccessToken() (string, error) { return "test-token", nil }

// #endregion

// #region client-tests

func TestCreateDraft(t *testing.T) {
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/application/shops/42/listings", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"listing_id": 9001, "state": "draft", "title": "t"}`))
	}))
	defer srv.Close()

	c, err := NewClient(42, staticTokens{}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	meta := BuildMetadata("Cyberpunk Neon", []string{"offline"})
	draft, err := c.CreateDraft(context.Background(), meta)
	require.NoError(t, err)

	assert.Equal(t, int64(9001), draft.ListingID)
	assert.Equal(t, "draft", draft.State)
	assert.Equal(t, "download", gotForm["type"][0])
	assert.Equal(t, "draft", gotForm["state"][0])
	assert.Len(t, gotForm["tags"], maxTags)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"listing_id": 1}`))
	}))
	defer srv.Close()

	c, err := NewClient(1, staticTokens{}, WithBaseURL(srv.URL))
	require.NoError(t, err)
	c.backoff = time.Millisecond

	_, err = c.CreateDraft(context.Background(), BuildMetadata("X", []string{"a"}))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ClientErrorNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid taxonomy"}`))
	}))
	defer srv.Close()

	c, err := NewClient(1, staticTokens{}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.CreateDraft(context.Background(), BuildMetadata("X", []string{"a"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, 1, attempts)
}

func TestUploadFile(t *testing.T) {
	payload := filepath.Join(t.TempDir(), "overlays.zip")
	require.NoError(t, os.WriteFile(payload, []byte("zip-bytes"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/application/shops/7/listings/9001/files", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "overlays.zip", header.Filename)
		assert.Equal(t, "overlays.zip", r.FormValue("name"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(7, staticTokens{}, WithBaseURL(srv.URL))
	require.NoError(t, err)
	require.NoError(t, c.UploadFile(context.Background(), 9001, payload))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(0, staticTokens{})
	require.Error(t, err)

	_, err = NewClient(1, nil)
	require.Error(t, err)
}

// #endregion
