package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/pack-qa/internal/packdir"
)

// #region publish-tests

func TestPublish(t *testing.T) {
	packDir := t.TempDir()
	listingDir := filepath.Join(packDir, packdir.ListingDir)
	deliveryDir := filepath.Join(packDir, packdir.DeliveryDir)
	require.NoError(t, os.MkdirAll(listingDir, 0o755))
	require.NoError(t, os.MkdirAll(deliveryDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(listingDir, "01_hero.png"), []byte("img"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(listingDir, "02_offline.png"), []byte("img"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(deliveryDir, "offline.zip"), []byte("zip"), 0o644))

	var imageUploads, fileUploads int
	var firstImageName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/listings"):
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"listing_id": 55, "state": "draft"}`))
		case strings.HasSuffix(r.URL.Path, "/images"):
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile("image")
			require.NoError(t, err)
			if imageUploads == 0 {
				firstImageName = header.Filename
				assert.Equal(t, "1", r.FormValue("rank"))
			}
			imageUploads++
			w.Write([]byte(`{}`))
		case strings.HasSuffix(r.URL.Path, "/files"):
			fileUploads++
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c, err := NewClient(3, staticTokens{}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	draft, err := Publish(context.Background(), c, packDir, "Cyberpunk Neon", []string{"offline"})
	require.NoError(t, err)

	assert.Equal(t, int64(55), draft.ListingID)
	assert.Equal(t, 2, imageUploads)
	assert.Equal(t, 1, fileUploads)
	// Sorted order keeps the hero image at rank 1.
	assert.Equal(t, "01_hero.png", firstImageName)
}

func TestPublish_RequiresAssets(t *testing.T) {
	packDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(packDir, packdir.ListingDir), 0o755))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"listing_id": 55}`))
	}))
	defer srv.Close()

	c, err := NewClient(3, staticTokens{}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = Publish(context.Background(), c, packDir, "X", []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no listing images")
}

// #endregion
