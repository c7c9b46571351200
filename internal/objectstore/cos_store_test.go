package objectstore_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/narration-service/internal/objectstore"
)

// newCosStore points the store at a fake S3-compatible endpoint. The custom
// endpoint switches the client to path-style addressing, so object requests
// arrive as /{bucket}/{key}.
func newCosStore(t *testing.T, handler http.HandlerFunc, publicBaseURL string) *objectstore.CosObjectStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return objectstore.NewCos(objectstore.CosConfig{
		Bucket:        "test-bucket",
		Region:        "ap-guangzhou",
		Endpoint:      server.URL,
		SecretID:      "test-id",
		SecretKey:     "test-secret",
		PublicBaseURL: publicBaseURL,
	})
}

func TestCosUpload(t *testing.T) {
	t.Parallel()

	var (
		gotMethod      string
		gotPath        string
		gotContentType string
	)

	store := newCosStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")

		w.WriteHeader(http.StatusOK)
	}, "")

	err := store.Upload(
		context.Background(),
		"bk-1/audio/page_0_narrator.mp3",
		[]byte{0xFF, 0xFB},
		"audio/mpeg",
	)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/test-bucket/bk-1/audio/page_0_narrator.mp3", gotPath)
	assert.Equal(t, "audio/mpeg", gotContentType)
}

func TestCosUpload_ServerError(t *testing.T) {
	t.Parallel()

	store := newCosStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, "")

	err := store.Upload(context.Background(), "key", []byte("data"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test-bucket")
}

func TestCosDownload(t *testing.T) {
	t.Parallel()

	content := []byte(`{"id":"bk-1"}`)

	store := newCosStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/test-bucket/books/bk-1/content.json", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(content)
	}, "")

	data, err := store.Download(context.Background(), "books/bk-1/content.json")
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestCosList(t *testing.T) {
	t.Parallel()

	listing := `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult>
  <Name>test-bucket</Name>
  <Prefix>books/</Prefix>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>books/bk-1/content.json</Key></Contents>
  <Contents><Key>books/bk-2/content.json</Key></Contents>
</ListBucketResult>`

	store := newCosStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "books/", r.URL.Query().Get("prefix"))

		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(listing))
	}, "")

	keys, err := store.List(context.Background(), "books/")
	require.NoError(t, err)
	assert.Equal(t, []string{"books/bk-1/content.json", "books/bk-2/content.json"}, keys)
}

func TestCosPublicURL(t *testing.T) {
	t.Parallel()

	store := objectstore.NewCos(objectstore.CosConfig{
		Bucket:        "picture-books-1250000000",
		Region:        "ap-guangzhou",
		Endpoint:      "",
		SecretID:      "id",
		SecretKey:     "secret",
		PublicBaseURL: "",
	})

	url := store.PublicURL("bk-1/audio/page_0_narrator.mp3")
	assert.Equal(
		t,
		"https://picture-books-1250000000.cos.ap-guangzhou.myqcloud.com/bk-1/audio/page_0_narrator.mp3",
		url,
	)
}

func TestCosPublicURL_BaseOverride(t *testing.T) {
	t.Parallel()

	store := objectstore.NewCos(objectstore.CosConfig{
		Bucket:        "test-bucket",
		Region:        "ap-guangzhou",
		Endpoint:      "",
		SecretID:      "id",
		SecretKey:     "secret",
		PublicBaseURL: "https://cdn.example.com/",
	})

	url := store.PublicURL("books/bk-1/content.json")
	assert.Equal(t, "https://cdn.example.com/books/bk-1/content.json", url)
}
