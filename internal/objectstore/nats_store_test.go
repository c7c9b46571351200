// Package objectstore_test tests the object storage backends.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/narration-service/internal/objectstore"
)

// StartTestServer starts an in-memory NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func newNatsStore(t *testing.T, bucket, publicBaseURL string) *objectstore.NatsObjectStore {
	t.Helper()

	natsServer, natsConnection := StartTestServer(t)
	t.Cleanup(natsServer.Shutdown)
	t.Cleanup(natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.NewNats(jetstreamContext, bucket, publicBaseURL)
	require.NoError(t, err)

	return store
}

func TestNatsObjectStore_UploadDownload(t *testing.T) {
	t.Parallel()

	store := newNatsStore(t, "narration-test", "http://localhost:8080/objects")

	ctx := context.Background()
	key := "bk-1/audio/page_0_narrator.mp3"
	uploadData := []byte{0xFF, 0xFB, 0x90, 0x00}

	err := store.Upload(ctx, key, uploadData, "audio/mpeg")
	require.NoError(t, err)

	downloadData, err := store.Download(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uploadData, downloadData)
}

func TestNatsObjectStore_DownloadMissing(t *testing.T) {
	t.Parallel()

	store := newNatsStore(t, "narration-test", "http://localhost:8080/objects")

	_, err := store.Download(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func TestNatsObjectStore_ListFiltersByPrefix(t *testing.T) {
	t.Parallel()

	store := newNatsStore(t, "narration-test", "http://localhost:8080/objects")

	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "books/bk-1/content.json", []byte(`{}`), "application/json"))
	require.NoError(t, store.Upload(ctx, "books/bk-2/content.json", []byte(`{}`), "application/json"))
	require.NoError(t, store.Upload(ctx, "bk-1/audio/page_0_narrator.mp3", []byte("mp3"), "audio/mpeg"))

	keys, err := store.List(ctx, "books/")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.ElementsMatch(t, []string{"books/bk-1/content.json", "books/bk-2/content.json"}, keys)
}

func TestNatsObjectStore_ListEmptyBucket(t *testing.T) {
	t.Parallel()

	store := newNatsStore(t, "narration-test", "http://localhost:8080/objects")

	keys, err := store.List(context.Background(), "books/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNatsObjectStore_PublicURL(t *testing.T) {
	t.Parallel()

	store := newNatsStore(t, "narration-test", "http://localhost:8080/objects/")

	url := store.PublicURL("bk-1/audio/page_0_narrator.mp3")
	assert.Equal(t, "http://localhost:8080/objects/bk-1/audio/page_0_narrator.mp3", url)
}
