package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// fakeS3 serves the handful of path-style calls ObjectStore makes.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodPut:
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[path] = data
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		data, ok := f.objects[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestStore(t *testing.T) (*ObjectStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio-secret",
		Bucket:    "quotes",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return store, fake
}

func TestNewCreatesMissingBucket(t *testing.T) {
	_, fake := newTestStore(t)
	assert.True(t, fake.buckets["quotes"])
}

func TestPutAndPresign(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "quotes/00001/rev-1.pdf", "application/pdf", []byte("%PDF-1.7")))
	require.Contains(t, fake.objects, "quotes/quotes/00001/rev-1.pdf")
	assert.Contains(t, string(fake.objects["quotes/quotes/00001/rev-1.pdf"]), "%PDF-1.7")

	url, err := store.PresignedGet(ctx, "quotes/00001/rev-1.pdf", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "/quotes/quotes/00001/rev-1.pdf")
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestPresignMissingObject(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.PresignedGet(context.Background(), "quotes/00002/rev-1.pdf", time.Minute)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
