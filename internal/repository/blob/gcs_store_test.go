package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/mamadbah2/harvest/internal/config"
)

func newTestGCSStore(t *testing.T, handler http.HandlerFunc) *GCSStore {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewGCSStore(context.Background(),
		config.StorageConfig{Bucket: "test-bucket"},
		nil,
		option.WithoutAuthentication(),
		option.WithEndpoint(srv.URL+"/storage/v1/"),
	)
	require.NoError(t, err)
	return store
}

func TestGCSStoreGet(t *testing.T) {
	store := newTestGCSStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/b/test-bucket/o/harvest_data.csv"):
			assert.Equal(t, "media", r.URL.Query().Get("alt"))
			w.Header().Set(generationHeader, "42")
			_, _ = io.WriteString(w, "ID\n1\n")
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"No such object"}}`)
		}
	})

	obj, err := store.Get(context.Background(), "harvest_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "ID\n1\n", string(obj.Data))
	assert.Equal(t, int64(42), obj.Generation)

	_, err = store.Get(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGCSStoreGetWithoutGenerationHeader(t *testing.T) {
	var pinned string
	store := newTestGCSStore(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/b/test-bucket/o/harvest_data.csv") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("alt") != "media" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"name":"harvest_data.csv","bucket":"test-bucket","generation":"9"}`)
			return
		}
		if pinned = r.URL.Query().Get("generation"); pinned == "9" {
			_, _ = io.WriteString(w, "ID\n1\n2\n")
			return
		}
		_, _ = io.WriteString(w, "ID\n1\n")
	})

	obj, err := store.Get(context.Background(), "harvest_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "9", pinned)
	assert.Equal(t, int64(9), obj.Generation)
	assert.Equal(t, "ID\n1\n2\n", string(obj.Data))
}

func TestGCSStoreGetWithoutAnyGeneration(t *testing.T) {
	store := newTestGCSStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") != "media" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"name":"harvest_data.csv","bucket":"test-bucket"}`)
			return
		}
		_, _ = io.WriteString(w, "ID\n1\n")
	})

	_, err := store.Get(context.Background(), "harvest_data.csv")
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "get", storageErr.Op)
}

func TestGCSStoreGetFailure(t *testing.T) {
	store := newTestGCSStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := store.Get(context.Background(), "harvest_data.csv")
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "get", storageErr.Op)
}

func TestGCSStorePut(t *testing.T) {
	var gotGeneration string
	var gotBody string

	store := newTestGCSStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/b/test-bucket/o") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotGeneration = r.URL.Query().Get("ifGenerationMatch")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		if gotGeneration == "7" {
			w.WriteHeader(http.StatusPreconditionFailed)
			_, _ = io.WriteString(w, `{"error":{"code":412,"message":"conditionNotMet"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"name":"harvest_data.csv","generation":"43"}`)
	})

	require.NoError(t, store.Put(context.Background(), "harvest_data.csv", []byte("ID\n1\n2\n"), IfGenerationMatch(42)))
	assert.Equal(t, "42", gotGeneration)
	assert.Contains(t, gotBody, "ID\n1\n2\n")

	require.NoError(t, store.Put(context.Background(), "harvest_data.csv", []byte("ID\n")))
	assert.Empty(t, gotGeneration)

	err := store.Put(context.Background(), "harvest_data.csv", []byte("ID\n"), IfGenerationMatch(7))
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}
