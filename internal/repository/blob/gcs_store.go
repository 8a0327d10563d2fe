package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storagev1 "google.golang.org/api/storage/v1"

	"github.com/mamadbah2/harvest/internal/config"
)

const generationHeader = "X-Goog-Generation"

// GCSStore implements Store on a Google Cloud Storage bucket through the JSON API.
type GCSStore struct {
	service *storagev1.Service
	bucket  string
	logger  *zap.Logger
}

// NewGCSStore builds a bucket-backed store. Extra client options are applied
// after the ones derived from cfg.
func NewGCSStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger, extra ...option.ClientOption) (*GCSStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket must not be empty")
	}

	opts := []option.ClientOption{option.WithScopes(storagev1.DevstorageReadWriteScope)}
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, extra...)

	service, err := storagev1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}

	return &GCSStore{
		service: service,
		bucket:  cfg.Bucket,
		logger:  logger,
	}, nil
}

// Get downloads the object media and reports its generation.
func (s *GCSStore) Get(ctx context.Context, key string) (Object, error) {
	if key == "" {
		return Object{}, fmt.Errorf("key must not be empty")
	}

	data, generation, err := s.download(ctx, key, 0)
	if err != nil {
		return Object{}, err
	}

	if generation == 0 {
		// Some emulators and proxies drop the generation header. Read it from
		// the metadata and fetch that exact generation so data and
		// generation agree.
		meta, err := s.service.Objects.Get(s.bucket, key).Context(ctx).Do()
		if err != nil {
			if statusOf(err) == http.StatusNotFound {
				return Object{}, ErrNotFound
			}
			return Object{}, &StorageError{Op: "get", Key: key, Err: fmt.Errorf("read metadata: %w", err)}
		}
		if meta.Generation == 0 {
			return Object{}, &StorageError{Op: "get", Key: key, Err: errors.New("object metadata carries no generation")}
		}

		generation = meta.Generation
		data, _, err = s.download(ctx, key, generation)
		if err != nil {
			return Object{}, err
		}
	}

	s.logger.Debug("object downloaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
		zap.Int64("generation", generation))

	return Object{Data: data, Generation: generation}, nil
}

// download fetches the media of key, pinned to generation when it is non-zero.
// The returned generation is 0 when the response omits the header.
func (s *GCSStore) download(ctx context.Context, key string, generation int64) ([]byte, int64, error) {
	call := s.service.Objects.Get(s.bucket, key).Context(ctx)
	if generation != 0 {
		call = call.Generation(generation)
	}

	resp, err := call.Download()
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, 0, ErrNotFound
		}
		return nil, 0, &StorageError{Op: "get", Key: key, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &StorageError{Op: "get", Key: key, Err: fmt.Errorf("read body: %w", err)}
	}

	var got int64
	if raw := resp.Header.Get(generationHeader); raw != "" {
		got, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, &StorageError{Op: "get", Key: key, Err: fmt.Errorf("parse generation %q: %w", raw, err)}
		}
	}
	return data, got, nil
}

// Put uploads data under key, replacing the current object.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte, opts ...PutOption) error {
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}

	o := buildPutOptions(opts)

	call := s.service.Objects.Insert(s.bucket, &storagev1.Object{Name: key, ContentType: o.ContentType}).
		Media(bytes.NewReader(data), googleapi.ContentType(o.ContentType)).
		Context(ctx)
	if o.Conditional {
		call = call.IfGenerationMatch(o.IfGenerationMatch)
	}

	obj, err := call.Do()
	if err != nil {
		if statusOf(err) == http.StatusPreconditionFailed {
			return ErrPreconditionFailed
		}
		return &StorageError{Op: "put", Key: key, Err: err}
	}

	s.logger.Debug("object uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
		zap.Int64("generation", obj.Generation))

	return nil
}

func statusOf(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
