package blob

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested key does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrPreconditionFailed indicates a conditional write lost against a concurrent writer.
	ErrPreconditionFailed = errors.New("object generation precondition failed")
)

// Object is the content of a key together with its generation. Generation 0
// means the object does not exist.
type Object struct {
	Data       []byte
	Generation int64
}

// Store defines the key-addressed byte storage used by the services.
type Store interface {
	Get(ctx context.Context, key string) (Object, error)
	Put(ctx context.Context, key string, data []byte, opts ...PutOption) error
}

// PutOptions collects the settings applied to one write.
type PutOptions struct {
	Conditional       bool
	IfGenerationMatch int64
	ContentType       string
}

// PutOption customizes a Put call.
type PutOption func(*PutOptions)

// IfGenerationMatch makes the write succeed only while the stored generation
// equals gen. A gen of 0 requires the object to be absent.
func IfGenerationMatch(gen int64) PutOption {
	return func(o *PutOptions) {
		o.Conditional = true
		o.IfGenerationMatch = gen
	}
}

func buildPutOptions(opts []PutOption) PutOptions {
	o := PutOptions{ContentType: "text/csv; charset=utf-8"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// StorageError wraps a failed read or write against the backing store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
