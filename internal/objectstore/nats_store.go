// Package objectstore provides a NATS-based implementation of the
// ObjectStore interface for synthesized audio.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// AudioStore stores produced audio files in a NATS JetStream object store
// bucket.
type AudioStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	store            nats.ObjectStore
}

// New creates an AudioStore over the named bucket, creating the bucket when
// it does not exist yet and binding to it when it does.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*AudioStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Synthesized audio for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf(
				"failed to create object store bucket '%s': %w",
				bucketName,
				err,
			)
		}

		store, err = jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to bind to existing object store bucket '%s': %w",
				bucketName,
				err,
			)
		}
	}

	return &AudioStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		store:            store,
	}, nil
}

// Download retrieves an object from the bucket.
func (s *AudioStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to get object '%s' from bucket '%s': %w",
			key,
			s.bucket,
			err,
		)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves an object to the bucket.
func (s *AudioStore) Upload(_ context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := s.store.Put(&nats.ObjectMeta{Name: key}, reader)
	if err != nil {
		return fmt.Errorf(
			"failed to put object '%s' to bucket '%s': %w",
			key,
			s.bucket,
			err,
		)
	}

	return nil
}
