package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore provides access to a bucket-addressed blob store. Objects
// written through PutObject are publicly readable at the URL returned
// by PublicURL.
type ObjectStore interface {
	// PutObject uploads body under bucketName/objectName with the given
	// content type.
	PutObject(ctx context.Context, bucketName, objectName string, body io.Reader, contentType string) error

	// DeleteObject removes bucketName/objectName. Deleting a missing
	// object is not an error.
	DeleteObject(ctx context.Context, bucketName, objectName string) error

	// ListObjects returns all objects in bucketName.
	ListObjects(ctx context.Context, bucketName string) ([]ObjectInfo, error)

	// PublicURL returns the publicly resolvable URL of
	// bucketName/objectName.
	PublicURL(bucketName, objectName string) string
}
