// Package archive stores exported dashboard reports on a local disk or in
// an S3-compatible bucket.
package archive

import (
	"context"
	"fmt"

	"github.com/newthinker/signalpro/internal/config"
)

// Storage is a flat key/value blob store addressed by slash-separated paths.
type Storage interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	// List returns the paths under prefix, relative to the store root.
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// New opens the backend selected by cfg.Type.
func New(cfg config.ArchiveConfig) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}
