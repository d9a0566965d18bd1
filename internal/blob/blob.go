// Package blob stores product images outside the database.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"chatshop/internal/core/config"
)

var ErrNotFound = errors.New("blob: not found")

type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	String() string
}

// New builds the backend selected by the storage section of the configuration.
func New(ctx context.Context, c config.Storage) (Storage, error) {
	switch c.Driver {
	case "", "local":
		return NewLocal(c.LocalDir), nil
	case "s3":
		return NewS3(ctx, S3Config{Region: c.S3.Region, Bucket: c.S3.Bucket, Prefix: c.S3.Prefix})
	default:
		return nil, fmt.Errorf("blob: unknown driver %q", c.Driver)
	}
}

func newKey(filename string) string {
	return uuid.NewString() + safeExt(filename)
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return ""
	}
}

// ContentType guesses an image type from a key.
func ContentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}
