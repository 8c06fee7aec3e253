package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
)

// AssetName is the file name of the published chart.
const AssetName = "plot.png"

// AssetSink stores a rendered chart under name.
type AssetSink interface {
	Put(ctx context.Context, name string, png []byte) error
}

// AssetRemover is implemented by sinks that can delete a stale asset.
type AssetRemover interface {
	Remove(ctx context.Context, name string) error
}

// DirSink writes assets into a local directory served as static content.
type DirSink struct {
	Dir string
}

func (s DirSink) Put(ctx context.Context, name string, png []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp asset: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(png); err != nil {
		tmp.Close()
		return fmt.Errorf("write asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close asset: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod asset: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("replace asset: %w", err)
	}
	return nil
}

// Remove deletes name; a missing file is not an error.
func (s DirSink) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove asset: %w", err)
	}
	return nil
}

// GCSSink uploads assets to a Cloud Storage bucket. Credentials come from
// Application Default Credentials.
type GCSSink struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSSink(ctx context.Context, bucket, prefix string) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSSink{client: client, bucket: bucket, prefix: prefix}, nil
}

// ObjectName returns the object path used for name.
func (s *GCSSink) ObjectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *GCSSink) Put(ctx context.Context, name string, png []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(s.ObjectName(name)).NewWriter(ctx)
	w.ContentType = "image/png"
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, bytes.NewReader(png)); err != nil {
		w.Close()
		return fmt.Errorf("copy chart to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// Remove deletes the object for name; a missing object is not an error.
func (s *GCSSink) Remove(ctx context.Context, name string) error {
	err := s.client.Bucket(s.bucket).Object(s.ObjectName(name)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete chart object: %w", err)
	}
	return nil
}

func (s *GCSSink) Close() error {
	return s.client.Close()
}
