// Package media uploads video, image and playlist objects for the catalog.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/spf13/afero"
	"google.golang.org/api/option"
)

// ObjectStore writes objects and returns their public URL
type ObjectStore interface {
	Put(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error)
}

// FSStore keeps objects on a filesystem rooted at baseDir
type FSStore struct {
	fs        afero.Fs
	baseDir   string
	publicURL string
}

var _ ObjectStore = (*FSStore)(nil)

// NewFSStore creates a filesystem store. URLs are publicURL/objectPath when
// publicURL is set, otherwise file paths.
func NewFSStore(fs afero.Fs, baseDir, publicURL string) *FSStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FSStore{fs: fs, baseDir: baseDir, publicURL: strings.TrimSuffix(publicURL, "/")}
}

func (s *FSStore) Put(ctx context.Context, objectPath string, r io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := path.Clean("/" + objectPath)[1:]
	if clean == "" {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(clean))
	if err := s.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := afero.WriteReader(s.fs, full, r); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", clean, err)
	}
	if s.publicURL != "" {
		return s.publicURL + "/" + clean, nil
	}
	return "file://" + filepath.ToSlash(full), nil
}

// GCSStore writes objects to a Google Cloud Storage bucket
type GCSStore struct {
	client    *storage.Client
	bucket    string
	publicURL string
}

var _ ObjectStore = (*GCSStore)(nil)

// NewGCSStore connects to GCS. Without a credentials file the default
// application credentials are used.
func NewGCSStore(ctx context.Context, bucket, credentialsFile, publicURL string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: failed to create client: %w", err)
	}
	if publicURL == "" {
		publicURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{client: client, bucket: bucket, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (s *GCSStore) Put(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: failed to upload %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: failed to finalize %s: %w", objectPath, err)
	}
	return s.publicURL + "/" + objectPath, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
