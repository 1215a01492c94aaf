// Package archive copies sample build logs into a lode Store so they
// outlive the scratch workspace.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/crucible/iox"
)

// Backend names.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Config selects and configures the archive backend.
type Config struct {
	// Backend is "fs" or "s3".
	Backend string
	// Path is a directory for fs, or "bucket/prefix" for s3.
	Path string
	// Region is the AWS region (s3 only, optional).
	Region string
	// Endpoint is a custom S3 endpoint for S3-compatible providers.
	Endpoint string
	// UsePathStyle forces path-style addressing (s3 only).
	UsePathStyle bool
}

// Validate checks the backend name and path.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFS, BackendS3:
	default:
		return fmt.Errorf("unknown archive backend %q (want %s or %s)", c.Backend, BackendFS, BackendS3)
	}
	if c.Path == "" {
		return errors.New("archive path is required")
	}
	if c.Backend == BackendS3 {
		bucket, _ := ParseS3Path(c.Path)
		s3cfg := S3Config{Bucket: bucket}
		return s3cfg.Validate()
	}
	return nil
}

// Archiver stores one build log per sample per run.
type Archiver interface {
	// PutLog uploads the file at logPath and returns the key it landed at.
	PutLog(ctx context.Context, runID, sample, logPath string) (string, error)
	// Backend names the storage backend.
	Backend() string
}

// Key returns the store key for a sample log.
// Format: runs/run_id=<id>/sample=<name>/<filename>
func Key(runID, sample, filename string) string {
	return fmt.Sprintf("runs/run_id=%s/sample=%s/%s", runID, sample, filename)
}

// Archive is a lode-backed Archiver.
type Archive struct {
	backend string
	factory lode.StoreFactory

	storeOnce sync.Once
	store     lode.Store
	storeErr  error
}

// New creates an Archive over a store factory. The store is opened
// lazily on the first PutLog.
func New(backend string, factory lode.StoreFactory) *Archive {
	return &Archive{backend: backend, factory: factory}
}

// NewFS creates an Archive rooted at a local directory.
func NewFS(root string) *Archive {
	return New(BackendFS, lode.NewFSFactory(root))
}

// Open creates the Archive described by cfg.
func Open(ctx context.Context, cfg Config) (*Archive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == BackendFS {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, WrapInitError(err, cfg.Path)
		}
		return NewFS(cfg.Path), nil
	}
	bucket, prefix := ParseS3Path(cfg.Path)
	return NewS3(ctx, S3Config{
		Bucket:       bucket,
		Prefix:       prefix,
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		UsePathStyle: cfg.UsePathStyle,
	})
}

// Backend implements Archiver.
func (a *Archive) Backend() string {
	return a.backend
}

// PutLog implements Archiver.
func (a *Archive) PutLog(ctx context.Context, runID, sample, logPath string) (string, error) {
	store, err := a.getOrCreateStore()
	if err != nil {
		return "", WrapInitError(err, a.backend)
	}

	f, err := os.Open(logPath)
	if err != nil {
		return "", WrapReadError(err, logPath)
	}
	defer iox.DiscardClose(f)

	key := Key(runID, sample, filepath.Base(logPath))
	if err := store.Put(ctx, key, f); err != nil {
		return "", WrapWriteError(err, key)
	}
	return key, nil
}

func (a *Archive) getOrCreateStore() (lode.Store, error) {
	a.storeOnce.Do(func() {
		a.store, a.storeErr = a.factory()
	})
	return a.store, a.storeErr
}

// Verify Archive implements Archiver.
var _ Archiver = (*Archive)(nil)
