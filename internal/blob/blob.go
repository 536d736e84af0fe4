// Package blob is the entry point to the provenance archive. It re-exports
// the store contract and selects a backend from configuration; callers
// depend on blob.Store and never import the infra packages directly.
package blob

import (
	"context"
	"fmt"

	"github.com/shubh1021/AgriTrace/internal/blob/core"
	"github.com/shubh1021/AgriTrace/internal/infra/blob/fs"
	memorystore "github.com/shubh1021/AgriTrace/internal/infra/blob/memory"
	infras3 "github.com/shubh1021/AgriTrace/internal/infra/blob/s3"
)

type (
	// Driver identifies an archive backend.
	Driver = core.Driver
	// PutOptions configures an archive write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored object metadata.
	Info = core.Info
	// Store is the create-only archive contract.
	Store = core.Store
	// S3Config configures the S3 backend.
	S3Config = infras3.Config
)

// DefaultFSRoot is the filesystem archive root used when none is configured.
const DefaultFSRoot = fs.DefaultRoot

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrExists      = core.ErrExists
	ErrNotFound    = core.ErrNotFound
)

// Config selects and configures a backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open returns the backend named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// NewFilesystem constructs a filesystem-backed store rooted at root.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

// NewMemory returns an in-memory store.
func NewMemory() Store { return memorystore.New() }

// NewS3 constructs an S3-backed store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return infras3.New(ctx, cfg)
}

// NewMockS3ForTests exposes the in-process S3 fake for cross-package tests.
func NewMockS3ForTests() Store { return infras3.NewMockForTests() }
