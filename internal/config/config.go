// Package config holds the immutable run configuration passed to every
// pipeline component.
package config

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

const (
	// DefaultMaxWords is ~75% of a 512 token embedding budget, leaving room
	// for sub-word tokenization.
	DefaultMaxWords = 350

	// DefaultBlocksPerPartition is the number of archive blocks one worker
	// processes into a single shard.
	DefaultBlocksPerPartition = 20

	// DefaultRedirectMarker is matched case-insensitively at the start of an
	// article's raw text.
	DefaultRedirectMarker = "#redirect"

	// OffsetsCacheSuffix is appended to the decompressed index name to form
	// the default offsets cache path.
	OffsetsCacheSuffix = ".offsets"
)

// Config holds the extraction configuration
type Config struct {
	// ArchivePath is the multistream *.xml.bz2 dump
	ArchivePath string

	// IndexPath is the bzip2-compressed offset:id:title index
	IndexPath string

	// CachePath is where the deduplicated offsets are cached
	CachePath string

	// OutputDir receives the parquet shards and the run manifest
	OutputDir string

	// Workers is the size of the worker pool
	Workers int

	// BlocksPerPartition is how many blocks one worker turns into one shard
	BlocksPerPartition int

	// MaxWords caps the number of words per chunk
	MaxWords int

	// RedirectMarkers drop articles whose text starts with any of them
	RedirectMarkers []string

	// Namespaces restricts output to these page namespaces; empty keeps all
	Namespaces []int

	// FilterScript is an optional JavaScript expression evaluated per article
	FilterScript string
}

// Default returns a Config with sensible defaults. Paths are left empty.
func Default() Config {
	return Config{
		Workers:            runtime.NumCPU(),
		BlocksPerPartition: DefaultBlocksPerPartition,
		MaxWords:           DefaultMaxWords,
		RedirectMarkers:    []string{DefaultRedirectMarker},
	}
}

// Threshold is the queue length at which a batch is dispatched.
func (c Config) Threshold() int {
	return c.Workers * c.BlocksPerPartition
}

// WithDefaultCache fills CachePath from IndexPath when it is not set.
// "enwiki-index.txt.bz2" becomes "enwiki-index.txt.offsets".
func (c Config) WithDefaultCache() Config {
	if c.CachePath != "" || c.IndexPath == "" {
		return c
	}
	c.CachePath = DefaultCachePath(c.IndexPath)
	return c
}

// DefaultCachePath derives the offsets cache location from the index path.
func DefaultCachePath(indexPath string) string {
	base := strings.TrimSuffix(indexPath, filepath.Ext(indexPath))
	if !strings.EqualFold(filepath.Ext(indexPath), ".bz2") {
		base = indexPath
	}
	return base + OffsetsCacheSuffix
}

// Validate checks the configuration for an extraction run
func (c Config) Validate() error {
	if c.ArchivePath == "" {
		return errors.Wrap(ErrInvalid, "archive path is required")
	}
	if c.IndexPath == "" && c.CachePath == "" {
		return errors.Wrap(ErrInvalid, "index path or offsets cache is required")
	}
	if c.OutputDir == "" {
		return errors.Wrap(ErrInvalid, "output directory is required")
	}
	if c.Workers < 1 {
		return errors.Wrapf(ErrInvalid, "workers must be at least 1, got %d", c.Workers)
	}
	if c.BlocksPerPartition < 1 {
		return errors.Wrapf(ErrInvalid, "blocks per partition must be at least 1, got %d", c.BlocksPerPartition)
	}
	if c.MaxWords < 1 {
		return errors.Wrapf(ErrInvalid, "max words must be at least 1, got %d", c.MaxWords)
	}
	for _, m := range c.RedirectMarkers {
		if strings.TrimSpace(m) == "" {
			return errors.Wrap(ErrInvalid, "redirect markers must not be blank")
		}
	}
	return nil
}
