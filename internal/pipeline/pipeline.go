// Package pipeline drives an extraction run: blocks are read in order,
// queued until a batch is full, split into contiguous partitions and
// processed by a bounded pool of workers, each writing one shard.
package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/itsmostafa/wikichunk/internal/chunk"
	"github.com/itsmostafa/wikichunk/internal/config"
	"github.com/itsmostafa/wikichunk/internal/filter"
	"github.com/itsmostafa/wikichunk/internal/logging"
	"github.com/itsmostafa/wikichunk/internal/manifest"
	"github.com/itsmostafa/wikichunk/internal/offsets"
	"github.com/itsmostafa/wikichunk/internal/shard"
	"github.com/itsmostafa/wikichunk/internal/stream"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Batch reports one flushed batch.
type Batch struct {
	Number     int
	Blocks     int
	Partitions int
	Counters   manifest.Counters
	Shards     []shard.Info
	Elapsed    time.Duration
}

// Options carries the optional collaborators of a run.
type Options struct {
	Logger *log.Logger
	// OnBatch is called by the producer goroutine after every batch
	OnBatch func(Batch)
}

// Source yields raw blocks in archive order.
type Source interface {
	Next() bool
	Block() stream.Block
	Err() error
}

// Run extracts the archive in cfg using the block offsets idx. The returned
// manifest is also saved in the output directory, after every batch and
// once more when the run ends, successfully or not.
func Run(ctx context.Context, cfg config.Config, idx offsets.Index, opts Options) (*manifest.Manifest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := newPipeline(cfg, opts)
	if err != nil {
		return nil, err
	}

	ext, err := stream.Open(cfg.ArchivePath, idx)
	if err != nil {
		return nil, err
	}
	defer ext.Close()

	p.manifest.Offsets = len(idx)
	if err := manifest.Save(cfg.OutputDir, p.manifest); err != nil {
		return nil, err
	}

	runErr := p.Process(ctx, ext)
	p.manifest.Finish(runErr)
	if err := manifest.Save(cfg.OutputDir, p.manifest); err != nil && runErr == nil {
		runErr = err
	}
	return p.manifest, runErr
}

// Pipeline holds what every batch of a run shares.
type Pipeline struct {
	cfg      config.Config
	filter   *filter.Filter
	writer   *shard.Writer
	chunking chunk.Options
	logger   *log.Logger
	onBatch  func(Batch)
	manifest *manifest.Manifest
	batches  int
}

func newPipeline(cfg config.Config, opts Options) (*Pipeline, error) {
	f, err := filter.New(filter.Options{
		RedirectMarkers: cfg.RedirectMarkers,
		Namespaces:      cfg.Namespaces,
		Script:          cfg.FilterScript,
	})
	if err != nil {
		return nil, err
	}

	w, err := shard.NewWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Pipeline{
		cfg:      cfg,
		filter:   f,
		writer:   w,
		chunking: chunk.Options{MaxWords: cfg.MaxWords},
		logger:   logger,
		onBatch:  opts.OnBatch,
		manifest: manifest.New(cfg),
	}, nil
}

// New returns a Pipeline for cfg without opening the archive, for callers
// that supply their own Source.
func New(cfg config.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newPipeline(cfg, opts)
}

// Manifest returns the run manifest the pipeline updates.
func (p *Pipeline) Manifest() *manifest.Manifest {
	return p.manifest
}

// Process consumes src, flushing a batch whenever the queue holds
// Workers × BlocksPerPartition blocks and once more for the remainder.
// Cancelling ctx stops reading at the next block; queued blocks that were
// not yet flushed are dropped.
func (p *Pipeline) Process(ctx context.Context, src Source) error {
	threshold := p.cfg.Threshold()
	queue := make([]stream.Block, 0, threshold)

	for src.Next() {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "extraction interrupted")
		}
		queue = append(queue, src.Block())
		if len(queue) < threshold {
			continue
		}
		if err := p.flush(ctx, queue); err != nil {
			return err
		}
		queue = make([]stream.Block, 0, threshold)
	}
	if err := src.Err(); err != nil {
		return errors.Wrap(err, "failed to read archive")
	}

	if len(queue) > 0 {
		return p.flush(ctx, queue)
	}
	return nil
}

// flush runs one batch to completion. All partitions finish before it
// returns, so no two batches overlap.
func (p *Pipeline) flush(ctx context.Context, blocks []stream.Block) error {
	start := time.Now()
	parts := partition(blocks, p.cfg.BlocksPerPartition)
	results := make(chan result, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, part := range parts {
		g.Go(func() error {
			res, err := p.work(gctx, part)
			if err != nil {
				return err
			}
			results <- res
			return nil
		})
	}
	err := g.Wait()
	close(results)

	p.batches++
	batch := Batch{
		Number:     p.batches,
		Blocks:     len(blocks),
		Partitions: len(parts),
	}
	batch.Counters.Batches = 1
	for res := range results {
		batch.Counters.Add(res.counters)
		if res.shard != nil {
			batch.Shards = append(batch.Shards, *res.shard)
		}
	}
	batch.Elapsed = time.Since(start)

	// Shards written before a failure are still on disk and get recorded.
	p.manifest.Counters.Add(batch.Counters)
	p.manifest.AddShards(batch.Shards...)
	if err != nil {
		return err
	}

	if err := manifest.Save(p.cfg.OutputDir, p.manifest); err != nil {
		return err
	}
	p.logger.Debug("batch flushed", "batch", batch.Number, "blocks", batch.Blocks, "shards", len(batch.Shards), "elapsed", batch.Elapsed)
	if p.onBatch != nil {
		p.onBatch(batch)
	}
	return nil
}

// partition splits blocks into contiguous groups of at most size blocks.
func partition(blocks []stream.Block, size int) [][]stream.Block {
	var parts [][]stream.Block
	for start := 0; start < len(blocks); start += size {
		end := min(start+size, len(blocks))
		parts = append(parts, blocks[start:end])
	}
	return parts
}
