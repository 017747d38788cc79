package cmd

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/itsmostafa/wikichunk/internal/config"
	"github.com/itsmostafa/wikichunk/internal/offsets"
	"github.com/itsmostafa/wikichunk/internal/output"
	"github.com/itsmostafa/wikichunk/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	archivePath        string
	indexPath          string
	cachePath          string
	outputDir          string
	workers            int
	blocksPerPartition int
	maxWords           int
	redirectMarkers    []string
	namespaces         []int
	filterScript       string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract cleaned, chunked articles into parquet shards",
	Long: `Extract reads the archive block by block using the offsets from the index
(or its cache), drops redirects and filtered pages, strips the wiki markup and
writes chunks of at most --max-words words to <out>/NNNNNNNN.parquet.

A manifest.json in the output directory is rewritten after every batch.`,
	Example: `  wikichunk extract \
    --archive enwiki-latest-pages-articles-multistream.xml.bz2 \
    --index enwiki-latest-pages-articles-multistream-index.txt.bz2 \
    --out shards --namespace 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Config{
			ArchivePath:        archivePath,
			IndexPath:          indexPath,
			CachePath:          cachePath,
			OutputDir:          outputDir,
			Workers:            workers,
			BlocksPerPartition: blocksPerPartition,
			MaxWords:           maxWords,
			RedirectMarkers:    redirectMarkers,
			Namespaces:         namespaces,
			FilterScript:       filterScript,
		}.WithDefaultCache()
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		start := time.Now()
		idx, fromCache, err := offsets.Load(cfg.IndexPath, cfg.CachePath)
		if err != nil {
			return err
		}
		logger.Info("offsets loaded", "blocks", len(idx), "from_cache", fromCache, "cache", cfg.CachePath)

		out := cmd.OutOrStdout()
		output.FormatHeader(out, cfg, len(idx), fromCache)

		done := 0
		m, err := pipeline.Run(ctx, cfg, idx, pipeline.Options{
			Logger: logger,
			OnBatch: func(b pipeline.Batch) {
				done += b.Blocks
				output.FormatBatch(out, b, len(idx), done)
			},
		})
		if m != nil {
			output.FormatSummary(out, m, time.Since(start))
		}
		return err
	},
}

func init() {
	defaults := config.Default()

	extractCmd.Flags().StringVar(&archivePath, "archive", "", "Multistream archive (*-multistream.xml.bz2)")
	extractCmd.Flags().StringVar(&indexPath, "index", "", "Multistream index (*-multistream-index.txt.bz2)")
	extractCmd.Flags().StringVar(&cachePath, "cache", "", "Offsets cache (default: index path without .bz2, plus .offsets)")
	extractCmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory for shards and manifest")

	// Worker count flag with env var fallback
	defaultWorkers := defaults.Workers
	if env := os.Getenv("WIKICHUNK_WORKERS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil {
			defaultWorkers = n
		}
	}
	extractCmd.Flags().IntVarP(&workers, "workers", "w", defaultWorkers, "Number of parallel workers")
	extractCmd.Flags().IntVar(&blocksPerPartition, "blocks-per-partition", defaults.BlocksPerPartition, "Archive blocks per worker task (one shard each)")
	extractCmd.Flags().IntVar(&maxWords, "max-words", defaults.MaxWords, "Maximum words per chunk (longer paragraphs are kept whole)")

	// Filters
	extractCmd.Flags().StringSliceVar(&redirectMarkers, "redirect-marker", defaults.RedirectMarkers, "Case-insensitive text prefix that marks a redirect")
	extractCmd.Flags().IntSliceVar(&namespaces, "namespace", nil, "Keep only pages in these namespaces (default: all)")
	extractCmd.Flags().StringVar(&filterScript, "filter", "", "JavaScript expression over id, title, ns, length; falsy drops the page")

	_ = extractCmd.MarkFlagRequired("archive")
	_ = extractCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(extractCmd)
}
