package cmd

import (
	"time"

	"github.com/itsmostafa/wikichunk/internal/config"
	"github.com/itsmostafa/wikichunk/internal/offsets"
	"github.com/itsmostafa/wikichunk/internal/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	indexSource  string
	indexCache   string
	indexRebuild bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or read the offsets cache of a multistream index",
	Long: `Index decompresses the multistream index, collapses the offsets of pages that
share a stream and caches the result as comma-separated integers, so that
extract can skip this step on later runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := indexCache
		if cache == "" {
			if indexSource == "" {
				return errors.New("--index or --cache is required")
			}
			cache = config.DefaultCachePath(indexSource)
		}

		if indexRebuild && indexSource == "" {
			return errors.New("--rebuild requires --index")
		}

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		start := time.Now()
		var idx offsets.Index
		fromCache := false
		if indexRebuild {
			// The old cache stays in place until the new index is complete.
			idx, err = offsets.Rebuild(indexSource, cache)
		} else {
			idx, fromCache, err = offsets.Load(indexSource, cache)
		}
		if err != nil {
			return err
		}
		if !idx.Increasing() {
			logger.Warn("offsets are not strictly increasing", "cache", cache)
		}

		output.FormatIndex(cmd.OutOrStdout(), cache, len(idx), fromCache, time.Since(start))
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexSource, "index", "", "Multistream index (*-multistream-index.txt.bz2)")
	indexCmd.Flags().StringVar(&indexCache, "cache", "", "Offsets cache (default: index path without .bz2, plus .offsets)")
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "Rebuild the cache even if it exists")
	rootCmd.AddCommand(indexCmd)
}
