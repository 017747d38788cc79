package cmd

import (
	"compress/bzip2"
	"io"
	"os"
	"strings"

	"github.com/itsmostafa/wikichunk/internal/atomicfile"
	"github.com/itsmostafa/wikichunk/internal/output"
	"github.com/itsmostafa/wikichunk/internal/pack"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	packArchive        string
	packIndex          string
	packPagesPerStream int
	packLimit          int
)

var packCmd = &cobra.Command{
	Use:   "pack <pages.xml[.bz2]>",
	Short: "Build a multistream archive and index from a MediaWiki XML export",
	Long: `Pack reads a MediaWiki XML export (plain or bzip2-compressed) and writes it
in the multistream layout used by Wikimedia dumps: one bzip2 stream per group
of pages plus an offset:id:title index. Useful for building small samples.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrapf(err, "unable to open %s", args[0])
		}
		defer f.Close()

		var src io.Reader = f
		if strings.HasSuffix(strings.ToLower(args[0]), ".bz2") {
			src = bzip2.NewReader(f)
		}

		opts := pack.DefaultOptions()
		opts.PagesPerStream = packPagesPerStream

		var stats pack.Stats
		err = atomicfile.WriteFile(packArchive, 0644, func(archive io.Writer) error {
			return atomicfile.WriteFile(packIndex, 0644, func(index io.Writer) error {
				w, err := pack.NewWriter(archive, index, opts)
				if err != nil {
					return err
				}
				n, err := pack.CopyDump(w, src, packLimit)
				if err != nil {
					return err
				}
				logger.Debug("pages copied", "pages", n)
				stats, err = w.Close()
				return err
			})
		})
		if err != nil {
			return err
		}

		output.FormatPack(cmd.OutOrStdout(), packArchive, packIndex, stats.Pages, stats.Streams, stats.Bytes)
		return nil
	},
}

func init() {
	packCmd.Flags().StringVar(&packArchive, "out-archive", "", "Archive to write (*.xml.bz2)")
	packCmd.Flags().StringVar(&packIndex, "out-index", "", "Index to write (*-index.txt.bz2)")
	packCmd.Flags().IntVar(&packPagesPerStream, "pages", pack.DefaultPagesPerStream, "Pages per bzip2 stream")
	packCmd.Flags().IntVar(&packLimit, "limit", 0, "Stop after this many pages (0 = all)")
	_ = packCmd.MarkFlagRequired("out-archive")
	_ = packCmd.MarkFlagRequired("out-index")
	rootCmd.AddCommand(packCmd)
}
