package cmd

import (
	"os"

	"github.com/itsmostafa/wikichunk/internal/output"
	"github.com/itsmostafa/wikichunk/internal/shard"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	inspectRows  int
	inspectChars int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <shard.parquet|dir>...",
	Short: "Print statistics and sample rows of parquet shards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandShards(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var total []shard.Row
		for _, path := range paths {
			rows, err := shard.Read(path)
			if err != nil {
				return err
			}
			st, err := os.Stat(path)
			if err != nil {
				return errors.Wrapf(err, "cannot stat %s", path)
			}

			output.FormatShard(out, path, st.Size(), shard.Summarize(rows))
			for i := 0; i < inspectRows && i < len(rows); i++ {
				output.FormatRow(out, rows[i], inspectChars)
			}
			if len(paths) > 1 {
				total = append(total, rows...)
			}
		}

		if len(paths) > 1 {
			output.FormatShard(out, "total", 0, shard.Summarize(total))
		}
		return nil
	},
}

// expandShards replaces directory arguments with the shards they hold
func expandShards(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot stat %s", arg)
		}
		if !st.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := shard.List(arg)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, errors.Errorf("no shards in %s", arg)
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectRows, "rows", "n", 0, "Number of rows to print per shard")
	inspectCmd.Flags().IntVar(&inspectChars, "chars", 300, "Truncate printed chunks to this many characters (0 = no limit)")
	rootCmd.AddCommand(inspectCmd)
}
