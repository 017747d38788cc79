// Package output renders the human-facing parts of a run.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/itsmostafa/wikichunk/internal/config"
	"github.com/itsmostafa/wikichunk/internal/manifest"
	"github.com/itsmostafa/wikichunk/internal/pipeline"
	"github.com/itsmostafa/wikichunk/internal/shard"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted labels
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for summaries
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	// headerBoxStyle for the run header
	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("33")).
			Padding(0, 1)
)

func label(s string) string {
	return dimStyle.Render(s)
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

// FormatHeader renders the run header with inputs and settings.
func FormatHeader(w io.Writer, cfg config.Config, blocks int, fromCache bool) {
	source := "built from index"
	if fromCache {
		source = "from cache"
	}

	lines := []string{
		fmt.Sprintf("%s %s", label("Archive:"), cfg.ArchivePath),
		fmt.Sprintf("%s %s %s", label("Blocks:"), titleStyle.Render(comma(blocks)), dimStyle.Render("("+source+")")),
		fmt.Sprintf("%s %s", label("Output:"), cfg.OutputDir),
		fmt.Sprintf("%s %d  %s %d  %s %d",
			label("Workers:"), cfg.Workers,
			label("Blocks/partition:"), cfg.BlocksPerPartition,
			label("Max words:"), cfg.MaxWords,
		),
	}
	if len(cfg.Namespaces) > 0 {
		ns := make([]string, len(cfg.Namespaces))
		for i, n := range cfg.Namespaces {
			ns[i] = fmt.Sprint(n)
		}
		lines = append(lines, fmt.Sprintf("%s %s", label("Namespaces:"), strings.Join(ns, ",")))
	}
	if cfg.FilterScript != "" {
		lines = append(lines, fmt.Sprintf("%s %s", label("Filter:"), cfg.FilterScript))
	}

	fmt.Fprintln(w, headerBoxStyle.Render(strings.Join(lines, "\n")))
}

// FormatBatch renders the one-line banner printed after each batch.
func FormatBatch(w io.Writer, b pipeline.Batch, total int, done int) {
	banner := bannerStyle.Render(fmt.Sprintf("BATCH %d", b.Number))

	progress := ""
	if total > 0 {
		progress = fmt.Sprintf(" %s/%s blocks (%.0f%%)", comma(done), comma(total), 100*float64(done)/float64(total))
	}

	status := successStyle.Render("✓")
	if b.Counters.BlocksFailed > 0 {
		status = warnStyle.Render(fmt.Sprintf("%d failed", b.Counters.BlocksFailed))
	}

	fmt.Fprintf(w, "%s%s  %s %s  %s %s  %s %s  %s\n",
		banner, progress,
		label("articles"), comma(b.Counters.Articles),
		label("chunks"), comma(b.Counters.Chunks),
		label("shards"), comma(len(b.Shards)),
		dimStyle.Render(b.Elapsed.Round(time.Millisecond).String())+" "+status,
	)
}

// FormatSummary renders the closing summary box of a run.
func FormatSummary(w io.Writer, m *manifest.Manifest, elapsed time.Duration) {
	c := m.Counters

	var status string
	switch m.Status {
	case manifest.StatusCompleted:
		status = successStyle.Render("OK")
	case manifest.StatusFailed:
		status = errorStyle.Render("FAILED")
	default:
		status = warnStyle.Render(string(m.Status))
	}

	var bytes uint64
	for _, s := range m.Shards {
		bytes += uint64(s.Bytes)
	}

	line1 := fmt.Sprintf("%s %s  %s %s  %s %s",
		label("Duration:"), elapsed.Round(time.Second),
		label("Batches:"), comma(c.Batches),
		label("Blocks:"), comma(c.Blocks),
	)
	line2 := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		label("Articles:"), comma(c.Articles),
		label("Redirects:"), comma(c.Redirects),
		label("Filtered:"), comma(c.Filtered),
		label("Empty:"), comma(c.Empty),
	)
	line3 := fmt.Sprintf("%s %s  %s %s (%s)  %s",
		label("Chunks:"), comma(c.Chunks),
		label("Shards:"), comma(c.Shards), humanize.Bytes(bytes),
		status,
	)

	lines := []string{titleStyle.Render("Extraction Complete"), line1, line2, line3}
	if c.BlocksFailed > 0 {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("%s blocks failed to parse", comma(c.BlocksFailed))))
	}
	if m.Error != "" {
		lines = append(lines, errorStyle.Render(m.Error))
	}
	lines = append(lines, label("Run: ")+dimStyle.Render(m.RunID))

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// FormatIndex renders the result of building or reading an offsets cache.
func FormatIndex(w io.Writer, cachePath string, blocks int, fromCache bool, elapsed time.Duration) {
	source := "built"
	if fromCache {
		source = "read"
	}
	content := fmt.Sprintf("%s\n%s %s\n%s %s  %s %s",
		titleStyle.Render("Offsets "+source),
		label("Cache:"), cachePath,
		label("Blocks:"), comma(blocks),
		label("Duration:"), elapsed.Round(time.Millisecond),
	)
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatShard renders the statistics of one shard file.
func FormatShard(w io.Writer, path string, size int64, s shard.Summary) {
	content := fmt.Sprintf("%s %s\n%s %s  %s %s  %s %s\n%s %d/%.1f/%d",
		titleStyle.Render(path), dimStyle.Render(humanize.Bytes(uint64(size))),
		label("Rows:"), comma(s.Rows),
		label("Articles:"), comma(s.Articles),
		label("Words:"), comma(s.Words),
		label("Words per chunk min/mean/max:"), s.MinWords, s.MeanWords(), s.MaxWords,
	)
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatRow renders one shard row, truncating long chunks.
func FormatRow(w io.Writer, r shard.Row, maxChars int) {
	text := r.Chunk
	if maxChars > 0 && len([]rune(text)) > maxChars {
		text = string([]rune(text)[:maxChars]) + "…"
	}
	fmt.Fprintf(w, "%s %s\n%s\n\n",
		titleStyle.Render(fmt.Sprintf("[%d]", r.ID)), r.Title,
		text,
	)
}

// FormatPack renders the result of building an archive.
func FormatPack(w io.Writer, archivePath, indexPath string, pages, streams int, size int64) {
	content := fmt.Sprintf("%s\n%s %s\n%s %s\n%s %s  %s %s  %s %s",
		titleStyle.Render("Archive written"),
		label("Archive:"), archivePath,
		label("Index:"), indexPath,
		label("Pages:"), comma(pages),
		label("Streams:"), comma(streams),
		label("Size:"), humanize.Bytes(uint64(size)),
	)
	fmt.Fprintln(w, boxStyle.Render(content))
}
