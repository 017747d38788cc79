// Package pack builds multistream archives in the layout of the Wikimedia
// "pages-articles-multistream" dumps: a header stream, one bzip2 stream per
// group of pages, a footer stream, and a bzip2 index of offset:id:title
// lines pointing at the start of each page's stream.
package pack

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/pkg/errors"
)

// DefaultPagesPerStream matches the grouping used by Wikimedia dumps.
const DefaultPagesPerStream = 100

const (
	header = `<mediawiki xmlns="http://www.mediawiki.org/xml/export-0.10/" version="0.10" xml:lang="en">
  <siteinfo>
    <sitename>wikichunk</sitename>
    <case>first-letter</case>
  </siteinfo>
`
	footer = "</mediawiki>\n"
)

// Page is one article to store in the archive.
type Page struct {
	ID        int
	Title     string
	Namespace int
	Text      string
}

// Options controls stream grouping and compression.
type Options struct {
	PagesPerStream int
	Level          int
}

// DefaultOptions returns the dump-compatible defaults.
func DefaultOptions() Options {
	return Options{PagesPerStream: DefaultPagesPerStream, Level: bzip2.DefaultCompression}
}

// Stats summarises a finished archive.
type Stats struct {
	Pages   int
	Streams int
	// Offsets holds the start of every page stream, excluding header and
	// footer.
	Offsets []int64
	Bytes   int64
}

type xmlPage struct {
	XMLName  xml.Name    `xml:"page"`
	Title    string      `xml:"title"`
	Ns       int         `xml:"ns"`
	ID       int         `xml:"id"`
	Revision xmlRevision `xml:"revision"`
}

type xmlRevision struct {
	ID   int    `xml:"id"`
	Text string `xml:"text"`
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Writer accumulates pages and emits one compressed stream per group.
type Writer struct {
	archive *countingWriter
	index   io.Writer
	opts    Options
	pending []Page
	stats   Stats
	closed  bool
}

// NewWriter writes the header stream and returns a Writer for the pages.
func NewWriter(archive, index io.Writer, opts Options) (*Writer, error) {
	if opts.PagesPerStream <= 0 {
		opts.PagesPerStream = DefaultPagesPerStream
	}
	if opts.Level == 0 {
		opts.Level = bzip2.DefaultCompression
	}
	w := &Writer{
		archive: &countingWriter{w: archive},
		index:   index,
		opts:    opts,
	}
	if err := Compress(w.archive, []byte(header), opts.Level); err != nil {
		return nil, errors.Wrap(err, "while writing header stream")
	}
	return w, nil
}

// Add queues a page, flushing a stream once the group is full.
func (w *Writer) Add(p Page) error {
	if w.closed {
		return errors.New("pack: writer is closed")
	}
	w.pending = append(w.pending, p)
	if len(w.pending) >= w.opts.PagesPerStream {
		return w.flush()
	}
	return nil
}

// Close flushes the last group and writes the footer stream.
func (w *Writer) Close() (Stats, error) {
	if w.closed {
		return w.stats, nil
	}
	w.closed = true
	if err := w.flush(); err != nil {
		return w.stats, err
	}
	if err := Compress(w.archive, []byte(footer), w.opts.Level); err != nil {
		return w.stats, errors.Wrap(err, "while writing footer stream")
	}
	w.stats.Bytes = w.archive.n
	return w.stats, nil
}

func (w *Writer) flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	offset := w.archive.n

	var body, lines bytes.Buffer
	for _, p := range w.pending {
		if err := encodePage(&body, p); err != nil {
			return errors.Wrapf(err, "while encoding page %d", p.ID)
		}
		fmt.Fprintf(&lines, "%d:%d:%s\n", offset, p.ID, p.Title)
	}

	if err := Compress(w.archive, body.Bytes(), w.opts.Level); err != nil {
		return errors.Wrapf(err, "while writing stream at offset %d", offset)
	}
	if err := Compress(w.index, lines.Bytes(), w.opts.Level); err != nil {
		return errors.Wrapf(err, "while writing index for offset %d", offset)
	}

	w.stats.Pages += len(w.pending)
	w.stats.Streams++
	w.stats.Offsets = append(w.stats.Offsets, offset)
	w.pending = w.pending[:0]
	return nil
}

// Compress writes data to dst as a single bzip2 stream.
func Compress(dst io.Writer, data []byte, level int) error {
	zw, err := bzip2.NewWriter(dst, &bzip2.WriterConfig{Level: level})
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func encodePage(w *bytes.Buffer, p Page) error {
	page := xmlPage{
		Title: p.Title,
		Ns:    p.Namespace,
		ID:    p.ID,
		Revision: xmlRevision{
			ID:   p.ID + 1_000_000,
			Text: p.Text,
		},
	}
	w.WriteString("  ")
	enc := xml.NewEncoder(w)
	if err := enc.Encode(page); err != nil {
		return err
	}
	w.WriteString("\n")
	return nil
}
