// Package shard writes and reads the parquet files that hold cleaned
// chunks. One shard is written per partition; it is named after the id of
// its first row and replaced atomically, never appended to.
package shard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/itsmostafa/wikichunk/internal/atomicfile"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// Extension of every shard file.
const Extension = ".parquet"

// Row is one chunk of one article.
type Row struct {
	ID    int32  `parquet:"id"`
	Title string `parquet:"title"`
	Chunk string `parquet:"chunk"`
}

// Info describes a written shard.
type Info struct {
	Path    string `json:"path"`
	FirstID int32  `json:"first_id"`
	Rows    int    `json:"rows"`
	Bytes   int64  `json:"bytes"`
}

// FileName returns the shard name for a partition whose first row has id.
func FileName(id int32) string {
	return fmt.Sprintf("%08d%s", id, Extension)
}

// Writer creates shards in a single output directory. It holds no mutable
// state and may be shared by workers; partitions never share a first id.
type Writer struct {
	dir string
}

// NewWriter creates dir if needed and returns a Writer for it.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}
	return &Writer{dir: dir}, nil
}

// Dir is the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write stores rows as one snappy-compressed shard. It returns nil and
// writes nothing when rows is empty.
func (w *Writer) Write(rows []Row) (*Info, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	path := filepath.Join(w.dir, FileName(rows[0].ID))
	err := atomicfile.WriteFile(path, 0644, func(out io.Writer) error {
		pw := parquet.NewGenericWriter[Row](out, parquet.Compression(&parquet.Snappy))
		if _, err := pw.Write(rows); err != nil {
			_ = pw.Close()
			return errors.Wrap(err, "while writing rows")
		}
		return errors.Wrap(pw.Close(), "while closing parquet writer")
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to write shard %s", path)
	}

	info := &Info{Path: path, FirstID: rows[0].ID, Rows: len(rows)}
	if st, err := os.Stat(path); err == nil {
		info.Bytes = st.Size()
	}
	return info, nil
}

// Read loads every row of the shard at path.
func Read(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read shard %s", path)
	}
	return rows, nil
}

// List returns the shard files in dir, sorted by name.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list shards in %s", dir)
	}
	return matches, nil
}
