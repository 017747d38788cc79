// Package offsets builds and caches the block offset index of a multistream
// archive.
//
// The Wikimedia index lists every article as offset:id:title, where offset
// is the byte position of the bzip2 stream holding the article. Many
// articles share a stream, so consecutive duplicate offsets collapse into
// one entry. The result is cached as comma-joined decimals so later runs
// skip decompressing the index.
package offsets

import (
	"bufio"
	"compress/bzip2"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-wikiparse"
	"github.com/itsmostafa/wikichunk/internal/atomicfile"
	"github.com/pkg/errors"
)

// ErrMalformedCache is returned when the cache holds anything other than a
// comma-separated list of integers.
var ErrMalformedCache = errors.New("malformed offsets cache")

// ErrDecreasing is returned when an index line has a lower offset than the
// line before it.
var ErrDecreasing = errors.New("offsets decrease")

// Index is the strictly increasing list of block start offsets. The last
// block runs to the end of the archive and has no closing entry.
type Index []int64

// Load returns the offset index, reading the cache when it exists and
// building it from the compressed index source (then writing the cache)
// when it does not. fromCache reports which path was taken.
func Load(indexPath, cachePath string) (idx Index, fromCache bool, err error) {
	if cachePath != "" {
		if _, statErr := os.Stat(cachePath); statErr == nil {
			idx, err = ReadCache(cachePath)
			return idx, true, err
		}
	}

	idx, err = Rebuild(indexPath, cachePath)
	return idx, false, err
}

// Rebuild builds the index from the compressed source and then replaces
// the cache, if cachePath is set. An existing cache is only touched once the
// new index is complete.
func Rebuild(indexPath, cachePath string) (Index, error) {
	if indexPath == "" {
		return nil, errors.Errorf("offsets cache %q not found and no index source given", cachePath)
	}

	f, err := os.Open(indexPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open index %s", indexPath)
	}
	defer f.Close()

	idx, err := Build(f)
	if err != nil {
		return nil, errors.Wrapf(err, "while building offsets from %s", indexPath)
	}

	if cachePath != "" {
		if err := WriteCache(cachePath, idx); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Build decompresses a bzip2 index source (one or more concatenated
// streams) and returns its deduplicated offsets. Any read or parse failure
// is fatal: a partial index would misalign every later block. So is an
// offset lower than the one before it, which only a corrupt or mismatched
// index can contain.
func Build(compressed io.Reader) (Index, error) {
	sc := bufio.NewScanner(bzip2.NewReader(compressed))

	idx := Index{}
	last := int64(-1)
	for line := 1; sc.Scan(); line++ {
		entry, err := parseEntry(sc.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "index line %d", line)
		}
		if entry.StreamOffset < last {
			return nil, errors.Wrapf(ErrDecreasing, "index line %d: %d after %d", line, entry.StreamOffset, last)
		}
		if entry.StreamOffset != last {
			idx = append(idx, entry.StreamOffset)
			last = entry.StreamOffset
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "while reading index")
	}
	return idx, nil
}

// parseEntry parses one offset:id:title line. Titles may contain colons.
func parseEntry(line string) (wikiparse.IndexEntry, error) {
	var e wikiparse.IndexEntry
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return e, errors.Errorf("bad record %q", line)
	}
	off, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || off < 0 {
		return e, errors.Errorf("bad offset %q", parts[0])
	}
	id, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return e, errors.Errorf("bad page id %q", parts[1])
	}
	e.StreamOffset = off
	e.PageOffset = int(id)
	e.ArticleName = parts[2]
	return e, nil
}

// ReadCache parses a comma-separated offsets cache. No check beyond the
// integer parse is made; a cache that fails to parse is fatal.
func ReadCache(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read offsets cache %s", path)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return Index{}, nil
	}

	fields := strings.Split(text, ",")
	idx := make(Index, 0, len(fields))
	for i, field := range fields {
		off, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedCache, "%s: entry %d: %v", path, i, err)
		}
		idx = append(idx, off)
	}
	return idx, nil
}

// WriteCache stores idx as comma-joined decimals, atomically.
func WriteCache(path string, idx Index) error {
	err := atomicfile.WriteFile(path, 0644, func(w io.Writer) error {
		for i, off := range idx {
			if i > 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, strconv.FormatInt(off, 10)); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrapf(err, "while writing offsets cache %s", path)
}

// Increasing reports whether every offset is strictly greater than the one
// before it.
func (idx Index) Increasing() bool {
	for i := 1; i < len(idx); i++ {
		if idx[i] <= idx[i-1] {
			return false
		}
	}
	return true
}
