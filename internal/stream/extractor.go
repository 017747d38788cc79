// Package stream reads the raw compressed blocks of a multistream archive
// in order, one block per offset index entry.
package stream

import (
	"io"
	"os"

	"github.com/itsmostafa/wikichunk/internal/offsets"
	"github.com/pkg/errors"
)

// Block is one independently compressed byte range of the archive.
type Block struct {
	// Offset is the byte position of the block within the archive
	Offset int64
	// Data holds the compressed bytes [Offset, next offset)
	Data []byte
}

// Extractor walks the archive with a single sequential cursor. It is not
// safe for concurrent use and must only be driven by one goroutine.
type Extractor struct {
	r       io.ReadSeeker
	closer  io.Closer
	size    int64
	offsets offsets.Index
	next    int
	cur     Block
	err     error
}

// Open opens the archive at path for extraction of the blocks in idx.
func Open(path string, idx offsets.Index) (*Extractor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open archive %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "cannot stat archive %s", path)
	}
	e, err := New(f, info.Size(), idx)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "archive %s", path)
	}
	e.closer = f
	return e, nil
}

// New returns an Extractor over r, whose total length is size.
func New(r io.ReadSeeker, size int64, idx offsets.Index) (*Extractor, error) {
	if len(idx) > 0 && idx[len(idx)-1] > size {
		return nil, errors.Errorf("offset %d is beyond end of archive (%d bytes)", idx[len(idx)-1], size)
	}
	return &Extractor{r: r, size: size, offsets: idx}, nil
}

// Len is the number of blocks the extractor will yield.
func (e *Extractor) Len() int {
	return len(e.offsets)
}

// Next reads the next block. It returns false at the end of the archive or
// on the first error, which Err then reports.
func (e *Extractor) Next() bool {
	if e.err != nil || e.next >= len(e.offsets) {
		return false
	}

	start := e.offsets[e.next]
	end := e.size
	if e.next+1 < len(e.offsets) {
		end = e.offsets[e.next+1]
	}
	if end < start {
		e.err = errors.Errorf("offsets not increasing at block %d: %d then %d", e.next, start, end)
		return false
	}

	if e.next == 0 {
		if _, err := e.r.Seek(start, io.SeekStart); err != nil {
			e.err = errors.Wrapf(err, "while seeking to first block at %d", start)
			return false
		}
	}

	data := make([]byte, end-start)
	if _, err := io.ReadFull(e.r, data); err != nil {
		e.err = errors.Wrapf(err, "while reading block at offset %d (%d bytes)", start, end-start)
		return false
	}

	e.cur = Block{Offset: start, Data: data}
	e.next++
	return true
}

// Block returns the block read by the last successful Next.
func (e *Extractor) Block() Block {
	return e.cur
}

// Err returns the first error encountered, if any.
func (e *Extractor) Err() error {
	return e.err
}

// Close releases the archive file when the extractor owns it.
func (e *Extractor) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}
