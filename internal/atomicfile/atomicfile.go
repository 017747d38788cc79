// Package atomicfile writes files through a temporary sibling and a rename,
// so readers only ever observe complete files.
package atomicfile

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
)

const bufSize = 64 * 1024

// WriteFile creates path by calling fill with a buffered writer over a
// pending file in the same directory, then atomically replacing path with
// it. On any error the pending file is removed and path is left untouched.
func WriteFile(path string, perm os.FileMode, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "while creating directory %s", dir)
	}

	pf, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(dir),
		renameio.WithStaticPermissions(perm),
	)
	if err != nil {
		return errors.Wrapf(err, "while creating temp file for %s", path)
	}
	// No-op once CloseAtomicallyReplace has succeeded.
	defer pf.Cleanup()

	bw := bufio.NewWriterSize(pf, bufSize)
	if err := fill(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrapf(err, "while flushing %s", pf.Name())
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return errors.Wrapf(err, "while replacing %s", path)
	}
	return nil
}
