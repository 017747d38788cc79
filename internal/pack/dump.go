package pack

import (
	"io"

	"github.com/dustin/go-wikiparse"
	"github.com/pkg/errors"
)

// CopyDump reads pages from an XML dump and adds them to w, stopping after
// limit pages when limit is positive. It returns the number of pages added.
func CopyDump(w *Writer, dump io.Reader, limit int) (int, error) {
	p, err := wikiparse.NewParser(dump)
	if err != nil {
		return 0, errors.Wrap(err, "while reading dump header")
	}

	n := 0
	for limit <= 0 || n < limit {
		page, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, errors.Wrapf(err, "while reading page %d", n+1)
		}
		if len(page.Revisions) == 0 {
			continue
		}
		err = w.Add(Page{
			ID:        int(page.ID),
			Title:     page.Title,
			Namespace: int(page.Ns),
			Text:      page.Revisions[len(page.Revisions)-1].Text,
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
