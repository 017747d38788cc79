// Package block turns one compressed archive block into articles.
package block

import (
	"bytes"
	"compress/bzip2"
	"encoding/xml"
	"io"
	"math"

	"github.com/dustin/go-wikiparse"
	"github.com/pkg/errors"
)

// closing tag of the dump, carried by the footer stream that trails the
// final block
var footer = []byte("</mediawiki>")

// Article is one page of the dump.
type Article struct {
	ID        int32
	Title     string
	Namespace int
	Text      string
}

// Parse decompresses data as an independent bzip2 stream and decodes every
// page element it holds, in document order. The block is a fragment of
// sibling pages, so it is wrapped in a synthetic root before decoding.
func Parse(data []byte) ([]Article, error) {
	raw, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, errors.Wrap(err, "while decompressing block")
	}

	raw = bytes.TrimSpace(raw)
	raw = bytes.TrimSpace(bytes.TrimSuffix(raw, footer))

	doc := io.MultiReader(
		bytes.NewReader([]byte("<root>")),
		bytes.NewReader(raw),
		bytes.NewReader([]byte("</root>")),
	)
	return decode(doc)
}

func decode(r io.Reader) ([]Article, error) {
	dec := xml.NewDecoder(r)

	var articles []Article
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "malformed xml after %d pages", len(articles))
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}

		var page wikiparse.Page
		if err := dec.DecodeElement(&page, &start); err != nil {
			return nil, errors.Wrapf(err, "while decoding page %d", len(articles)+1)
		}
		a, err := toArticle(&page)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func toArticle(p *wikiparse.Page) (Article, error) {
	if p.ID > math.MaxInt32 {
		return Article{}, errors.Errorf("page %q: id %d overflows int32", p.Title, p.ID)
	}
	a := Article{
		ID:        int32(p.ID),
		Title:     p.Title,
		Namespace: int(p.Ns),
	}
	if n := len(p.Revisions); n > 0 {
		a.Text = p.Revisions[n-1].Text
	}
	return a, nil
}
