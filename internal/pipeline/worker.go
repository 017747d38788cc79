package pipeline

import (
	"context"

	"github.com/itsmostafa/wikichunk/internal/block"
	"github.com/itsmostafa/wikichunk/internal/chunk"
	"github.com/itsmostafa/wikichunk/internal/filter"
	"github.com/itsmostafa/wikichunk/internal/manifest"
	"github.com/itsmostafa/wikichunk/internal/shard"
	"github.com/itsmostafa/wikichunk/internal/stream"
	"github.com/itsmostafa/wikichunk/internal/wikitext"
)

type result struct {
	counters manifest.Counters
	shard    *shard.Info
}

// work turns one partition into one shard. A block that fails to parse is
// logged and skipped; only a shard write failure or cancellation is
// returned as an error.
func (p *Pipeline) work(ctx context.Context, blocks []stream.Block) (result, error) {
	var res result
	session := p.filter.Session()

	var rows []shard.Row
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.counters.Blocks++

		articles, err := block.Parse(b.Data)
		if err != nil {
			p.logger.Warn("skipping block", "offset", b.Offset, "err", err)
			res.counters.BlocksFailed++
			continue
		}

		for _, a := range articles {
			res.counters.Articles++
			rows = p.appendArticle(rows, session, a, &res.counters)
		}
	}

	res.counters.Chunks = len(rows)
	info, err := p.writer.Write(rows)
	if err != nil {
		return res, err
	}
	if info != nil {
		res.counters.Shards = 1
		res.shard = info
	}
	return res, nil
}

func (p *Pipeline) appendArticle(rows []shard.Row, session *filter.Session, a block.Article, c *manifest.Counters) []shard.Row {
	reason, err := session.Keep(a)
	if err != nil {
		p.logger.Warn("skipping article", "id", a.ID, "title", a.Title, "err", err)
		c.Filtered++
		return rows
	}
	switch reason {
	case filter.Redirect:
		c.Redirects++
		return rows
	case filter.Namespace, filter.Script:
		c.Filtered++
		return rows
	}

	text := wikitext.Clean(a.Text)
	if text == "" {
		c.Empty++
		return rows
	}

	for _, piece := range chunk.Split(text, p.chunking) {
		rows = append(rows, shard.Row{ID: a.ID, Title: a.Title, Chunk: piece})
	}
	return rows
}
