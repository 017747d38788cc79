package shard

import (
	"github.com/itsmostafa/wikichunk/internal/chunk"
)

// Summary holds word statistics over a set of rows.
type Summary struct {
	Rows     int
	Articles int
	Words    int
	MinWords int
	MaxWords int
}

// MeanWords is the average number of words per row.
func (s Summary) MeanWords() float64 {
	if s.Rows == 0 {
		return 0
	}
	return float64(s.Words) / float64(s.Rows)
}

// Summarize computes a Summary. Articles counts distinct ids.
func Summarize(rows []Row) Summary {
	var s Summary
	seen := make(map[int32]struct{})
	for i, r := range rows {
		n := chunk.WordCount(r.Chunk)
		if i == 0 || n < s.MinWords {
			s.MinWords = n
		}
		if n > s.MaxWords {
			s.MaxWords = n
		}
		s.Words += n
		seen[r.ID] = struct{}{}
	}
	s.Rows = len(rows)
	s.Articles = len(seen)
	return s
}
