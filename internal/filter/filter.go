// Package filter decides which articles reach the cleaner.
//
// Three checks run in order: redirect markers at the start of the raw text,
// an optional namespace allow-list and an optional JavaScript predicate.
package filter

import (
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja"
	"github.com/itsmostafa/wikichunk/internal/block"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
)

// Reason records why an article was kept or dropped.
type Reason int

const (
	Kept Reason = iota
	Redirect
	Namespace
	Script
)

func (r Reason) String() string {
	switch r {
	case Kept:
		return "kept"
	case Redirect:
		return "redirect"
	case Namespace:
		return "namespace"
	case Script:
		return "script"
	default:
		return "unknown"
	}
}

// Options configures a Filter.
type Options struct {
	// RedirectMarkers are matched case-insensitively against the start of
	// the raw article text
	RedirectMarkers []string
	// Namespaces keeps only these page namespaces when non-empty
	Namespaces []int
	// Script is a JavaScript expression over id, title, ns and length that
	// must evaluate truthy for the article to be kept
	Script string
}

// Filter holds the validated, shareable part of the filter configuration.
type Filter struct {
	markers    []string
	prefixLen  int
	namespaces map[int]struct{}
	program    *goja.Program
}

// New validates opts and compiles the script, if any. A script that fails
// to compile or to evaluate against an empty article is rejected here so the
// run fails before any block is read.
func New(opts Options) (*Filter, error) {
	fold := cases.Fold()
	f := &Filter{}
	for _, m := range opts.RedirectMarkers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		folded := fold.String(m)
		f.markers = append(f.markers, folded)
		// Folding can expand a rune, so leave headroom when cutting the text.
		if n := 2 * len(folded); n > f.prefixLen {
			f.prefixLen = n
		}
	}

	if len(opts.Namespaces) > 0 {
		f.namespaces = make(map[int]struct{}, len(opts.Namespaces))
		for _, ns := range opts.Namespaces {
			f.namespaces[ns] = struct{}{}
		}
	}

	if strings.TrimSpace(opts.Script) != "" {
		prg, err := goja.Compile("filter", opts.Script, false)
		if err != nil {
			return nil, errors.Wrap(err, "failed to compile filter script")
		}
		f.program = prg
		if _, err := f.Session().evalScript(block.Article{}); err != nil {
			return nil, errors.Wrap(err, "filter script failed on a sample article")
		}
	}
	return f, nil
}

// Session returns a per-worker evaluator. Sessions are not safe for
// concurrent use; each worker creates its own.
func (f *Filter) Session() *Session {
	s := &Session{filter: f, fold: cases.Fold()}
	if f.program != nil {
		s.vm = goja.New()
	}
	return s
}

// Session evaluates the filter for one worker goroutine.
type Session struct {
	filter *Filter
	fold   cases.Caser
	vm     *goja.Runtime
}

// Keep reports whether a should be kept and, when it is not, which check
// dropped it. An error means the script failed on this article.
func (s *Session) Keep(a block.Article) (Reason, error) {
	if s.IsRedirect(a.Text) {
		return Redirect, nil
	}
	if s.filter.namespaces != nil {
		if _, ok := s.filter.namespaces[a.Namespace]; !ok {
			return Namespace, nil
		}
	}
	if s.vm != nil {
		ok, err := s.evalScript(a)
		if err != nil {
			return Script, errors.Wrapf(err, "filter script on page %d", a.ID)
		}
		if !ok {
			return Script, nil
		}
	}
	return Kept, nil
}

// IsRedirect reports whether text starts with any redirect marker, ignoring
// case.
func (s *Session) IsRedirect(text string) bool {
	if len(s.filter.markers) == 0 {
		return false
	}
	prefix := text
	if len(prefix) > s.filter.prefixLen {
		cut := s.filter.prefixLen
		for cut > 0 && !utf8.RuneStart(prefix[cut]) {
			cut--
		}
		prefix = prefix[:cut]
	}
	folded := s.fold.String(prefix)
	for _, m := range s.filter.markers {
		if strings.HasPrefix(folded, m) {
			return true
		}
	}
	return false
}

func (s *Session) evalScript(a block.Article) (bool, error) {
	if s.vm == nil {
		s.vm = goja.New()
	}
	vars := map[string]any{
		"id":     int64(a.ID),
		"title":  a.Title,
		"ns":     a.Namespace,
		"length": utf8.RuneCountInString(a.Text),
	}
	for name, v := range vars {
		if err := s.vm.Set(name, v); err != nil {
			return false, errors.Wrapf(err, "failed to set %s", name)
		}
	}
	val, err := s.vm.RunProgram(s.filter.program)
	if err != nil {
		return false, err
	}
	return val.ToBoolean(), nil
}
