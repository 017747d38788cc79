package wikitext

import (
	"regexp"
	"strings"
)

// maxDepth bounds nesting so hostile markup cannot blow the stack.
const maxDepth = 40

var (
	openTagRe   = regexp.MustCompile(`^<([a-zA-Z][a-zA-Z0-9]*)(\s[^<>]*?)?\s*(/?)>`)
	closeTagRe  = regexp.MustCompile(`^</([a-zA-Z][a-zA-Z0-9]*)\s*>`)
	entityRe    = regexp.MustCompile(`^&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[a-zA-Z][a-zA-Z0-9]{1,31});`)
	headingRe   = regexp.MustCompile(`^(={1,6})(.+?)(={1,6})[ \t]*$`)
	magicWordRe = regexp.MustCompile(`^__[A-Z]+__`)
	urlSchemeRe = regexp.MustCompile(`(?i)^(?:https?://|ftp://|mailto:|//)`)
)

// knownTags are the HTML and extension tags recognised as Tag nodes. Anything
// else in angle brackets stays literal text.
var knownTags = map[string]bool{
	"abbr": true, "b": true, "bdi": true, "bdo": true, "big": true, "blockquote": true,
	"br": true, "caption": true, "categorytree": true, "ce": true, "center": true,
	"charinsert": true, "chem": true, "cite": true, "code": true, "data": true, "dd": true,
	"del": true, "dfn": true, "div": true, "dl": true, "dt": true, "em": true, "font": true,
	"gallery": true, "graph": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "hiero": true, "hr": true, "i": true, "imagemap": true, "includeonly": true,
	"indicator": true, "inputbox": true, "ins": true, "kbd": true, "li": true, "mapframe": true,
	"mark": true, "math": true, "noinclude": true, "nowiki": true, "ol": true, "onlyinclude": true,
	"p": true, "poem": true, "pre": true, "q": true, "rb": true, "ref": true, "references": true,
	"rp": true, "rt": true, "ruby": true, "s": true, "samp": true, "score": true, "section": true,
	"small": true, "source": true, "span": true, "strike": true, "strong": true, "sub": true,
	"sup": true, "syntaxhighlight": true, "table": true, "td": true, "templatedata": true,
	"templatestyles": true, "th": true, "time": true, "timeline": true, "tr": true, "tt": true,
	"u": true, "ul": true, "var": true, "wbr": true,
}

// rawTags keep their body as literal text instead of parsing it.
var rawTags = map[string]bool{
	"ce": true, "chem": true, "code": true, "graph": true, "hiero": true, "mapframe": true,
	"math": true, "nowiki": true, "pre": true, "score": true, "source": true,
	"syntaxhighlight": true, "templatedata": true, "timeline": true,
}

var voidTags = map[string]bool{
	"br": true, "hr": true, "wbr": true, "templatestyles": true,
}

// Route kinds recorded in parser.failed.
const (
	routeTemplate byte = iota
	routeArgument
	routeWikilink
	routeExternalLink
)

type route struct {
	kind byte
	pos  int
}

type parser struct {
	src   string
	pos   int
	depth int
	// inline disables line-start constructs (headings, lists, tables).
	inline bool
	// failed holds the start of every construct that could not be closed.
	// A failed route is never retried, so runs of unclosed brackets cost
	// polynomial rather than exponential time.
	failed map[route]struct{}
}

// Parse builds the node tree for a wikitext document.
func Parse(src string) Nodes {
	p := &parser{src: src}
	nodes, _ := p.parseUntil(nil)
	return nodes
}

func (p *parser) sub(src string, inline bool) *parser {
	return &parser{src: src, depth: p.depth + 1, inline: inline}
}

// parseUntil collects nodes until one of stops is next in the input. The
// stop itself is not consumed. found is false when the input ran out first.
func (p *parser) parseUntil(stops []string) (nodes Nodes, found bool) {
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, Text{Value: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		if p.atAny(stops) {
			flush()
			return nodes, true
		}
		if n, ok := p.parseNode(); ok {
			flush()
			nodes = append(nodes, n)
			continue
		}
		text.WriteByte(p.src[p.pos])
		p.pos++
	}

	flush()
	return nodes, false
}

// hasFailed reports whether kind already failed to close at pos.
func (p *parser) hasFailed(kind byte, pos int) bool {
	_, ok := p.failed[route{kind, pos}]
	return ok
}

// fail records that kind cannot close at start and rewinds to it.
func (p *parser) fail(kind byte, start int) (Node, bool) {
	if p.failed == nil {
		p.failed = make(map[route]struct{})
	}
	p.failed[route{kind, start}] = struct{}{}
	p.pos = start
	return nil, false
}

func (p *parser) atAny(stops []string) bool {
	rest := p.src[p.pos:]
	for _, s := range stops {
		if strings.HasPrefix(rest, s) {
			return true
		}
	}
	return false
}

func (p *parser) atLineStart() bool {
	if p.inline {
		return false
	}
	return p.pos == 0 || p.src[p.pos-1] == '\n'
}

// parseNode tries every construct that can start at the current position.
// On failure the position is left untouched.
func (p *parser) parseNode() (Node, bool) {
	rest := p.src[p.pos:]
	lineStart := p.atLineStart()

	switch rest[0] {
	case '<':
		if strings.HasPrefix(rest, "<!--") {
			return p.parseComment(), true
		}
		return p.parseTag()
	case '{':
		if lineStart && strings.HasPrefix(rest, "{|") {
			return p.parseTable(), true
		}
		if strings.HasPrefix(rest, "{{{") {
			if n, ok := p.parseArgument(); ok {
				return n, true
			}
		}
		if strings.HasPrefix(rest, "{{") {
			return p.parseTemplate()
		}
	case '[':
		if strings.HasPrefix(rest, "[[") {
			return p.parseWikilink()
		}
		return p.parseExternalLink()
	case '&':
		if m := entityRe.FindString(rest); m != "" {
			p.pos += len(m)
			return Entity{Raw: m}, true
		}
	case '\'':
		return p.parseQuotes()
	case '=':
		if lineStart {
			return p.parseHeading()
		}
	case '*', '#', ':', ';':
		if lineStart {
			return p.parseListMarker(), true
		}
	case '-':
		if lineStart && strings.HasPrefix(rest, "----") {
			n := len(rest) - len(strings.TrimLeft(rest, "-"))
			p.pos += n
			return Markup{Raw: rest[:n]}, true
		}
	case '_':
		if m := magicWordRe.FindString(rest); m != "" {
			p.pos += len(m)
			return Markup{Raw: m}, true
		}
	}
	return nil, false
}

func (p *parser) parseComment() Node {
	rest := p.src[p.pos:]
	end := strings.Index(rest[4:], "-->")
	if end < 0 {
		p.pos = len(p.src)
		return Comment{Value: rest[4:]}
	}
	p.pos += 4 + end + 3
	return Comment{Value: rest[4 : 4+end]}
}

func (p *parser) parseTemplate() (Node, bool) {
	if p.depth >= maxDepth || p.hasFailed(routeTemplate, p.pos) {
		return nil, false
	}
	start := p.pos
	p.pos += 2
	p.depth++
	defer func() { p.depth-- }()

	var parts []Nodes
	for {
		part, found := p.parseUntil([]string{"}}", "|"})
		if !found {
			return p.fail(routeTemplate, start)
		}
		parts = append(parts, part)
		if strings.HasPrefix(p.src[p.pos:], "}}") {
			p.pos += 2
			break
		}
		p.pos++
	}

	return Template{Name: strings.TrimSpace(literal(parts[0])), Params: parts[1:]}, true
}

func (p *parser) parseArgument() (Node, bool) {
	if p.depth >= maxDepth || p.hasFailed(routeArgument, p.pos) {
		return nil, false
	}
	start := p.pos
	p.pos += 3
	p.depth++
	defer func() { p.depth-- }()

	body, found := p.parseUntil([]string{"}}}"})
	if !found {
		return p.fail(routeArgument, start)
	}
	p.pos += 3
	name, _, _ := strings.Cut(literal(body), "|")
	return Argument{Name: strings.TrimSpace(name)}, true
}

func (p *parser) parseWikilink() (Node, bool) {
	if p.depth >= maxDepth || p.hasFailed(routeWikilink, p.pos) {
		return nil, false
	}
	start := p.pos
	rest := p.src[p.pos+2:]
	i := strings.IndexAny(rest, "|]\n[{}")
	if i < 0 {
		return nil, false
	}

	switch rest[i] {
	case ']':
		if !strings.HasPrefix(rest[i:], "]]") {
			return nil, false
		}
		p.pos += 2 + i + 2
		return Wikilink{Target: rest[:i]}, true
	case '|':
		p.pos += 2 + i + 1
		p.depth++
		label, found := p.parseUntil([]string{"]]"})
		p.depth--
		if !found {
			return p.fail(routeWikilink, start)
		}
		p.pos += 2
		if label == nil {
			label = Nodes{}
		}
		return Wikilink{Target: rest[:i], Label: label}, true
	}
	return nil, false
}

func (p *parser) parseExternalLink() (Node, bool) {
	if p.depth >= maxDepth || p.hasFailed(routeExternalLink, p.pos) {
		return nil, false
	}
	start := p.pos
	rest := p.src[p.pos+1:]
	if !urlSchemeRe.MatchString(rest) {
		return nil, false
	}
	end := strings.IndexAny(rest, " \t\n]")
	if end < 0 || rest[end] == '\n' {
		return nil, false
	}
	url := rest[:end]
	if rest[end] == ']' {
		p.pos += 1 + end + 1
		return ExternalLink{URL: url, Bracketed: true}, true
	}

	p.pos += 1 + end + 1
	p.depth++
	title, found := p.parseUntil([]string{"]", "\n"})
	p.depth--
	if !found || p.src[p.pos] != ']' {
		return p.fail(routeExternalLink, start)
	}
	p.pos++
	return ExternalLink{URL: url, Title: title, Bracketed: true}, true
}

func (p *parser) parseTag() (Node, bool) {
	rest := p.src[p.pos:]
	if m := closeTagRe.FindStringSubmatch(rest); m != nil {
		if !knownTags[strings.ToLower(m[1])] {
			return nil, false
		}
		p.pos += len(m[0])
		return Markup{Raw: m[0]}, true
	}

	m := openTagRe.FindStringSubmatch(rest)
	if m == nil {
		return nil, false
	}
	name := strings.ToLower(m[1])
	if !knownTags[name] {
		return nil, false
	}
	tag := Tag{Name: name, Attrs: strings.TrimSpace(m[2])}
	p.pos += len(m[0])

	if m[3] == "/" || voidTags[name] {
		tag.SelfClosing = true
		return tag, true
	}

	end, closeLen := indexCloseTag(p.src[p.pos:], name)
	if end < 0 {
		// An unclosed tag contributes no body.
		return tag, true
	}
	body := p.src[p.pos : p.pos+end]
	p.pos += end + closeLen

	if rawTags[name] {
		tag.Body = Nodes{Text{Value: body}}
		return tag, true
	}
	if p.depth >= maxDepth {
		return tag, true
	}
	tag.Body, _ = p.sub(body, false).parseUntil(nil)
	return tag, true
}

// indexCloseTag finds the first closing tag for name in s, case-insensitively.
func indexCloseTag(s, name string) (idx, length int) {
	off := 0
	for {
		i := strings.Index(s[off:], "</")
		if i < 0 {
			return -1, 0
		}
		j := off + i
		if m := closeTagRe.FindStringSubmatch(s[j:]); m != nil && strings.EqualFold(m[1], name) {
			return j, len(m[0])
		}
		off = j + 2
	}
}

// parseTable consumes a {| ... |} table including nested tables. An
// unterminated table runs to the end of input.
func (p *parser) parseTable() Node {
	start := p.pos
	depth := 0
	pos := p.pos
	for pos < len(p.src) {
		end := strings.IndexByte(p.src[pos:], '\n')
		lineEnd := len(p.src)
		if end >= 0 {
			lineEnd = pos + end
		}
		line := strings.TrimLeft(p.src[pos:lineEnd], " \t")
		switch {
		case strings.HasPrefix(line, "{|"):
			depth++
		case strings.HasPrefix(line, "|}"):
			depth--
		}
		pos = lineEnd
		if depth == 0 {
			break
		}
		if pos < len(p.src) {
			pos++
		}
	}
	p.pos = pos
	return Table{Raw: p.src[start:pos]}
}

func (p *parser) parseHeading() (Node, bool) {
	rest := p.src[p.pos:]
	line := rest
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		line = rest[:i]
	}
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	level := min(len(m[1]), len(m[3]))
	trimmed := strings.TrimRight(line, " \t")
	inner := trimmed[level : len(trimmed)-level]

	p.pos += len(line)
	title, _ := p.sub(inner, true).parseUntil(nil)
	return Heading{Level: level, Title: title}, true
}

// parseQuotes handles '' (italic), ''' (bold) and ''''' (both). Other run
// lengths give up one apostrophe as text and retry.
func (p *parser) parseQuotes() (Node, bool) {
	rest := p.src[p.pos:]
	n := len(rest) - len(strings.TrimLeft(rest, "'"))
	switch n {
	case 2, 3, 5:
		p.pos += n
		return Markup{Raw: rest[:n]}, true
	}
	return nil, false
}

func (p *parser) parseListMarker() Node {
	rest := p.src[p.pos:]
	n := len(rest) - len(strings.TrimLeft(rest, "*#:;"))
	n += len(rest[n:]) - len(strings.TrimLeft(rest[n:], " \t"))
	p.pos += n
	return Markup{Raw: rest[:n]}
}

// literal concatenates the text nodes of a run, ignoring everything else.
func literal(nodes Nodes) string {
	var sb strings.Builder
	for _, n := range nodes {
		if t, ok := n.(Text); ok {
			sb.WriteString(t.Value)
		}
	}
	return sb.String()
}
