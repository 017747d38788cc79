// Package wikitext parses MediaWiki markup into a node tree and renders it
// back as plain prose.
//
// The parser is forgiving: constructs that never close (an unbalanced "{{"
// or "[[") fall back to literal text instead of swallowing the rest of the
// article.
package wikitext

// Node is one element of a parsed wikitext tree.
type Node interface {
	node()
}

// Nodes is an ordered run of sibling nodes.
type Nodes []Node

// Text is literal prose.
type Text struct {
	Value string
}

// Template is a {{name|param|...}} transclusion.
type Template struct {
	Name   string
	Params []Nodes
}

// Argument is a {{{name}}} template parameter reference.
type Argument struct {
	Name string
}

// Wikilink is an internal [[target|label]] link. Label is nil when the link
// has no pipe.
type Wikilink struct {
	Target string
	Label  Nodes
}

// ExternalLink is a [url title] link or a bare URL.
type ExternalLink struct {
	URL       string
	Title     Nodes
	Bracketed bool
}

// Heading is a == title == section line.
type Heading struct {
	Level int
	Title Nodes
}

// Tag is an HTML or extension tag such as <ref> or <small>.
type Tag struct {
	Name        string
	Attrs       string
	Body        Nodes
	SelfClosing bool
}

// Comment is an <!-- html comment -->.
type Comment struct {
	Value string
}

// Entity is an HTML character reference such as &amp; or &#160;.
type Entity struct {
	Raw string
}

// Table is a {| ... |} table, kept raw.
type Table struct {
	Raw string
}

// Markup is formatting syntax with no textual content: bold/italic quotes,
// list bullets, horizontal rules, behaviour switches and stray closing tags.
type Markup struct {
	Raw string
}

func (Text) node()         {}
func (Template) node()     {}
func (Argument) node()     {}
func (Wikilink) node()     {}
func (ExternalLink) node() {}
func (Heading) node()      {}
func (Tag) node()          {}
func (Comment) node()      {}
func (Entity) node()       {}
func (Table) node()        {}
func (Markup) node()       {}
