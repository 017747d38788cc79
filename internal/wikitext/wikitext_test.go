package wikitext

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Nodes
	}{
		{"plain text", "hello", Nodes{Text{Value: "hello"}}},
		{
			"wikilink with label",
			"[[a|b]]",
			Nodes{Wikilink{Target: "a", Label: Nodes{Text{Value: "b"}}}},
		},
		{"wikilink without label", "[[Paris]]", Nodes{Wikilink{Target: "Paris"}}},
		{
			"template with params",
			"{{cite|a=1|b}}",
			Nodes{Template{Name: "cite", Params: []Nodes{{Text{Value: "a=1"}}, {Text{Value: "b"}}}}},
		},
		{"argument", "{{{1|x}}}", Nodes{Argument{Name: "1"}}},
		{"comment", "<!-- c -->", Nodes{Comment{Value: " c "}}},
		{"entity", "&amp;", Nodes{Entity{Raw: "&amp;"}}},
		{
			"heading",
			"== History ==",
			Nodes{Heading{Level: 2, Title: Nodes{Text{Value: " History "}}}},
		},
		{
			"self closing tag",
			`<ref name="a"/>`,
			Nodes{Tag{Name: "ref", Attrs: `name="a"`, SelfClosing: true}},
		},
		{
			"tag with body",
			"<small>tiny</small>",
			Nodes{Tag{Name: "small", Body: Nodes{Text{Value: "tiny"}}}},
		},
		{
			"bracketed external link",
			"[http://x.org X]",
			Nodes{ExternalLink{URL: "http://x.org", Title: Nodes{Text{Value: "X"}}, Bracketed: true}},
		},
		{"unknown tag is text", "<foo>", Nodes{Text{Value: "<foo>"}}},
		{"unclosed template is text", "{{a", Nodes{Text{Value: "{{a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseTable(t *testing.T) {
	src := "Before\n{| class=\"wikitable\"\n|-\n| a || b\n{|\n| nested\n|}\n|}\nAfter"
	nodes := Parse(src)
	var tables int
	for _, n := range nodes {
		if tbl, ok := n.(Table); ok {
			tables++
			if !strings.HasPrefix(tbl.Raw, "{|") || !strings.HasSuffix(tbl.Raw, "|}") {
				t.Errorf("unexpected table raw %q", tbl.Raw)
			}
		}
	}
	if tables != 1 {
		t.Errorf("expected 1 table node, got %d", tables)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"blank line collapse", "Line one.\n\n\nLine two.", "Line one.\n\nLine two."},
		{
			"links and formatting",
			"'''Paris''' is the [[capital city|capital]] of [[France]].{{citation needed}}",
			"Paris is the capital of France.",
		},
		{"heading", "Intro.\n== History ==\nText.", "Intro.\nHistory\nText."},
		{
			"references and comments",
			`Fact.<ref name="a">Source {{cite web|url=x}}</ref> More<!-- hidden --> text.<ref name="b"/>`,
			"Fact. More text.",
		},
		{
			"file and category links",
			"[[File:Foo.jpg|thumb|A [[dog]] photo]]Dogs bark.\n[[Category:Animals]]",
			"Dogs bark.",
		},
		{
			"external links",
			"See [https://example.org Example site] and [https://x.org].",
			"See Example site and .",
		},
		{"entities", "AT&amp;T &lt;3 caf&eacute;", "AT&T <3 café"},
		{"non-breaking space", "10&nbsp;km", "10 km"},
		{"table", "Before\n{| class=\"wikitable\"\n|-\n| a || b\n|}\nAfter", "Before\n\nAfter"},
		{"unclosed template", "Text {{unclosed and more", "Text {{unclosed and more"},
		{"unclosed link", "[[a|b", "[[a|b"},
		{"nested templates", "A{{outer|{{inner|x}}|y}}B", "AB"},
		{"list markers", "* one\n* two\n# three", "one\ntwo\nthree"},
		{"interlanguage link", "[[de:Hund]]Dog", "Dog"},
		{"forced visible link", "[[:Category:Dogs]]", "Category:Dogs"},
		{"magic word", "__NOTOC__Hello", "Hello"},
		{"nowiki", "<nowiki>[[not a link]]</nowiki>", "[[not a link]]"},
		{"bold italic", "''italic'' and '''''both'''''", "italic and both"},
		{"argument", "{{{1|default}}}x", "x"},
		{"only markup", "{{Infobox|name=x}}\n\n[[Category:Y]]", ""},
		{"leading blank lines", "\n\n\nText", "Text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCollapseBlankLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"no blanks", "a\nb", "a\nb"},
		{"single blank kept", "a\n\nb", "a\n\nb"},
		{"run collapsed", "a\n\n\n\nb", "a\n\nb"},
		{"whitespace line is blank", "a\n \t\nb", "a\n\nb"},
		{"leading blanks dropped", "\n\na", "a"},
		{"trailing spaces trimmed", "a  \nb\t", "a\nb"},
		{"separate paragraphs kept", "a\n\n\nb\n\n\nc", "a\n\nb\n\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CollapseBlankLines(tt.input); got != tt.expected {
				t.Errorf("CollapseBlankLines(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanDeepNesting(t *testing.T) {
	src := strings.Repeat("{{", 200) + "x" + strings.Repeat("}}", 200) + "tail"
	got := Clean(src)
	if !strings.HasSuffix(got, "tail") {
		t.Errorf("expected text after deep nesting to survive, got %q", got)
	}
}

func TestHiddenLink(t *testing.T) {
	tests := []struct {
		target string
		hidden bool
	}{
		{"File:A.jpg", true},
		{"image:a.png", true},
		{"Category:X", true},
		{"fr:Chien", true},
		{"zh-yue:狗", true},
		{":Category:X", false},
		{"Paris", false},
		{"Star Trek: Voyager", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if got := hiddenLink(tt.target); got != tt.hidden {
				t.Errorf("hiddenLink(%q) = %v, want %v", tt.target, got, tt.hidden)
			}
		})
	}
}

func TestCleanUnclosedRuns(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"templates", strings.Repeat("{{", 64) + "x"},
		{"arguments", strings.Repeat("{{{", 64) + "x"},
		{"mixed braces", strings.Repeat("{{{{{", 40) + "x"},
		{"wikilinks", strings.Repeat("[[a|", 64) + "x"},
		{"external links", strings.Repeat("[http://a.org b ", 64) + "x"},
		{"template per line", strings.Repeat("{{cite|a=\n", 500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan string, 1)
			go func() { done <- Clean(tt.src) }()

			select {
			case got := <-done:
				if !strings.Contains(got, "x") && strings.Contains(tt.src, "x") {
					t.Errorf("expected trailing text to survive, got %q", got)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("Clean did not finish on %d bytes of unclosed markup", len(tt.src))
			}
		})
	}
}

func TestCleanUnclosedKeepsLiteral(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"unclosed templates stay literal", strings.Repeat("{{", 20) + "x", strings.Repeat("{{", 20) + "x"},
		{"closed template after unclosed one", "{{a {{b}} c", "{{a  c"},
		{"unclosed link label", "[[a|b", "[[a|b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.src); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.src, got, tt.expected)
			}
		})
	}
}
