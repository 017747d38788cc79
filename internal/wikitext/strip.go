package wikitext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// invisibleTags never contribute prose.
var invisibleTags = map[string]bool{
	"categorytree": true, "ce": true, "chem": true, "gallery": true, "graph": true,
	"hiero": true, "imagemap": true, "includeonly": true, "indicator": true,
	"inputbox": true, "mapframe": true, "math": true, "ref": true, "references": true,
	"score": true, "section": true, "templatedata": true, "templatestyles": true,
	"timeline": true,
}

// hiddenNamespaces are link prefixes whose links render nothing in prose.
var hiddenNamespaces = map[string]bool{
	"category": true,
	"file":     true,
	"image":    true,
}

// languageLinkRe matches interlanguage prefixes such as "de" or "zh-yue".
var languageLinkRe = regexp.MustCompile(`^[a-z]{2,3}(?:-[a-z]{2,8})*$`)

// StripCode renders nodes as plain text. Templates, arguments, comments,
// tables and formatting disappear; links keep their visible label.
func StripCode(nodes Nodes) string {
	var sb strings.Builder
	writeStripped(&sb, nodes)
	return sb.String()
}

func writeStripped(sb *strings.Builder, nodes Nodes) {
	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			sb.WriteString(n.Value)
		case Wikilink:
			if hiddenLink(n.Target) {
				continue
			}
			if n.Label != nil {
				writeStripped(sb, n.Label)
			} else {
				sb.WriteString(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(n.Target), ":")))
			}
		case ExternalLink:
			if n.Bracketed {
				writeStripped(sb, n.Title)
			} else {
				sb.WriteString(n.URL)
			}
		case Heading:
			sb.WriteString(strings.TrimSpace(StripCode(n.Title)))
		case Tag:
			if n.SelfClosing || invisibleTags[n.Name] {
				continue
			}
			writeStripped(sb, n.Body)
		case Entity:
			sb.WriteString(html.UnescapeString(n.Raw))
		}
	}
}

// hiddenLink reports whether a link target is a file, category or
// interlanguage link. A leading colon forces the link to be visible.
func hiddenLink(target string) bool {
	t := strings.TrimSpace(target)
	if strings.HasPrefix(t, ":") {
		return false
	}
	prefix, _, ok := strings.Cut(t, ":")
	if !ok {
		return false
	}
	prefix = strings.TrimSpace(prefix)
	if hiddenNamespaces[strings.ToLower(prefix)] {
		return true
	}
	return languageLinkRe.MatchString(prefix)
}
