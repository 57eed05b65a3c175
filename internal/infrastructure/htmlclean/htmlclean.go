// Package htmlclean shrinks captured page HTML into something worth keeping
// as a diagnostic: no scripts, no inline blobs, bounded size.
package htmlclean

import (
	"strings"

	"golang.org/x/net/html"
)

type Options struct {
	DropTags  []string
	DropAttrs []string
	// MaxBytes truncates the rendered output; zero means unbounded.
	MaxBytes int
	// KeepEventHandlers retains on* attributes.
	KeepEventHandlers bool
}

var DefaultOptions = Options{
	DropTags:  []string{"script", "style", "noscript", "svg", "iframe", "template"},
	DropAttrs: []string{"style", "srcset", "sizes", "nonce", "integrity"},
	MaxBytes:  2 << 20,
}

const truncatedMarker = "\n<!-- truncated -->"

// Clean returns the sanitized document. Input that cannot be parsed is
// returned as is, truncated.
func Clean(raw string, opts *Options) string {
	if opts == nil {
		opts = &DefaultOptions
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return truncate(raw, opts.MaxBytes)
	}

	prune(doc, opts)

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return truncate(raw, opts.MaxBytes)
	}
	return truncate(sb.String(), opts.MaxBytes)
}

func prune(n *html.Node, opts *Options) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && contains(opts.DropTags, c.Data):
			n.RemoveChild(c)
		default:
			if c.Type == html.ElementNode {
				c.Attr = keepAttrs(c.Attr, opts)
			}
			prune(c, opts)
		}
		c = next
	}
}

func keepAttrs(attrs []html.Attribute, opts *Options) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		if contains(opts.DropAttrs, a.Key) {
			continue
		}
		if !opts.KeepEventHandlers && strings.HasPrefix(a.Key, "on") {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(a.Val), "data:") {
			a.Val = "data:,"
		}
		kept = append(kept, a)
	}
	return kept
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + truncatedMarker
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
