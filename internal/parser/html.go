package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// HTMLParser handles HTML files. Table rows are written as tab-separated
// lines and captions as their own blocks.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := titleFromFilename(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}
	b := newBuilder(title)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "title":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6",
				"p", "li", "blockquote", "figcaption":
				b.block(textContent(n))
				return
			case "table":
				b.block(tableText(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return b.document(), nil
}

// tableText renders a table as its caption followed by one line per row.
func tableText(table *html.Node) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "caption":
				lines = append(lines, textContent(n))
				return
			case "tr":
				lines = append(lines, rowText(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return strings.Join(lines, "\n")
}

// rowText joins the cells of a table row with tabs.
func rowText(tr *html.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, strings.Join(strings.Fields(textContent(c)), " "))
		}
	}
	return strings.Join(cells, "\t")
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
