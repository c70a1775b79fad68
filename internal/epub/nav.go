package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/shiomura/bookroom/internal/book"
)

// LoadTOC builds the navigation tree for the package. EPUB 3 nav documents
// are preferred; the legacy NCX map is the fallback. Returns nil when the
// container has no usable navigation source.
func LoadTOC(r *Reader, opf *OPF) []book.TOCEntry {
	if opf.NavPath != "" && r.Has(opf.NavPath) {
		data, err := r.ReadFile(opf.NavPath)
		if err == nil {
			toc, err := parseNavDoc(data, opf.NavPath)
			if err != nil {
				log.Printf("warning: failed to parse nav document %q: %v", opf.NavPath, err)
			} else if len(toc) > 0 {
				return toc
			}
		}
	}

	if opf.NCXPath != "" && r.Has(opf.NCXPath) {
		data, err := r.ReadFile(opf.NCXPath)
		if err == nil {
			toc, err := parseNCX(data, opf.NCXPath)
			if err != nil {
				log.Printf("warning: failed to parse NCX %q: %v", opf.NCXPath, err)
			} else if len(toc) > 0 {
				return toc
			}
		}
	}

	return nil
}

// --- NCX (EPUB 2) ---

type ncxDocument struct {
	XMLName xml.Name `xml:"ncx"`
	NavMap  struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	Label struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

// parseNCX parses an NCX navigation map. ncxPath is the container-internal
// path of the NCX file, used to resolve relative hrefs.
func parseNCX(data []byte, ncxPath string) ([]book.TOCEntry, error) {
	var doc ncxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse NCX: %w", err)
	}
	return convertNavPoints(doc.NavMap.NavPoints, ncxPath), nil
}

func convertNavPoints(points []ncxNavPoint, basePath string) []book.TOCEntry {
	if len(points) == 0 {
		return nil
	}
	entries := make([]book.TOCEntry, 0, len(points))
	for _, np := range points {
		entry := newTOCEntry(strings.TrimSpace(np.Label.Text), strings.TrimSpace(np.Content.Src), basePath)
		entry.Children = convertNavPoints(np.Children, basePath)
		entries = append(entries, entry)
	}
	return entries
}

// --- Nav document (EPUB 3) ---

// parseNavDoc parses an EPUB 3 XHTML nav document and returns the tree under
// the nav element with epub:type="toc".
func parseNavDoc(data []byte, navPath string) ([]book.TOCEntry, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse nav document: %w", err)
	}

	var toc []book.TOCEntry
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "nav" && hasEpubType(n, "toc") {
			if ol := findChildElement(n, "ol"); ol != nil {
				toc = parseNavList(ol, navPath)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return toc, nil
}

func parseNavList(ol *html.Node, basePath string) []book.TOCEntry {
	var entries []book.TOCEntry
	for c := ol.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			entries = append(entries, parseNavItem(c, basePath))
		}
	}
	return entries
}

// parseNavItem reads one li: an anchor (or span heading) plus an optional
// nested ol of children.
func parseNavItem(li *html.Node, basePath string) book.TOCEntry {
	var entry book.TOCEntry
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "a":
			if entry.Href == "" {
				entry = newTOCEntry(strings.TrimSpace(textContent(c)), attrValue(c, "href"), basePath)
			}
		case "span":
			if entry.Title == "" {
				entry.Title = strings.TrimSpace(textContent(c))
			}
		case "ol":
			entry.Children = parseNavList(c, basePath)
		}
	}
	return entry
}

func hasEpubType(n *html.Node, typeName string) bool {
	for _, t := range strings.Fields(attrValue(n, "epub:type")) {
		if t == typeName {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findChildElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findChildElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// --- shared ---

// newTOCEntry resolves href (which may carry a fragment and URL escaping)
// against the navigation file's directory into a container-root-relative
// target.
func newTOCEntry(title, href, basePath string) book.TOCEntry {
	entry := book.TOCEntry{Title: title}
	if href == "" {
		return entry
	}

	file, anchor := book.SplitHref(href)
	if unescaped, err := url.PathUnescape(file); err == nil {
		file = unescaped
	}
	if file != "" {
		file = path.Clean(path.Join(path.Dir(basePath), file))
	}

	entry.File = file
	entry.Anchor = anchor
	entry.Href = file
	if anchor != "" {
		entry.Href = file + "#" + anchor
	}
	return entry
}
