// Package sanitize cleans chapter markup for rendering in a browser context
// and derives plain text from it. Cleaning is idempotent: sanitizing already
// clean markup leaves it structurally unchanged.
package sanitize

import (
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// strippedTags are elements removed wholesale: anything executable,
// interactive or otherwise unsafe to render from untrusted book content.
const strippedTags = "script, style, iframe, video, nav, form, button, input"

// Document cleans doc in place: removes stripped elements and HTML comments,
// drops every on* event-handler attribute, and clears href/src values with
// unsafe URI schemes.
func Document(doc *goquery.Document) {
	doc.Find(strippedTags).Remove()

	for _, root := range doc.Nodes {
		removeComments(root)
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		var drop []string
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			if strings.HasPrefix(key, "on") {
				drop = append(drop, attr.Key)
				continue
			}
			if (key == "href" || key == "src" || key == "xlink:href") && !safeURI(attr.Val) {
				drop = append(drop, attr.Key)
			}
		}
		for _, key := range drop {
			s.RemoveAttr(key)
		}
	})
}

// removeComments strips comment nodes from the subtree rooted at n.
func removeComments(n *xhtml.Node) {
	var next *xhtml.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == xhtml.CommentNode {
			n.RemoveChild(c)
			continue
		}
		removeComments(c)
	}
}

// BodyHTML returns the inner HTML of the document body.
func BodyHTML(doc *goquery.Document) (string, error) {
	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Html()
	}
	inner, err := body.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(inner), nil
}

// Text extracts the document's plain text with whitespace runs collapsed to
// single spaces.
func Text(doc *goquery.Document) string {
	sel := doc.Find("body")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// TextToHTML converts plain text into simple paragraph HTML, one escaped
// <p> per non-empty line.
func TextToHTML(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	if b.Len() == 0 {
		return "<p></p>"
	}
	return b.String()
}

// safeURI accepts relative references, fragments, http(s) and mailto
// schemes, and data: URIs only for images.
func safeURI(raw string) bool {
	v := strings.TrimSpace(raw)
	if v == "" {
		return true
	}
	switch v[0] {
	case '#', '/', '?', '.':
		return true
	}

	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "":
		return true
	case "http", "https", "mailto":
		return true
	case "data":
		return strings.HasPrefix(strings.ToLower(v), "data:image/")
	default:
		return false
	}
}
