// Package book defines the converted book model shared by the conversion
// pipeline and the reader: metadata, the physical spine, the logical TOC
// tree, and extracted image assets.
package book

import "strings"

// FormatVersion identifies the snapshot schema. Snapshots written with a
// different version are treated as corrupt by the store.
const FormatVersion = "1"

// Metadata holds document-level information extracted once at conversion time.
type Metadata struct {
	Title       string   `json:"title"`
	Language    string   `json:"language,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Description string   `json:"description,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	Date        string   `json:"date,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
}

// Chapter is one physical unit in reading order. Index is the chapter's
// position in the spine and is the canonical chapter address used by the
// reader. Href is the source filename for EPUB chapters, or a synthetic
// "chapter-N"/"page-N" reference for PDF chapters.
type Chapter struct {
	Index int    `json:"index"`
	Href  string `json:"href"`
	Title string `json:"title"`
	HTML  string `json:"html"`
	Text  string `json:"text"`
}

// TOCEntry is one logical navigation node. File and Anchor are the split
// components of Href. Children form an owned tree with no back-pointers.
type TOCEntry struct {
	Title    string     `json:"title"`
	Href     string     `json:"href"`
	File     string     `json:"file"`
	Anchor   string     `json:"anchor,omitempty"`
	Children []TOCEntry `json:"children,omitempty"`
}

// ImageAsset is an extracted image binary. Name is the rewritten basename;
// content HTML references it as "images/{Name}".
type ImageAsset struct {
	Name string
	Data []byte
}

// Book is the top-level aggregate produced by one conversion run. It is
// serialized whole and treated as immutable once loaded.
type Book struct {
	Version     string     `json:"version"`
	SourceFile  string     `json:"source_file"`
	ProcessedAt string     `json:"processed_at"`
	Metadata    Metadata   `json:"metadata"`
	Spine       []Chapter  `json:"spine"`
	TOC         []TOCEntry `json:"toc"`

	// Images maps original embedded paths (both the full source-internal
	// path and the bare basename) to "images/{name}". The double keying
	// tolerates messy src attributes in content HTML.
	Images map[string]string `json:"images,omitempty"`
}

// SplitHref splits a navigation target into its file component and anchor.
func SplitHref(href string) (file, anchor string) {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i], href[i+1:]
	}
	return href, ""
}

// ResolveSpineIndex returns the spine index whose Href matches the entry's
// file component, ignoring any anchor. Multiple TOC entries may resolve to
// the same index. A miss means "no navigation", not an error.
func ResolveSpineIndex(entry TOCEntry, spine []Chapter) (int, bool) {
	file := entry.File
	if file == "" {
		file, _ = SplitHref(entry.Href)
	}
	if file == "" {
		return 0, false
	}
	for _, ch := range spine {
		if ch.Href == file {
			return ch.Index, true
		}
	}
	return 0, false
}

// SafeName reduces s to a filesystem-safe filename: letters, digits and
// "._- " survive, everything else is dropped.
func SafeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-' || r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
