// Package pdf converts PDF files into the book model using the document's
// bookmark outline as the segmentation signal, falling back to one chapter
// per page.
package pdf

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/shiomura/bookroom/internal/book"
)

// Parser converts a PDF file into a Book. PDF chapters carry text only;
// embedded images are not extracted.
type Parser struct {
	Options Options
}

// Parse opens the document, extracts and normalizes per-page text, selects a
// chapter-granular outline level, and segments pages into chapters. An
// outline that is absent or collapses to a single entry yields one chapter
// per page instead.
func (p Parser) Parse(srcPath string) (*book.Book, []book.ImageAsset, error) {
	doc, err := fitz.New(srcPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, doc.NumPage())
	for i := range pages {
		text, err := doc.Text(i)
		if err != nil {
			return nil, nil, fmt.Errorf("extract text from page %d: %w", i+1, err)
		}
		pages[i] = normalizeText(text)
	}
	if len(pages) == 0 {
		return nil, nil, fmt.Errorf("document has no pages: %s", filepath.Base(srcPath))
	}

	var entries []outlineEntry
	if outline, err := doc.ToC(); err != nil {
		log.Printf("warning: failed to read outline of %s: %v", filepath.Base(srcPath), err)
	} else {
		for _, o := range outline {
			entries = append(entries, outlineEntry{
				Level: o.Level - 1,
				Title: strings.TrimSpace(o.Title),
				Page:  o.Page - 1, // fitz outline pages are 1-based
			})
		}
	}

	var spine []book.Chapter
	var toc []book.TOCEntry
	if selected := selectEntries(entries, len(pages), p.Options); len(selected) > 1 {
		spine, toc = segment(selected, pages)
	} else {
		spine, toc = pageFallback(pages)
	}

	b := &book.Book{
		Version:     book.FormatVersion,
		SourceFile:  filepath.Base(srcPath),
		ProcessedAt: time.Now().Format(time.RFC3339),
		Metadata:    metadataFrom(doc.Metadata(), srcPath),
		Spine:       spine,
		TOC:         toc,
	}
	return b, nil, nil
}

// metadataFrom maps the document info dictionary onto the book metadata.
// The title falls back to the source filename stem.
func metadataFrom(info map[string]string, srcPath string) book.Metadata {
	md := book.Metadata{
		Title:       strings.TrimSpace(info["title"]),
		Language:    "en",
		Description: strings.TrimSpace(info["subject"]),
		Publisher:   strings.TrimSpace(info["producer"]),
		Date:        strings.TrimSpace(info["creationDate"]),
	}
	if author := strings.TrimSpace(info["author"]); author != "" {
		md.Authors = []string{author}
	}
	if md.Title == "" {
		base := filepath.Base(srcPath)
		md.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return md
}
