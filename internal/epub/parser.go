package epub

import (
	"bytes"
	"fmt"
	"log"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shiomura/bookroom/internal/book"
	"github.com/shiomura/bookroom/internal/sanitize"
)

// Parser converts an EPUB file into a Book plus its extracted image assets.
type Parser struct{}

// Parse reads the container at srcPath and builds the full Book aggregate:
// metadata from the package document, one chapter per spine content document
// (sanitized, with image references rewritten to images/{basename}), the
// navigation tree, and the deduplicated image binaries.
func (Parser) Parse(srcPath string) (*book.Book, []book.ImageAsset, error) {
	r, err := Open(srcPath)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	opfData, err := r.ReadFile(r.OPFPath())
	if err != nil {
		return nil, nil, fmt.Errorf("read package document: %w", err)
	}
	opf, err := ParseOPF(opfData, path.Dir(r.OPFPath()))
	if err != nil {
		return nil, nil, err
	}

	assets, imageMap := collectImages(r, opf)

	toc := LoadTOC(r, opf)
	if len(toc) == 0 {
		log.Printf("warning: no navigation found in %s, synthesizing TOC from spine", filepath.Base(srcPath))
		toc = fallbackTOC(opf)
	}

	var spine []book.Chapter
	for _, si := range opf.Spine {
		item, ok := opf.Manifest[si.IDRef]
		if !ok {
			log.Printf("warning: spine item %q not in manifest, skipping", si.IDRef)
			continue
		}
		if !item.IsDocument() {
			continue
		}

		data, err := r.ReadFile(item.Href)
		if err != nil {
			log.Printf("warning: failed to read %q: %v, skipping", item.Href, err)
			continue
		}

		ch, err := buildChapter(len(spine), item.Href, data, imageMap)
		if err != nil {
			log.Printf("warning: failed to parse %q: %v, skipping", item.Href, err)
			continue
		}
		spine = append(spine, ch)
	}

	if len(spine) == 0 {
		return nil, nil, fmt.Errorf("no readable content documents in %s", filepath.Base(srcPath))
	}

	b := &book.Book{
		Version:     book.FormatVersion,
		SourceFile:  filepath.Base(srcPath),
		ProcessedAt: time.Now().Format(time.RFC3339),
		Metadata:    opf.Metadata,
		Spine:       spine,
		TOC:         toc,
		Images:      imageMap,
	}
	return b, assets, nil
}

// buildChapter parses one content document, rewrites its image references and
// sanitizes it.
func buildChapter(index int, href string, data []byte, imageMap map[string]string) (book.Chapter, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return book.Chapter{}, err
	}

	chapterDir := path.Dir(href)
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" {
			return
		}
		if unescaped, err := url.PathUnescape(src); err == nil {
			src = unescaped
		}
		resolved := path.Clean(path.Join(chapterDir, src))
		if local, ok := imageMap[resolved]; ok {
			s.SetAttr("src", local)
		} else if local, ok := imageMap[path.Base(resolved)]; ok {
			s.SetAttr("src", local)
		}
	})

	sanitize.Document(doc)

	html, err := sanitize.BodyHTML(doc)
	if err != nil {
		return book.Chapter{}, err
	}

	return book.Chapter{
		Index: index,
		Href:  href,
		Title: fmt.Sprintf("Section %d", index+1), // real titles come from the TOC
		HTML:  html,
		Text:  sanitize.Text(doc),
	}, nil
}

// collectImages reads every manifest image in document order. Assets are
// deduplicated by sanitized basename; the returned map carries both the full
// container path and the bare basename as keys.
func collectImages(r *Reader, opf *OPF) ([]book.ImageAsset, map[string]string) {
	var assets []book.ImageAsset
	imageMap := make(map[string]string)
	seen := make(map[string]bool)

	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if !item.IsImage() {
			continue
		}

		name := book.SafeName(path.Base(item.Href))
		if name == "" {
			continue
		}
		local := "images/" + name

		if !seen[name] {
			data, err := r.ReadFile(item.Href)
			if err != nil {
				log.Printf("warning: failed to read image %q: %v, skipping", item.Href, err)
				continue
			}
			assets = append(assets, book.ImageAsset{Name: name, Data: data})
			seen[name] = true
		}
		imageMap[item.Href] = local
		imageMap[path.Base(item.Href)] = local
	}

	return assets, imageMap
}

var titleCaser = cases.Title(language.English)

// fallbackTOC synthesizes a flat TOC from the spine, guessing titles from
// filenames.
func fallbackTOC(opf *OPF) []book.TOCEntry {
	var toc []book.TOCEntry
	for _, si := range opf.Spine {
		item, ok := opf.Manifest[si.IDRef]
		if !ok || !item.IsDocument() {
			continue
		}
		name := path.Base(item.Href)
		name = strings.TrimSuffix(name, path.Ext(name))
		name = strings.ReplaceAll(name, "_", " ")
		toc = append(toc, book.TOCEntry{
			Title: titleCaser.String(name),
			Href:  item.Href,
			File:  item.Href,
		})
	}
	return toc
}
