package epub

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/shiomura/bookroom/internal/book"
)

// OPF is the parsed package document: metadata, the manifest in document
// order, and the spine.
type OPF struct {
	Version       string
	Metadata      book.Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // manifest ids in document order
	Spine         []SpineItem
	NCXPath       string // resolved from spine toc attribute, "" if absent
	NavPath       string // EPUB 3 nav document, "" if absent
}

// ManifestItem is one manifest entry with its href resolved to a
// container-root-relative path.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// SpineItem is one itemref in the spine.
type SpineItem struct {
	IDRef  string
	Linear bool
}

// IsDocument reports whether the item is an (X)HTML content document.
func (m ManifestItem) IsDocument() bool {
	return strings.Contains(m.MediaType, "html")
}

// IsImage reports whether the item is an image.
func (m ManifestItem) IsImage() bool {
	return strings.HasPrefix(m.MediaType, "image/")
}

// opfPackage mirrors the OPF XML structure.
type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Version  string   `xml:"version,attr"`
	Metadata struct {
		Title       []string `xml:"http://purl.org/dc/elements/1.1/ title"`
		Creator     []string `xml:"http://purl.org/dc/elements/1.1/ creator"`
		Language    []string `xml:"http://purl.org/dc/elements/1.1/ language"`
		Identifier  []string `xml:"http://purl.org/dc/elements/1.1/ identifier"`
		Publisher   []string `xml:"http://purl.org/dc/elements/1.1/ publisher"`
		Date        []string `xml:"http://purl.org/dc/elements/1.1/ date"`
		Description []string `xml:"http://purl.org/dc/elements/1.1/ description"`
		Subject     []string `xml:"http://purl.org/dc/elements/1.1/ subject"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Toc      string `xml:"toc,attr"`
		ItemRefs []struct {
			IDRef  string `xml:"idref,attr"`
			Linear string `xml:"linear,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// ParseOPF parses package document content. opfDir is the container directory
// holding the OPF file; manifest hrefs are resolved against it.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("parse OPF: %w", err)
	}

	opf := &OPF{
		Version:  pkg.Version,
		Manifest: make(map[string]ManifestItem, len(pkg.Manifest.Items)),
	}
	opf.Metadata = parseMetadata(&pkg)

	for _, item := range pkg.Manifest.Items {
		mi := ManifestItem{
			ID:        item.ID,
			Href:      joinPath(opfDir, item.Href),
			MediaType: item.MediaType,
		}
		if item.Properties != "" {
			mi.Properties = strings.Fields(item.Properties)
		}
		opf.Manifest[item.ID] = mi
		opf.ManifestOrder = append(opf.ManifestOrder, item.ID)

		for _, prop := range mi.Properties {
			if prop == "nav" && opf.NavPath == "" {
				opf.NavPath = mi.Href
			}
		}
	}

	for _, ref := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, SpineItem{
			IDRef:  ref.IDRef,
			Linear: ref.Linear != "no",
		})
	}

	if pkg.Spine.Toc != "" {
		if ncx, ok := opf.Manifest[pkg.Spine.Toc]; ok {
			opf.NCXPath = ncx.Href
		}
	}

	return opf, nil
}

// parseMetadata maps dc: elements onto the book metadata model. Scalar
// fields take the first occurrence; list fields take all.
func parseMetadata(pkg *opfPackage) book.Metadata {
	first := func(vals []string) string {
		if len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
		return ""
	}
	all := func(vals []string) []string {
		var out []string
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	m := pkg.Metadata
	md := book.Metadata{
		Title:       first(m.Title),
		Language:    first(m.Language),
		Authors:     all(m.Creator),
		Description: first(m.Description),
		Publisher:   first(m.Publisher),
		Date:        first(m.Date),
		Identifiers: all(m.Identifier),
		Subjects:    all(m.Subject),
	}
	if md.Title == "" {
		md.Title = "Untitled"
	}
	if md.Language == "" {
		md.Language = "en"
	}
	return md
}

// joinPath resolves a manifest href against the OPF directory using
// container-style forward slashes.
func joinPath(base, rel string) string {
	if base == "" || base == "." {
		return path.Clean(rel)
	}
	return path.Clean(path.Join(base, rel))
}
