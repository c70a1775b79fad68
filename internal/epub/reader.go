// Package epub parses EPUB containers into the book model: package metadata,
// the physical spine, the navigation tree and embedded images.
package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reader provides access to the files of one EPUB container.
type Reader struct {
	zr      *zip.ReadCloser
	files   map[string]*zip.File
	opfPath string
}

var (
	ErrNotEPUB          = errors.New("not an EPUB container")
	ErrContainerMissing = errors.New("META-INF/container.xml not found")
	ErrRootfileMissing  = errors.New("no rootfile in container.xml")
)

// container.xml structure.
type containerXML struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// Open opens path as an EPUB container and locates the package document.
// A present-but-wrong mimetype file fails; a missing one is tolerated, since
// plenty of real EPUBs omit it.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r := &Reader{zr: zr, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		r.files[normalizePath(f.Name)] = f
	}

	if err := r.checkMimetype(); err != nil {
		zr.Close()
		return nil, err
	}
	if err := r.locateOPF(); err != nil {
		zr.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) Close() error { return r.zr.Close() }

// OPFPath returns the container-internal path of the package document.
func (r *Reader) OPFPath() string { return r.opfPath }

// Has reports whether the container holds a file at path.
func (r *Reader) Has(path string) bool {
	_, ok := r.files[normalizePath(path)]
	return ok
}

// ReadFile reads the contents of a file inside the container.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	f, ok := r.files[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("file not found in container: %s", path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (r *Reader) checkMimetype() error {
	if _, ok := r.files["mimetype"]; !ok {
		return nil
	}
	content, err := r.ReadFile("mimetype")
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(content)) != "application/epub+zip" {
		return ErrNotEPUB
	}
	return nil
}

func (r *Reader) locateOPF() error {
	content, err := r.ReadFile("META-INF/container.xml")
	if err != nil {
		return ErrContainerMissing
	}

	var c containerXML
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			r.opfPath = normalizePath(rf.FullPath)
			return nil
		}
	}
	if len(c.Rootfiles.Rootfile) > 0 {
		r.opfPath = normalizePath(c.Rootfiles.Rootfile[0].FullPath)
		return nil
	}
	return ErrRootfileMissing
}

// normalizePath strips a leading "./" so container paths compare cleanly.
func normalizePath(path string) string {
	return strings.TrimPrefix(path, "./")
}
