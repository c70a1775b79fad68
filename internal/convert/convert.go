// Package convert orchestrates the batch conversion of a source document
// into a persisted snapshot: format dispatch, parsing, the image asset pass,
// and the all-or-nothing save.
package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shiomura/bookroom/internal/book"
	"github.com/shiomura/bookroom/internal/epub"
	"github.com/shiomura/bookroom/internal/pdf"
	"github.com/shiomura/bookroom/internal/snapshot"
)

var (
	// ErrUnsupportedFormat marks a source file whose extension is not a
	// supported format; the user must convert it manually first.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrParse marks a malformed source container. Nothing is written.
	ErrParse = errors.New("parse error")
)

// Parser produces a Book (plus extracted image assets) from a source file.
// The set of implementations is closed: one per supported format.
type Parser interface {
	Parse(path string) (*book.Book, []book.ImageAsset, error)
}

// Options holds conversion options.
type Options struct {
	InputPath     string
	OutputDir     string // default: {stem}_data next to the input
	Force         bool   // overwrite an existing snapshot
	MaxImageWidth int    // downscale wider extracted images; 0 keeps originals
	PDF           pdf.Options
}

// Pipeline runs one conversion start to finish.
type Pipeline struct {
	Options Options
}

// NewPipeline creates a conversion pipeline.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{Options: opts}
}

// Run converts the input file and persists the snapshot, returning the
// snapshot directory. Either the full Book is produced and persisted, or
// nothing is written.
func (p *Pipeline) Run() (string, error) {
	parser, err := parserFor(p.Options)
	if err != nil {
		return "", err
	}

	b, assets, err := parser.Parse(p.Options.InputPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	assets = processAssets(assets, p.Options.MaxImageWidth)

	dir := p.Options.OutputDir
	if dir == "" {
		dir = DefaultOutputDir(p.Options.InputPath)
	}
	if err := snapshot.Save(b, assets, dir, p.Options.Force); err != nil {
		return "", err
	}
	return dir, nil
}

// parserFor selects the format parser by file extension.
func parserFor(opts Options) (Parser, error) {
	switch strings.ToLower(filepath.Ext(opts.InputPath)) {
	case ".epub":
		return epub.Parser{}, nil
	case ".pdf":
		return pdf.Parser{Options: opts.PDF}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: .epub, .pdf)", ErrUnsupportedFormat, filepath.Base(opts.InputPath))
	}
}

// DefaultOutputDir derives the snapshot directory from the source filename:
// the filesystem-safe stem plus the library suffix, next to the source.
func DefaultOutputDir(inputPath string) string {
	base := filepath.Base(inputPath)
	stem := book.SafeName(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "book"
	}
	return filepath.Join(filepath.Dir(inputPath), stem+snapshot.DirSuffix)
}
