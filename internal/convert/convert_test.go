package convert

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/shiomura/bookroom/internal/book"
	"github.com/shiomura/bookroom/internal/snapshot"
)

// writeTestEPUB creates a minimal two-chapter EPUB at dir/name.
func writeTestEPUB(t *testing.T, dir, name string) string {
	t.Helper()

	files := map[string]string{
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`,
		"content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Pipeline Test</dc:title>
    <dc:creator>Carol</dc:creator>
  </metadata>
  <manifest>
    <item id="c1" href="c1.html" media-type="application/xhtml+xml"/>
    <item id="c2" href="c2.html" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
    <itemref idref="c2"/>
  </spine>
</package>`,
		"c1.html": "<html><body><p>First.</p></body></html>",
		"c2.html": "<html><body><p>Second.</p></body></html>",
	}

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("application/epub+zip")); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	src := writeTestEPUB(t, dir, "My Book.epub")

	out, err := NewPipeline(Options{InputPath: src}).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := filepath.Join(dir, "My Book_data"); out != want {
		t.Errorf("Run() = %q, want %q", out, want)
	}

	b, err := snapshot.Load(out)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.Metadata.Title != "Pipeline Test" || len(b.Spine) != 2 {
		t.Errorf("loaded book = %+v", b)
	}
}

func TestPipelineRun_UnsupportedFormat(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(p, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewPipeline(Options{InputPath: p}).Run()
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Run() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestPipelineRun_ParseError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.epub")
	if err := os.WriteFile(p, []byte("definitely not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewPipeline(Options{InputPath: p}).Run()
	if !errors.Is(err, ErrParse) {
		t.Fatalf("Run() error = %v, want ErrParse", err)
	}
	// Aborted conversions leave no partial output.
	if _, statErr := os.Stat(filepath.Join(t.TempDir(), "broken_data")); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("partial snapshot written, stat err = %v", statErr)
	}
}

func TestPipelineRun_AlreadyExists(t *testing.T) {
	dir := t.TempDir()
	src := writeTestEPUB(t, dir, "dup.epub")

	if _, err := NewPipeline(Options{InputPath: src}).Run(); err != nil {
		t.Fatal(err)
	}
	_, err := NewPipeline(Options{InputPath: src}).Run()
	if !errors.Is(err, snapshot.ErrAlreadyExists) {
		t.Fatalf("Run() error = %v, want ErrAlreadyExists", err)
	}

	// Force replaces the snapshot.
	if _, err := NewPipeline(Options{InputPath: src, Force: true}).Run(); err != nil {
		t.Fatalf("forced Run() error = %v", err)
	}
}

func TestDefaultOutputDir(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"books/Clean Code.epub", filepath.Join("books", "Clean Code_data")},
		{"weird*name?.pdf", "weirdname_data"},
		{"???.epub", "book_data"},
	}
	for _, tt := range tests {
		if got := DefaultOutputDir(tt.in); got != tt.want {
			t.Errorf("DefaultOutputDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProcessAssets(t *testing.T) {
	wide := image.NewRGBA(image.Rect(0, 0, 100, 40))
	var buf bytes.Buffer
	if err := png.Encode(&buf, wide); err != nil {
		t.Fatal(err)
	}

	assets := []book.ImageAsset{
		{Name: "wide.png", Data: buf.Bytes()},
		{Name: "junk.bin", Data: []byte("not an image")},
	}

	out := processAssets(assets, 50)
	if len(out) != 2 {
		t.Fatalf("len = %d", len(out))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out[0].Data))
	if err != nil {
		t.Fatalf("decode resized: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 20 {
		t.Errorf("resized to %dx%d, want 50x20", cfg.Width, cfg.Height)
	}

	if !bytes.Equal(out[1].Data, assets[1].Data) {
		t.Errorf("non-image asset was modified")
	}

	// Width 0 disables the pass entirely.
	same := processAssets(assets, 0)
	if !bytes.Equal(same[0].Data, assets[0].Data) {
		t.Errorf("maxWidth 0 modified asset data")
	}
}
