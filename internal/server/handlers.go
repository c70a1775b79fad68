package server

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shiomura/bookroom/internal/book"
	"github.com/shiomura/bookroom/internal/snapshot"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"dict": templateDict,
}).ParseFS(templateFS, "templates/*.html"))

// templateDict builds a map from alternating key/value pairs so nested
// templates can be invoked with more than one argument.
func templateDict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}

// Handler holds the reader's route handlers.
type Handler struct {
	root  string
	cache *BookCache
}

// NewHandler creates a Handler serving snapshots under root.
func NewHandler(root string, cache *BookCache) *Handler {
	return &Handler{root: root, cache: cache}
}

type libraryItem struct {
	ID      string
	Title   string
	Authors string
}

// Library handles GET /: the list of readable books.
func (h *Handler) Library(w http.ResponseWriter, r *http.Request) {
	ids, err := snapshot.Scan(h.root)
	if err != nil {
		slog.Error("library scan failed", slog.String("root", h.root), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var items []libraryItem
	for _, id := range ids {
		b, err := h.cache.Get(id)
		if err != nil {
			// A broken snapshot hides the book, not the library.
			slog.Warn("skipping unreadable book", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		items = append(items, libraryItem{
			ID:      id,
			Title:   b.Metadata.Title,
			Authors: strings.Join(b.Metadata.Authors, ", "),
		})
	}

	h.render(w, "library.html", map[string]any{"Books": items})
}

// ReadBook handles GET /read/{bookID}: entry into a book starts at the
// first chapter.
func (h *Handler) ReadBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookID")
	if _, err := h.cache.Get(id); err != nil {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/read/%s/0", id), http.StatusFound)
}

type tocView struct {
	Title    string
	Index    int
	Linked   bool
	Current  bool
	Children []tocView
}

type readerView struct {
	BookID       string
	BookTitle    string
	Language     string
	ChapterTitle string
	Body         template.HTML
	TOC          []tocView
	Prev, Next   int
	HasPrev      bool
	HasNext      bool
}

// ReadChapter handles GET /read/{bookID}/{chapterIndex}.
func (h *Handler) ReadChapter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookID")
	b, err := h.cache.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	idx, err := strconv.Atoi(chi.URLParam(r, "chapterIndex"))
	if err != nil || idx < 0 || idx >= len(b.Spine) {
		http.NotFound(w, r)
		return
	}
	ch := b.Spine[idx]

	lang := b.Metadata.Language
	if lang == "" {
		lang = "en"
	}
	view := readerView{
		BookID:       id,
		BookTitle:    b.Metadata.Title,
		Language:     lang,
		ChapterTitle: ch.Title,
		Body:         template.HTML(ch.HTML),
		TOC:          tocViews(b.TOC, b.Spine, idx),
		Prev:         idx - 1,
		Next:         idx + 1,
		HasPrev:      idx > 0,
		HasNext:      idx+1 < len(b.Spine),
	}
	h.render(w, "reader.html", view)
}

// tocViews resolves TOC entries to spine indices for linking. Entries
// whose target is not in the spine stay visible as plain text.
func tocViews(entries []book.TOCEntry, spine []book.Chapter, current int) []tocView {
	views := make([]tocView, 0, len(entries))
	for _, e := range entries {
		v := tocView{Title: e.Title}
		if idx, ok := book.ResolveSpineIndex(e, spine); ok {
			v.Index = idx
			v.Linked = true
			v.Current = idx == current
		}
		if len(e.Children) > 0 {
			v.Children = tocViews(e.Children, spine, current)
		}
		views = append(views, v)
	}
	return views
}

// Image handles GET /read/{bookID}/images/{imageName}: raw image bytes
// extracted from the book. Only bare basenames inside the snapshot's
// images directory are reachable.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookID")
	if _, err := h.cache.Get(id); err != nil {
		http.NotFound(w, r)
		return
	}

	name := filepath.Base(chi.URLParam(r, "imageName"))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.root, id, "images", name))
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", slog.String("template", name), slog.String("error", err.Error()))
	}
}
