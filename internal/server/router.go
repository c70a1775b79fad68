package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router with all reader routes mounted.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", h.Library)
	r.Get("/read/{bookID}", h.ReadBook)
	r.Get("/read/{bookID}/images/{imageName}", h.Image)
	r.Get("/read/{bookID}/{chapterIndex}", h.ReadChapter)

	return r
}
