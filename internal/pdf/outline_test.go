package pdf

import (
	"fmt"
	"strings"
	"testing"
)

func pagesN(n int) []string {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf("text of page %d", i+1)
	}
	return pages
}

func TestSelectEntries_ChapterLevelWins(t *testing.T) {
	entries := []outlineEntry{
		{Level: 0, Title: "Part I", Page: 0},
		{Level: 1, Title: "Chapter 1", Page: 0},
		{Level: 1, Title: "Chapter 2", Page: 10},
		{Level: 0, Title: "Part II", Page: 20},
		{Level: 1, Title: "Chapter 3", Page: 20},
		{Level: 1, Title: "Chapter 4", Page: 30},
	}
	got := selectEntries(entries, 40, Options{})
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4 chapter entries: %+v", len(got), got)
	}
	if got[0].Title != "Chapter 1" || got[3].Title != "Chapter 4" {
		t.Errorf("entries = %+v", got)
	}
}

func TestSelectEntries_PartDominatedTopDemoted(t *testing.T) {
	entries := []outlineEntry{
		{Level: 0, Title: "Part One", Page: 0},
		{Level: 0, Title: "Part Two", Page: 50},
		{Level: 1, Title: "The Beginning", Page: 0},
		{Level: 1, Title: "The Middle", Page: 25},
		{Level: 1, Title: "The End", Page: 50},
	}
	got := selectEntries(entries, 100, Options{})
	if len(got) != 3 {
		t.Fatalf("len = %d, want the 3 depth-1 entries: %+v", len(got), got)
	}
	if got[1].Title != "The Middle" {
		t.Errorf("entries = %+v", got)
	}
}

func TestSelectEntries_FallbackToTopLevel(t *testing.T) {
	entries := []outlineEntry{
		{Level: 0, Title: "Introduction", Page: 0},
		{Level: 0, Title: "Getting Started", Page: 5},
		{Level: 0, Title: "Advanced Topics", Page: 15},
	}
	got := selectEntries(entries, 30, Options{})
	if len(got) != 3 || got[0].Title != "Introduction" {
		t.Errorf("entries = %+v, want all top-level entries", got)
	}
}

func TestSelectEntries_DedupeAndBounds(t *testing.T) {
	entries := []outlineEntry{
		{Level: 0, Title: "A", Page: 0},
		{Level: 0, Title: "A", Page: 0},  // exact duplicate
		{Level: 0, Title: "B", Page: 0},  // same page, collapsed
		{Level: 0, Title: "C", Page: 5},
		{Level: 0, Title: "", Page: 7},   // untitled, dropped
		{Level: 0, Title: "D", Page: 99}, // out of range
	}
	got := selectEntries(entries, 10, Options{})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Page != 0 || got[1].Title != "C" {
		t.Errorf("entries = %+v", got)
	}
}

func TestSelectEntries_Empty(t *testing.T) {
	if got := selectEntries(nil, 10, Options{}); got != nil {
		t.Errorf("selectEntries(nil) = %+v, want nil", got)
	}
}

func TestSegment(t *testing.T) {
	pages := pagesN(10)
	selected := []outlineEntry{
		{Title: "Chapter 1", Page: 0},
		{Title: "Chapter 2", Page: 4},
		{Title: "Chapter 3", Page: 7},
	}

	spine, toc := segment(selected, pages)
	if len(spine) != 3 || len(toc) != 3 {
		t.Fatalf("len(spine) = %d, len(toc) = %d, want 3 each", len(spine), len(toc))
	}

	// Chapter 2 spans pages 5..7 (0-based 4..6).
	ch2 := spine[1]
	if ch2.Index != 1 || ch2.Href != "chapter-2" || ch2.Title != "Chapter 2" {
		t.Errorf("ch2 = %+v", ch2)
	}
	for _, p := range []int{5, 6, 7} {
		if !strings.Contains(ch2.Text, fmt.Sprintf("page %d", p)) {
			t.Errorf("ch2 text missing page %d: %q", p, ch2.Text)
		}
	}
	if strings.Contains(ch2.Text, "page 8") {
		t.Errorf("ch2 leaked into next chapter: %q", ch2.Text)
	}

	// Last chapter runs to the end of the document.
	if !strings.Contains(spine[2].Text, "page 10") {
		t.Errorf("last chapter text = %q", spine[2].Text)
	}

	if toc[1].File != "chapter-2" || toc[1].Href != "chapter-2" {
		t.Errorf("toc[1] = %+v", toc[1])
	}
}

func TestSegment_MinimumOnePage(t *testing.T) {
	pages := pagesN(3)
	// Both entries on the same page after a malformed outline.
	selected := []outlineEntry{
		{Title: "A", Page: 2},
		{Title: "B", Page: 2},
	}
	spine, _ := segment(selected, pages)
	if len(spine) != 2 {
		t.Fatalf("len(spine) = %d, want 2", len(spine))
	}
	for _, ch := range spine {
		if ch.Text == "" {
			t.Errorf("chapter %q has empty text", ch.Title)
		}
	}
}

func TestPageFallback(t *testing.T) {
	pages := pagesN(4)
	spine, toc := pageFallback(pages)
	if len(spine) != 4 || len(toc) != 4 {
		t.Fatalf("len(spine) = %d, len(toc) = %d, want 4 each", len(spine), len(toc))
	}
	if spine[2].Href != "page-3" || spine[2].Title != "Page 3" || spine[2].Index != 2 {
		t.Errorf("spine[2] = %+v", spine[2])
	}
	if !strings.Contains(spine[2].HTML, "text of page 3") {
		t.Errorf("spine[2].HTML = %q", spine[2].HTML)
	}
	if toc[0].File != "page-1" {
		t.Errorf("toc[0] = %+v", toc[0])
	}
}

func TestOptionsThresholds(t *testing.T) {
	entries := []outlineEntry{
		{Level: 0, Title: "Chapter 1", Page: 0},
		{Level: 0, Title: "Chapter 2", Page: 5},
	}
	// Default MinLevelEntries of 3 rejects the level on signal, but it still
	// wins as the top-level fallback.
	got := selectEntries(entries, 10, Options{})
	if len(got) != 2 {
		t.Fatalf("default thresholds: len = %d, want 2", len(got))
	}
	// Lowering the thresholds lets the level win on chapter signal directly.
	got = selectEntries(entries, 10, Options{MinLevelEntries: 2, MinChapterSignal: 2})
	if len(got) != 2 {
		t.Fatalf("relaxed thresholds: len = %d, want 2", len(got))
	}
}
