package pdf

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/shiomura/bookroom/internal/book"
	"github.com/shiomura/bookroom/internal/sanitize"
)

var (
	defaultChapterPattern = regexp.MustCompile(`(?i)\b(chapter|chap\.|prologue|epilogue|appendix)\b`)
	defaultPartPattern    = regexp.MustCompile(`(?i)\b(part|book|section)\b`)
)

// Options tunes the outline segmentation heuristic. The zero value uses the
// defaults; the thresholds exist because "chapter-like" is a judgment call
// that varies across publishers.
type Options struct {
	// ChapterPattern matches titles that look chapter-granular.
	ChapterPattern *regexp.Regexp
	// PartPattern matches purely structural titles (parts, books, sections)
	// that should be demoted when finer entries exist.
	PartPattern *regexp.Regexp
	// MinLevelEntries is the minimum entry count for an outline depth to be
	// considered as the segmentation level (default 3).
	MinLevelEntries int
	// MinChapterSignal is the minimum number of chapter-like titles a depth
	// needs to win on signal alone (default 3).
	MinChapterSignal int
}

func (o Options) withDefaults() Options {
	if o.ChapterPattern == nil {
		o.ChapterPattern = defaultChapterPattern
	}
	if o.PartPattern == nil {
		o.PartPattern = defaultPartPattern
	}
	if o.MinLevelEntries <= 0 {
		o.MinLevelEntries = 3
	}
	if o.MinChapterSignal <= 0 {
		o.MinChapterSignal = 3
	}
	return o
}

// outlineEntry is one bookmark with a 0-based start page.
type outlineEntry struct {
	Level int
	Title string
	Page  int
}

// selectEntries picks the outline depth most likely to represent
// chapter-level segmentation and returns its entries sorted by page.
// Returns nil when the outline carries no usable entries.
func selectEntries(entries []outlineEntry, pageCount int, opts Options) []outlineEntry {
	opts = opts.withDefaults()

	byLevel := make(map[int][]outlineEntry)
	for _, e := range entries {
		if e.Title == "" || e.Page < 0 || e.Page >= pageCount {
			continue
		}
		byLevel[e.Level] = append(byLevel[e.Level], e)
	}
	if len(byLevel) == 0 {
		return nil
	}
	for level, list := range byLevel {
		byLevel[level] = dedupeByPage(list)
	}

	// A top level dominated by Part/Book/Section titles is structural noise;
	// prefer one level deeper when it exists.
	if top := byLevel[0]; len(top) > 0 {
		partLike := 0
		for _, e := range top {
			if opts.PartPattern.MatchString(e.Title) {
				partLike++
			}
		}
		threshold := len(top) / 2
		if threshold < 2 {
			threshold = 2
		}
		if partLike >= threshold && len(byLevel[1]) > 0 {
			return byLevel[1]
		}
	}

	// Prefer the depth with the strongest chapter-like signal.
	bestLevel, bestCount, bestRatio, bestLen := -1, 0, 0.0, 0
	for level, list := range byLevel {
		if len(list) < opts.MinLevelEntries {
			continue
		}
		count := 0
		for _, e := range list {
			if opts.ChapterPattern.MatchString(e.Title) {
				count++
			}
		}
		ratio := float64(count) / float64(len(list))
		if bestLevel < 0 || count > bestCount ||
			(count == bestCount && ratio > bestRatio) ||
			(count == bestCount && ratio == bestRatio && len(list) > bestLen) ||
			(count == bestCount && ratio == bestRatio && len(list) == bestLen && level < bestLevel) {
			bestLevel, bestCount, bestRatio, bestLen = level, count, ratio, len(list)
		}
	}
	if bestLevel >= 0 && bestCount >= opts.MinChapterSignal {
		return byLevel[bestLevel]
	}

	// Fall back to the top level, then the shallowest populated one.
	if len(byLevel[0]) > 0 {
		return byLevel[0]
	}
	shallowest := -1
	for level := range byLevel {
		if shallowest < 0 || level < shallowest {
			shallowest = level
		}
	}
	return byLevel[shallowest]
}

// dedupeByPage removes duplicate (title, page) pairs, sorts by page, and
// keeps one entry per page.
func dedupeByPage(entries []outlineEntry) []outlineEntry {
	type key struct {
		title string
		page  int
	}
	uniq := make(map[key]outlineEntry, len(entries))
	for _, e := range entries {
		uniq[key{e.Title, e.Page}] = e
	}

	sorted := make([]outlineEntry, 0, len(uniq))
	for _, e := range uniq {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Page != sorted[j].Page {
			return sorted[i].Page < sorted[j].Page
		}
		return sorted[i].Title < sorted[j].Title
	})

	out := sorted[:0]
	seenPage := -1
	for _, e := range sorted {
		if e.Page == seenPage {
			continue
		}
		seenPage = e.Page
		out = append(out, e)
	}
	return out
}

// segment turns the selected outline entries into chapters: each entry spans
// from its start page to the next entry's start page (at least one page).
// The TOC mirrors the chapters one-to-one.
func segment(selected []outlineEntry, pages []string) ([]book.Chapter, []book.TOCEntry) {
	starts := make([]int, 0, len(selected)+1)
	for _, e := range selected {
		starts = append(starts, e.Page)
	}
	starts = append(starts, len(pages))

	var spine []book.Chapter
	var toc []book.TOCEntry
	for i, e := range selected {
		start := starts[i]
		if start >= len(pages) {
			continue
		}
		end := starts[i+1]
		if end > len(pages) {
			end = len(pages)
		}
		if end < start+1 {
			end = start + 1
		}

		var joined string
		for p := start; p < end; p++ {
			if joined != "" {
				joined += "\n\n"
			}
			joined += pages[p]
		}

		href := fmt.Sprintf("chapter-%d", len(spine)+1)
		title := e.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", len(spine)+1)
		}
		spine = append(spine, book.Chapter{
			Index: len(spine),
			Href:  href,
			Title: title,
			HTML:  sanitize.TextToHTML(joined),
			Text:  collapseSpaces(joined),
		})
		toc = append(toc, book.TOCEntry{Title: title, Href: href, File: href})
	}
	return spine, toc
}

// pageFallback produces one chapter per physical page with a flat TOC, for
// documents without a usable outline.
func pageFallback(pages []string) ([]book.Chapter, []book.TOCEntry) {
	spine := make([]book.Chapter, 0, len(pages))
	toc := make([]book.TOCEntry, 0, len(pages))
	for i, text := range pages {
		href := fmt.Sprintf("page-%d", i+1)
		title := fmt.Sprintf("Page %d", i+1)
		spine = append(spine, book.Chapter{
			Index: i,
			Href:  href,
			Title: title,
			HTML:  sanitize.TextToHTML(text),
			Text:  collapseSpaces(text),
		})
		toc = append(toc, book.TOCEntry{Title: title, Href: href, File: href})
	}
	return spine, toc
}
