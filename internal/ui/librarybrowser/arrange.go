package librarybrowser

import (
	"cmp"
	"slices"
	"strings"

	"github.com/llehouerou/shelf/internal/abs"
)

// SortMode orders the books of the library view.
type SortMode int

const (
	SortNewlyAdded SortMode = iota // most recently added first
	SortAuthor                     // author, then title
	SortTitle                      // title, then author
)

func (s SortMode) String() string {
	switch s {
	case SortNewlyAdded:
		return "newly added"
	case SortAuthor:
		return "author"
	case SortTitle:
		return "title"
	default:
		return "unknown"
	}
}

// Next returns the mode after s, wrapping around.
func (s SortMode) Next() SortMode {
	return (s + 1) % (SortTitle + 1)
}

// Dedupe drops repeated item IDs, keeping the first occurrence.
func Dedupe(items []abs.LibraryItem) []abs.LibraryItem {
	seen := make(map[string]bool, len(items))
	out := make([]abs.LibraryItem, 0, len(items))
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}

// Arrange returns the items matching query, ordered by mode. Matching is a
// case-insensitive substring test on title and author. items is not modified.
func Arrange(items []abs.LibraryItem, mode SortMode, query string) []abs.LibraryItem {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]abs.LibraryItem, 0, len(items))
	for _, it := range items {
		if query == "" || matches(it, query) {
			out = append(out, it)
		}
	}

	switch mode {
	case SortNewlyAdded:
		slices.SortStableFunc(out, func(a, b abs.LibraryItem) int {
			return cmp.Compare(b.AddedAt, a.AddedAt)
		})
	case SortAuthor:
		slices.SortStableFunc(out, func(a, b abs.LibraryItem) int {
			return cmp.Or(
				cmp.Compare(strings.ToLower(a.SortAuthor()), strings.ToLower(b.SortAuthor())),
				cmp.Compare(strings.ToLower(a.Title()), strings.ToLower(b.Title())),
			)
		})
	case SortTitle:
		slices.SortStableFunc(out, func(a, b abs.LibraryItem) int {
			return cmp.Or(
				cmp.Compare(strings.ToLower(a.Title()), strings.ToLower(b.Title())),
				cmp.Compare(strings.ToLower(a.SortAuthor()), strings.ToLower(b.SortAuthor())),
			)
		})
	}
	return out
}

func matches(it abs.LibraryItem, query string) bool {
	return strings.Contains(strings.ToLower(it.Title()), query) ||
		strings.Contains(strings.ToLower(it.SortAuthor()), query) ||
		strings.Contains(strings.ToLower(it.Author()), query)
}

// ChapterProgress is how far the listener got through a chapter.
type ChapterProgress int

const (
	ChapterUnreached ChapterProgress = iota
	ChapterCurrent
	ChapterFinished
)

// ProgressOf places a chapter relative to the stored listening position.
// A finished book has every chapter finished.
func ProgressOf(ch abs.Chapter, position float64, bookFinished bool) ChapterProgress {
	switch {
	case bookFinished || position >= ch.End:
		return ChapterFinished
	case position < ch.Start:
		return ChapterUnreached
	default:
		return ChapterCurrent
	}
}
