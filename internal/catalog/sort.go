package catalog

import (
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the display order.
type SortKey string

const (
	SortNone     SortKey = ""
	SortTitle    SortKey = "title"
	SortDate     SortKey = "date"
	SortCategory SortKey = "category"
)

// DefaultDate stands in for entries without a date when sorting by date.
var DefaultDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseSortKey maps a query value to a key. Unknown values keep the order.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortTitle, SortDate, SortCategory:
		return SortKey(s)
	}
	return SortNone
}

// Sort returns a reordered copy of entries. Titles and categories compare
// with locale-aware collation; dates sort newest first.
func Sort(entries []Entry, key SortKey) []Entry {
	out := slices.Clone(entries)
	switch key {
	case SortTitle:
		col := collate.New(language.Und)
		slices.SortStableFunc(out, func(a, b Entry) int {
			return col.CompareString(a.Title, b.Title)
		})
	case SortDate:
		slices.SortStableFunc(out, func(a, b Entry) int {
			return sortDate(b).Compare(sortDate(a))
		})
	case SortCategory:
		col := collate.New(language.Und)
		slices.SortStableFunc(out, func(a, b Entry) int {
			return col.CompareString(a.CategoryAttr(), b.CategoryAttr())
		})
	}
	return out
}

func sortDate(e Entry) time.Time {
	if e.Date.IsZero() {
		return DefaultDate
	}
	return e.Date
}
