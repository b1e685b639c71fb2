// Package catalog filters, searches and orders the project catalog.
package catalog

import (
	"strings"
	"time"
)

// Entry is one project in the catalog. Entries are read-only here; they
// come from the project feed and are only shown, hidden or reordered.
type Entry struct {
	Slug        string
	Title       string
	Description string
	Categories  []string // filter categories, e.g. "web", "cli"
	Tags        []string // technology tags shown on the card
	Date        time.Time
	Image       string
	URL         string
	Repo        string

	// folded plain text of Description, filled once when the entry enters
	// a Library
	plain    string
	hasPlain bool
}

// CategoryAttr returns the categories as one space-separated string.
func (e Entry) CategoryAttr() string {
	return strings.Join(e.Categories, " ")
}

// HasCategory reports whether the entry is tagged with category c.
func (e Entry) HasCategory(c string) bool {
	for _, cat := range e.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// searchText is the case-folded text searched by free-text queries. The
// description contributes its rendered text, not its markdown source.
func (e Entry) searchText() string {
	tags := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		tags[i] = Fold(t)
	}
	desc := e.plain
	if !e.hasPlain {
		desc = Fold(PlainText(e.Description))
	}
	return Fold(e.Title) + " " + desc + " " + strings.Join(tags, " ")
}

// Categories returns the distinct categories across entries in first-seen
// order, which is the order the filter controls are shown in.
func Categories(entries []Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		for _, c := range e.Categories {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
