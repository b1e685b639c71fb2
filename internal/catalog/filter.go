package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// All is the category that matches every entry.
const All = "all"

// FilterState is the category and search term governing visibility.
type FilterState struct {
	Category string
	Search   string
}

// NewFilterState returns the initial state: every category, no search.
func NewFilterState() FilterState {
	return FilterState{Category: All}
}

// WithCategory returns s with the category replaced. Empty means All.
func (s FilterState) WithCategory(c string) FilterState {
	if c == "" {
		c = All
	}
	s.Category = c
	return s
}

// WithSearch returns s with the search term set from raw input.
func (s FilterState) WithSearch(raw string) FilterState {
	s.Search = strings.TrimSpace(Fold(raw))
	return s
}

// Fold case-folds s for caseless matching.
func Fold(s string) string {
	// a Caser keeps state, so one per call
	return cases.Fold().String(s)
}

// Matches reports whether e is visible under s.
func Matches(e Entry, s FilterState) bool {
	if s.Category != "" && s.Category != All && !e.HasCategory(s.Category) {
		return false
	}
	if s.Search == "" {
		return true
	}
	text := e.searchText()
	for _, tok := range strings.Fields(s.Search) {
		if !strings.Contains(text, tok) {
			return false
		}
	}
	return true
}

// View is the result of applying a FilterState to entries in display order.
type View struct {
	Entries []Entry
	Visible []bool
	Shown   int
	Total   int
	State   FilterState
}

// NoResults reports whether the no-results indicator should show.
func (v View) NoResults() bool {
	return v.Shown == 0
}

// Summary is the results count line.
func (v View) Summary() string {
	return fmt.Sprintf("Showing %d of %d projects", v.Shown, v.Total)
}

// VisibleEntries returns the visible entries in display order.
func (v View) VisibleEntries() []Entry {
	out := make([]Entry, 0, v.Shown)
	for i, e := range v.Entries {
		if v.Visible[i] {
			out = append(out, e)
		}
	}
	return out
}

// Apply computes visibility for every entry. It is a pure function of its
// inputs, so applying the same state twice yields the same view.
func Apply(entries []Entry, s FilterState) View {
	v := View{
		Entries: entries,
		Visible: make([]bool, len(entries)),
		Total:   len(entries),
		State:   s,
	}
	for i, e := range entries {
		if Matches(e, s) {
			v.Visible[i] = true
			v.Shown++
		}
	}
	return v
}

// MatchTagFilter finds the filter control a clicked tag activates: one whose
// id contains the tag text or is contained by it. Controls are tried in
// order and the last match wins.
func MatchTagFilter(filters []string, tag string) (string, bool) {
	tag = Fold(strings.TrimSpace(tag))
	if tag == "" {
		return "", false
	}
	match, ok := "", false
	for _, f := range filters {
		if f == "" {
			continue
		}
		if strings.Contains(tag, f) || strings.Contains(f, tag) {
			match, ok = f, true
		}
	}
	return match, ok
}
