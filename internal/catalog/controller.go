package catalog

import (
	"time"

	"github.com/Zachkp/portfolio/internal/schedule"
	"github.com/Zachkp/portfolio/internal/ui"
)

// Events the catalog listens for.
const (
	EventFilter       = "catalog:filter"        // Value: category
	EventSearchInput  = "catalog:search-input"  // Value: raw input, debounced
	EventSearchSubmit = "catalog:search-submit" // Value: raw input, immediate
	EventReset        = "catalog:reset"
	EventTagClick     = "catalog:tag"  // Value: tag text
	EventSort         = "catalog:sort" // Value: sort key
)

// EventApplied is emitted after every recomputation with the View as Data.
const EventApplied = "catalog:applied"

// DefaultSearchDelay is the quiet period before a typed search applies.
const DefaultSearchDelay = 300 * time.Millisecond

// Controller owns the FilterState and display order for one page view.
type Controller struct {
	d       *ui.Dispatcher
	order   []Entry
	filters []string
	state   FilterState
	view    View
	search  *schedule.Debouncer[string]
}

// NewController subscribes a catalog over entries to d and applies the
// initial state.
func NewController(d *ui.Dispatcher, entries []Entry, searchDelay time.Duration) *Controller {
	if searchDelay <= 0 {
		searchDelay = DefaultSearchDelay
	}
	c := &Controller{
		d:       d,
		order:   append([]Entry(nil), entries...),
		filters: append([]string{All}, Categories(entries)...),
		state:   NewFilterState(),
	}
	c.search = schedule.Debounce(searchDelay, func(raw string) {
		d.Do(func() { c.setSearch(raw) })
	})

	d.On(EventFilter, func(ev ui.Event) { c.setFilter(ev.Value) })
	d.On(EventSearchInput, func(ev ui.Event) { c.search.Call(ev.Value) })
	d.On(EventSearchSubmit, func(ev ui.Event) {
		// a submit applies now whatever the debounce was holding
		c.search.Call(ev.Value)
		c.search.Flush()
	})
	d.On(EventReset, func(ui.Event) { c.reset() })
	d.On(EventTagClick, func(ev ui.Event) { c.tagClick(ev.Value) })
	d.On(EventSort, func(ev ui.Event) { c.sort(ParseSortKey(ev.Value)) })

	c.apply()
	return c
}

// View returns the last computed view.
func (c *Controller) View() View { return c.view }

// State returns the current filter state.
func (c *Controller) State() FilterState { return c.state }

// Filters returns the filter control ids, All first.
func (c *Controller) Filters() []string { return append([]string(nil), c.filters...) }

func (c *Controller) setFilter(category string) {
	c.state = c.state.WithCategory(category)
	c.apply()
}

func (c *Controller) setSearch(raw string) {
	c.state = c.state.WithSearch(raw)
	c.apply()
}

func (c *Controller) reset() {
	c.search.Cancel()
	c.state = NewFilterState()
	c.apply()
}

func (c *Controller) tagClick(tag string) {
	if f, ok := MatchTagFilter(c.filters, tag); ok {
		c.setFilter(f)
	}
}

func (c *Controller) sort(key SortKey) {
	if key == SortNone {
		return
	}
	c.order = Sort(c.order, key)
	c.apply()
}

func (c *Controller) apply() {
	c.view = Apply(c.order, c.state)
	c.d.Dispatch(ui.Event{Name: EventApplied, Data: c.view})
}
