// Package nav models the site navigation: the active section, the mobile
// menu and the scroll-aware header.
package nav

import (
	"strings"
	"time"

	"github.com/Zachkp/portfolio/internal/schedule"
	"github.com/Zachkp/portfolio/internal/ui"
)

// Item is a top-level navigation link.
type Item struct {
	Href  string // "/" or an in-page anchor like "#about"
	Label string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href   string
	Label  string
	Active bool
}

// Main is the primary navigation.
var Main = []Item{
	{Href: "#about", Label: "About"},
	{Href: "#projects", Label: "Projects"},
	{Href: "#experience", Label: "Experience"},
	{Href: "#contact", Label: "Contact"},
}

// Build renders navigation items, marking the one for section active.
func Build(section string) []RenderedItem {
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:   it.Href,
			Label:  it.Label,
			Active: section != "" && it.Href == "#"+section,
		})
	}
	return items
}

// Menu is the mobile menu toggle state.
type Menu struct {
	Open bool
}

// AriaExpanded is the toggle button's aria-expanded value.
func (m Menu) AriaExpanded() string {
	if m.Open {
		return "true"
	}
	return "false"
}

// AriaHidden is the menu's aria-hidden value.
func (m Menu) AriaHidden() string {
	if m.Open {
		return "false"
	}
	return "true"
}

// Header is the sticky header's scroll-driven state.
type Header struct {
	Scrolled bool
	Hidden   bool
	lastY    float64
}

const (
	scrolledAfter = 50
	hideAfter     = 200
)

// Update moves the header to scroll position y. It hides while scrolling
// down past 200px and shows again on any upward scroll.
func (h Header) Update(y float64) Header {
	h.Scrolled = y > scrolledAfter
	h.Hidden = y > h.lastY && y > hideAfter
	h.lastY = y
	return h
}

// Section is a page section's vertical extent.
type Section struct {
	ID     string
	Top    float64
	Height float64
}

// DefaultHeaderHeight is used when the header height is unknown.
const DefaultHeaderHeight = 80

// ActiveSection returns the id of the section under the reading line, which
// sits 100px below the header. It returns "" when none contains it.
func ActiveSection(sections []Section, scrollY, headerHeight float64) string {
	if headerHeight <= 0 {
		headerHeight = DefaultHeaderHeight
	}
	pos := scrollY + headerHeight + 100
	current := ""
	for _, s := range sections {
		if pos >= s.Top && pos < s.Top+s.Height {
			current = s.ID
		}
	}
	return current
}

// NextFocus keeps Tab inside an open menu: from the last item Tab wraps to
// the first, from the first Shift+Tab wraps to the last. ok is false when
// the browser's default focus move should happen.
func NextFocus(items []string, current string, shift bool) (next string, ok bool) {
	if len(items) == 0 {
		return "", false
	}
	first, last := items[0], items[len(items)-1]
	if shift && current == first {
		return last, true
	}
	if !shift && current == last {
		return first, true
	}
	return "", false
}

// Events the navigation listens for.
const (
	EventToggle       = "nav:toggle"
	EventLinkClick    = "nav:link"
	EventOutsideClick = "nav:outside"
	EventKey          = "nav:key" // Key, Shift, Target: focused item
	EventScroll       = "nav:scroll"
)

// EventFocus is emitted with the item to focus in Value.
const EventFocus = "nav:focus"

// ScrollData is carried by EventScroll.
type ScrollData struct {
	Y            float64
	HeaderHeight float64
	Sections     []Section
}

// Controller drives the menu and header from events.
type Controller struct {
	d        *ui.Dispatcher
	menu     Menu
	header   Header
	active   string
	items    []string
	activity *schedule.Throttler[ScrollData]
}

// NewController subscribes navigation handlers to d. Active-section
// tracking is throttled to once per 100ms.
func NewController(d *ui.Dispatcher) *Controller {
	c := &Controller{d: d}
	for _, it := range Main {
		c.items = append(c.items, it.Href)
	}
	c.activity = schedule.Throttle(100*time.Millisecond, func(s ScrollData) {
		c.active = ActiveSection(s.Sections, s.Y, s.HeaderHeight)
	})

	d.On(EventToggle, func(ui.Event) { c.menu.Open = !c.menu.Open })
	d.On(EventLinkClick, func(ui.Event) { c.menu.Open = false })
	d.On(EventOutsideClick, func(ui.Event) { c.menu.Open = false })
	d.On(EventKey, c.onKey)
	d.On(EventScroll, func(ev ui.Event) {
		s, ok := ev.Data.(ScrollData)
		if !ok {
			return
		}
		c.header = c.header.Update(s.Y)
		c.activity.Call(s)
	})
	return c
}

func (c *Controller) onKey(ev ui.Event) {
	if !c.menu.Open {
		return
	}
	switch ev.Key {
	case "Escape":
		c.menu.Open = false
		c.d.Dispatch(ui.Event{Name: EventFocus, Value: "toggle"})
	case "Tab":
		if next, ok := NextFocus(c.items, ev.Target, ev.Shift); ok {
			c.d.Dispatch(ui.Event{Name: EventFocus, Value: next})
		}
	}
}

// Menu returns the menu state.
func (c *Controller) Menu() Menu { return c.menu }

// Resume seeds the header with a scroll position seen before this
// controller existed, so the next scroll knows its direction.
func (c *Controller) Resume(y float64) {
	c.header = c.header.Update(y)
}

// Header returns the header state.
func (c *Controller) Header() Header { return c.header }

// Active returns the active section id.
func (c *Controller) Active() string { return c.active }

// IsAnchor reports whether href points into the current page.
func IsAnchor(href string) bool {
	return strings.HasPrefix(href, "#") && len(href) > 1
}
