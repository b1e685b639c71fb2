package nav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/ui"
)

func TestBuildMarksActive(t *testing.T) {
	items := Build("projects")
	require.Len(t, items, len(Main))
	for _, it := range items {
		assert.Equal(t, it.Href == "#projects", it.Active, it.Href)
	}
	for _, it := range Build("") {
		assert.False(t, it.Active)
	}
}

func TestHeaderUpdate(t *testing.T) {
	var h Header
	h = h.Update(30)
	assert.False(t, h.Scrolled)
	assert.False(t, h.Hidden)

	h = h.Update(120)
	assert.True(t, h.Scrolled)
	assert.False(t, h.Hidden, "not past 200 yet")

	h = h.Update(400)
	assert.True(t, h.Hidden)

	h = h.Update(350)
	assert.False(t, h.Hidden, "scrolling up shows the header")
}

func TestActiveSection(t *testing.T) {
	sections := []Section{
		{ID: "about", Top: 0, Height: 600},
		{ID: "projects", Top: 600, Height: 800},
	}
	assert.Equal(t, "about", ActiveSection(sections, 0, 0))
	// 500 + 80 + 100 = 680
	assert.Equal(t, "projects", ActiveSection(sections, 500, 0))
	assert.Equal(t, "", ActiveSection(sections, 5000, 80))
}

func TestNextFocus(t *testing.T) {
	items := []string{"a", "b", "c"}

	next, ok := NextFocus(items, "c", false)
	assert.True(t, ok)
	assert.Equal(t, "a", next)

	next, ok = NextFocus(items, "a", true)
	assert.True(t, ok)
	assert.Equal(t, "c", next)

	_, ok = NextFocus(items, "b", false)
	assert.False(t, ok)

	_, ok = NextFocus(nil, "a", false)
	assert.False(t, ok)
}

func TestMenuAria(t *testing.T) {
	m := Menu{}
	assert.Equal(t, "false", m.AriaExpanded())
	assert.Equal(t, "true", m.AriaHidden())
	m.Open = true
	assert.Equal(t, "true", m.AriaExpanded())
	assert.Equal(t, "false", m.AriaHidden())
}

func TestControllerMenu(t *testing.T) {
	d := ui.NewDispatcher(nil)
	c := NewController(d)
	var focus []string
	d.On(EventFocus, func(ev ui.Event) { focus = append(focus, ev.Value) })
	run := func(ev ui.Event) {
		d.Dispatch(ev)
		require.NoError(t, d.RunUntilIdle(context.Background()))
	}

	run(ui.Event{Name: EventToggle})
	assert.True(t, c.Menu().Open)

	run(ui.Event{Name: EventKey, Key: "Tab", Target: "#contact"})
	assert.Equal(t, []string{"#about"}, focus)

	run(ui.Event{Name: EventKey, Key: "Escape"})
	assert.False(t, c.Menu().Open)
	assert.Equal(t, []string{"#about", "toggle"}, focus)

	// keys do nothing while closed
	run(ui.Event{Name: EventKey, Key: "Escape"})
	assert.Len(t, focus, 2)

	run(ui.Event{Name: EventToggle})
	run(ui.Event{Name: EventLinkClick})
	assert.False(t, c.Menu().Open)

	run(ui.Event{Name: EventToggle})
	run(ui.Event{Name: EventOutsideClick})
	assert.False(t, c.Menu().Open)
}

func TestControllerScroll(t *testing.T) {
	d := ui.NewDispatcher(nil)
	c := NewController(d)
	sections := []Section{{ID: "about", Top: 0, Height: 500}, {ID: "projects", Top: 500, Height: 500}}

	d.Dispatch(ui.Event{Name: EventScroll, Data: ScrollData{Y: 400, Sections: sections}})
	// throttled: the second update inside the window is dropped
	d.Dispatch(ui.Event{Name: EventScroll, Data: ScrollData{Y: 10, Sections: sections}})
	require.NoError(t, d.RunUntilIdle(context.Background()))

	assert.Equal(t, "projects", c.Active())
	assert.False(t, c.Header().Scrolled)
}

func TestControllerResume(t *testing.T) {
	d := ui.NewDispatcher(nil)
	c := NewController(d)
	c.Resume(900)

	d.Dispatch(ui.Event{Name: EventScroll, Data: ScrollData{Y: 600}})
	require.NoError(t, d.RunUntilIdle(context.Background()))
	assert.True(t, c.Header().Scrolled)
	assert.False(t, c.Header().Hidden, "scrolling up shows the header")
}

func TestIsAnchor(t *testing.T) {
	assert.True(t, IsAnchor("#about"))
	assert.False(t, IsAnchor("#"))
	assert.False(t, IsAnchor("/about"))
}
