package main

import (
	"embed"
	"html/template"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/catalog"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/nav"
	"github.com/Zachkp/portfolio/internal/particles"
	"github.com/Zachkp/portfolio/internal/store"
	"github.com/Zachkp/portfolio/internal/theme"
	"github.com/Zachkp/portfolio/internal/ui"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"markdown": catalog.RenderDescription,
	"join":     strings.Join,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2006")
	},
	"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"ms":       func(d time.Duration) int64 { return d.Milliseconds() },
	"filterURL": func(category, q, sort string) string {
		v := catalogQuery("", q, sort)
		v.Set("category", category)
		return "/projects?" + v.Encode()
	},
	"tagURL": func(tag, category, q, sort string) string {
		u := "/projects/tag/" + url.PathEscape(tag)
		if enc := catalogQuery(category, q, sort).Encode(); enc != "" {
			u += "?" + enc
		}
		return u
	},
}

// catalogQuery carries the catalog state a link should keep.
func catalogQuery(category, q, sort string) url.Values {
	v := url.Values{}
	if category != "" && category != catalog.All {
		v.Set("category", category)
	}
	if q != "" {
		v.Set("q", q)
	}
	if sort != "" {
		v.Set("sort", sort)
	}
	return v
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
}

// server holds everything the handlers share.
type server struct {
	logger   *zap.Logger
	store    *store.Store
	library  *catalog.Library
	delivery contact.Delivery
	notifier notifier
	limiter  *clientLimiter
	admin    *adminAuth

	// background visitor writes, waited for on close
	tracking sync.WaitGroup
}

func newServer(cfg Config, logger *zap.Logger, st *store.Store, lib *catalog.Library) *server {
	s := &server{
		logger:   logger,
		store:    st,
		library:  lib,
		notifier: newMailNotifier(cfg.SMTP, logger),
		limiter:  newClientLimiter(cfg.ContactRate),
		admin:    newAdminAuth(cfg.AdminUsername, cfg.AdminPassword, logger),
	}
	s.delivery = &contact.FallbackDelivery{
		Primary:  contact.NewHTTPDelivery(cfg.ContactEndpoint),
		Fallback: contact.NewSimulatedDelivery(),
		Logger:   logger,
	}
	return s
}

// wait blocks until background visitor writes have finished.
func (s *server) wait() {
	s.tracking.Wait()
}

func (s *server) routes() (*gin.Engine, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	// ClientIP keys rate limits and visitor hashes, so never read it from
	// forwarding headers
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, err
	}
	r.Use(requestLogger(s.logger), gin.Recovery())
	r.Use(s.visitorTrackingMiddleware())
	r.SetHTMLTemplate(tmpl)

	r.Static("/images", "./images")
	r.GET("/static/particles.svg", s.particlesSVG)

	r.GET("/", s.home)
	r.GET("/projects", s.projects)
	r.GET("/projects/tag/:tag", s.projectsByTag)
	r.POST("/theme", s.toggleTheme)
	r.POST("/nav/menu", s.navMenu)
	r.POST("/nav/scroll", s.navScroll)

	r.GET("/contact-form", s.contactForm)
	r.POST("/contact/validate/:field", s.validateContactField)
	r.POST("/contact/input/:field", s.contactInput)
	r.GET("/contact/status/dismiss", s.dismissStatus)
	r.POST("/contact", s.limiter.middleware(), s.submitContact)
	r.POST(contact.DefaultEndpoint, s.limiter.middleware(), s.apiContact)

	s.setupAdminRoutes(r)
	return r, nil
}

func currentTheme(c *gin.Context) theme.Theme {
	saved, _ := c.Cookie(theme.StorageKey)
	return theme.Resolve(saved, c.GetHeader("Sec-CH-Prefers-Color-Scheme") == "dark")
}

// pageData carries what every full page renders.
func pageData(c *gin.Context, section string) gin.H {
	return gin.H{
		"theme":  currentTheme(c),
		"nav":    nav.Build(section),
		"active": section,
		"menu":   nav.Menu{},
		"year":   time.Now().Year(),
	}
}

func (s *server) home(c *gin.Context) {
	cc, err := s.runCatalog(c)
	if err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	form := contact.NewController(ui.NewDispatcher(nil), s.delivery).Form()

	data := pageData(c, "about")
	data["about"] = AboutMe
	addCatalog(data, cc, "", "")
	addForm(data, form)
	c.HTML(http.StatusOK, "index.html", data)
}

// runCatalog replays events against a fresh catalog controller and waits
// for it to settle.
func (s *server) runCatalog(c *gin.Context, events ...ui.Event) (*catalog.Controller, error) {
	d := ui.NewDispatcher(loggerFrom(c, s.logger))
	cc := catalog.NewController(d, s.library.Entries(), catalog.DefaultSearchDelay)
	for _, ev := range events {
		d.Dispatch(ev)
	}
	if err := d.RunUntilIdle(c.Request.Context()); err != nil {
		return nil, err
	}
	return cc, nil
}

// addCatalog exposes the controller's state. q is the search box text as
// typed; the input echoes it rather than the folded term.
func addCatalog(data gin.H, cc *catalog.Controller, q, sort string) {
	data["view"] = cc.View()
	data["filters"] = cc.Filters()
	data["state"] = cc.State()
	data["q"] = q
	data["sort"] = sort
}

func (s *server) renderProjects(c *gin.Context, cc *catalog.Controller) {
	q, sort := c.Query("q"), c.Query("sort")
	if isHTMX(c) {
		data := gin.H{}
		addCatalog(data, cc, q, sort)
		c.HTML(http.StatusOK, "projects-grid.html", data)
		return
	}
	data := pageData(c, "projects")
	addCatalog(data, cc, q, sort)
	c.HTML(http.StatusOK, "projects.html", data)
}

// catalogEvents replays the sort, category and search carried in the query.
func catalogEvents(c *gin.Context) []ui.Event {
	var events []ui.Event
	if sort := c.Query("sort"); sort != "" {
		events = append(events, ui.Event{Name: catalog.EventSort, Value: sort})
	}
	if category := c.Query("category"); category != "" {
		events = append(events, ui.Event{Name: catalog.EventFilter, Value: category})
	}
	if q, ok := c.GetQuery("q"); ok {
		events = append(events, ui.Event{Name: catalog.EventSearchSubmit, Value: q})
	}
	return events
}

func (s *server) projects(c *gin.Context) {
	cc, err := s.runCatalog(c, catalogEvents(c)...)
	if err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	s.renderProjects(c, cc)
}

// projectsByTag restores the state the link was built from, then applies
// the tag click on top of it.
func (s *server) projectsByTag(c *gin.Context) {
	events := append(catalogEvents(c), ui.Event{Name: catalog.EventTagClick, Value: c.Param("tag")})
	cc, err := s.runCatalog(c, events...)
	if err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	s.renderProjects(c, cc)
}

func (s *server) toggleTheme(c *gin.Context) {
	next := currentTheme(c).Toggle()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(theme.StorageKey, string(next), 365*24*3600, "/", "", false, false)

	if isHTMX(c) {
		c.HTML(http.StatusOK, "theme-toggle.html", gin.H{"theme": next})
		return
	}
	back := c.GetHeader("Referer")
	if back == "" {
		back = "/"
	}
	c.Redirect(http.StatusSeeOther, back)
}

// navMenu drives the mobile menu without client script. The posted "open"
// is the current state and "action" what the user did.
func (s *server) navMenu(c *gin.Context) {
	d := ui.NewDispatcher(loggerFrom(c, s.logger))
	nc := nav.NewController(d)
	var focus string
	d.On(nav.EventFocus, func(ev ui.Event) { focus = ev.Value })
	if c.PostForm("open") == "true" {
		d.Dispatch(ui.Event{Name: nav.EventToggle})
	}

	switch c.PostForm("action") {
	case "toggle":
		d.Dispatch(ui.Event{Name: nav.EventToggle})
	case "escape":
		d.Dispatch(ui.Event{Name: nav.EventKey, Key: "Escape"})
	case "tab":
		d.Dispatch(ui.Event{
			Name:   nav.EventKey,
			Key:    "Tab",
			Target: c.PostForm("target"),
			Shift:  c.PostForm("shift") == "true",
		})
	case "link":
		d.Dispatch(ui.Event{Name: nav.EventLinkClick})
	case "outside":
		d.Dispatch(ui.Event{Name: nav.EventOutsideClick})
	}
	if err := d.RunUntilIdle(c.Request.Context()); err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	section := c.PostForm("section")
	c.HTML(http.StatusOK, "nav-menu.html", gin.H{
		"nav":    nav.Build(section),
		"active": section,
		"menu":   nc.Menu(),
		"focus":  focus,
	})
}

// navScroll marks the section being read and the header's scroll state.
// The client throttles these posts; last_y is the position of the previous
// one.
func (s *server) navScroll(c *gin.Context) {
	d := ui.NewDispatcher(loggerFrom(c, s.logger))
	nc := nav.NewController(d)
	if c.PostForm("open") == "true" {
		d.Dispatch(ui.Event{Name: nav.EventToggle})
	}
	nc.Resume(formFloat(c, "last_y"))

	y := formFloat(c, "y")
	d.Dispatch(ui.Event{Name: nav.EventScroll, Data: nav.ScrollData{
		Y:            y,
		HeaderHeight: formFloat(c, "header_height"),
		Sections:     parseSections(c.PostForm("sections")),
	}})
	if err := d.RunUntilIdle(c.Request.Context()); err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	active := nc.Active()
	c.HTML(http.StatusOK, "nav-menu.html", gin.H{
		"nav":     nav.Build(active),
		"active":  active,
		"menu":    nc.Menu(),
		"header":  nc.Header(),
		"scrollY": y,
	})
}

func formFloat(c *gin.Context, key string) float64 {
	v, _ := strconv.ParseFloat(c.PostForm(key), 64)
	return v
}

// parseSections reads "id:top:height" triples separated by commas.
// Malformed triples are skipped.
func parseSections(raw string) []nav.Section {
	var out []nav.Section
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Split(part, ":")
		if len(fields) != 3 || fields[0] == "" {
			continue
		}
		top, err1 := strconv.ParseFloat(fields[1], 64)
		height, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, nav.Section{ID: fields[0], Top: top, Height: height})
	}
	return out
}

const (
	defaultCanvasWidth  = 1280
	defaultCanvasHeight = 720
	maxCanvasSide       = 3840
	maxFrame            = 600
)

func dimension(c *gin.Context, key string, def float64) float64 {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return min(v, maxCanvasSide)
}

// particlesSVG renders one frame of the backdrop sized to the viewport.
// The same seed always starts from the same field, so a client can walk an
// animation by asking for successive frames.
func (s *server) particlesSVG(c *gin.Context) {
	w := dimension(c, "w", defaultCanvasWidth)
	h := dimension(c, "h", defaultCanvasHeight)

	field := &particles.Field{Width: w, Height: h}
	if c.GetHeader("Sec-CH-Prefers-Reduced-Motion") != "reduce" {
		seed, err := strconv.ParseUint(c.Query("seed"), 10, 64)
		if err != nil {
			seed = uint64(time.Now().UnixNano())
		}
		field = particles.New(w, h, rand.New(rand.NewPCG(seed, seed>>17)))

		frame, _ := strconv.Atoi(c.Query("frame"))
		for range min(max(frame, 0), maxFrame) {
			field.Step()
		}
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", []byte(field.SVG(currentTheme(c).ParticleColor())))
}
