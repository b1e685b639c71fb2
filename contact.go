package main

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/store"
	"github.com/Zachkp/portfolio/internal/ui"
)

// fieldView is one form field with the counter it shows, if any.
type fieldView struct {
	contact.Field
	Counter *contact.Counter
}

func fieldViews(form contact.Form) []fieldView {
	out := make([]fieldView, 0, len(form.Fields))
	for _, f := range form.Fields {
		fv := fieldView{Field: f}
		if f.Kind == contact.KindTextarea {
			fv.Counter = form.Counter
		}
		out = append(out, fv)
	}
	return out
}

func findFieldView(form contact.Form, name string) (fieldView, bool) {
	for _, fv := range fieldViews(form) {
		if fv.Name == name {
			return fv, true
		}
	}
	return fieldView{}, false
}

func addForm(data gin.H, form contact.Form) {
	data["form"] = form
	data["fields"] = fieldViews(form)
	data["busyLabel"] = contact.BusyLabel
}

func postedPayload(c *gin.Context) contact.Payload {
	p := make(contact.Payload)
	for _, f := range contact.DefaultFields() {
		p[f.Name] = c.PostForm(f.Name)
	}
	return p
}

func (s *server) newContactForm(c *gin.Context) (*ui.Dispatcher, *contact.Controller) {
	logger := loggerFrom(c, s.logger)
	d := ui.NewDispatcher(logger)
	return d, contact.NewController(d, s.delivery, contact.WithLogger(logger))
}

// statusSwap scrolls a freshly shown status into view after the swap.
const statusSwap = "outerHTML show:.form-status:top"

func (s *server) renderForm(c *gin.Context, form contact.Form) {
	if isHTMX(c) {
		if form.Status.ScrollIntoView {
			c.Header("HX-Reswap", statusSwap)
		}
		data := gin.H{}
		addForm(data, form)
		c.HTML(http.StatusOK, "contact-form.html", data)
		return
	}
	data := pageData(c, "contact")
	addForm(data, form)
	c.HTML(http.StatusOK, "contact.html", data)
}

func (s *server) contactForm(c *gin.Context) {
	_, cc := s.newContactForm(c)
	s.renderForm(c, cc.Form())
}

// validateContactField validates one field as it loses focus and returns
// its fragment.
func (s *server) validateContactField(c *gin.Context) {
	name := c.Param("field")
	d, cc := s.newContactForm(c)
	p := postedPayload(c)
	cc.Load(p)

	if _, ok := cc.Form().Field(name); !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	d.Dispatch(ui.Event{Name: contact.EventBlur, Target: name, Value: p[name]})
	if err := d.RunUntilIdle(c.Request.Context()); err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	fv, _ := findFieldView(cc.Form(), name)
	c.HTML(http.StatusOK, "contact-field.html", fv)
}

// contactInput applies a keystroke. The browser already waited out the
// quiet period, so pending live checks run at once. A field with a counter
// gets its counter back, any other field its whole fragment.
func (s *server) contactInput(c *gin.Context) {
	name := c.Param("field")
	d, cc := s.newContactForm(c)
	p := postedPayload(c)
	cc.Load(p)

	if _, ok := cc.Form().Field(name); !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	d.Dispatch(ui.Event{Name: contact.EventInput, Target: name, Value: p[name]})
	d.Do(cc.Flush)
	if err := d.RunUntilIdle(c.Request.Context()); err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	fv, _ := findFieldView(cc.Form(), name)
	if fv.Counter != nil {
		c.HTML(http.StatusOK, "contact-counter.html", fv)
		return
	}
	c.HTML(http.StatusOK, "contact-field.html", fv)
}

// dismissStatus answers the success status's timed request; the status
// removes itself on any 200.
func (s *server) dismissStatus(c *gin.Context) {
	c.String(http.StatusOK, "")
}

// submitContact runs the full submit pipeline for a posted form and
// renders the resulting form state.
func (s *server) submitContact(c *gin.Context) {
	d, cc := s.newContactForm(c)
	cc.Load(postedPayload(c))

	d.Dispatch(ui.Event{Name: contact.EventSubmit, Context: c.Request.Context()})
	if err := d.RunUntilIdle(c.Request.Context()); err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	s.renderForm(c, cc.Form())
}

// apiContact accepts a JSON submission, stores it and notifies the owner.
func (s *server) apiContact(c *gin.Context) {
	logger := loggerFrom(c, s.logger)

	var p contact.Payload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}
	for k, v := range p {
		p[k] = strings.TrimSpace(v)
	}

	if errs := contact.ValidatePayload(contact.DefaultFields(), p); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "errors": errs})
		return
	}

	msg, err := s.store.SaveMessage(c.Request.Context(), store.Message{
		Name:    p["name"],
		Email:   p["email"],
		Subject: p["subject"],
		Body:    p["message"],
	})
	if err != nil {
		logger.Error("saving contact message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "could not save message"})
		return
	}

	if err := s.notifier.Notify(c.Request.Context(), msg); err != nil {
		if errors.Is(err, errSMTPNotConfigured) {
			logger.Debug("smtp not configured, message stored only", zap.String("message_id", msg.ID))
		} else {
			logger.Warn("contact notification failed", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": msg.ID})
}

// limiterIdle is how long a client's bucket survives without requests. A
// bucket idle this long has refilled, so dropping it loses nothing.
const limiterIdle = 10 * time.Minute

// clientLimiter hands out a token bucket per client address. Loopback
// callers are not limited; that is the site posting to its own API on
// behalf of a client already counted on /contact.
type clientLimiter struct {
	mu        sync.Mutex
	perMin    int
	clients   map[string]*limitedClient
	lastSweep time.Time
	now       func() time.Time
}

type limitedClient struct {
	lim  *rate.Limiter
	seen time.Time
}

func newClientLimiter(perMinute int) *clientLimiter {
	return &clientLimiter{
		perMin:  perMinute,
		clients: make(map[string]*limitedClient),
		now:     time.Now,
	}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= limiterIdle {
		l.sweep(now)
	}
	cl, ok := l.clients[key]
	if !ok {
		cl = &limitedClient{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.clients[key] = cl
	}
	cl.seen = now
	l.mu.Unlock()
	return cl.lim.AllowN(now, 1)
}

// sweep drops idle clients. Call with mu held.
func (l *clientLimiter) sweep(now time.Time) {
	for key, cl := range l.clients {
		if now.Sub(cl.seen) >= limiterIdle {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

func (l *clientLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if addr := net.ParseIP(ip); addr != nil && addr.IsLoopback() {
			c.Next()
			return
		}
		if !l.allow(ip) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many requests"})
			return
		}
		c.Next()
	}
}
