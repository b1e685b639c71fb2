package contact

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/schedule"
	"github.com/Zachkp/portfolio/internal/ui"
)

// Events the form listens for.
const (
	EventBlur   = "contact:blur"
	EventInput  = "contact:input"
	EventSubmit = "contact:submit"
)

// Events the form emits so observers can follow its state.
const (
	EventControlChanged = "contact:control"
	EventStatusChanged  = "contact:status"
	EventSubmitted      = "contact:submitted"
)

// Status messages.
const (
	MsgCorrectErrors = "Please correct the errors above"
	MsgSent          = "Thank you! Your message has been sent successfully."
	MsgFailed        = "Sorry, there was an error sending your message. Please try again."
)

// Submit button labels.
const (
	SubmitLabel = "Send Message"
	BusyLabel   = "Sending..."
)

// StatusKind selects the styling of a status message.
type StatusKind string

const (
	StatusNone    StatusKind = ""
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the form-level message. It is announced assertively and
// scrolled into view whenever it is set. A success status carries how long
// it stays before it is dismissed.
type Status struct {
	Message        string
	Kind           StatusKind
	Role           string
	ScrollIntoView bool
	DismissAfter   time.Duration
}

// SubmitControl is the state of the submit button.
type SubmitControl struct {
	Disabled bool
	Loading  bool
	Label    string
}

// Form is a snapshot of everything the form renders.
type Form struct {
	Fields  []Field
	Counter *Counter
	Submit  SubmitControl
	Status  Status
}

// Field returns the named field and whether it exists.
func (f Form) Field(name string) (Field, bool) {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld, true
		}
	}
	return Field{}, false
}

// Option configures a Controller.
type Option func(*Controller)

// WithEmailDelay sets the quiet period before live email validation.
func WithEmailDelay(d time.Duration) Option {
	return func(c *Controller) { c.emailDelay = d }
}

// WithDismissAfter sets how long a success status stays visible.
func WithDismissAfter(d time.Duration) Option {
	return func(c *Controller) { c.dismissAfter = d }
}

// WithFields replaces the default field set.
func WithFields(fields []Field) Option {
	return func(c *Controller) { c.fields = fields }
}

// WithLogger sets the controller's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller owns the form state and reacts to events on a dispatcher.
// All state is touched only from the dispatcher's loop.
type Controller struct {
	d        *ui.Dispatcher
	delivery Delivery
	logger   *zap.Logger

	fields       []Field
	counter      *Counter
	submit       SubmitControl
	status       Status
	emailDelay   time.Duration
	dismissAfter time.Duration

	emailCheck    *schedule.Debouncer[string]
	cancelDismiss func() bool
}

// NewController builds the form and subscribes it to d.
func NewController(d *ui.Dispatcher, delivery Delivery, opts ...Option) *Controller {
	c := &Controller{
		d:            d,
		delivery:     delivery,
		logger:       zap.NewNop(),
		fields:       DefaultFields(),
		submit:       SubmitControl{Label: SubmitLabel},
		emailDelay:   500 * time.Millisecond,
		dismissAfter: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fields = append([]Field(nil), c.fields...)

	for _, f := range c.fields {
		if f.Kind == KindTextarea && f.Name == "message" {
			counter := NewCounter(f.MaxLength)
			c.counter = &counter
			break
		}
	}

	c.emailCheck = schedule.Debounce(c.emailDelay, func(v string) {
		d.Do(func() { c.checkEmail(v) })
	})

	d.On(EventBlur, c.onBlur)
	d.On(EventInput, c.onInput)
	d.On(EventSubmit, c.onSubmit)
	return c
}

// Form returns a copy of the current form state. Call it from the loop or
// after RunUntilIdle has returned.
func (c *Controller) Form() Form {
	f := Form{
		Fields: append([]Field(nil), c.fields...),
		Submit: c.submit,
		Status: c.status,
	}
	if c.counter != nil {
		counter := *c.counter
		f.Counter = &counter
	}
	return f
}

// Flush runs a pending live email check now instead of after its quiet
// period. Call it from the loop.
func (c *Controller) Flush() {
	c.emailCheck.Flush()
}

// Load sets field values without validating, as if restored from a post.
func (c *Controller) Load(p Payload) {
	for i := range c.fields {
		if v, ok := p[c.fields[i].Name]; ok {
			c.fields[i].Value = v
			if c.fields[i].Kind == KindTextarea && c.counter != nil {
				*c.counter = c.counter.Update(v)
			}
		}
	}
}

func (c *Controller) index(name string) int {
	for i, f := range c.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (c *Controller) onBlur(ev ui.Event) {
	i := c.index(ev.Target)
	if i < 0 {
		return
	}
	c.fields[i].Value = ev.Value
	c.validate(i)
}

func (c *Controller) onInput(ev ui.Event) {
	i := c.index(ev.Target)
	if i < 0 {
		return
	}
	f := &c.fields[i]
	f.Value = ev.Value

	// typing clears a shown error until the next validation
	if f.State == StateError {
		f.State = StateNone
		f.Error = ""
	}

	if f.Kind == KindEmail {
		c.emailCheck.Call(ev.Value)
	}
	if f.Kind == KindTextarea && c.counter != nil {
		*c.counter = c.counter.Update(ev.Value)
	}
}

func (c *Controller) checkEmail(value string) {
	i := -1
	for j, f := range c.fields {
		if f.Kind == KindEmail {
			i = j
			break
		}
	}
	if i < 0 {
		return
	}

	f := &c.fields[i]
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	if IsValidEmail(trimmed) {
		f.State = StateSuccess
		f.Error = ""
	} else {
		f.State = StateError
		f.Error = "Please enter a valid email address"
	}
}

func (c *Controller) validate(i int) bool {
	f, ok := Apply(c.fields[i])
	c.fields[i] = f
	return ok
}

func (c *Controller) payload() Payload {
	p := make(Payload, len(c.fields))
	for _, f := range c.fields {
		p[f.Name] = f.Trimmed()
	}
	return p
}

func (c *Controller) onSubmit(ev ui.Event) {
	if c.submit.Disabled {
		return
	}

	valid := true
	for i := range c.fields {
		if !c.validate(i) {
			valid = false
		}
	}
	if !valid {
		c.showStatus(MsgCorrectErrors, StatusError)
		return
	}

	c.setControl(SubmitControl{Disabled: true, Loading: true, Label: BusyLabel})

	ctx := ev.Ctx()
	p := c.payload()
	c.d.Async(func() func() {
		res, err := c.delivery.Submit(ctx, p)
		return func() { c.finish(res, err) }
	})
}

func (c *Controller) finish(res Result, err error) {
	// restore the control on every path
	defer c.setControl(SubmitControl{Label: SubmitLabel})

	if err != nil || !res.Success {
		c.logger.Warn("contact submission failed", zap.Error(err), zap.String("reason", string(res.Reason)))
		c.showStatus(MsgFailed, StatusError)
		c.d.Dispatch(ui.Event{Name: EventSubmitted, Data: res})
		return
	}

	c.showStatus(MsgSent, StatusSuccess)
	for i := range c.fields {
		c.fields[i].Value = ""
		c.fields[i].State = StateNone
		c.fields[i].Error = ""
	}
	if c.counter != nil {
		*c.counter = c.counter.Update("")
	}
	c.emailCheck.Cancel()
	c.d.Dispatch(ui.Event{Name: EventSubmitted, Data: res})
}

func (c *Controller) setControl(s SubmitControl) {
	c.submit = s
	state := "enabled"
	if s.Disabled {
		state = "disabled"
	}
	c.d.Dispatch(ui.Event{Name: EventControlChanged, Value: state, Data: s})
}

func (c *Controller) showStatus(msg string, kind StatusKind) {
	if c.cancelDismiss != nil {
		c.cancelDismiss()
		c.cancelDismiss = nil
	}
	c.status = Status{Message: msg, Kind: kind, Role: "alert", ScrollIntoView: true}
	if kind == StatusSuccess {
		c.status.DismissAfter = c.dismissAfter
	}
	c.d.Dispatch(ui.Event{Name: EventStatusChanged, Value: msg, Data: c.status})

	if kind == StatusSuccess {
		c.cancelDismiss = c.d.After(c.dismissAfter, func() {
			c.status = Status{}
			c.cancelDismiss = nil
			c.d.Dispatch(ui.Event{Name: EventStatusChanged, Data: c.status})
		})
	}
}
