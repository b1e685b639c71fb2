package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/ui"
)

type fakeDelivery struct {
	mu    sync.Mutex
	calls []Payload
	res   Result
	err   error
}

func (f *fakeDelivery) Submit(_ context.Context, p Payload) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	return f.res, f.err
}

func (f *fakeDelivery) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func validPayload() Payload {
	return Payload{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"subject": "Hello",
		"message": "  I would like to talk about a project.  ",
	}
}

func newForm(t *testing.T, delivery Delivery) (*ui.Dispatcher, *Controller, *[]string) {
	t.Helper()
	d := ui.NewDispatcher(nil)
	c := NewController(d, delivery, WithEmailDelay(80*time.Millisecond), WithDismissAfter(time.Hour))
	var control []string
	d.On(EventControlChanged, func(ev ui.Event) { control = append(control, ev.Value) })
	return d, c, &control
}

func TestSubmitInvalidMakesNoDelivery(t *testing.T) {
	fake := &fakeDelivery{res: Result{Success: true}}
	d, c, control := newForm(t, fake)

	c.Load(Payload{"name": "J", "email": "bad"})
	d.Dispatch(ui.Event{Name: EventSubmit})
	require.NoError(t, d.RunUntilIdle(context.Background()))

	form := c.Form()
	assert.Equal(t, 0, fake.count())
	assert.Empty(t, *control)
	assert.Equal(t, MsgCorrectErrors, form.Status.Message)
	assert.Equal(t, StatusError, form.Status.Kind)
	assert.Equal(t, "alert", form.Status.Role)
	assert.True(t, form.Status.ScrollIntoView)
	assert.Zero(t, form.Status.DismissAfter, "errors stay until replaced")

	name, _ := form.Field("name")
	assert.Equal(t, "Name should be at least 2 characters long", name.Error)
	msg, _ := form.Field("message")
	assert.Equal(t, "Message is required", msg.Error)
}

func TestSubmitSuccessClearsForm(t *testing.T) {
	fake := &fakeDelivery{res: Result{Success: true}}
	d, c, control := newForm(t, fake)

	c.Load(validPayload())
	d.Dispatch(ui.Event{Name: EventSubmit})
	require.NoError(t, d.RunUntilIdle(context.Background()))

	require.Equal(t, 1, fake.count())
	assert.Equal(t, "I would like to talk about a project.", fake.calls[0]["message"])
	assert.Equal(t, []string{"disabled", "enabled"}, *control)

	form := c.Form()
	assert.Equal(t, MsgSent, form.Status.Message)
	assert.Equal(t, StatusSuccess, form.Status.Kind)
	assert.Equal(t, time.Hour, form.Status.DismissAfter)
	assert.False(t, form.Submit.Disabled)
	assert.Equal(t, SubmitLabel, form.Submit.Label)
	for _, f := range form.Fields {
		assert.Empty(t, f.Value, f.Name)
		assert.Equal(t, StateNone, f.State, f.Name)
	}
	require.NotNil(t, form.Counter)
	assert.Equal(t, "0 / 1000 characters", form.Counter.String())
}

func TestSubmitFailureKeepsFields(t *testing.T) {
	fake := &fakeDelivery{res: Result{Reason: ReasonNetwork}, err: ErrNetwork}
	d, c, control := newForm(t, fake)

	c.Load(validPayload())
	d.Dispatch(ui.Event{Name: EventSubmit})
	require.NoError(t, d.RunUntilIdle(context.Background()))

	assert.Equal(t, []string{"disabled", "enabled"}, *control)
	form := c.Form()
	assert.Equal(t, MsgFailed, form.Status.Message)
	name, _ := form.Field("name")
	assert.Equal(t, "Jane Doe", name.Value)
	assert.False(t, form.Submit.Disabled)
}

func TestSecondSubmitWhileBusyIsIgnored(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	slow := DeliveryFunc(func(ctx context.Context, p Payload) (Result, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return Result{Success: true, Data: p}, nil
	})
	d, c, control := newForm(t, slow)

	c.Load(validPayload())
	d.Dispatch(ui.Event{Name: EventSubmit})
	d.Dispatch(ui.Event{Name: EventSubmit})
	d.Do(func() {
		assert.True(t, c.Form().Submit.Disabled)
		assert.Equal(t, "Sending...", c.Form().Submit.Label)
		close(release)
	})
	require.NoError(t, d.RunUntilIdle(context.Background()))

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"disabled", "enabled"}, *control)
}

func TestSuccessStatusAutoDismisses(t *testing.T) {
	d := ui.NewDispatcher(nil)
	c := NewController(d, &fakeDelivery{res: Result{Success: true}}, WithDismissAfter(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Load(validPayload())
	d.Dispatch(ui.Event{Name: EventSubmit})
	require.NoError(t, d.RunUntilIdle(ctx))
	assert.Equal(t, MsgSent, c.Form().Status.Message)

	cleared := make(chan struct{})
	d.On(EventStatusChanged, func(ev ui.Event) {
		if ev.Value == "" {
			close(cleared)
		}
	})
	go func() { _ = d.Run(ctx) }()

	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatal("status was not dismissed")
	}
}

func TestBlurValidatesAndInputClearsError(t *testing.T) {
	d, c, _ := newForm(t, &fakeDelivery{})

	d.Dispatch(ui.Event{Name: EventBlur, Target: "name", Value: "Jane123"})
	require.NoError(t, d.RunUntilIdle(context.Background()))
	name, _ := c.Form().Field("name")
	assert.Equal(t, StateError, name.State)
	assert.Equal(t, "Name should only contain letters and spaces", name.Error)

	d.Dispatch(ui.Event{Name: EventInput, Target: "name", Value: "Jane"})
	require.NoError(t, d.RunUntilIdle(context.Background()))
	name, _ = c.Form().Field("name")
	assert.Equal(t, StateNone, name.State)
	assert.Empty(t, name.Error)
}

func TestEmailInputIsDebounced(t *testing.T) {
	d, c, _ := newForm(t, &fakeDelivery{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, v := range []string{"j", "ja", "jane@"} {
		d.Dispatch(ui.Event{Name: EventInput, Target: "email", Value: v})
	}
	require.NoError(t, d.RunUntilIdle(ctx))
	email, _ := c.Form().Field("email")
	assert.Equal(t, StateNone, email.State, "validation must wait for the quiet period")

	checked := make(chan Field, 1)
	d.On("tick", func(ui.Event) {
		f, _ := c.Form().Field("email")
		checked <- f
	})
	go func() { _ = d.Run(ctx) }()

	require.Eventually(t, func() bool {
		d.Dispatch(ui.Event{Name: "tick"})
		f := <-checked
		return f.State == StateError
	}, time.Second, 10*time.Millisecond)
}

func TestFlushRunsPendingEmailCheck(t *testing.T) {
	d, c, _ := newForm(t, &fakeDelivery{})

	d.Dispatch(ui.Event{Name: EventInput, Target: "email", Value: "nope"})
	d.Do(c.Flush)
	require.NoError(t, d.RunUntilIdle(context.Background()))
	email, _ := c.Form().Field("email")
	assert.Equal(t, StateError, email.State)

	// an emptied field is left alone until blur
	d.Dispatch(ui.Event{Name: EventInput, Target: "email", Value: ""})
	d.Do(c.Flush)
	require.NoError(t, d.RunUntilIdle(context.Background()))
	email, _ = c.Form().Field("email")
	assert.Equal(t, StateNone, email.State)
	assert.Empty(t, email.Error)
}

func TestCounterTracksTextarea(t *testing.T) {
	d, c, _ := newForm(t, &fakeDelivery{})
	d.Dispatch(ui.Event{Name: EventInput, Target: "message", Value: strings.Repeat("a", 901)})
	require.NoError(t, d.RunUntilIdle(context.Background()))

	counter := c.Form().Counter
	require.NotNil(t, counter)
	assert.Equal(t, 901, counter.Length)
	assert.True(t, counter.Warning())
}

func TestSimulatedDelivery(t *testing.T) {
	p := Payload{"name": "Jane"}

	ok := &SimulatedDelivery{SuccessRate: 0.9, Rand: func() float64 { return 0.5 }}
	res, err := ok.Submit(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, p, res.Data)

	fail := &SimulatedDelivery{SuccessRate: 0.9, Rand: func() float64 { return 0.05 }}
	res, err = fail.Submit(context.Background(), p)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, ReasonNetwork, res.Reason)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := &SimulatedDelivery{Delay: time.Hour, SuccessRate: 1}
	_, err = slow.Submit(ctx, p)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestHTTPDelivery(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"id":"abc"}`))
	}))
	defer srv.Close()

	res, err := NewHTTPDelivery(srv.URL).Submit(context.Background(), Payload{"email": "a@b.co"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "abc", res.ID)
	assert.Equal(t, Payload{"email": "a@b.co"}, got)
}

func TestHTTPDeliveryRejectsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPDelivery(srv.URL).Submit(context.Background(), Payload{})
	assert.ErrorIs(t, err, ErrDelivery)
}

func TestFallbackDelivery(t *testing.T) {
	primaryErr := errors.New("connection refused")
	primary := &fakeDelivery{err: primaryErr}
	fallback := &fakeDelivery{res: Result{Success: true}}

	f := &FallbackDelivery{Primary: primary, Fallback: fallback}
	res, err := f.Submit(context.Background(), Payload{"a": "b"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, primary.count())
	assert.Equal(t, 1, fallback.count())

	primary = &fakeDelivery{res: Result{Success: true}}
	fallback = &fakeDelivery{}
	f = &FallbackDelivery{Primary: primary, Fallback: fallback}
	_, err = f.Submit(context.Background(), Payload{})
	require.NoError(t, err)
	assert.Equal(t, 0, fallback.count())
}
