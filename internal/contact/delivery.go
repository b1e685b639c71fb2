package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Payload is the flat field name to trimmed value mapping sent on submit.
type Payload map[string]string

// Reason classifies a failed submission.
type Reason string

const (
	ReasonNetwork    Reason = "network"
	ReasonValidation Reason = "validation"
)

var (
	// ErrNetwork is returned when a delivery could not reach its target.
	ErrNetwork = errors.New("contact: network error")
	// ErrDelivery is returned when the endpoint rejected the submission.
	ErrDelivery = errors.New("contact: submission failed")
)

// Result is the outcome of one submit attempt.
type Result struct {
	Success bool    `json:"success"`
	ID      string  `json:"id,omitempty"`
	Data    Payload `json:"data,omitempty"`
	Reason  Reason  `json:"reason,omitempty"`
}

// Delivery sends a payload somewhere and reports the outcome.
type Delivery interface {
	Submit(ctx context.Context, p Payload) (Result, error)
}

// DeliveryFunc adapts a function to the Delivery interface.
type DeliveryFunc func(ctx context.Context, p Payload) (Result, error)

func (f DeliveryFunc) Submit(ctx context.Context, p Payload) (Result, error) {
	return f(ctx, p)
}

// DefaultEndpoint is the submission path relative to the site root.
const DefaultEndpoint = "/api/contact"

// HTTPDelivery posts the payload as JSON to Endpoint.
type HTTPDelivery struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPDelivery returns a delivery posting to endpoint with a 10s timeout.
func NewHTTPDelivery(endpoint string) *HTTPDelivery {
	return &HTTPDelivery{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPDelivery) Submit(ctx context.Context, p Payload) (Result, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Result{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Reason: ReasonNetwork}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		reason := ReasonNetwork
		if resp.StatusCode == http.StatusUnprocessableEntity {
			reason = ReasonValidation
		}
		return Result{Reason: reason}, fmt.Errorf("%w: status %d", ErrDelivery, resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{Reason: ReasonNetwork}, fmt.Errorf("%w: decode response: %v", ErrDelivery, err)
	}
	res.Success = true
	if res.Data == nil {
		res.Data = p
	}
	return res, nil
}

// SimulatedDelivery stands in for a backend: it waits Delay and then
// succeeds with probability SuccessRate.
type SimulatedDelivery struct {
	Delay       time.Duration
	SuccessRate float64
	Rand        func() float64
}

// NewSimulatedDelivery waits 1.2s and succeeds nine times in ten.
func NewSimulatedDelivery() *SimulatedDelivery {
	return &SimulatedDelivery{
		Delay:       1200 * time.Millisecond,
		SuccessRate: 0.9,
		Rand:        rand.Float64,
	}
}

func (s *SimulatedDelivery) Submit(ctx context.Context, p Payload) (Result, error) {
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Result{Reason: ReasonNetwork}, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
	case <-timer.C:
	}

	roll := rand.Float64
	if s.Rand != nil {
		roll = s.Rand
	}
	if roll() > 1-s.SuccessRate {
		return Result{Success: true, Data: p}, nil
	}
	return Result{Reason: ReasonNetwork}, ErrNetwork
}

// FallbackDelivery tries Primary and, on any failure, delivers through
// Fallback instead. The primary error is logged, never returned.
type FallbackDelivery struct {
	Primary  Delivery
	Fallback Delivery
	Logger   *zap.Logger
}

func (f *FallbackDelivery) Submit(ctx context.Context, p Payload) (Result, error) {
	res, err := f.Primary.Submit(ctx, p)
	if err == nil && res.Success {
		return res, nil
	}

	if f.Logger != nil {
		f.Logger.Debug("primary delivery failed, using fallback", zap.Error(err))
	}
	return f.Fallback.Submit(ctx, p)
}
