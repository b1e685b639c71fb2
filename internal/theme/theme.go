// Package theme resolves and toggles the light/dark colour scheme.
package theme

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Theme is a colour scheme name.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// StorageKey is the key the preference is persisted under.
const StorageKey = "theme"

// Parse returns the theme named s, or false if s names none.
func Parse(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Resolve picks the initial theme: a saved preference wins, otherwise the
// system preference.
func Resolve(saved string, prefersDark bool) Theme {
	if t, ok := Parse(saved); ok {
		return t
	}
	if prefersDark {
		return Dark
	}
	return Light
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Pressed is the toggle's aria-pressed value.
func (t Theme) Pressed() string {
	return strconv.FormatBool(t == Dark)
}

// Icon is the glyph shown on the toggle: the theme you would switch to.
func (t Theme) Icon() string {
	if t == Dark {
		return "☀️"
	}
	return "🌙"
}

// MinParticleContrast is the contrast ratio particles keep against the
// page background.
const MinParticleContrast = 3.0

var palettes = map[Theme]struct {
	background string
	particles  []string // preferred first
}{
	Light: {background: "#ffffff", particles: []string{"#94a3b8", "#64748b", "#1e293b"}},
	Dark:  {background: "#0f172a", particles: []string{"#475569", "#94a3b8", "#e2e8f0"}},
}

// Background is the page background colour.
func (t Theme) Background() string {
	if p, ok := palettes[t]; ok {
		return p.background
	}
	return palettes[Light].background
}

// ParticleColor returns the first of the theme's particle colours that
// reaches MinParticleContrast against its background, or the strongest
// one when none does.
func (t Theme) ParticleColor() string {
	p, ok := palettes[t]
	if !ok {
		p = palettes[Light]
	}
	for _, c := range p.particles {
		if r, err := ContrastRatio(c, p.background); err == nil && r >= MinParticleContrast {
			return c
		}
	}
	return p.particles[len(p.particles)-1]
}

// ContrastRatio returns the WCAG contrast ratio of two hex colours
// ("#fff", "1e293b").
func ContrastRatio(hex1, hex2 string) (float64, error) {
	c1, err := parseHex(hex1)
	if err != nil {
		return 0, err
	}
	c2, err := parseHex(hex2)
	if err != nil {
		return 0, err
	}
	l1, l2 := luminance(c1), luminance(c2)
	lighter, darker := math.Max(l1, l2), math.Min(l1, l2)
	return (lighter + 0.05) / (darker + 0.05), nil
}

func parseHex(s string) ([3]float64, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return [3]float64{}, fmt.Errorf("theme: invalid colour %q", s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return [3]float64{}, fmt.Errorf("theme: invalid colour %q: %w", s, err)
	}
	return [3]float64{float64(n >> 16 & 0xff), float64(n >> 8 & 0xff), float64(n & 0xff)}, nil
}

func luminance(rgb [3]float64) float64 {
	var c [3]float64
	for i, v := range rgb {
		v /= 255
		if v <= 0.03928 {
			c[i] = v / 12.92
		} else {
			c[i] = math.Pow((v+0.055)/1.055, 2.4)
		}
	}
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}
