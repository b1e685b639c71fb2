// Package particles simulates the decorative drifting-dot backdrop and
// renders frames of it as SVG.
package particles

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

const (
	maxParticles = 120
	areaPerDot   = 18000
	linkDistance = 120
)

// Particle is one dot.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Size   float64
	Alpha  float64
}

// Link is a line between two nearby particles.
type Link struct {
	A, B  int
	Alpha float64
}

// Field is a set of particles drifting inside a w×h canvas.
type Field struct {
	Width, Height float64
	Particles     []Particle
}

// Density returns how many particles a w×h canvas gets.
func Density(w, h float64) int {
	n := int(math.Floor(w * h / areaPerDot))
	return max(0, min(maxParticles, n))
}

// New seeds a field for a w×h canvas.
func New(w, h float64, rng *rand.Rand) *Field {
	f := &Field{Width: w, Height: h}
	n := Density(w, h)
	f.Particles = make([]Particle, n)
	for i := range f.Particles {
		speed := rng.Float64()*0.6 + 0.2
		angle := rng.Float64() * math.Pi * 2
		f.Particles[i] = Particle{
			X:     rng.Float64() * w,
			Y:     rng.Float64() * h,
			VX:    math.Cos(angle) * speed,
			VY:    math.Sin(angle) * speed,
			Size:  rng.Float64()*2 + 1,
			Alpha: rng.Float64()*0.8 + 0.2,
		}
	}
	return f
}

// Step advances every particle one frame, wrapping at the edges.
func (f *Field) Step() {
	for i := range f.Particles {
		p := &f.Particles[i]
		p.X += p.VX
		p.Y += p.VY
		if p.X < 0 {
			p.X = f.Width
		} else if p.X > f.Width {
			p.X = 0
		}
		if p.Y < 0 {
			p.Y = f.Height
		} else if p.Y > f.Height {
			p.Y = 0
		}
	}
}

// Links returns pairs closer than 120px, fading with distance.
func (f *Field) Links() []Link {
	var links []Link
	for i := 0; i < len(f.Particles); i++ {
		for j := i + 1; j < len(f.Particles); j++ {
			dx := f.Particles[i].X - f.Particles[j].X
			dy := f.Particles[i].Y - f.Particles[j].Y
			d := math.Hypot(dx, dy)
			if d < linkDistance {
				links = append(links, Link{A: i, B: j, Alpha: 1 - d/linkDistance})
			}
		}
	}
	return links
}

// SVG renders the current frame in the given CSS colour.
func (f *Field) SVG(color string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		f.Width, f.Height, f.Width, f.Height)
	fmt.Fprintf(&b, `<g stroke="%s" stroke-width="0.5">`, color)
	for _, l := range f.Links() {
		a, c := f.Particles[l.A], f.Particles[l.B]
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke-opacity="%.2f"/>`,
			a.X, a.Y, c.X, c.Y, l.Alpha*0.12)
	}
	b.WriteString(`</g>`)
	fmt.Fprintf(&b, `<g fill="%s">`, color)
	for _, p := range f.Particles {
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill-opacity="%.2f"/>`, p.X, p.Y, p.Size, p.Alpha)
	}
	b.WriteString(`</g></svg>`)
	return b.String()
}
