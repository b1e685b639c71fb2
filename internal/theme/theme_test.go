package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	assert.Equal(t, Dark, Resolve("dark", false))
	assert.Equal(t, Light, Resolve("light", true))
	assert.Equal(t, Dark, Resolve("", true))
	assert.Equal(t, Light, Resolve("sepia", false))
}

func TestToggle(t *testing.T) {
	assert.Equal(t, Dark, Light.Toggle())
	assert.Equal(t, Light, Dark.Toggle())
	assert.Equal(t, "true", Dark.Pressed())
	assert.Equal(t, "false", Light.Pressed())
	assert.Equal(t, "☀️", Dark.Icon())
}

func TestContrastRatio(t *testing.T) {
	r, err := ContrastRatio("#000", "#ffffff")
	require.NoError(t, err)
	assert.InDelta(t, 21.0, r, 0.01)

	r, err = ContrastRatio("777777", "777777")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 0.0001)

	_, err = ContrastRatio("#12", "#fff")
	assert.Error(t, err)
	_, err = ContrastRatio("#zzzzzz", "#fff")
	assert.Error(t, err)
}

func TestParticleColor(t *testing.T) {
	assert.Equal(t, "#64748b", Light.ParticleColor())
	assert.Equal(t, "#94a3b8", Dark.ParticleColor())
	for _, th := range []Theme{Light, Dark} {
		r, err := ContrastRatio(th.ParticleColor(), th.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r, MinParticleContrast, string(th))
	}
	assert.Equal(t, "#ffffff", Theme("sepia").Background())
}
