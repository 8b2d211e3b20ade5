package chart

import (
	"bytes"
	"image/png"
	"math/rand"
	"testing"

	"github.com/newthinker/signalpro/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return ConfigFrom(config.Defaults().Chart)
}

func TestGenerate_Shape(t *testing.T) {
	s := Generate(testConfig(), rand.NewSource(1))

	assert.Equal(t, "EURUSD", s.Asset)
	require.Len(t, s.Points, 20)
	assert.Equal(t, "0:00", s.Points[0].Time)
	assert.Equal(t, "19:00", s.Points[19].Time)
}

func TestGenerate_PriceBand(t *testing.T) {
	cfg := testConfig()
	for seed := int64(0); seed < 20; seed++ {
		s := Generate(cfg, rand.NewSource(seed))
		for _, p := range s.Points {
			assert.GreaterOrEqual(t, p.Price, cfg.BasePrice)
			assert.LessOrEqual(t, p.Price, cfg.BasePrice+cfg.Spread)
			// An EMA of bounded prices stays inside the same band.
			assert.GreaterOrEqual(t, p.EMA8, cfg.BasePrice-1e-12)
			assert.LessOrEqual(t, p.EMA21, cfg.BasePrice+cfg.Spread+1e-12)
		}
	}
}

func TestGenerate_EMAsTrackPrice(t *testing.T) {
	s := Generate(testConfig(), rand.NewSource(7))

	first := s.Points[0]
	assert.Equal(t, first.Price, first.EMA8)
	assert.Equal(t, first.Price, first.EMA21)

	// ema8[i] = ema8[i-1] + (price[i]-ema8[i-1]) * 2/9
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1], s.Points[i]
		assert.InDelta(t, prev.EMA8+(cur.Price-prev.EMA8)*2/9, cur.EMA8, 1e-12)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(testConfig(), rand.NewSource(42))
	b := Generate(testConfig(), rand.NewSource(42))
	assert.Equal(t, a, b)
}

func TestGenerate_ZeroPoints(t *testing.T) {
	cfg := testConfig()
	cfg.Points = 0
	assert.Empty(t, Generate(cfg, rand.NewSource(1)).Points)
}

func TestRender_PNG(t *testing.T) {
	s := Generate(testConfig(), rand.NewSource(3))

	data, err := Render(s, 400, 200)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Greater(t, img.Bounds().Dy(), 0)
}

func TestRender_Errors(t *testing.T) {
	_, err := Render(Series{Points: []Point{{Time: "0:00"}}}, 400, 200)
	assert.Error(t, err)

	s := Generate(testConfig(), rand.NewSource(3))
	_, err = Render(s, 0, 200)
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "0:00", Label(0))
	assert.Equal(t, "12:00", Label(12))
}
