// Package chart builds the price series shown next to the active signals
// and renders it as a PNG.
package chart

import (
	"fmt"
	"math/rand"

	"github.com/newthinker/signalpro/internal/config"
	"github.com/newthinker/signalpro/internal/confidence"
	"github.com/newthinker/signalpro/internal/indicator"
)

const (
	fastPeriod = 8
	slowPeriod = 21

	// DefaultSpread is the width of the band the price walks in, above BasePrice.
	DefaultSpread = 0.002
)

// Point is one sample of the chart series.
type Point struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
	EMA8  float64 `json:"ema8"`
	EMA21 float64 `json:"ema21"`
}

// Series is the chart for one asset.
type Series struct {
	Asset  string  `json:"asset"`
	Points []Point `json:"points"`
}

// Config controls series generation.
type Config struct {
	Asset     string
	Points    int
	BasePrice float64
	Spread    float64
}

// ConfigFrom converts the file-level chart settings.
func ConfigFrom(cc config.ChartConfig) Config {
	return Config{
		Asset:     cc.Asset,
		Points:    cc.Points,
		BasePrice: cc.BasePrice,
		Spread:    DefaultSpread,
	}
}

// Generate produces a bounded random walk inside [BasePrice, BasePrice+Spread]
// with EMA8 and EMA21 computed over it. Labels run "0:00", "1:00", ...
func Generate(cfg Config, src rand.Source) Series {
	n := cfg.Points
	if n < 0 {
		n = 0
	}
	spread := cfg.Spread
	if spread <= 0 {
		spread = DefaultSpread
	}

	rng := rand.New(src)
	lo, hi := cfg.BasePrice, cfg.BasePrice+spread
	step := spread / 5

	prices := make([]float64, n)
	price := cfg.BasePrice + spread/2
	for i := range prices {
		if i > 0 {
			price = confidence.Clamp(price+(rng.Float64()-0.5)*step, lo, hi)
		}
		prices[i] = price
	}

	fast := indicator.EMA(prices, fastPeriod)
	slow := indicator.EMA(prices, slowPeriod)

	points := make([]Point, n)
	for i := range points {
		points[i] = Point{
			Time:  Label(i),
			Price: prices[i],
			EMA8:  fast[i],
			EMA21: slow[i],
		}
	}

	return Series{Asset: cfg.Asset, Points: points}
}

// Label returns the x-axis label for index i.
func Label(i int) string {
	return fmt.Sprintf("%d:00", i)
}
