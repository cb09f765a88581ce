package regime

import (
	"math"

	"github.com/yourusername/learning-agent/internal/models"
)

// Features are the boolean signals derived from the latest bar
type Features struct {
	TrendUp        bool
	TrendDown      bool
	SlopeFlat      bool
	StrongTrend    bool
	WeakTrend      bool
	Bullish        bool
	Bearish        bool
	InBand         bool
	ATRSpike       bool
	StructureBreak bool
}

// frame holds indicator columns trimmed to the bars where every indicator is defined
type frame struct {
	highs, lows, closes []float64
	emaFast, emaSlow    []float64
	adx, atr, rsi, sma  []float64
}

func (f *frame) len() int { return len(f.closes) }

func (f *frame) last(col []float64) float64 { return col[len(col)-1] }

// buildFrame computes every indicator on the full series and drops the leading bars
// where any of them is still warming up. It returns nil when no bar survives.
func buildFrame(series models.PriceSeries, s models.IndicatorSettings, smaPeriod int) *frame {
	highs, lows, closes := series.Highs(), series.Lows(), series.Closes()

	full := frame{
		highs:   highs,
		lows:    lows,
		closes:  closes,
		emaFast: EMA(closes, s.EMAFast),
		emaSlow: EMA(closes, s.EMASlow),
		adx:     ADX(highs, lows, closes, s.ADXPeriod),
		atr:     ATR(highs, lows, closes, s.ATRPeriod),
		rsi:     RSI(closes, s.RSIPeriod),
		sma:     SMA(closes, smaPeriod),
	}

	start := 0
	for _, col := range [][]float64{full.emaFast, full.emaSlow, full.adx, full.atr, full.rsi, full.sma} {
		if i := firstValid(col); i > start {
			start = i
		}
	}
	if start >= len(closes) {
		return nil
	}

	return &frame{
		highs:   highs[start:],
		lows:    lows[start:],
		closes:  closes[start:],
		emaFast: full.emaFast[start:],
		emaSlow: full.emaSlow[start:],
		adx:     full.adx[start:],
		atr:     full.atr[start:],
		rsi:     full.rsi[start:],
		sma:     full.sma[start:],
	}
}

// snapshot reads the latest indicator values, including the fast EMA slope and the
// trailing ATR average (NaN when the frame is too short for either)
func (f *frame) snapshot(atrWindow int) models.IndicatorSnapshot {
	slope := math.NaN()
	if n := f.len(); n >= 2 {
		cur := f.emaFast[n-1]
		if cur != 0 {
			slope = (cur - f.emaFast[n-2]) / cur
		}
	}

	atrAvg := math.NaN()
	if f.len() >= atrWindow && atrWindow > 0 {
		atrAvg = SMA(f.atr, atrWindow)[f.len()-1]
	}

	return models.IndicatorSnapshot{
		EMAFast:  f.last(f.emaFast),
		EMASlow:  f.last(f.emaSlow),
		EMASlope: slope,
		ADX:      f.last(f.adx),
		RSI:      f.last(f.rsi),
		ATR:      f.last(f.atr),
		ATRAvg:   atrAvg,
		SMA:      f.last(f.sma),
		Close:    f.last(f.closes),
	}
}

// deriveFeatures evaluates every signal. Comparisons against NaN are false, so a
// missing slope or ATR average never fires its feature.
func deriveFeatures(f *frame, snap models.IndicatorSnapshot, cfg Config) Features {
	inBand := snap.Close > snap.SMA*(1-cfg.BandPct) && snap.Close < snap.SMA*(1+cfg.BandPct)

	return Features{
		TrendUp:        snap.EMAFast > snap.EMASlow,
		TrendDown:      snap.EMAFast < snap.EMASlow,
		SlopeFlat:      math.Abs(snap.EMASlope) < cfg.FlatSlopeThreshold,
		StrongTrend:    snap.ADX > cfg.StrongADX,
		WeakTrend:      snap.ADX < cfg.WeakADX,
		Bullish:        snap.RSI > cfg.BullishRSI,
		Bearish:        snap.RSI < cfg.BearishRSI,
		InBand:         inBand,
		ATRSpike:       snap.ATR > cfg.ATRSpikeMultiplier*snap.ATRAvg,
		StructureBreak: StructureBreak(f.highs, f.lows, cfg.SwingLookback, cfg.RecentBars),
	}
}

// SwingHighs returns the indexes of bars whose high exceeds both neighbours.
// The first and last bars have a missing neighbour and never qualify.
func SwingHighs(highs []float64) []int {
	var idx []int
	for i := 1; i < len(highs)-1; i++ {
		if highs[i] > highs[i-1] && highs[i] > highs[i+1] {
			idx = append(idx, i)
		}
	}
	return idx
}

// SwingLows returns the indexes of bars whose low is below both neighbours
func SwingLows(lows []float64) []int {
	var idx []int
	for i := 1; i < len(lows)-1; i++ {
		if lows[i] < lows[i-1] && lows[i] < lows[i+1] {
			idx = append(idx, i)
		}
	}
	return idx
}

// StructureBreak reports whether the extreme of the last recent bars breaks the extreme
// of the prior swings. Only the last lookback swings are considered, and of those only
// swings that formed before the recent window.
func StructureBreak(highs, lows []float64, lookback, recent int) bool {
	n := len(highs)
	if recent <= 0 || n <= recent {
		return false
	}
	cutoff := n - recent

	if prior := priorSwings(SwingHighs(highs), lookback, cutoff); len(prior) > 0 {
		swingMax := math.Inf(-1)
		for _, i := range prior {
			swingMax = math.Max(swingMax, highs[i])
		}
		recentMax := math.Inf(-1)
		for _, v := range highs[cutoff:] {
			recentMax = math.Max(recentMax, v)
		}
		if recentMax > swingMax {
			return true
		}
	}

	if prior := priorSwings(SwingLows(lows), lookback, cutoff); len(prior) > 0 {
		swingMin := math.Inf(1)
		for _, i := range prior {
			swingMin = math.Min(swingMin, lows[i])
		}
		recentMin := math.Inf(1)
		for _, v := range lows[cutoff:] {
			recentMin = math.Min(recentMin, v)
		}
		if recentMin < swingMin {
			return true
		}
	}
	return false
}

func priorSwings(swings []int, lookback, cutoff int) []int {
	if lookback > 0 && len(swings) > lookback {
		swings = swings[len(swings)-lookback:]
	}
	prior := make([]int, 0, len(swings))
	for _, i := range swings {
		if i < cutoff {
			prior = append(prior, i)
		}
	}
	return prior
}

// exported replaces the NaN readings of a snapshot with zero so it always serialises
func exported(s models.IndicatorSnapshot) *models.IndicatorSnapshot {
	for _, v := range []*float64{&s.EMAFast, &s.EMASlow, &s.EMASlope, &s.ADX, &s.RSI, &s.ATR, &s.ATRAvg, &s.SMA, &s.Close} {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
	return &s
}
