// Package regime classifies the prevailing market regime of an OHLCV series from
// trend, momentum, volatility and swing-structure features.
package regime

import (
	"fmt"

	"github.com/yourusername/learning-agent/internal/models"
)

// Config holds every classifier threshold
type Config struct {
	ReadinessBuffer        int     `mapstructure:"readiness_buffer" validate:"gte=0"`
	DefaultSMAPeriod       int     `mapstructure:"default_sma_period" validate:"gt=0"`
	FlatSlopeThreshold     float64 `mapstructure:"flat_slope_threshold" validate:"gt=0"`
	StrongADX              float64 `mapstructure:"strong_adx" validate:"gt=0,lte=100"`
	WeakADX                float64 `mapstructure:"weak_adx" validate:"gt=0,ltefield=StrongADX"`
	BullishRSI             float64 `mapstructure:"bullish_rsi" validate:"gt=0,lte=100"`
	BearishRSI             float64 `mapstructure:"bearish_rsi" validate:"gt=0,ltfield=BullishRSI"`
	BandPct                float64 `mapstructure:"band_pct" validate:"gt=0,lt=1"`
	ATRSpikeMultiplier     float64 `mapstructure:"atr_spike_multiplier" validate:"gt=1"`
	ATRAverageWindow       int     `mapstructure:"atr_average_window" validate:"gt=0"`
	SwingLookback          int     `mapstructure:"swing_lookback" validate:"gt=0"`
	RecentBars             int     `mapstructure:"recent_bars" validate:"gt=0"`
	MinScore               int     `mapstructure:"min_score" validate:"gte=1,lte=3"`
	UndefinedConfidence    float64 `mapstructure:"undefined_confidence" validate:"gte=0,lte=1"`
	InsufficientConfidence float64 `mapstructure:"insufficient_confidence" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the standard thresholds: ADX 25/20, RSI 60/40, a 1.5% SMA band
// and a 1.5x ATR spike against its 20-bar average.
func DefaultConfig() Config {
	return Config{
		ReadinessBuffer:        50,
		DefaultSMAPeriod:       50,
		FlatSlopeThreshold:     0.0005,
		StrongADX:              25,
		WeakADX:                20,
		BullishRSI:             60,
		BearishRSI:             40,
		BandPct:                0.015,
		ATRSpikeMultiplier:     1.5,
		ATRAverageWindow:       20,
		SwingLookback:          50,
		RecentBars:             5,
		MinScore:               2,
		UndefinedConfidence:    0.3,
		InsufficientConfidence: 0.2,
	}
}

// signalGroupSize is the number of features voting for each scored regime
const signalGroupSize = 3

// Classifier maps price series to regime classifications. It holds no per-call state
// and is safe for concurrent use.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier with the given thresholds
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Config returns the thresholds in use
func (c *Classifier) Config() Config {
	return c.cfg
}

// MinBars is the number of bars required before indicators are considered reliable
func (c *Classifier) MinBars(s models.IndicatorSettings) int {
	return s.EMASlow + c.cfg.ReadinessBuffer
}

// Classify labels the regime at the last bar of the request's price history
func (c *Classifier) Classify(req models.ClassifyRequest) *models.RegimeClassification {
	settings := req.Indicators
	series := models.PriceSeries(req.PriceHistory)

	minBars := c.MinBars(settings)
	if len(series) < minBars {
		return c.insufficient(req, fmt.Sprintf(
			"Price history length < %d bars, EMA and ADX cannot be computed reliably", minBars))
	}

	smaPeriod := settings.SMAPeriod
	if smaPeriod <= 0 {
		smaPeriod = c.cfg.DefaultSMAPeriod
	}

	f := buildFrame(series, settings, smaPeriod)
	if f == nil {
		return c.insufficient(req, "Not enough data for indicators.")
	}

	snap := f.snapshot(c.cfg.ATRAverageWindow)
	features := deriveFeatures(f, snap, c.cfg)

	var out *models.RegimeClassification
	if features.ATRSpike || features.StructureBreak {
		out = volatileTransition(features)
	} else {
		out = c.Score(features, snap, settings, smaPeriod)
	}

	out.Symbol = req.Symbol
	out.Timeframe = req.Timeframe
	out.State = models.ClassificationReady
	out.Indicators = exported(snap)
	return out
}

func (c *Classifier) insufficient(req models.ClassifyRequest, reason string) *models.RegimeClassification {
	return &models.RegimeClassification{
		Symbol:          req.Symbol,
		Timeframe:       req.Timeframe,
		State:           models.ClassificationInsufficientData,
		Confidence:      c.cfg.InsufficientConfidence,
		Explanation:     []string{},
		LearnedPatterns: models.LearnedPatterns{BestStrategyFit: []string{}},
		RiskNotes:       []string{},
		Reasoning:       []string{reason},
	}
}

func volatileTransition(features Features) *models.RegimeClassification {
	explanation := make([]string, 0, 2)
	if features.ATRSpike {
		explanation = append(explanation, "ATR has spiked, indicating a sharp increase in volatility.")
	}
	if features.StructureBreak {
		explanation = append(explanation, "Price has broken a recent swing structure, suggesting a potential change.")
	}

	return &models.RegimeClassification{
		Regime:      models.RegimeVolatileTransition,
		Confidence:  1.0,
		Explanation: explanation,
		LearnedPatterns: models.LearnedPatterns{
			TrendCharacter:    "unpredictable",
			FalseBreakoutRisk: "very_high",
			BestStrategyFit:   []string{"breakout_strategies", "volatility_trading"},
		},
		RiskNotes: []string{"High risk of whipsaws. Position sizing should be reduced."},
	}
}

// Scores counts the features voting for each trending or ranging regime
func Scores(f Features) map[models.Regime]int {
	return map[models.Regime]int{
		models.RegimeUptrend:   countTrue(f.TrendUp, f.StrongTrend, f.Bullish),
		models.RegimeDowntrend: countTrue(f.TrendDown, f.StrongTrend, f.Bearish),
		models.RegimeRanging:   countTrue(f.WeakTrend, f.InBand, f.SlopeFlat),
	}
}

// Score picks the regime with the unique highest score. A tie at the top or a top
// score below the minimum yields undefined.
func (c *Classifier) Score(f Features, snap models.IndicatorSnapshot, s models.IndicatorSettings, smaPeriod int) *models.RegimeClassification {
	scores := Scores(f)

	best, bestScore, ties := models.RegimeUndefined, -1, 0
	for _, r := range []models.Regime{models.RegimeUptrend, models.RegimeDowntrend, models.RegimeRanging} {
		switch score := scores[r]; {
		case score > bestScore:
			best, bestScore, ties = r, score, 1
		case score == bestScore:
			ties++
		}
	}

	if bestScore < c.cfg.MinScore || ties > 1 {
		return &models.RegimeClassification{
			Regime:          models.RegimeUndefined,
			Confidence:      c.cfg.UndefinedConfidence,
			Explanation:     []string{"Market conditions are mixed and do not clearly fit any defined regime."},
			LearnedPatterns: models.LearnedPatterns{BestStrategyFit: []string{}},
			RiskNotes:       []string{},
		}
	}

	confidence := float64(bestScore) / signalGroupSize
	out := &models.RegimeClassification{
		Regime:      best,
		Confidence:  confidence,
		Explanation: []string{},
	}

	switch best {
	case models.RegimeUptrend:
		if f.TrendUp {
			out.Explanation = append(out.Explanation, fmt.Sprintf("EMA %d is above EMA %d.", s.EMAFast, s.EMASlow))
		}
		if f.StrongTrend {
			out.Explanation = append(out.Explanation, fmt.Sprintf("ADX at %.2f indicates a strong trend.", snap.ADX))
		}
		if f.Bullish {
			out.Explanation = append(out.Explanation, fmt.Sprintf("RSI at %.2f shows bullish momentum.", snap.RSI))
		}
		out.LearnedPatterns = models.LearnedPatterns{
			TrendCharacter:    "steady_accumulation",
			FalseBreakoutRisk: breakoutRisk(confidence),
			BestStrategyFit:   []string{"trend_following", "pullback_entry"},
		}
		out.RiskNotes = []string{"Watch for RSI divergence as a sign of potential exhaustion."}

	case models.RegimeDowntrend:
		if f.TrendDown {
			out.Explanation = append(out.Explanation, fmt.Sprintf("EMA %d is below EMA %d.", s.EMAFast, s.EMASlow))
		}
		if f.StrongTrend {
			out.Explanation = append(out.Explanation, fmt.Sprintf("ADX at %.2f indicates a strong trend.", snap.ADX))
		}
		if f.Bearish {
			out.Explanation = append(out.Explanation, fmt.Sprintf("RSI at %.2f shows bearish momentum.", snap.RSI))
		}
		out.LearnedPatterns = models.LearnedPatterns{
			TrendCharacter:    "consistent_distribution",
			FalseBreakoutRisk: breakoutRisk(confidence),
			BestStrategyFit:   []string{"trend_following", "short_selling"},
		}
		out.RiskNotes = []string{"Be cautious of sharp reversals if volume diminishes."}

	case models.RegimeRanging:
		if f.WeakTrend {
			out.Explanation = append(out.Explanation, fmt.Sprintf("ADX at %.2f suggests a lack of clear trend.", snap.ADX))
		}
		if f.InBand {
			out.Explanation = append(out.Explanation, fmt.Sprintf(
				"Price is oscillating within a ±%.1f%% band of the %d-period SMA.", c.cfg.BandPct*100, smaPeriod))
		}
		if f.SlopeFlat {
			out.Explanation = append(out.Explanation, "EMA slope is nearly flat, indicating consolidation.")
		}
		out.LearnedPatterns = models.LearnedPatterns{
			TrendCharacter:    "sideways_consolidation",
			FalseBreakoutRisk: "high",
			BestStrategyFit:   []string{"mean_reversion", "range_trading"},
		}
		out.RiskNotes = []string{"Avoid trend-following strategies. Watch for a breakout with volume expansion."}
	}
	return out
}

func breakoutRisk(confidence float64) string {
	if confidence > 0.9 {
		return "low"
	}
	return "medium"
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
