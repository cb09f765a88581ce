package policy

// Thresholds groups every step size, ceiling and warm-up count used by the engine
type Thresholds struct {
	// Global mode
	MinTradesForLearning int     `mapstructure:"min_trades_for_learning" validate:"gte=1"`
	AccuracyWindow       int     `mapstructure:"accuracy_window" validate:"gte=0"`
	WeightStep           float64 `mapstructure:"weight_step" validate:"gt=0,lte=1"`
	RiskDecreaseStep     float64 `mapstructure:"risk_decrease_step" validate:"gt=0,lte=1"`
	RiskIncreaseStep     float64 `mapstructure:"risk_increase_step" validate:"gt=0,ltefield=RiskDecreaseStep"`
	HighDrawdown         float64 `mapstructure:"high_drawdown" validate:"gt=0,lte=1"`
	RiskUpWinRate        float64 `mapstructure:"risk_up_win_rate" validate:"gt=0,lte=1"`
	RiskUpSharpe         float64 `mapstructure:"risk_up_sharpe" validate:"gte=0"`
	RiskUpMaxDrawdown    float64 `mapstructure:"risk_up_max_drawdown" validate:"gt=0,ltefield=HighDrawdown"`
	VolatilePositionCut  float64 `mapstructure:"volatile_position_cut" validate:"gte=0,lte=1"`

	// Bias detection
	TrendBiasWindow        int     `mapstructure:"trend_bias_window" validate:"gte=0"`
	TrendBiasThreshold     float64 `mapstructure:"trend_bias_threshold" validate:"gte=0,lte=1"`
	TrendBiasScale         float64 `mapstructure:"trend_bias_scale" validate:"gte=0,lte=1"`
	OvertradingLookback    int     `mapstructure:"overtrading_lookback" validate:"gte=0"`
	OvertradingFrequency   int     `mapstructure:"overtrading_frequency" validate:"gte=1"`
	OvertradingWinFloor    float64 `mapstructure:"overtrading_win_floor" validate:"gte=0,lte=1"`
	ClusterLookback        int     `mapstructure:"cluster_lookback" validate:"gte=0"`
	ClusterHeavyLoss       float64 `mapstructure:"cluster_heavy_loss" validate:"lt=0"`
	ClusterSize            int     `mapstructure:"cluster_size" validate:"gte=1"`
	ConfirmationHighWeight float64 `mapstructure:"confirmation_high_weight" validate:"gte=0,lte=1"`

	// Regime-aware preference
	RegimeMinTrades    int     `mapstructure:"regime_min_trades" validate:"gte=1"`
	RegimeUnderperform float64 `mapstructure:"regime_underperform_win_rate" validate:"gte=0,lte=1"`

	// Confidence gate
	ConfidenceReferenceTrades int     `mapstructure:"confidence_reference_trades" validate:"gte=1"`
	ConfidenceFloor           float64 `mapstructure:"confidence_floor" validate:"gte=0,lte=1"`
	SampleWeight              float64 `mapstructure:"sample_weight" validate:"gte=0,lte=1"`
	ConsistencyWeight         float64 `mapstructure:"consistency_weight" validate:"gte=0,lte=1"`
	DrawdownWeight            float64 `mapstructure:"drawdown_weight" validate:"gte=0,lte=1"`
	DrawdownMild              float64 `mapstructure:"drawdown_mild" validate:"gt=0"`
	DrawdownSevere            float64 `mapstructure:"drawdown_severe" validate:"gtfield=DrawdownMild"`
	GateAssetMode             bool    `mapstructure:"gate_asset_mode"`

	// Asset mode
	AssetWarmupTrades     int     `mapstructure:"asset_warmup_trades" validate:"gte=1"`
	AssetWindow           int     `mapstructure:"asset_window" validate:"gte=1"`
	AssetBiasStep         float64 `mapstructure:"asset_bias_step" validate:"gt=0,lte=1"`
	AssetUpperScore       float64 `mapstructure:"asset_upper_score" validate:"gt=0,lte=1"`
	AssetLowerScore       float64 `mapstructure:"asset_lower_score" validate:"gte=0,ltfield=AssetUpperScore"`
	AssetWinRateWeight    float64 `mapstructure:"asset_win_rate_weight" validate:"gte=0,lte=1"`
	AssetDrawdownWeight   float64 `mapstructure:"asset_drawdown_weight" validate:"gte=0,lte=1"`
	AssetVolatilityWeight float64 `mapstructure:"asset_volatility_weight" validate:"gte=0,lte=1"`
	AssetDrawdownCap      float64 `mapstructure:"asset_drawdown_cap" validate:"gt=0"`
	AssetVolatilityCap    float64 `mapstructure:"asset_volatility_cap" validate:"gt=0"`
	ConsecutiveLossLimit  int     `mapstructure:"consecutive_loss_limit" validate:"gte=1"`
	RecentDrawdownLimit   float64 `mapstructure:"recent_drawdown_limit" validate:"gt=0,lte=1"`
}

// DefaultThresholds returns the engine's standard calibration
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTradesForLearning: 20,
		AccuracyWindow:       50,
		WeightStep:           0.05,
		RiskDecreaseStep:     0.005,
		RiskIncreaseStep:     0.0025,
		HighDrawdown:         0.15,
		RiskUpWinRate:        0.6,
		RiskUpSharpe:         1.2,
		RiskUpMaxDrawdown:    0.1,
		VolatilePositionCut:  0.02,

		TrendBiasWindow:        50,
		TrendBiasThreshold:     0.3,
		TrendBiasScale:         0.1,
		OvertradingLookback:    50,
		OvertradingFrequency:   10,
		OvertradingWinFloor:    0.4,
		ClusterLookback:        15,
		ClusterHeavyLoss:       -0.02,
		ClusterSize:            3,
		ConfirmationHighWeight: 0.4,

		RegimeMinTrades:    3,
		RegimeUnderperform: 0.5,

		ConfidenceReferenceTrades: 50,
		ConfidenceFloor:           0.3,
		SampleWeight:              0.4,
		ConsistencyWeight:         0.3,
		DrawdownWeight:            0.3,
		DrawdownMild:              0.1,
		DrawdownSevere:            0.2,
		GateAssetMode:             false,

		AssetWarmupTrades:     5,
		AssetWindow:           10,
		AssetBiasStep:         0.1,
		AssetUpperScore:       0.6,
		AssetLowerScore:       0.4,
		AssetWinRateWeight:    0.5,
		AssetDrawdownWeight:   0.3,
		AssetVolatilityWeight: 0.2,
		AssetDrawdownCap:      0.2,
		AssetVolatilityCap:    0.05,
		ConsecutiveLossLimit:  3,
		RecentDrawdownLimit:   0.10,
	}
}

// windowed narrows the accuracy, trend-bias and overtrading lookbacks to the caller's
// window. The clustering lookback stays short.
func (t Thresholds) windowed(n int) Thresholds {
	if n <= 0 {
		return t
	}
	t.AccuracyWindow = n
	t.TrendBiasWindow = n
	t.OvertradingLookback = n
	return t
}
