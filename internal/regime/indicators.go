package regime

import "math"

// Indicator series are aligned with their input: index i describes bar i, and bars
// without a complete lookback window hold NaN.

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(values)
}

// SMA is the simple moving average over period bars
func SMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	start := firstValid(values)
	sum := 0.0
	for i := start; i < len(values); i++ {
		sum += values[i]
		if i-start >= period {
			sum -= values[i-period]
		}
		if i-start >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA is the exponential moving average with alpha 2/(period+1), seeded by the SMA of
// the first full window
func EMA(values []float64, period int) []float64 {
	return smooth(values, period, 2/float64(period+1))
}

// RMA is Wilder's moving average (alpha 1/period), seeded by the SMA of the first full window
func RMA(values []float64, period int) []float64 {
	return smooth(values, period, 1/float64(period))
}

func smooth(values []float64, period int, alpha float64) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	start := firstValid(values)
	seed := start + period - 1
	if seed >= len(values) {
		return out
	}

	sum := 0.0
	for i := start; i <= seed; i++ {
		sum += values[i]
	}
	prev := sum / float64(period)
	out[seed] = prev
	for i := seed + 1; i < len(values); i++ {
		prev += alpha * (values[i] - prev)
		out[i] = prev
	}
	return out
}

// RSI is the relative strength index over Wilder-smoothed gains and losses.
// A window without losses reads 100, one without any movement reads 50.
func RSI(closes []float64, period int) []float64 {
	gains := nanSeries(len(closes))
	losses := nanSeries(len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gains[i] = math.Max(change, 0)
		losses[i] = math.Max(-change, 0)
	}

	avgGain := RMA(gains, period)
	avgLoss := RMA(losses, period)
	out := nanSeries(len(closes))
	for i := range closes {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
		case l == 0 && g == 0:
			out[i] = 50
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|). The first bar has no
// previous close and is NaN.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := nanSeries(len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		out[i] = math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
	}
	return out
}

// ATR is the Wilder-smoothed true range
func ATR(highs, lows, closes []float64, period int) []float64 {
	return RMA(TrueRange(highs, lows, closes), period)
}

// ADX is the average directional index. Bars where the directional indicators are
// both zero read a DX of zero.
func ADX(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	plusDM := nanSeries(n)
	minusDM := nanSeries(n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		plusDM[i], minusDM[i] = 0, 0
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atr := ATR(highs, lows, closes, period)
	smoothPlus := RMA(plusDM, period)
	smoothMinus := RMA(minusDM, period)

	dx := nanSeries(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) || math.IsNaN(smoothPlus[i]) || math.IsNaN(smoothMinus[i]) {
			continue
		}
		if atr[i] == 0 {
			dx[i] = 0
			continue
		}
		plusDI := 100 * smoothPlus[i] / atr[i]
		minusDI := 100 * smoothMinus[i] / atr[i]
		sum := plusDI + minusDI
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
	}
	return RMA(dx, period)
}
