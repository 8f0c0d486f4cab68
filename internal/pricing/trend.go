package pricing

type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

const (
	trendWindow    = 3
	trendThreshold = 0.05
)

// TrendOf compares the mean of the newest samples with the mean of the older
// ones. prices must be ordered newest first. The recent group holds up to
// three samples but always leaves at least one in the older group.
func TrendOf(prices []int64) Trend {
	if len(prices) < 2 {
		return TrendStable
	}
	split := min(trendWindow, len(prices)-1)
	recent, rest := mean(prices[:split]), mean(prices[split:])
	if rest == 0 {
		if recent > 0 {
			return TrendRising
		}
		return TrendStable
	}
	switch {
	case recent > rest*(1+trendThreshold):
		return TrendRising
	case recent < rest*(1-trendThreshold):
		return TrendFalling
	default:
		return TrendStable
	}
}

func mean(xs []int64) float64 {
	var sum float64
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}
