package editorial

import (
	"math"
	"time"
)

// NewsworthinessParams are the weights and curve parameters for the
// composite newsworthiness score.
type NewsworthinessParams struct {
	WeightMovement     float64
	WeightSignificance float64
	WeightVolatility   float64
	SigmoidSteepness   float64
	SigmoidMidpoint    float64
	MaxVolumeLog       float64
	MinChangeThreshold float64
}

// DefaultNewsworthinessParams returns the production defaults.
func DefaultNewsworthinessParams() NewsworthinessParams {
	return NewsworthinessParams{
		WeightMovement:     0.4,
		WeightSignificance: 0.5,
		WeightVolatility:   0.1,
		SigmoidSteepness:   0.15,
		SigmoidMidpoint:    8,
		MaxVolumeLog:       8,
		MinChangeThreshold: 2.0,
	}
}

// Newsworthiness computes the composite score from three components:
// a sigmoid over the absolute 24h change in percentage points, log-scaled
// volume, and a volatility bonus relative to the market's historical
// average daily change (pass 0 when unknown). With default weights the
// result lands in [0, 100]; custom weights can exceed it, and the score is
// deliberately not clamped.
func (p NewsworthinessParams) Newsworthiness(changePct, volume, avgDailyChange float64) float64 {
	absChange := math.Abs(changePct)

	movement := 100 / (1 + math.Exp(-p.SigmoidSteepness*(absChange-p.SigmoidMidpoint)))

	volumeLog := math.Log10(math.Max(volume, 1))
	significance := math.Min(100, volumeLog/p.MaxVolumeLog*100)

	volatilityBonus := 0.0
	if avgDailyChange > 0 {
		volatilityBonus = math.Min(20, absChange/avgDailyChange*4)
	}

	score := movement*p.WeightMovement +
		significance*p.WeightSignificance +
		volatilityBonus*p.WeightVolatility
	return round2(score)
}

// InterestingScore is the multi-factor ranking used by the
// sort=interesting market feed. Factors: absolute 24h price delta (2x),
// 24h volume rank (1x), urgency of the resolution date (1x), and price
// uncertainty around 0.5 (0.5x). Normalized to 0-100.
func InterestingScore(delta float64, volumeRank, totalMarkets int, resolutionDate *time.Time, currentPrice float64, now time.Time) float64 {
	deltaScore := math.Min(math.Abs(delta)/0.30, 1.0)

	if totalMarkets < 1 {
		totalMarkets = 1
	}
	volumeScore := math.Max(0, 1.0-float64(volumeRank)/float64(totalMarkets))

	urgencyScore := 0.0
	if resolutionDate != nil {
		daysUntil := math.Max(resolutionDate.Sub(now).Seconds()/86400, 0)
		if daysUntil > 0 {
			urgencyScore = math.Min(1.0/daysUntil, 1.0)
		} else {
			urgencyScore = 1.0
		}
	}

	uncertaintyScore := 1.0 - math.Abs(currentPrice-0.5)*2

	score := deltaScore*2.0 + volumeScore*1.0 + urgencyScore*1.0 + uncertaintyScore*0.5

	// Max possible raw score is 2 + 1 + 1 + 0.5 = 4.5.
	return round2(score / 4.5 * 100)
}

// FeaturedScore ranks markets within a category by volume times recency.
func FeaturedScore(volume float64, lastUpdated, now time.Time) float64 {
	hoursSince := math.Max(now.Sub(lastUpdated).Hours(), 1)
	recency := 1.0 / math.Log2(hoursSince+1)
	volScore := math.Log10(math.Max(volume, 1))
	return volScore * recency
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
