package domain

import "math"

// Reach and clicks are not tracked directly; they are estimated from views
// at fixed ratios carried over from the reporting product.
const (
	ReachRatio = 0.7
	ClickRatio = 0.1
)

// PerformanceScore is a weighted 0-100 score. Each component is capped:
// views up to 40 points (20 per 1000 views), engagement up to 30 (30 per
// 100 interactions), engagement rate up to 20 (2 per percent), content
// count up to 10 (2 per item).
func PerformanceScore(views, engagement int64, engagementRate float64, contentCount int) float64 {
	viewsScore := math.Min(float64(views)/1000*20, 40)
	engagementScore := math.Min(float64(engagement)/100*30, 30)
	rateScore := math.Min(engagementRate*2, 20)
	contentScore := math.Min(float64(contentCount)*2, 10)

	return viewsScore + engagementScore + rateScore + contentScore
}

// TrendDelta is the percentage change against the previous period, rounded
// to one decimal. A previous value of 0 yields 100 when the current value
// is positive and 0 otherwise; this signals "new activity" without
// dividing by zero and is a product policy, not a mathematical necessity.
func TrendDelta(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return Round1((current - previous) / previous * 100)
}

// PublishRate is published/total as a percentage rounded to one decimal,
// defined as 0 when total is 0.
func PublishRate(published, total int64) float64 {
	if total == 0 {
		return 0
	}
	return Round1(float64(published) / float64(total) * 100)
}

func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
