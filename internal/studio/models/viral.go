package models

type ScoreCategory string

const (
	CategoryLow      ScoreCategory = "low"
	CategoryModerate ScoreCategory = "moderate"
	CategoryHigh     ScoreCategory = "high"
	CategoryViral    ScoreCategory = "viral"
)

// CategoryFor maps a score onto its band: <40, <60, <80, >=80.
func CategoryFor(score int) ScoreCategory {
	switch {
	case score < 40:
		return CategoryLow
	case score < 60:
		return CategoryModerate
	case score < 80:
		return CategoryHigh
	default:
		return CategoryViral
	}
}

type ScoreBreakdown struct {
	Hook    int `json:"hook"`
	Pacing  int `json:"pacing"`
	Visuals int `json:"visuals"`
	Audio   int `json:"audio"`
	Trend   int `json:"trend"`
}

type ViralScore struct {
	Score               int            `json:"score"`
	Category            ScoreCategory  `json:"category"`
	Breakdown           ScoreBreakdown `json:"breakdown"`
	Suggestions         []string       `json:"suggestions"`
	PredictedViews      int            `json:"predicted_views"`
	PredictedEngagement float64        `json:"predicted_engagement"`
	Fallback            bool           `json:"fallback"`
}

func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Normalize clamps the score and every sub-score into [0,100] and derives
// the category from the clamped score.
func (v *ViralScore) Normalize() {
	v.Score = ClampScore(v.Score)
	v.Breakdown.Hook = ClampScore(v.Breakdown.Hook)
	v.Breakdown.Pacing = ClampScore(v.Breakdown.Pacing)
	v.Breakdown.Visuals = ClampScore(v.Breakdown.Visuals)
	v.Breakdown.Audio = ClampScore(v.Breakdown.Audio)
	v.Breakdown.Trend = ClampScore(v.Breakdown.Trend)
	v.Category = CategoryFor(v.Score)
	if v.PredictedViews < 0 {
		v.PredictedViews = 0
	}
	if v.PredictedEngagement < 0 {
		v.PredictedEngagement = 0
	}
}
