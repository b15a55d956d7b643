package viral

import (
	"sort"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

const (
	maxSuggestions = 5
	weakSubScore   = 70
)

var subScoreTips = map[string]string{
	"hook":    "Open with a stronger hook in the first 2 seconds",
	"pacing":  "Tighten the pacing by trimming slow sections",
	"visuals": "Add more visual variety with transitions or filters",
	"audio":   "Use a trending sound or raise the music level",
	"trend":   "Tie the clip to a current trend or hashtag",
}

var bandTips = map[models.ScoreCategory][]string{
	models.CategoryLow: {
		"Keep the video under 30 seconds",
		"Add captions so the clip works without sound",
	},
	models.CategoryModerate: {
		"Add a clear call to action at the end",
		"Post when your audience is most active",
	},
	models.CategoryHigh: {
		"Reply to early comments to boost engagement",
		"Cross-post to a second platform",
	},
	models.CategoryViral: {
		"Publish now while the topic is fresh",
		"Pin the video to your profile",
	},
}

type subScore struct {
	name  string
	value int
}

// Suggest lists improvement tips: weak sub-scores first, lowest first, then
// tips for the score band. At most five are returned.
func Suggest(score int, b models.ScoreBreakdown) []string {
	subs := []subScore{
		{"hook", b.Hook},
		{"pacing", b.Pacing},
		{"visuals", b.Visuals},
		{"audio", b.Audio},
		{"trend", b.Trend},
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].value < subs[j].value })

	out := make([]string, 0, maxSuggestions)
	for _, s := range subs {
		if s.value >= weakSubScore || len(out) == maxSuggestions {
			break
		}
		out = append(out, subScoreTips[s.name])
	}
	for _, tip := range bandTips[models.CategoryFor(score)] {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, tip)
	}
	return out
}
