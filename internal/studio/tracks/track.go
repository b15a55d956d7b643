package tracks

import (
	"github.com/romariotrain/clip-studio/internal/studio/effects"
	"github.com/romariotrain/clip-studio/internal/studio/models"
)

// MinDuration is the shortest duration a track may be given.
const MinDuration = 0.1

// Draft describes a track to add. Nil optional fields take their defaults.
type Draft struct {
	Kind      models.TrackKind `json:"kind" validate:"required,oneof=video audio text"`
	Source    string           `json:"source" validate:"required_unless=Kind text"`
	Text      string           `json:"text"`
	StartTime float64          `json:"start_time" validate:"finite,gte=0"`
	Duration  float64          `json:"duration" validate:"finite,gte=0.1"`
	Opacity   *float64         `json:"opacity" validate:"omitempty,finite,gte=0,lte=1"`
	Volume    *float64         `json:"volume" validate:"omitempty,finite,gte=0,lte=1"`
	Position  models.Position  `json:"position"`
	Scale     *float64         `json:"scale" validate:"omitempty,finite,gt=0"`
}

// Patch carries the fields to merge into an existing track.
type Patch struct {
	Source    *string          `json:"source" validate:"omitempty,min=1"`
	Text      *string          `json:"text"`
	StartTime *float64         `json:"start_time" validate:"omitempty,finite,gte=0"`
	Duration  *float64         `json:"duration" validate:"omitempty,finite,gte=0.1"`
	Opacity   *float64         `json:"opacity" validate:"omitempty,finite,gte=0,lte=1"`
	Volume    *float64         `json:"volume" validate:"omitempty,finite,gte=0,lte=1"`
	Position  *models.Position `json:"position"`
	Scale     *float64         `json:"scale" validate:"omitempty,finite,gt=0"`
	Effects   *effects.List    `json:"effects"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

func (d Draft) build() models.VideoTrack {
	return models.VideoTrack{
		Kind:      d.Kind,
		Source:    d.Source,
		Text:      d.Text,
		StartTime: d.StartTime,
		Duration:  d.Duration,
		Opacity:   valueOr(d.Opacity, 1),
		Volume:    valueOr(d.Volume, 1),
		Effects:   effects.List{},
		Position:  d.Position,
		Scale:     valueOr(d.Scale, 1),
	}
}

func (p Patch) apply(t *models.VideoTrack) {
	if p.Source != nil {
		t.Source = *p.Source
	}
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.StartTime != nil {
		t.StartTime = *p.StartTime
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.Opacity != nil {
		t.Opacity = *p.Opacity
	}
	if p.Volume != nil {
		t.Volume = *p.Volume
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.Scale != nil {
		t.Scale = *p.Scale
	}
	if p.Effects != nil {
		t.Effects = append(effects.List{}, (*p.Effects)...)
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
