package effects

import (
	"encoding/json"
	"fmt"
)

// Spec is the flat wire form of an effect.
type Spec struct {
	Kind      Kind      `json:"kind" yaml:"kind"`
	Duration  *float64  `json:"duration,omitempty" yaml:"duration,omitempty"`
	Intensity *float64  `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty"`
}

func SpecOf(e Effect) Spec {
	s := Spec{Kind: e.Kind()}
	for _, p := range e.params() {
		v := p.value
		switch p.name {
		case ParamDuration:
			s.Duration = &v
		case ParamIntensity:
			s.Intensity = &v
		}
	}
	if sl, ok := e.(Slide); ok {
		s.Direction = sl.Direction
	}
	return s
}

// Effect converts the spec into its parameter record. Missing parameters
// become zero; no range checks are made.
func (s Spec) Effect() (Effect, error) {
	e, err := zeroOf(s.Kind)
	if err != nil {
		return nil, err
	}
	d, i := deref(s.Duration), deref(s.Intensity)

	switch e.(type) {
	case Fade:
		return Fade{Duration: d}, nil
	case Slide:
		return Slide{Duration: d, Direction: s.Direction}, nil
	case Zoom:
		return Zoom{Duration: d, Intensity: i}, nil
	case Blur:
		return Blur{Intensity: i}, nil
	case Brightness:
		return Brightness{Intensity: i}, nil
	default:
		return Vignette{Intensity: i}, nil
	}
}

// List is an ordered effect stack that round-trips through JSON.
type List []Effect

func (l List) MarshalJSON() ([]byte, error) {
	specs := make([]Spec, 0, len(l))
	for _, e := range l {
		specs = append(specs, SpecOf(e))
	}
	return json.Marshal(specs)
}

func (l *List) UnmarshalJSON(data []byte) error {
	var specs []Spec
	if err := json.Unmarshal(data, &specs); err != nil {
		return err
	}
	out := make(List, 0, len(specs))
	for i, s := range specs {
		e, err := s.Effect()
		if err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
		out = append(out, e)
	}
	*l = out
	return nil
}

func zeroOf(k Kind) (Effect, error) {
	switch k {
	case KindFade:
		return Fade{}, nil
	case KindSlide:
		return Slide{}, nil
	case KindZoom:
		return Zoom{}, nil
	case KindBlur:
		return Blur{}, nil
	case KindBrightness:
		return Brightness{}, nil
	case KindVignette:
		return Vignette{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
