// Package effects holds the transitions and filters that can be applied to a
// track. Every kind is its own parameter record; the set is closed.
package effects

type Kind string

const (
	KindFade       Kind = "fade"
	KindSlide      Kind = "slide"
	KindZoom       Kind = "zoom"
	KindBlur       Kind = "blur"
	KindBrightness Kind = "brightness"
	KindVignette   Kind = "vignette"
)

type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// Parameter names shared by the catalog and the wire format.
const (
	ParamDuration  = "duration"
	ParamIntensity = "intensity"
)

// Effect is implemented only by the parameter records in this package.
type Effect interface {
	Kind() Kind
	params() []param
}

type param struct {
	name  string
	value float64
}

type Fade struct {
	Duration float64
}

type Slide struct {
	Duration  float64
	Direction Direction `validate:"required,oneof=left right up down"`
}

type Zoom struct {
	Duration  float64
	Intensity float64
}

type Blur struct {
	Intensity float64
}

type Brightness struct {
	Intensity float64
}

type Vignette struct {
	Intensity float64
}

func (Fade) Kind() Kind       { return KindFade }
func (Slide) Kind() Kind      { return KindSlide }
func (Zoom) Kind() Kind       { return KindZoom }
func (Blur) Kind() Kind       { return KindBlur }
func (Brightness) Kind() Kind { return KindBrightness }
func (Vignette) Kind() Kind   { return KindVignette }

func (e Fade) params() []param  { return []param{{ParamDuration, e.Duration}} }
func (e Slide) params() []param { return []param{{ParamDuration, e.Duration}} }
func (e Zoom) params() []param {
	return []param{{ParamDuration, e.Duration}, {ParamIntensity, e.Intensity}}
}
func (e Blur) params() []param       { return []param{{ParamIntensity, e.Intensity}} }
func (e Brightness) params() []param { return []param{{ParamIntensity, e.Intensity}} }
func (e Vignette) params() []param   { return []param{{ParamIntensity, e.Intensity}} }

// Params returns the numeric parameters of e keyed by name.
func Params(e Effect) map[string]float64 {
	out := make(map[string]float64)
	for _, p := range e.params() {
		out[p.name] = p.value
	}
	return out
}
