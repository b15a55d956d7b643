package effects

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var (
	ErrUnknownKind   = errors.New("unknown effect kind")
	ErrInvalidEffect = errors.New("invalid effect")
)

type Category string

const (
	CategoryTransition Category = "transition"
	CategoryFilter     Category = "filter"
)

type Range struct {
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Default float64 `json:"default" yaml:"default"`
}

type Definition struct {
	Kind     Kind             `json:"kind" yaml:"kind"`
	Name     string           `json:"name" yaml:"name"`
	Category Category         `json:"category" yaml:"category"`
	Params   map[string]Range `json:"params" yaml:"params"`
}

type catalogFile struct {
	Version int          `yaml:"version"`
	Effects []Definition `yaml:"effects"`
}

// Catalog declares the accepted parameter range of every effect kind.
type Catalog struct {
	defs     map[Kind]Definition
	validate *validator.Validate
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		c, err := ParseCatalog(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Sprintf("effects: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadCatalog reads a catalog file. An empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read effect catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse effect catalog: %w", err)
	}

	c := &Catalog{
		defs:     make(map[Kind]Definition, len(f.Effects)),
		validate: validator.New(),
	}
	for _, d := range f.Effects {
		if _, err := zeroOf(d.Kind); err != nil {
			return nil, err
		}
		if _, dup := c.defs[d.Kind]; dup {
			return nil, fmt.Errorf("effect catalog: duplicate kind %q", d.Kind)
		}
		for name, r := range d.Params {
			if r.Min > r.Max {
				return nil, fmt.Errorf("effect catalog: %s.%s min > max", d.Kind, name)
			}
			if r.Default < r.Min || r.Default > r.Max {
				return nil, fmt.Errorf("effect catalog: %s.%s default out of range", d.Kind, name)
			}
		}
		c.defs[d.Kind] = d
	}
	return c, nil
}

func (c *Catalog) Definition(k Kind) (Definition, bool) {
	d, ok := c.defs[k]
	return d, ok
}

// Definitions returns every declared kind sorted by category then kind.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category > out[j].Category
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Validate checks e against the declared range of each of its parameters.
func (c *Catalog) Validate(e Effect) error {
	if e == nil {
		return fmt.Errorf("%w: nil effect", ErrInvalidEffect)
	}
	def, ok := c.defs[e.Kind()]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind())
	}

	if err := c.validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidEffect, e.Kind(), err)
	}

	for _, p := range e.params() {
		r, declared := def.Params[p.name]
		if !declared {
			return fmt.Errorf("%w: %s.%s is not declared", ErrInvalidEffect, e.Kind(), p.name)
		}
		if err := c.validate.Var(p.value, rangeTag(r)); err != nil {
			return fmt.Errorf("%w: %s.%s=%v outside [%v, %v]", ErrInvalidEffect, e.Kind(), p.name, p.value, r.Min, r.Max)
		}
	}
	return nil
}

// Build turns a wire spec into a validated effect, filling missing
// parameters with the catalog defaults.
func (c *Catalog) Build(s Spec) (Effect, error) {
	def, ok := c.defs[s.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
	if s.Duration == nil {
		if r, ok := def.Params[ParamDuration]; ok {
			v := r.Default
			s.Duration = &v
		}
	}
	if s.Intensity == nil {
		if r, ok := def.Params[ParamIntensity]; ok {
			v := r.Default
			s.Intensity = &v
		}
	}
	if s.Kind == KindSlide && s.Direction == "" {
		s.Direction = DirectionLeft
	}

	e, err := s.Effect()
	if err != nil {
		return nil, err
	}
	if err := c.Validate(e); err != nil {
		return nil, err
	}
	return e, nil
}

func rangeTag(r Range) string {
	return "gte=" + strconv.FormatFloat(r.Min, 'f', -1, 64) +
		",lte=" + strconv.FormatFloat(r.Max, 'f', -1, 64)
}
