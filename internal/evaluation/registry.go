package evaluation

import (
	"fmt"
	"sort"

	"mireval/internal/experiment"
)

// Factory builds a Scorer for one task family.
type Factory func(opts ScorerOptions) (Scorer, error)

// Registry maps task families to scorer factories.
type Registry struct {
	factories map[experiment.Family]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[experiment.Family]Factory)}
}

// Register adds a factory. Registering a family twice is an error.
func (r *Registry) Register(family experiment.Family, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("register %s: nil factory", family)
	}
	if _, exists := r.factories[family]; exists {
		return fmt.Errorf("register %s: family already registered", family)
	}
	r.factories[family] = factory
	return nil
}

// New constructs the scorer registered for family.
func (r *Registry) New(family experiment.Family, opts ScorerOptions) (Scorer, error) {
	factory, ok := r.factories[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	scorer, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("build %s scorer: %w", family, err)
	}
	return scorer, nil
}

// Families lists registered families in lexical order.
func (r *Registry) Families() []experiment.Family {
	out := make([]experiment.Family, 0, len(r.factories))
	for f := range r.factories {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
