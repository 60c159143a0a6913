package provider

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var ErrUnknownProvider = errors.New("unknown identity provider")

// Registry maps redirect-flow provider names to providers. A nil
// *Registry has no providers.
type Registry struct {
	byName map[string]OAuthProvider
}

// NewRegistry indexes list by Name. A later provider with the same name
// replaces an earlier one.
func NewRegistry(list ...OAuthProvider) *Registry {
	byName := make(map[string]OAuthProvider, len(list))
	for _, p := range list {
		byName[p.Name()] = p
	}
	return &Registry{byName: byName}
}

func (r *Registry) Get(name string) (OAuthProvider, error) {
	if r != nil {
		if p, ok := r.byName[name]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// Names lists the registered providers in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.byName))
}
