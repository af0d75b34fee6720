package provider

import "sort"

// Registry holds the configured providers and selects which of them may
// serve a fetch cycle.
type Registry struct {
	providers []Provider
}

// NewRegistry creates a registry over the given providers.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// All returns every registered provider.
func (r *Registry) All() []Provider {
	return r.providers
}

// Eligible returns the providers with remaining quota, ordered by remaining
// capacity descending so each cycle leans on the least-used provider first.
// Quota exhaustion is not an error; an empty result ends the cycle early.
func (r *Registry) Eligible() []Provider {
	var eligible []Provider
	for _, p := range r.providers {
		if p.RemainingRequests() > 0 {
			eligible = append(eligible, p)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].RemainingRequests() > eligible[j].RemainingRequests()
	})
	return eligible
}
