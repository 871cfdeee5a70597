package flow

import (
	"fmt"
	"maps"
	"slices"

	"github.com/montage-ui/guideflow/pkg/api"
)

// Registry holds registered flow definitions keyed by id. Registration
// checks uniqueness only; structural validation of flow content is the
// loader's concern.
type Registry struct {
	flows map[api.FlowID]*api.FlowDefinition
}

// NewRegistry creates an empty flow registry
func NewRegistry() *Registry {
	return &Registry{
		flows: map[api.FlowID]*api.FlowDefinition{},
	}
}

// Register adds a definition to the registry
func (r *Registry) Register(def *api.FlowDefinition) error {
	if def.ID == "" {
		return api.ErrFlowIDEmpty
	}
	if _, ok := r.flows[def.ID]; ok {
		return fmt.Errorf("%w: %s", ErrFlowExists, def.ID)
	}
	r.flows[def.ID] = def
	return nil
}

// Get returns the definition for the given flow id
func (r *Registry) Get(id api.FlowID) (*api.FlowDefinition, bool) {
	def, ok := r.flows[id]
	return def, ok
}

// All returns every registered definition ordered by flow id
func (r *Registry) All() []*api.FlowDefinition {
	ids := slices.Collect(maps.Keys(r.flows))
	slices.Sort(ids)

	res := make([]*api.FlowDefinition, len(ids))
	for i, id := range ids {
		res[i] = r.flows[id]
	}
	return res
}
