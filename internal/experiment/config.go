package experiment

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Configuration is one named planner invocation variant. Immutable once
// registered.
type Configuration struct {
	Name      string
	Arguments []string
}

// Registry holds configurations in declaration order with unique names.
type Registry struct {
	configs []Configuration
	names   mapset.Set[string]
}

func NewRegistry(configs ...Configuration) (*Registry, error) {
	r := &Registry{names: mapset.NewSet[string]()}
	for _, c := range configs {
		if err := r.Add(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Add(c Configuration) error {
	if c.Name == "" {
		return fmt.Errorf("configuration with empty name")
	}
	if !r.names.Add(c.Name) {
		return fmt.Errorf("duplicate configuration name %q", c.Name)
	}
	r.configs = append(r.configs, c)
	return nil
}

func (r *Registry) Configurations() []Configuration {
	return r.configs
}
