package warehouse

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry = make(map[string]TableSpec)
	mu       sync.RWMutex
)

// Register adds a table spec to the registry.
func Register(spec TableSpec) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(spec.Name)] = spec
}

// Get retrieves a table spec by name, ignoring case.
func Get(name string) (TableSpec, error) {
	mu.RLock()
	defer mu.RUnlock()

	spec, ok := registry[strings.ToLower(name)]
	if !ok {
		return TableSpec{}, fmt.Errorf("unknown table: %s", name)
	}
	return spec, nil
}

// List returns all registered table names in load order.
func List() []string {
	specs := All()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// All returns all registered table specs in load order.
func All() []TableSpec {
	mu.RLock()
	defer mu.RUnlock()

	specs := make([]TableSpec, 0, len(registry))
	for _, spec := range registry {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Order != specs[j].Order {
			return specs[i].Order < specs[j].Order
		}
		return specs[i].Name < specs[j].Name
	})
	return specs
}

// Select resolves names to specs in load order. No names selects all.
func Select(names []string) ([]TableSpec, error) {
	if len(names) == 0 {
		return All(), nil
	}
	specs := make([]TableSpec, 0, len(names))
	for _, name := range names {
		spec, err := Get(name)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].Order < specs[j].Order
	})
	return specs, nil
}
