package backend

import (
	"fmt"
	"sort"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/josephgoksu/VeriWing/types"
)

// registryFile is the on-disk shape of the backend registry.
type registryFile struct {
	Backends []Descriptor `yaml:"backends"`
}

// Registry holds the known backend descriptors for one run.
type Registry struct {
	descriptors []Descriptor
	byID        map[string]Descriptor
}

// NewRegistry builds a registry from descriptors, validating IDs and
// filling concurrency defaults.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, types.ErrNoBackends
	}
	byID := make(map[string]Descriptor, len(descriptors))
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("backend descriptor missing id (model %q)", d.Model)
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate backend id %q", d.ID)
		}
		if d.MaxConcurrency <= 0 {
			d.MaxConcurrency = 4
		}
		byID[d.ID] = d
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return &Registry{descriptors: out, byID: byID}, nil
}

// LoadRegistry reads the registry file if it exists, otherwise returns
// the built-in default registry.
func LoadRegistry(fs afero.Fs, path string) (*Registry, error) {
	if path != "" {
		if ok, _ := afero.Exists(fs, path); ok {
			data, err := afero.ReadFile(fs, path)
			if err != nil {
				return nil, fmt.Errorf("read backend registry: %w", err)
			}
			var file registryFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("parse backend registry %s: %w", path, err)
			}
			return NewRegistry(file.Backends)
		}
	}
	return NewRegistry(DefaultDescriptors())
}

// DefaultDescriptors is the built-in registry used when no backends file
// is configured.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			ID: "openai-mini", Provider: "openai", Model: "gpt-5-mini-2025-08-07",
			CostClass: CostPaid, MaxConcurrency: 8, GeneralPurpose: true,
			Strengths: []string{"api", "payment", "data"},
		},
		{
			ID: "claude-haiku", Provider: "anthropic", Model: "claude-haiku-4.5",
			CostClass: CostPaid, MaxConcurrency: 4,
			Strengths: []string{"concurrency", "security", "auth"},
		},
		{
			ID: "gemini-flash", Provider: "gemini", Model: "gemini-2.5-flash",
			CostClass: CostPaid, MaxConcurrency: 8,
			Strengths: []string{"browser", "mobile", "performance"},
		},
		{
			ID: "ollama-local", Provider: "ollama", Model: "llama3.2",
			CostClass: CostFree, MaxConcurrency: 2, GeneralPurpose: true,
			Strengths: []string{"config", "logging"},
		},
	}
}

// All returns every descriptor, sorted by ID.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Get returns a descriptor by ID.
func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Len returns the number of registered backends.
func (r *Registry) Len() int { return len(r.descriptors) }
