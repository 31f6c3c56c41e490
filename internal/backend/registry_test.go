package backend

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/VeriWing/types"
)

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name        string
		descriptors []Descriptor
		errContains string
	}{
		{
			name:        "empty registry",
			descriptors: nil,
			errContains: types.ErrNoBackends.Error(),
		},
		{
			name: "missing id",
			descriptors: []Descriptor{
				{Provider: "openai", Model: "gpt-5-mini"},
			},
			errContains: "missing id",
		},
		{
			name: "duplicate id",
			descriptors: []Descriptor{
				{ID: "a", Provider: "openai", Model: "m"},
				{ID: "a", Provider: "ollama", Model: "n"},
			},
			errContains: "duplicate backend id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.descriptors)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestNewRegistry_DefaultsAndOrder(t *testing.T) {
	reg, err := NewRegistry([]Descriptor{
		{ID: "zeta", Provider: "openai", Model: "m"},
		{ID: "alpha", Provider: "ollama", Model: "n", MaxConcurrency: 16},
	})
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].ID)
	assert.Equal(t, 16, all[0].MaxConcurrency)
	assert.Equal(t, "zeta", all[1].ID)
	assert.Equal(t, 4, all[1].MaxConcurrency, "unset concurrency gets the default")
}

func TestLoadRegistry_FromYAML(t *testing.T) {
	const file = `backends:
  - id: local
    provider: ollama
    model: llama3.2
    costClass: free
    strengths: [config, logging]
    maxConcurrency: 2
    generalPurpose: true
  - id: remote
    provider: anthropic
    model: claude-haiku-4.5
    costClass: paid
    strengths: [security]
`
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".veriwing/backends.yaml", []byte(file), 0o644))

	reg, err := LoadRegistry(fs, ".veriwing/backends.yaml")
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	local, ok := reg.Get("local")
	require.True(t, ok)
	assert.Equal(t, CostFree, local.CostClass)
	assert.True(t, local.GeneralPurpose)
	assert.True(t, local.HasStrength("config"))
	assert.False(t, local.HasStrength("security"))

	remote, ok := reg.Get("remote")
	require.True(t, ok)
	assert.Equal(t, CostPaid, remote.CostClass)
	assert.Equal(t, 4, remote.MaxConcurrency)
}

func TestLoadRegistry_MissingFileUsesDefaults(t *testing.T) {
	reg, err := LoadRegistry(afero.NewMemMapFs(), ".veriwing/backends.yaml")
	require.NoError(t, err)
	assert.Equal(t, len(DefaultDescriptors()), reg.Len())

	_, ok := reg.Get("ollama-local")
	assert.True(t, ok)
}

func TestLoadRegistry_BadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "backends.yaml", []byte("backends: [unclosed"), 0o644))

	_, err := LoadRegistry(fs, "backends.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse backend registry")
}

func TestDefaultDescriptors_HasFreeGeneralPurpose(t *testing.T) {
	// free-only routing depends on at least one free general-purpose
	// backend existing in the defaults.
	var found bool
	for _, d := range DefaultDescriptors() {
		if d.CostClass == CostFree && d.GeneralPurpose {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg, err := NewRegistry(DefaultDescriptors())
	require.NoError(t, err)

	_, ok := reg.Get("nope")
	assert.False(t, ok)
}

func TestNewRegistry_EmptyIsErrNoBackends(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.True(t, errors.Is(err, types.ErrNoBackends))
}
