package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapability struct {
	name Action
}

func (f fakeCapability) Name() Action { return f.name }
func (f fakeCapability) Description() string { return "fake " + string(f.name) }
func (f fakeCapability) Parameters() map[string]any { return map[string]any{} }
func (f fakeCapability) Invoke(context.Context, map[string]any) (any, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(
		fakeCapability{ActionWeatherCurrent},
		fakeCapability{ActionGitHubSearch},
	)
	require.NoError(t, err)

	c, ok := reg.Resolve("github_search")
	require.True(t, ok)
	assert.Equal(t, ActionGitHubSearch, c.Name())

	_, ok = reg.Resolve("github_serach")
	assert.False(t, ok)

	caps := reg.Capabilities()
	require.Len(t, caps, 2)
	assert.Equal(t, ActionWeatherCurrent, caps[0].Name())

	// callers cannot mutate the registry through the returned slice
	caps[0] = fakeCapability{ActionWebPage}
	assert.Equal(t, ActionWeatherCurrent, reg.Capabilities()[0].Name())
}

func TestRegistry_Rejects(t *testing.T) {
	_, err := NewRegistry(fakeCapability{ActionWebPage}, fakeCapability{ActionWebPage})
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewRegistry(fakeCapability{""})
	assert.Error(t, err)
}

func TestIntParam(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		want    int
		wantErr bool
	}{
		{"missing", map[string]any{}, 5, false},
		{"json number", map[string]any{"limit": float64(10)}, 10, false},
		{"int", map[string]any{"limit": 3}, 3, false},
		{"numeric string", map[string]any{"limit": " 7 "}, 7, false},
		{"empty string", map[string]any{"limit": ""}, 5, false},
		{"garbage", map[string]any{"limit": "ten"}, 0, true},
		{"bool", map[string]any{"limit": true}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := intParam(tt.params, "limit", 5)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequiredString(t *testing.T) {
	_, err := requiredString(map[string]any{"city": "  "}, "city")
	assert.ErrorIs(t, err, ErrMissingParameter)

	s, err := requiredString(map[string]any{"city": "Paris"}, "city")
	require.NoError(t, err)
	assert.Equal(t, "Paris", s)
}
