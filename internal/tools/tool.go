package tools

import (
	"context"
	"fmt"
)

// Action names a capability. Plans refer to capabilities by Action.
type Action string

const (
	ActionGitHubSearch    Action = "github_search"
	ActionGitHubInfo      Action = "github_info"
	ActionWeatherCurrent  Action = "weather_current"
	ActionWeatherForecast Action = "weather_forecast"
	ActionWebSearch       Action = "web_search"
	ActionWebPage         Action = "web_page"
)

// Actions lists every known action in registration order.
var Actions = []Action{
	ActionGitHubSearch,
	ActionGitHubInfo,
	ActionWeatherCurrent,
	ActionWeatherForecast,
	ActionWebSearch,
	ActionWebPage,
}

// Capability is an external operation a plan step can invoke.
type Capability interface {
	Name() Action
	Description() string
	Parameters() map[string]any // JSON Schema for the capability's inputs
	Invoke(ctx context.Context, params map[string]any) (any, error)
}

// Registry resolves actions to capabilities. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	caps  []Capability
	index map[Action]Capability
}

func NewRegistry(caps ...Capability) (*Registry, error) {
	r := &Registry{
		index: make(map[Action]Capability, len(caps)),
	}
	for _, c := range caps {
		name := c.Name()
		if name == "" {
			return nil, fmt.Errorf("capability with empty name")
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("duplicate capability %q", name)
		}
		r.index[name] = c
		r.caps = append(r.caps, c)
	}
	return r, nil
}

// Resolve returns the capability registered for action.
func (r *Registry) Resolve(action string) (Capability, bool) {
	c, ok := r.index[Action(action)]
	return c, ok
}

// Capabilities returns the registered capabilities in registration order.
func (r *Registry) Capabilities() []Capability {
	out := make([]Capability, len(r.caps))
	copy(out, r.caps)
	return out
}
