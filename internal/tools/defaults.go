package tools

import (
	"fmt"
	"slices"

	"github.com/rahul/opsagent/pkg/config"
)

// NewDefaultRegistry builds the standard capability set from configuration,
// leaving out the actions listed in cfg.Disabled. web_page is limited to
// public addresses unless policy.AllowPrivateHosts is set.
func NewDefaultRegistry(cfg config.ToolsConfig, policy config.PolicyConfig) (*Registry, error) {
	for _, name := range cfg.Disabled {
		if !slices.Contains(Actions, Action(name)) {
			return nil, fmt.Errorf("tools.disabled: unknown action %q", name)
		}
	}
	enabled := func(a Action) bool {
		return !slices.Contains(cfg.Disabled, string(a))
	}

	gh, err := NewGitHubClient(GitHubOptions{
		Token:             cfg.GitHub.Token,
		BaseURL:           cfg.GitHub.BaseURL,
		RequestsPerMinute: cfg.GitHub.RequestsPerMinute,
		Timeout:           cfg.GitHub.Timeout,
	})
	if err != nil {
		return nil, err
	}
	weather := NewWeatherClient(WeatherOptions{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Timeout: cfg.Weather.Timeout,
	})

	var caps []Capability
	if enabled(ActionGitHubSearch) {
		caps = append(caps, NewGitHubSearchTool(gh))
	}
	if enabled(ActionGitHubInfo) {
		caps = append(caps, NewGitHubInfoTool(gh))
	}
	if enabled(ActionWeatherCurrent) {
		caps = append(caps, NewWeatherCurrentTool(weather))
	}
	if enabled(ActionWeatherForecast) {
		caps = append(caps, NewWeatherForecastTool(weather))
	}
	if enabled(ActionWebSearch) {
		search, err := NewSearchTool(cfg.Web.MaxResults, cfg.Web.UserAgent)
		if err != nil {
			return nil, fmt.Errorf("web search: %w", err)
		}
		caps = append(caps, search)
	}
	if enabled(ActionWebPage) {
		var opts []ScraperOption
		if policy.AllowPrivateHosts {
			opts = append(opts, AllowPrivateHosts())
		}
		caps = append(caps, NewScraperTool(cfg.Web.UserAgent, cfg.Web.Timeout, opts...))
	}
	return NewRegistry(caps...)
}
