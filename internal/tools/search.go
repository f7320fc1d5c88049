package tools

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// SearchResult is the web_search output. Results holds the search engine's
// formatted result list.
type SearchResult struct {
	Query   string `json:"query"`
	Results string `json:"results"`
}

type searcher interface {
	Call(ctx context.Context, input string) (string, error)
}

// SearchTool implements web_search over DuckDuckGo.
type SearchTool struct {
	client searcher
}

func NewSearchTool(maxResults int, userAgent string) (*SearchTool, error) {
	if userAgent == "" {
		userAgent = duckduckgo.DefaultUserAgent
	}
	ddg, err := duckduckgo.New(maxResults, userAgent)
	if err != nil {
		return nil, err
	}
	return &SearchTool{client: ddg}, nil
}

func (s *SearchTool) Name() Action {
	return ActionWebSearch
}

func (s *SearchTool) Description() string {
	return "Search the web with DuckDuckGo for current information that the GitHub and weather actions do not cover. Returns the top results as text."
}

func (s *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to look up",
			},
		},
		"required": []string{"query"},
	}
}

func (s *SearchTool) Invoke(ctx context.Context, params map[string]any) (any, error) {
	query, err := requiredString(params, "query")
	if err != nil {
		return nil, err
	}

	res, err := s.client.Call(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return SearchResult{Query: query, Results: res}, nil
}
