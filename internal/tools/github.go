package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"
	"golang.org/x/time/rate"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 30
	defaultSearchSort  = "stars"
)

// Repository is the summary returned by github_search.
type Repository struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Language    string    `json:"language"`
	URL         string    `json:"url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RepositoryDetail is returned by github_info.
type RepositoryDetail struct {
	Repository
	Topics    []string  `json:"topics"`
	CreatedAt time.Time `json:"created_at"`
}

type GitHubOptions struct {
	Token string
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL           string
	RequestsPerMinute int
	Timeout           time.Duration
}

// GitHubClient is shared by the GitHub capabilities. The limiter keeps
// parallel plan steps under the configured request rate.
type GitHubClient struct {
	gh      *github.Client
	limiter *rate.Limiter
}

func NewGitHubClient(opts GitHubOptions) (*GitHubClient, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	gh := github.NewClient(&http.Client{Timeout: opts.Timeout})
	if opts.Token != "" {
		gh = gh.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
		gh.BaseURL = u
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), opts.RequestsPerMinute)
	}
	return &GitHubClient{gh: gh, limiter: limiter}, nil
}

func (c *GitHubClient) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("github rate limiter: %w", err)
	}
	return nil
}

func (c *GitHubClient) SearchRepositories(ctx context.Context, query, sort string, limit int) ([]Repository, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	res, _, err := c.gh.Search.Repositories(ctx, query, &github.SearchOptions{
		Sort:        sort,
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, githubError(err)
	}

	repos := make([]Repository, 0, len(res.Repositories))
	for _, r := range res.Repositories {
		repos = append(repos, toRepository(r))
		if len(repos) == limit {
			break
		}
	}
	return repos, nil
}

func (c *GitHubClient) GetRepository(ctx context.Context, owner, repo string) (*RepositoryDetail, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, githubError(err)
	}
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return &RepositoryDetail{
		Repository: toRepository(r),
		Topics:     topics,
		CreatedAt:  r.GetCreatedAt().Time,
	}, nil
}

func toRepository(r *github.Repository) Repository {
	desc := r.GetDescription()
	if desc == "" {
		desc = "No description"
	}
	lang := r.GetLanguage()
	if lang == "" {
		lang = "Unknown"
	}
	return Repository{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: desc,
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Language:    lang,
		URL:         r.GetHTMLURL(),
		UpdatedAt:   r.GetUpdatedAt().Time,
	}
}

func githubError(err error) error {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return fmt.Errorf("GitHub API rate limit exceeded, resets at %s", rle.Rate.Reset.Format(time.RFC3339))
	}
	return fmt.Errorf("GitHub API error: %w", err)
}

// GitHubSearchTool implements github_search.
type GitHubSearchTool struct {
	client *GitHubClient
}

func NewGitHubSearchTool(client *GitHubClient) *GitHubSearchTool {
	return &GitHubSearchTool{client: client}
}

func (t *GitHubSearchTool) Name() Action { return ActionGitHubSearch }

func (t *GitHubSearchTool) Description() string {
	return "Search GitHub repositories by query, returns top repositories with stars and info"
}

func (t *GitHubSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "GitHub search query, e.g. \"machine learning language:python\"",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Number of repositories to return (1-30, default 5)",
			},
			"sort": map[string]any{
				"type":        "string",
				"enum":        []string{"stars", "forks", "updated"},
				"description": "Sort order, default stars",
			},
		},
		"required": []string{"query"},
	}
}

func (t *GitHubSearchTool) Invoke(ctx context.Context, params map[string]any) (any, error) {
	query, err := requiredString(params, "query")
	if err != nil {
		return nil, err
	}
	limit, err := intParam(params, "limit", defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	sort := stringParam(params, "sort", defaultSearchSort)
	return t.client.SearchRepositories(ctx, query, sort, clamp(limit, 1, maxSearchLimit))
}

// GitHubInfoTool implements github_info.
type GitHubInfoTool struct {
	client *GitHubClient
}

func NewGitHubInfoTool(client *GitHubClient) *GitHubInfoTool {
	return &GitHubInfoTool{client: client}
}

func (t *GitHubInfoTool) Name() Action { return ActionGitHubInfo }

func (t *GitHubInfoTool) Description() string {
	return "Get detailed information about one GitHub repository given its owner and name"
}

func (t *GitHubInfoTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"owner": map[string]any{"type": "string", "description": "Repository owner"},
			"repo":  map[string]any{"type": "string", "description": "Repository name"},
		},
		"required": []string{"owner", "repo"},
	}
}

func (t *GitHubInfoTool) Invoke(ctx context.Context, params map[string]any) (any, error) {
	owner, err := requiredString(params, "owner")
	if err != nil {
		return nil, err
	}
	repo, err := requiredString(params, "repo")
	if err != nil {
		return nil, err
	}
	return t.client.GetRepository(ctx, owner, repo)
}
