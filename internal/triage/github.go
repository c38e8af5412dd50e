package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// TokenEnv holds the GitHub token used to file issues
	TokenEnv = "GITHUB_TOKEN"
	// RepoEnv names the owner/repo issues are filed against
	RepoEnv = "GROK_ISSUE_REPO"
	// DefaultRepo is used when RepoEnv is unset
	DefaultRepo = "aigent47/grok-code"
	// DefaultAPIURL is the GitHub REST endpoint
	DefaultAPIURL = "https://api.github.com"
)

// ErrNoToken means issue filing is not configured
var ErrNoToken = errors.New("github token not configured")

// Issue is a filed issue
type Issue struct {
	Number int    `json:"number"`
	URL    string `json:"html_url"`
}

// IssueFiler files approved requests somewhere trackable
type IssueFiler interface {
	File(ctx context.Context, r Request) (Issue, error)
}

// GitHubFiler files issues through the GitHub REST API
type GitHubFiler struct {
	Token   string
	Repo    string
	BaseURL string
	Client  *http.Client
}

// NewGitHubFiler reads the token and repository from the environment
func NewGitHubFiler(getenv func(string) string) *GitHubFiler {
	repo := getenv(RepoEnv)
	if repo == "" {
		repo = DefaultRepo
	}
	return &GitHubFiler{
		Token:   getenv(TokenEnv),
		Repo:    repo,
		BaseURL: DefaultAPIURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type issueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// File creates an issue for r
func (g *GitHubFiler) File(ctx context.Context, r Request) (Issue, error) {
	if g.Token == "" {
		return Issue{}, ErrNoToken
	}

	body, err := json.Marshal(issueRequest{Title: r.IssueTitle(), Body: r.IssueBody(), Labels: r.Parsed.Labels})
	if err != nil {
		return Issue{}, fmt.Errorf("failed to encode issue: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues", strings.TrimRight(g.BaseURL, "/"), g.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Issue{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return Issue{}, fmt.Errorf("failed to reach GitHub: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Issue{}, fmt.Errorf("failed to read GitHub response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return Issue{}, fmt.Errorf("GitHub returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var issue Issue
	if err := json.Unmarshal(data, &issue); err != nil {
		return Issue{}, fmt.Errorf("failed to decode GitHub response: %w", err)
	}
	return issue, nil
}
