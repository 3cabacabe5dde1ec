package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"repo-atlas/internal/models"
)

const (
	// defaultTimeout bounds each API request.
	defaultTimeout = 30 * time.Second

	// perPage is the maximum page size the GitHub API allows.
	perPage = 100

	// pageRate throttles pagination to two requests per second, well under
	// the authenticated 5000/hour limit.
	pageRate = rate.Limit(2)
)

// Client wraps the go-github client with pagination, throttling, and error
// mapping for the one listing operation the pipeline needs.
type Client struct {
	gh      *gh.Client
	limiter *rate.Limiter
}

// NewClient creates a GitHub API client authenticated with a personal
// access token. apiURL overrides the https://api.github.com default (GitHub
// Enterprise or a test server); pass "" for the default.
func NewClient(ctx context.Context, token, apiURL string) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = defaultTimeout

	ghc := gh.NewClient(tc)
	if apiURL != "" && apiURL != "https://api.github.com" {
		// go-github requires a trailing slash on BaseURL.
		u, err := url.Parse(strings.TrimSuffix(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API URL: %w", err)
		}
		ghc.BaseURL = u
	}

	return &Client{
		gh:      ghc,
		limiter: rate.NewLimiter(pageRate, 1),
	}, nil
}

// ListUserRepos returns every public repository owned by username, paging
// through the API until exhausted. Order is the provider's default and is
// not guaranteed stable across runs.
func (c *Client) ListUserRepos(ctx context.Context, username string) ([]models.Repo, error) {
	var all []models.Repo

	opts := &gh.RepositoryListByUserOptions{
		Type:        "owner",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		repos, resp, err := c.gh.Repositories.ListByUser(ctx, username, opts)
		if err != nil {
			return nil, mapError(err, username)
		}

		for _, r := range repos {
			all = append(all, toRepo(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

func toRepo(r *gh.Repository) models.Repo {
	return models.Repo{
		Name:        r.GetName(),
		Description: r.Description,
		URL:         r.GetHTMLURL(),
		CreatedAt:   r.GetCreatedAt().Time,
	}
}

// mapError converts go-github errors into the fetcher's error taxonomy.
// Rate limits are checked first: go-github reports them as dedicated types,
// so a 403 reaching the ErrorResponse branch is a credential problem.
func mapError(err error, username string) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &TransientError{Err: err, ResetAt: rateErr.Rate.Reset.Time}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		var reset time.Time
		if abuseErr.RetryAfter != nil {
			reset = time.Now().Add(*abuseErr.RetryAfter)
		}
		return &TransientError{Err: err, ResetAt: reset}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch status := ghErr.Response.StatusCode; {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return &AuthError{StatusCode: status, Message: ghErr.Message}
		case status == http.StatusNotFound:
			return &NotFoundError{User: username}
		case status == http.StatusTooManyRequests || status >= 500:
			return &TransientError{Err: err}
		default:
			return fmt.Errorf("listing repositories for %s: %w", username, err)
		}
	}

	// Transport-level failure: DNS, refused connection, timeout.
	return &TransientError{Err: err}
}
