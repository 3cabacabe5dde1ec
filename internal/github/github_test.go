package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// newTestClient returns a Client pointed at a test server, with the
// pagination throttle disabled so tests run instantly.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ghc := gh.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	ghc.BaseURL = base

	return &Client{gh: ghc, limiter: rate.NewLimiter(rate.Inf, 1)}
}

func TestListUserRepos(t *testing.T) {
	t.Run("single page", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/octocat/repos", r.URL.Path)
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			assert.Equal(t, "owner", r.URL.Query().Get("type"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[
				{"name":"proxy-rs","html_url":"https://github.com/octocat/proxy-rs","description":"a reverse proxy","created_at":"2024-03-01T10:00:00Z"},
				{"name":"notes","html_url":"https://github.com/octocat/notes","description":null,"created_at":"2023-06-15T08:30:00Z"}
			]`)
		}))

		repos, err := client.ListUserRepos(context.Background(), "octocat")

		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, "proxy-rs", repos[0].Name)
		assert.Equal(t, "https://github.com/octocat/proxy-rs", repos[0].URL)
		require.NotNil(t, repos[0].Description)
		assert.Equal(t, "a reverse proxy", *repos[0].Description)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), repos[0].CreatedAt)
		assert.Nil(t, repos[1].Description, "null description stays nil")
	})

	t.Run("pages until exhausted", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Query().Get("page") {
			case "", "1":
				w.Header().Set("Link", fmt.Sprintf(`<http://%s/users/octocat/repos?page=2&per_page=100>; rel="next"`, r.Host))
				fmt.Fprint(w, `[{"name":"one","html_url":"https://github.com/octocat/one","created_at":"2024-01-01T00:00:00Z"}]`)
			case "2":
				fmt.Fprint(w, `[{"name":"two","html_url":"https://github.com/octocat/two","created_at":"2024-01-02T00:00:00Z"}]`)
			default:
				t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
			}
		}))

		repos, err := client.ListUserRepos(context.Background(), "octocat")

		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, "one", repos[0].Name)
		assert.Equal(t, "two", repos[1].Name)
	})

	t.Run("empty list", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[]`)
		}))

		repos, err := client.ListUserRepos(context.Background(), "octocat")

		require.NoError(t, err)
		assert.Empty(t, repos)
	})

	t.Run("401 maps to AuthError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Bad credentials"}`)
		}))

		_, err := client.ListUserRepos(context.Background(), "octocat")

		require.Error(t, err)
		assert.True(t, IsAuth(err), "expected AuthError, got %T: %v", err, err)
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
		assert.Contains(t, authErr.Message, "Bad credentials")
	})

	t.Run("404 maps to NotFoundError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}))

		_, err := client.ListUserRepos(context.Background(), "ghost")

		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		var nfErr *NotFoundError
		require.ErrorAs(t, err, &nfErr)
		assert.Equal(t, "ghost", nfErr.User)
	})

	t.Run("rate limit maps to TransientError with reset time", func(t *testing.T) {
		reset := time.Now().Add(30 * time.Minute).Truncate(time.Second)
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", "5000")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
		}))

		_, err := client.ListUserRepos(context.Background(), "octocat")

		require.Error(t, err)
		assert.True(t, IsTransient(err))
		var trErr *TransientError
		require.ErrorAs(t, err, &trErr)
		assert.Equal(t, reset.Unix(), trErr.ResetAt.Unix())
	})

	t.Run("429 without rate headers maps to TransientError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"message":"too many requests"}`)
		}))

		_, err := client.ListUserRepos(context.Background(), "octocat")

		require.Error(t, err)
		assert.True(t, IsTransient(err), "got %T: %v", err, err)
		var trErr *TransientError
		require.ErrorAs(t, err, &trErr)
		assert.True(t, trErr.ResetAt.IsZero(), "bare 429 carries no reset time")
	})

	t.Run("500 maps to TransientError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.ListUserRepos(context.Background(), "octocat")

		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("connection failure maps to TransientError", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close() // nothing listening anymore

		ghc := gh.NewClient(nil)
		base, err := url.Parse(srv.URL + "/")
		require.NoError(t, err)
		ghc.BaseURL = base
		client := &Client{gh: ghc, limiter: rate.NewLimiter(rate.Inf, 1)}

		_, err = client.ListUserRepos(context.Background(), "octocat")

		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})
}

func TestNewClient(t *testing.T) {
	t.Run("rejects an unparsable API URL", func(t *testing.T) {
		_, err := NewClient(context.Background(), "token", "://not-a-url")
		require.Error(t, err)
	})

	t.Run("accepts the default API URL", func(t *testing.T) {
		client, err := NewClient(context.Background(), "token", "https://api.github.com")
		require.NoError(t, err)
		require.NotNil(t, client)
	})
}
