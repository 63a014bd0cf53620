package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goblinsan/gh-release-milestones/pkg/logging"
	"github.com/google/go-github/v66/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when GitHub answers 404 or a lookup has no match.
var ErrNotFound = errors.New("not found")

// Client wraps both the REST API client (go-github) and GraphQL client (githubv4).
// Every call waits on a shared limiter; reads are retried on transient
// failures, mutations never are.
type Client struct {
	REST    *github.Client
	GraphQL *githubv4.Client

	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	restURL    string
	graphqlURL string
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit paces calls to rps requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxRetries sets how often a failed read is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBackoff sets the delay before the first retry; it doubles on each attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithBaseURLs points the client at another API host (GitHub Enterprise or a
// test server).
func WithBaseURLs(restURL, graphqlURL string) Option {
	return func(c *Client) {
		c.restURL = restURL
		c.graphqlURL = graphqlURL
	}
}

// NewClient creates a new GitHub client with both REST and GraphQL capabilities
func NewClient(token string, opts ...Option) (*Client, error) {
	var httpClient *http.Client

	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		httpClient = http.DefaultClient
	}

	c := &Client{
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: 3,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.REST = github.NewClient(httpClient)
	if c.restURL != "" {
		base := c.restURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		c.REST.BaseURL = u
		c.REST.UploadURL = u
	}

	if c.graphqlURL != "" {
		c.GraphQL = githubv4.NewEnterpriseClient(c.graphqlURL, httpClient)
	} else {
		c.GraphQL = githubv4.NewClient(httpClient)
	}

	return c, nil
}

// GetAuthenticatedUser returns information about the authenticated user
func (c *Client) GetAuthenticatedUser(ctx context.Context) (*github.User, error) {
	var user *github.User
	err := c.read(ctx, "get authenticated user", func() (*github.Response, error) {
		var resp *github.Response
		var err error
		user, resp, err = c.REST.Users.Get(ctx, "")
		return resp, err
	})
	return user, err
}

// read runs a REST read under the limiter, retrying transient failures with
// exponential back-off. A spent primary rate limit waits for its reset instead.
func (c *Client) read(ctx context.Context, op string, fn func() (*github.Response, error)) error {
	delay := c.backoff
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		resp, err := fn()
		if err == nil {
			return nil
		}
		if isNotFound(resp, err) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		if attempt >= c.maxRetries || !retryable(ctx, resp, err) {
			return fmt.Errorf("%s: %w", op, err)
		}

		wait := delay
		var abuse *github.AbuseRateLimitError
		var limited *github.RateLimitError
		switch {
		case errors.As(err, &abuse) && abuse.RetryAfter != nil:
			wait = *abuse.RetryAfter
		case errors.As(err, &limited):
			// go-github refuses further requests locally until the reset.
			wait = time.Until(limited.Rate.Reset.Time)
			if wait < 0 {
				wait = 0
			}
		}
		logging.Warn("retrying github request", "op", op, "attempt", attempt+1, "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(wait):
		}
		delay *= 2
	}
}

// mutate runs a write under the limiter. Writes are not retried.
func (c *Client) mutate(ctx context.Context, op string, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var er *github.ErrorResponse
	return errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound
}

func retryable(ctx context.Context, resp *github.Response, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var abuse *github.AbuseRateLimitError
	var limited *github.RateLimitError
	if errors.As(err, &abuse) || errors.As(err, &limited) {
		return true
	}
	if resp == nil {
		// transport failure
		return true
	}
	return resp.StatusCode >= http.StatusInternalServerError
}
