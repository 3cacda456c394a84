package github

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/lockgraph/lockgraph/pkg/buildinfo"
	"github.com/lockgraph/lockgraph/pkg/cache"
	errs "github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/integrations"
)

// DefaultBaseURL is the public GitHub REST endpoint.
const DefaultBaseURL = "https://api.github.com"

// LockfileName is the file requested from every repository.
const LockfileName = "package-lock.json"

var repoURLPattern = regexp.MustCompile(`https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

var (
	// ErrNoLockfile is returned when a repository has no downloadable lockfile.
	ErrNoLockfile = errors.New("no data available")

	// ErrInvalidRepoURL is returned for URLs that do not name a GitHub repository.
	ErrInvalidRepoURL = errors.New("not a github repository url")
)

// Options configures a [LockfileClient].
type Options struct {
	// Token is an optional personal access token. Without one GitHub allows
	// 60 requests per hour.
	Token string
	// BaseURL overrides [DefaultBaseURL].
	BaseURL string
	// Cache stores downloaded lockfiles. Nil disables caching.
	Cache cache.Cache
	// TTL is the cache lifetime, [cache.DefaultTTL] when zero.
	TTL time.Duration
}

// LockfileClient downloads package-lock.json files through the contents API.
type LockfileClient struct {
	*integrations.Client
	cache cache.Cache
	ttl   time.Duration
}

// NewLockfileClient creates a client from opts.
func NewLockfileClient(opts Options) *LockfileClient {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	c := integrations.NewClient(base, map[string]string{
		"Accept":     "application/vnd.github.v3+json",
		"User-Agent": buildinfo.UserAgent(),
	})
	c.SetAuthToken(opts.Token)

	ttl := opts.TTL
	if ttl == 0 {
		ttl = cache.DefaultTTL
	}
	store := opts.Cache
	if store == nil {
		store = cache.NewNullCache()
	}
	return &LockfileClient{Client: c, cache: store, ttl: ttl}
}

// ParseRepoURL extracts owner and name from a GitHub repository URL.
func ParseRepoURL(raw string) (Repository, error) {
	m := repoURLPattern.FindStringSubmatch(integrations.NormalizeRepoURL(raw))
	if m == nil {
		return Repository{}, errs.Wrap(errs.ErrCodeInvalidInput, ErrInvalidRepoURL, "%q", raw)
	}
	return Repository{Owner: m[1], Name: m[2]}, nil
}

// Fetch returns the raw package-lock.json of the repository at repoURL.
// If refresh is true a cached copy is ignored.
//
// The contents endpoint must answer 200 with base64 encoding; anything else,
// including a failed download, is reported as [ErrNoLockfile] (code NO_DATA).
// Transport failures carry code NETWORK_ERROR. Nothing is retried; the
// caller skips the project.
func (c *LockfileClient) Fetch(ctx context.Context, repoURL string, refresh bool) ([]byte, error) {
	repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	key := cache.LockfileKey(repo.Owner, repo.Name)
	return c.Cached(ctx, c.cache, key, c.ttl, refresh, func() ([]byte, error) {
		return c.download(ctx, repo)
	})
}

func (c *LockfileClient) download(ctx context.Context, repo Repository) ([]byte, error) {
	var content contentResponse
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", repo.Owner, repo.Name, LockfileName)
	if err := c.GetJSON(ctx, path, &content); err != nil {
		return nil, noLockfile(repo, err)
	}
	if content.Encoding != "base64" || content.DownloadURL == "" {
		return nil, noLockfile(repo, nil)
	}
	data, err := c.Get(ctx, content.DownloadURL)
	if err != nil {
		return nil, noLockfile(repo, err)
	}
	return data, nil
}

// noLockfile classifies err. Context cancellation and transport failures pass
// through so callers can tell them apart from a missing file.
func noLockfile(repo Repository, err error) error {
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	if err != nil && isTransport(err) {
		return errs.Wrap(errs.ErrCodeNetwork, err, "fetch %s", repo)
	}
	return errs.Wrap(errs.ErrCodeNoData, ErrNoLockfile, "%s", repo)
}

// isTransport reports whether err is a connection failure rather than an
// HTTP status.
func isTransport(err error) bool {
	var status *integrations.StatusError
	return errors.Is(err, integrations.ErrNetwork) && !errors.As(err, &status)
}
