// Package publish commits local files to a GitHub repository and returns their
// public raw-content URL. The repository acts purely as durable file hosting.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

const (
	DefaultBranch        = "main"
	DefaultCommitMessage = "Add captured image"
	rawBaseURL           = "https://raw.githubusercontent.com"
)

var (
	// ErrIsDirectory is returned when the target path names a directory in the repository.
	ErrIsDirectory = errors.New("publish: target path is a directory")
	// ErrInvalidRepo is returned for repository identifiers not of the form owner/name.
	ErrInvalidRepo = errors.New("publish: repository must be owner/name")
)

// Result describes a completed publish.
type Result struct {
	URL     string // raw.githubusercontent.com URL of the committed file
	Path    string // path inside the repository
	SHA     string // blob SHA of the committed content
	Created bool   // true for a create, false for an update
}

// Publisher creates or updates files in a single repository.
type Publisher struct {
	client  *github.Client
	owner   string
	repo    string
	branch  string
	message string
	meta    *repoCache
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithBranch sets the branch commits go to and raw URLs point at (default "main").
func WithBranch(branch string) Option {
	return func(p *Publisher) {
		if branch != "" {
			p.branch = branch
		}
	}
}

// WithCommitMessage sets the commit message used for both creates and updates.
func WithCommitMessage(msg string) Option {
	return func(p *Publisher) {
		if msg != "" {
			p.message = msg
		}
	}
}

// WithMetadataTTL controls how long repository metadata is cached.
func WithMetadataTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		p.meta.ttl = ttl
	}
}

// New creates a Publisher for fullName ("owner/name") using client.
func New(client *github.Client, fullName string, opts ...Option) (*Publisher, error) {
	owner, repo, err := SplitRepo(fullName)
	if err != nil {
		return nil, err
	}
	p := &Publisher{
		client:  client,
		owner:   owner,
		repo:    repo,
		branch:  DefaultBranch,
		message: DefaultCommitMessage,
	}
	p.meta = newRepoCache(p.fetchMetadata, 10*time.Minute)
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewWithToken builds an authenticated GitHub client and wraps it in a Publisher.
// apiURL may point at a GitHub Enterprise API root; empty means github.com.
func NewWithToken(token, fullName, apiURL string, opts ...Option) (*Publisher, error) {
	client := github.NewClient(&http.Client{Timeout: 60 * time.Second}).WithAuthToken(token)
	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("publish: api url: %w", err)
		}
	}
	return New(client, fullName, opts...)
}

// SplitRepo splits "owner/name" into its parts.
func SplitRepo(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepo, fullName)
	}
	return owner, repo, nil
}

// Branch returns the branch commits are made on.
func (p *Publisher) Branch() string {
	return p.branch
}

// Publish uploads the file at localPath to repoPath, updating it when it already
// exists and creating it when the repository reports it absent. Lookup failures
// other than "not found" abort the publish rather than triggering a create.
func (p *Publisher) Publish(ctx context.Context, localPath, repoPath string) (*Result, error) {
	repoPath = strings.TrimPrefix(repoPath, "/")
	if repoPath == "" {
		return nil, fmt.Errorf("publish: empty repository path")
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("publish: read %s: %w", localPath, err)
	}

	meta, err := p.meta.get(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := p.lookup(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(p.message),
		Content: data,
		Branch:  github.String(p.branch),
	}

	var resp *github.RepositoryContentResponse
	created := existing == nil
	if created {
		resp, _, err = p.client.Repositories.CreateFile(ctx, p.owner, p.repo, repoPath, opts)
		if err != nil {
			p.meta.invalidate()
			return nil, fmt.Errorf("publish: create %s: %w", repoPath, err)
		}
	} else {
		opts.SHA = existing.SHA
		resp, _, err = p.client.Repositories.UpdateFile(ctx, p.owner, p.repo, repoPath, opts)
		if err != nil {
			p.meta.invalidate()
			return nil, fmt.Errorf("publish: update %s: %w", repoPath, err)
		}
	}

	res := &Result{
		URL:     RawURL(meta.FullName, p.branch, repoPath),
		Path:    repoPath,
		Created: created,
	}
	if resp != nil && resp.Content != nil {
		res.SHA = resp.Content.GetSHA()
	}
	return res, nil
}

// lookup returns the existing file at path, or nil when the repository reports 404.
func (p *Publisher) lookup(ctx context.Context, path string) (*github.RepositoryContent, error) {
	file, dir, resp, err := p.client.Repositories.GetContents(ctx, p.owner, p.repo, path,
		&github.RepositoryContentGetOptions{Ref: p.branch})
	if err != nil {
		if isNotFound(resp, err) {
			return nil, nil
		}
		return nil, fmt.Errorf("publish: check %s: %w", path, err)
	}
	if file == nil && dir != nil {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	return file, nil
}

func (p *Publisher) fetchMetadata(ctx context.Context) (repoMetadata, error) {
	r, _, err := p.client.Repositories.Get(ctx, p.owner, p.repo)
	if err != nil {
		return repoMetadata{}, fmt.Errorf("publish: get repository %s/%s: %w", p.owner, p.repo, err)
	}
	full := r.GetFullName()
	if full == "" {
		full = p.owner + "/" + p.repo
	}
	return repoMetadata{FullName: full}, nil
}

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

// RawURL builds the raw.githubusercontent.com URL for path in fullName at branch.
func RawURL(fullName, branch, path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s/%s", rawBaseURL, fullName, branch, strings.Join(segments, "/"))
}
