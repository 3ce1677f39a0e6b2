package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// GitHubConfig addresses the repository and branch that serve pages.
type GitHubConfig struct {
	Token       string
	APIBaseURL  string
	Owner       string
	Repo        string
	Branch      string
	RootDir     string
	SiteBaseURL string
}

// GitHubPublisher writes pages through the GitHub contents API.
type GitHubPublisher struct {
	cfg  GitHubConfig
	http *http.Client
	repo *github.RepositoriesService
	// baseErr is set when APIBaseURL cannot be parsed; Publish reports it.
	baseErr error
}

// GitHubOption configures a GitHubPublisher.
type GitHubOption func(*GitHubPublisher)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) GitHubOption {
	return func(p *GitHubPublisher) {
		p.http = hc
	}
}

// NewGitHubPublisher creates a publisher for cfg.
func NewGitHubPublisher(cfg GitHubConfig, opts ...GitHubOption) *GitHubPublisher {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.github.com"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	p := &GitHubPublisher{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}

	client := github.NewClient(p.http)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	base, err := url.Parse(strings.TrimRight(cfg.APIBaseURL, "/") + "/")
	if err != nil {
		p.baseErr = err
	} else {
		client.BaseURL = base
	}
	p.repo = client.Repositories
	return p
}

// LiveURL derives the public URL for key from static configuration.
func (p *GitHubPublisher) LiveURL(key string) string {
	if p.cfg.SiteBaseURL != "" {
		return joinURL(p.cfg.SiteBaseURL, key)
	}
	base := fmt.Sprintf("https://%s.github.io/%s", p.cfg.Owner, p.cfg.Repo)
	if root := strings.Trim(p.cfg.RootDir, "/"); root != "" {
		base += "/" + root
	}
	return joinURL(base, key)
}

// Publish reads the current blob SHA for the page and writes the new content
// with that SHA attached, or creates the file when the page does not exist yet.
func (p *GitHubPublisher) Publish(ctx context.Context, key string, content []byte) (model.PublishResult, error) {
	const op = "publish: github"
	if err := checkKey(op, key); err != nil {
		return failure(err)
	}
	if p.baseErr != nil {
		return failure(model.WrapError(model.KindPublish, op, "invalid api base url", p.baseErr))
	}

	path := objectPath(p.cfg.RootDir, key)

	sha, mErr := p.currentSHA(ctx, path)
	if mErr != nil {
		return failure(mErr)
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(commitMessage(key, sha == "")),
		Content: content,
		Branch:  github.String(p.cfg.Branch),
	}

	var (
		out  *github.RepositoryContentResponse
		resp *github.Response
		err  error
	)
	if sha == "" {
		out, resp, err = p.repo.CreateFile(ctx, p.cfg.Owner, p.cfg.Repo, path, opts)
	} else {
		opts.SHA = github.String(sha)
		out, resp, err = p.repo.UpdateFile(ctx, p.cfg.Owner, p.cfg.Repo, path, opts)
	}
	if err != nil {
		e := apiError(op, "write rejected", resp, err)
		zap.L().Warn("publish: github write rejected",
			zap.String("slug", key),
			zap.Int("status", e.Status),
			zap.Error(err),
		)
		return failure(e)
	}

	res := model.PublishResult{
		Success: true,
		LiveURL: p.LiveURL(key),
		Created: resp != nil && resp.StatusCode == http.StatusCreated,
	}
	if out != nil && out.Content != nil {
		res.Revision = out.Content.GetSHA()
	}
	var commit string
	if out != nil {
		commit = out.Commit.GetSHA()
	}
	zap.L().Info("publish: page written",
		zap.String("slug", key),
		zap.Bool("created", res.Created),
		zap.String("revision", res.Revision),
		zap.String("commit", commit),
	)
	return res, nil
}

// currentSHA returns the blob SHA at path, or "" when it does not exist.
func (p *GitHubPublisher) currentSHA(ctx context.Context, path string) (string, *model.Error) {
	const op = "publish: github"

	file, _, resp, err := p.repo.GetContents(ctx, p.cfg.Owner, p.cfg.Repo, path,
		&github.RepositoryContentGetOptions{Ref: p.cfg.Branch})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", apiError(op, "read current revision", resp, err)
	}
	if file == nil {
		return "", model.NewError(model.KindPublish, op, "read current revision").
			WithDetail(path + " is a directory")
	}
	return file.GetSHA(), nil
}

// apiError classifies a go-github failure, keeping the HTTP status and the
// API's error message when a response was received.
func apiError(op, msg string, resp *github.Response, err error) *model.Error {
	e := model.WrapError(model.KindPublish, op, msg, err)
	if resp != nil && resp.Response != nil {
		e = e.WithStatus(resp.StatusCode)
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) {
		return e.WithDetail(er.Message)
	}
	return e.WithDetail(err.Error())
}

func commitMessage(key string, create bool) string {
	if create {
		return "Add page for " + key
	}
	return "Update page for " + key
}
