// Package docent is a small web front-end that describes images with a hosted
// vision model. Images arrive by URL or by upload; uploads are first published
// to a GitHub repository so the model can fetch them from a stable public URL.
package docent

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eringen/docent/describe"
	"github.com/eringen/docent/publish"
	"github.com/eringen/docent/views"
)

// Describer turns an image URL into a natural-language description.
type Describer interface {
	Describe(ctx context.Context, imageURL string) (string, error)
}

// Publisher stores a local file at repoPath and returns its public URL.
type Publisher interface {
	Publish(ctx context.Context, localPath, repoPath string) (*publish.Result, error)
}

// ViewFuncs holds the page components the handlers render. Defaults come from
// the views package; WithViews swaps them.
type ViewFuncs struct {
	Home        func(data views.HomeData) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App wires the describer, publisher, session store and HTTP handlers together.
type App struct {
	Config Config
	Echo   *echo.Echo
	Views  ViewFuncs

	describer    Describer
	publisher    Publisher
	sessionStore sessions.Store
	limiter      *DescribeLimiter
	descriptions *DescriptionCache
}

// New creates an App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	site := views.SiteConfig{Name: cfg.Name, Tagline: cfg.Tagline}
	a.Views = ViewFuncs{
		Home:        views.Home,
		NotFound:    func() templ.Component { return views.NotFound(site) },
		ServerError: func() templ.Component { return views.ServerError(site) },
	}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup validates configuration, builds API clients, and registers middleware
// and routes. Start calls it; tests call it directly and use a.Echo as a handler.
func (a *App) Setup() error {
	if err := a.Config.Validate(a.describer == nil); err != nil {
		return fmt.Errorf("docent: %w", err)
	}

	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(log.INFO)

	if a.describer == nil {
		a.describer = a.Config.NewDescriber()
	}
	if a.publisher == nil && a.Config.PublishEnabled() {
		p, err := publish.NewWithToken(a.Config.GitHubToken, a.Config.GitHubRepo, a.Config.GitHubAPIURL,
			publish.WithBranch(a.Config.Branch),
			publish.WithCommitMessage(a.Config.CommitMessage),
		)
		if err != nil {
			return fmt.Errorf("docent: init publisher: %w", err)
		}
		a.publisher = p
	}
	if a.publisher == nil {
		a.Echo.Logger.Warn("GITHUB_REPO not set: file uploads are disabled")
	}

	for _, dir := range []string{a.uploadTempDir(), a.previewDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("docent: create %s: %w", dir, err)
		}
	}

	if a.sessionStore == nil {
		store, err := a.newSessionStore()
		if err != nil {
			return fmt.Errorf("docent: init sessions: %w", err)
		}
		a.sessionStore = store
	}

	a.limiter = NewDescribeLimiter(a.Config.DescribeLimit, time.Minute)
	a.descriptions = NewDescriptionCache(256, a.Config.DescribeCacheTTL)

	a.setupMiddleware()
	a.setupRoutes()
	return nil
}

// NewDescriber builds the OpenAI-backed describer from the completion settings.
func (c *Config) NewDescriber() *describe.Client {
	return describe.New(c.OpenAIKey,
		describe.WithModel(c.OpenAIModel),
		describe.WithPrompt(c.Prompt),
		describe.WithMaxTokens(c.MaxTokens),
		describe.WithBaseURL(c.OpenAIBaseURL),
	)
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Echo.Logger.Infof("docent listening on %s", a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets)))))
	e.Static("/previews", a.previewDir())

	e.GET("/healthz", handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/", a.handleHome)
	e.POST("/describe/url/", a.handleDescribeURL)
	e.POST("/describe/file/", a.handleDescribeFile)
	e.POST("/reset/", a.handleReset)
}
