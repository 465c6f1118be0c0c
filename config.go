package docent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"

	"github.com/eringen/docent/publish"
)

// Config holds all configuration for a docent server.
type Config struct {
	Name    string // Site name (default "AI Docent")
	Tagline string // Subtitle under the name
	Addr    string // Listen address (default ":3000")

	OpenAIKey     string // Required: completion API key
	OpenAIModel   string // Model identifier (default "gpt-4o")
	OpenAIBaseURL string // Optional OpenAI-compatible endpoint
	Prompt        string // Instruction sent with every image
	MaxTokens     int    // Response token limit (default 1024)

	GitHubToken   string // Token with contents:write on GitHubRepo
	GitHubRepo    string // "owner/name"; empty disables uploads
	GitHubAPIURL  string // GitHub Enterprise API root, empty for github.com
	Branch        string // Branch for commits and raw URLs (default "main")
	PathPrefix    string // Directory inside the repository for uploads
	CommitMessage string // (default "Add captured image")

	SessionSecret string // Cookie signing secret; random per process when empty
	SessionDir    string // Server-side session files (default $TMPDIR/docent-sessions)
	CookieSecure  bool   // Set true for HTTPS
	UploadDir     string // Transient uploads and previews (default $TMPDIR/docent-uploads)

	RequestTimeout   time.Duration // Per external call (default 90s)
	DescribeLimit    int           // Describe requests per IP per minute (default 10)
	DescribeCacheTTL time.Duration // Description cache lifetime (default 10min, negative disables)
	MaxUploadSize    int64         // Upload byte limit (default 10MB)
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "AI Docent"
	}
	if c.Tagline == "" {
		c.Tagline = "Describes your images."
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.Branch == "" {
		c.Branch = publish.DefaultBranch
	}
	if c.CommitMessage == "" {
		c.CommitMessage = publish.DefaultCommitMessage
	}
	if c.SessionDir == "" {
		c.SessionDir = filepath.Join(os.TempDir(), "docent-sessions")
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(os.TempDir(), "docent-uploads")
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 90 * time.Second
	}
	if c.DescribeLimit == 0 {
		c.DescribeLimit = 10
	}
	if c.DescribeCacheTTL == 0 {
		c.DescribeCacheTTL = 10 * time.Minute
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = 10 << 20
	}
	if c.PathPrefix != "" && !strings.HasSuffix(c.PathPrefix, "/") {
		c.PathPrefix += "/"
	}
	c.PathPrefix = strings.TrimPrefix(c.PathPrefix, "/")
}

// PublishEnabled reports whether uploads can be published.
func (c *Config) PublishEnabled() bool {
	return c.GitHubRepo != ""
}

// Validate reports missing or malformed settings. requireOpenAI is false when
// the caller supplies its own Describer.
func (c *Config) Validate(requireOpenAI bool) error {
	var errs []error
	if requireOpenAI && c.OpenAIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.GitHubRepo != "" {
		if _, _, err := publish.SplitRepo(c.GitHubRepo); err != nil {
			errs = append(errs, fmt.Errorf("GITHUB_REPO: %w", err))
		}
		if c.GitHubToken == "" {
			errs = append(errs, errors.New("GITHUB_TOKEN is required when GITHUB_REPO is set"))
		}
	}
	if c.MaxTokens < 0 {
		errs = append(errs, errors.New("DOCENT_MAX_TOKENS must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads envFile (if it exists) into the process environment and
// builds a Config from it. Variables already set in the environment win.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Name:          os.Getenv("SITE_NAME"),
		Tagline:       os.Getenv("SITE_TAGLINE"),
		Addr:          os.Getenv("ADDR"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		Prompt:        os.Getenv("DOCENT_PROMPT"),
		GitHubToken:   os.Getenv("GITHUB_TOKEN"),
		GitHubRepo:    strings.TrimSpace(os.Getenv("GITHUB_REPO")),
		GitHubAPIURL:  os.Getenv("GITHUB_API_URL"),
		Branch:        os.Getenv("GITHUB_BRANCH"),
		PathPrefix:    os.Getenv("GITHUB_PATH_PREFIX"),
		CommitMessage: os.Getenv("COMMIT_MESSAGE"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionDir:    os.Getenv("SESSION_DIR"),
		CookieSecure:  strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
		UploadDir:     os.Getenv("UPLOAD_DIR"),
	}

	var err error
	if cfg.MaxTokens, err = envInt("DOCENT_MAX_TOKENS"); err != nil {
		return Config{}, err
	}
	if cfg.DescribeLimit, err = envInt("DESCRIBE_LIMIT"); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.DescribeCacheTTL, err = envDuration("DESCRIBE_CACHE_TTL"); err != nil {
		return Config{}, err
	}

	cfg.setDefaults()
	return cfg, nil
}

func envInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithDescriber replaces the OpenAI-backed describer.
func WithDescriber(d Describer) Option {
	return func(a *App) {
		a.describer = d
	}
}

// WithPublisher replaces the GitHub-backed publisher and enables uploads.
func WithPublisher(p Publisher) Option {
	return func(a *App) {
		a.publisher = p
	}
}

// WithViews overrides the page templates.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithSessionStore overrides the filesystem session store.
func WithSessionStore(s sessions.Store) Option {
	return func(a *App) {
		a.sessionStore = s
	}
}
