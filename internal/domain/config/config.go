package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	domainerr "gazeta/internal/domain/errors"
)

// EnvPrefix is prepended to every environment variable name, e.g. GAZETA_HTTP_ADDR.
const EnvPrefix = "gazeta"

type Config struct {
	Site  SiteConfig  `yaml:"site"`
	Feed  FeedConfig  `yaml:"feed"`
	Build BuildConfig `yaml:"build"`
	Env   EnvConfig   `yaml:"-"`
}

type SiteConfig struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	SiteURL     string `yaml:"site_url"`
	Theme       string `yaml:"theme"`
	Language    string `yaml:"language"`
	Description string `yaml:"description"`
	Email       string `yaml:"email"`
}

// FeedConfig holds the page sizes of every feed on the site.
type FeedConfig struct {
	HomeSize    int `yaml:"home_size"`
	ListSize    int `yaml:"list_size"`
	IssueSize   int `yaml:"issue_size"`
	AdminSize   int `yaml:"admin_size"`
	RelatedSize int `yaml:"related_size"`
}

type BuildConfig struct {
	StorePath string `yaml:"store_path"`
	ThemeDir  string `yaml:"theme_dir"`
	PagesDir  string `yaml:"pages_dir"`
	PublicDir string `yaml:"public_dir"`
	BasePath  string `yaml:"base_path"`
}

// EnvConfig carries deployment values and secrets. It never comes from the YAML file.
type EnvConfig struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	Dev      bool   `envconfig:"DEV" default:"false"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	JWTSecret     string        `envconfig:"JWT_SECRET"`
	JWTTTL        time.Duration `envconfig:"JWT_TTL" default:"12h"`
	AdminEmail    string        `envconfig:"ADMIN_EMAIL"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD"`

	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3Bucket string `envconfig:"S3_BUCKET"`

	BackupSchedule  string `envconfig:"BACKUP_SCHEDULE" default:"0 3 * * 0"`
	KeepBackups     int    `envconfig:"KEEP_BACKUPS" default:"4"`
	SitemapSchedule string `envconfig:"SITEMAP_SCHEDULE" default:"0 * * * *"`
}

// S3Enabled reports whether enough S3 settings are present to build a client.
func (e EnvConfig) S3Enabled() bool {
	return e.S3Bucket != "" && e.S3Key != "" && e.S3Secret != ""
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:    "Gazeta",
			Theme:    "gazeta",
			Language: "ro",
			SiteURL:  "http://localhost:8080",
		},
		Feed: FeedConfig{
			HomeSize:    5,
			ListSize:    10,
			IssueSize:   12,
			AdminSize:   10,
			RelatedSize: 3,
		},
		Build: BuildConfig{
			StorePath: "data/gazeta.db",
			ThemeDir:  "themes",
			PagesDir:  "pages",
			PublicDir: "public",
		},
		Env: EnvConfig{
			HTTPAddr:        ":8080",
			LogLevel:        "info",
			JWTTTL:          12 * time.Hour,
			S3Region:        "eu-central-1",
			BackupSchedule:  "0 3 * * 0",
			KeepBackups:     4,
			SitemapSchedule: "0 * * * *",
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if strings.TrimSpace(c.Site.SiteURL) == "" {
		ve.Add("site.site_url", "must not be empty")
	} else if !isValidAbsURL(c.Site.SiteURL) {
		ve.Add("site.site_url", "must be a valid absolute URL")
	}
	if strings.TrimSpace(c.Site.Theme) == "" {
		ve.Add("site.theme", "must not be empty")
	}

	sizes := []struct {
		field string
		v     int
	}{
		{"feed.home_size", c.Feed.HomeSize},
		{"feed.list_size", c.Feed.ListSize},
		{"feed.issue_size", c.Feed.IssueSize},
		{"feed.admin_size", c.Feed.AdminSize},
		{"feed.related_size", c.Feed.RelatedSize},
	}
	for _, s := range sizes {
		if s.v <= 0 || s.v > 100 {
			ve.Add(s.field, "must be between 1 and 100")
		}
	}

	if strings.TrimSpace(c.Build.StorePath) == "" {
		ve.Add("build.store_path", "must not be empty")
	}
	if strings.TrimSpace(c.Build.ThemeDir) == "" {
		ve.Add("build.theme_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Build.PublicDir) == "" {
		ve.Add("build.public_dir", "must not be empty")
	}
	if bp := strings.TrimSpace(c.Build.BasePath); bp != "" {
		if !strings.HasPrefix(bp, "/") {
			ve.Add("build.base_path", "must start with '/'")
		}
		if strings.HasSuffix(bp, "/") && bp != "/" {
			ve.Add("build.base_path", "must not end with '/'")
		}
	}

	if c.Env.JWTTTL <= 0 {
		ve.Add("env.jwt_ttl", "must be positive")
	}
	if (c.Env.AdminEmail == "") != (c.Env.AdminPassword == "") {
		ve.Add("env.admin_email", "admin email and password must be set together")
	}
	if c.Env.KeepBackups < 1 {
		ve.Add("env.keep_backups", "must be at least 1")
	}
	for field, spec := range map[string]string{
		"env.backup_schedule":  c.Env.BackupSchedule,
		"env.sitemap_schedule": c.Env.SitemapSchedule,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			ve.Add(field, fmt.Sprintf("invalid cron expression: %v", err))
		}
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Load reads the YAML file over Default, then overlays the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadOrDefault is Load, except that a missing file means "use defaults".
func LoadOrDefault(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return finish(cfg)
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	_ = godotenv.Load()
	if err := envconfig.Process(EnvPrefix, &cfg.Env); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
