// Package config loads bot settings from a YAML file, .env and the
// process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "wikibot.yaml"

type Config struct {
	Wiki      WikiConfig      `yaml:"wiki"`
	Tasks     TasksConfig     `yaml:"tasks"`
	Log       LogConfig       `yaml:"log"`
	Replica   ReplicaConfig   `yaml:"replica"`
	RunStore  RunStoreConfig  `yaml:"run_store"`
	Artifacts ArtifactConfig  `yaml:"artifacts"`
	Sandboxes []SandboxConfig `yaml:"sandboxes"`
}

type WikiConfig struct {
	APIURL     string  `yaml:"api_url"`
	UserAgent  string  `yaml:"user_agent"`
	Username   string  `yaml:"username"`
	Password   string  `yaml:"password"`
	WriteRPS   float64 `yaml:"write_rps"`
	MaxRetries int     `yaml:"max_retries"`
	// EditAttempts bounds read-modify-write rounds on edit conflicts.
	EditAttempts int `yaml:"edit_attempts"`
	MaxLag       int `yaml:"maxlag"`
}

type TasksConfig struct {
	StatusPage     string `yaml:"status_page"`
	StatusTemplate string `yaml:"status_template"`
	// Timezone is the IANA zone used for dated page titles.
	Timezone string `yaml:"timezone"`

	PageMake PageMakeConfig `yaml:"pagemake"`
	HighRevs HighRevsConfig `yaml:"highrevs"`
	Sandbox  SandboxTask    `yaml:"sandbox"`
}

type PageMakeConfig struct {
	TaskID       string `yaml:"task_id"`
	TemplatePage string `yaml:"template_page"`
	// TitleBase is the parent page; the dated title is appended.
	TitleBase string `yaml:"title_base"`
	Summary   string `yaml:"summary"`
}

type HighRevsConfig struct {
	TaskID       string `yaml:"task_id"`
	ReportPage   string `yaml:"report_page"`
	MinRevisions int    `yaml:"min_revisions"`
	Limit        int    `yaml:"limit"`
	Summary      string `yaml:"summary"`
}

type SandboxTask struct {
	TaskID      string `yaml:"task_id"`
	RevLimit    int    `yaml:"rev_limit"`
	Noticeboard string `yaml:"noticeboard"`
}

// SandboxConfig describes one sandbox page and how to reset it.
type SandboxConfig struct {
	Title string `yaml:"title"`
	// Template is substituted ({{subst:Template}}) to reset the page.
	Template string `yaml:"template"`
	// Section is the level-2 noticeboard section for history-merge requests.
	Section string `yaml:"section"`
	// SkipReset leaves the page alone below the revision limit.
	SkipReset bool `yaml:"skip_reset"`
}

type LogConfig struct {
	Dir string `yaml:"dir"`
}

type ReplicaConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Database string        `yaml:"database"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	CnfPath  string        `yaml:"cnf_path"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RunStoreConfig struct {
	Path  string `yaml:"path"`
	PGDSN string `yaml:"pg_dsn"`
}

type ArtifactConfig struct {
	Dir       string `yaml:"dir"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Load reads path (a missing file is fine), then .env, then the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	path = firstNonEmpty(strings.TrimSpace(path), strings.TrimSpace(os.Getenv("WIKIBOT_CONFIG")), DefaultPath)
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	env := func(key string) string { return strings.TrimSpace(os.Getenv(key)) }

	cfg.Wiki.APIURL = firstNonEmpty(env("MW_API_URL"), cfg.Wiki.APIURL)
	cfg.Wiki.Username = firstNonEmpty(env("MW_USERNAME"), cfg.Wiki.Username)
	cfg.Wiki.Password = firstNonEmpty(os.Getenv("MW_PASSWORD"), cfg.Wiki.Password)
	cfg.Log.Dir = firstNonEmpty(env("WIKIBOT_LOG_DIR"), cfg.Log.Dir)

	cfg.Replica.Host = firstNonEmpty(env("REPLICA_HOST"), cfg.Replica.Host)
	cfg.Replica.Database = firstNonEmpty(env("REPLICA_DB"), cfg.Replica.Database)
	cfg.Replica.User = firstNonEmpty(env("TOOL_REPLICA_USER"), cfg.Replica.User)
	cfg.Replica.Password = firstNonEmpty(os.Getenv("TOOL_REPLICA_PASSWORD"), cfg.Replica.Password)

	cfg.RunStore.PGDSN = firstNonEmpty(env("RUNSTORE_PG_DSN"), cfg.RunStore.PGDSN)

	cfg.Artifacts.Endpoint = firstNonEmpty(env("ARTIFACT_S3_ENDPOINT"), cfg.Artifacts.Endpoint)
	cfg.Artifacts.Region = firstNonEmpty(env("ARTIFACT_S3_REGION"), cfg.Artifacts.Region, "us-east-1")
	cfg.Artifacts.AccessKey = firstNonEmpty(env("ARTIFACT_S3_ACCESS_KEY"), cfg.Artifacts.AccessKey)
	cfg.Artifacts.SecretKey = firstNonEmpty(env("ARTIFACT_S3_SECRET_KEY"), cfg.Artifacts.SecretKey)
	cfg.Artifacts.Bucket = firstNonEmpty(env("ARTIFACT_S3_BUCKET"), cfg.Artifacts.Bucket)
	cfg.Artifacts.Prefix = firstNonEmpty(env("ARTIFACT_S3_PREFIX"), cfg.Artifacts.Prefix)
	if raw := env("ARTIFACT_S3_USE_SSL"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Artifacts.UseSSL = v
		}
	}
}

// Validate checks settings every command needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Wiki.APIURL) == "" {
		return fmt.Errorf("config: wiki.api_url is required")
	}
	if strings.TrimSpace(c.Tasks.StatusPage) == "" {
		return fmt.Errorf("config: tasks.status_page is required")
	}
	if _, err := time.LoadLocation(c.Tasks.Timezone); err != nil {
		return fmt.Errorf("config: tasks.timezone: %w", err)
	}
	seen := make(map[string]bool, len(c.Sandboxes))
	for i, sb := range c.Sandboxes {
		if strings.TrimSpace(sb.Title) == "" {
			return fmt.Errorf("config: sandboxes[%d].title is required", i)
		}
		if seen[sb.Title] {
			return fmt.Errorf("config: sandbox %q listed twice", sb.Title)
		}
		seen[sb.Title] = true
		if strings.TrimSpace(sb.Section) == "" {
			return fmt.Errorf("config: sandbox %q needs a noticeboard section", sb.Title)
		}
		if !sb.SkipReset && strings.TrimSpace(sb.Template) == "" {
			return fmt.Errorf("config: sandbox %q needs a reset template", sb.Title)
		}
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Tasks.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
