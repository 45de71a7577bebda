package config

import (
	"fmt"
	"time"

	"github.com/grovetools/runwatch/logging"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Config is the runwatch.yml document.
type Config struct {
	Repo    RepoConfig     `yaml:"repo" toml:"repo" json:"repo" jsonschema:"description=Git working copy that receives run data"`
	Watch   WatchConfig    `yaml:"watch" toml:"watch" json:"watch" jsonschema:"description=Watched folder and run layout"`
	Review  ReviewConfig   `yaml:"review" toml:"review" json:"review" jsonschema:"description=Pull request creation through the gh CLI"`
	Status  StatusConfig   `yaml:"status" toml:"status" json:"status" jsonschema:"description=Local status API"`
	Logging logging.Config `yaml:"logging" toml:"logging" json:"logging" jsonschema:"description=Log level, format and sinks"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `yaml:"-" toml:"-" json:"-"`
}

// RepoConfig locates the repository and names branches.
type RepoConfig struct {
	Root         string `yaml:"root,omitempty" toml:"root,omitempty" json:"root,omitempty" jsonschema:"description=Repository root; defaults to the git root of the working directory"`
	BaseBranch   string `yaml:"base_branch,omitempty" toml:"base_branch,omitempty" json:"base_branch,omitempty" jsonschema:"description=Branch new sessions start from"`
	Remote       string `yaml:"remote,omitempty" toml:"remote,omitempty" json:"remote,omitempty"`
	BranchPrefix string `yaml:"branch_prefix,omitempty" toml:"branch_prefix,omitempty" json:"branch_prefix,omitempty" jsonschema:"description=Prefix of generated session branches"`
	PullBase     *bool  `yaml:"pull_base,omitempty" toml:"pull_base,omitempty" json:"pull_base,omitempty" jsonschema:"description=Fast-forward the base branch before branching"`
}

// ShouldPullBase reports whether the base branch is pulled before branching.
func (r RepoConfig) ShouldPullBase() bool {
	return r.PullBase == nil || *r.PullBase
}

// WatchConfig describes the watched folder.
type WatchConfig struct {
	Root           string   `yaml:"root,omitempty" toml:"root,omitempty" json:"root,omitempty" jsonschema:"description=Watched folder, relative to the repository root"`
	Manifest       string   `yaml:"manifest,omitempty" toml:"manifest,omitempty" json:"manifest,omitempty" jsonschema:"description=File name of the per-run manifest"`
	RequiredFields []string `yaml:"required_fields,omitempty" toml:"required_fields,omitempty" json:"required_fields,omitempty" jsonschema:"description=Keys that must be present under run_info"`
	DatePattern    string   `yaml:"date_pattern,omitempty" toml:"date_pattern,omitempty" json:"date_pattern,omitempty"`
	RunPattern     string   `yaml:"run_pattern,omitempty" toml:"run_pattern,omitempty" json:"run_pattern,omitempty"`
	BatchDelay     Duration `yaml:"batch_delay,omitempty" toml:"batch_delay,omitempty" json:"batch_delay,omitempty" jsonschema:"description=Quiet period before a batch is processed"`
	Ignore         []string `yaml:"ignore,omitempty" toml:"ignore,omitempty" json:"ignore,omitempty" jsonschema:"description=dockerignore-style patterns excluded from batches"`
	FlushOnExit    bool     `yaml:"flush_on_exit,omitempty" toml:"flush_on_exit,omitempty" json:"flush_on_exit,omitempty" jsonschema:"description=Process the pending batch before exiting"`
}

// ReviewConfig configures pull request creation.
type ReviewConfig struct {
	CLIPath       string   `yaml:"cli_path,omitempty" toml:"cli_path,omitempty" json:"cli_path,omitempty" jsonschema:"description=Path to the gh executable"`
	Draft         bool     `yaml:"draft,omitempty" toml:"draft,omitempty" json:"draft,omitempty"`
	Labels        []string `yaml:"labels,omitempty" toml:"labels,omitempty" json:"labels,omitempty"`
	Reviewers     []string `yaml:"reviewers,omitempty" toml:"reviewers,omitempty" json:"reviewers,omitempty"`
	TitleTemplate string   `yaml:"title_template,omitempty" toml:"title_template,omitempty" json:"title_template,omitempty" jsonschema:"description=Path to a text/template file for the request title"`
	BodyTemplate  string   `yaml:"body_template,omitempty" toml:"body_template,omitempty" json:"body_template,omitempty" jsonschema:"description=Path to a text/template file for the request body"`
}

// StatusConfig configures the unix-socket status API.
type StatusConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty" json:"enabled,omitempty"`
	Socket  string `yaml:"socket,omitempty" toml:"socket,omitempty" json:"socket,omitempty" jsonschema:"description=Socket path; defaults to the runtime directory"`
}

// IsEnabled defaults to true.
func (s StatusConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Duration is a time.Duration written as "3s" in every config format.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	return d.UnmarshalText([]byte(node.Value))
}

// JSONSchema describes Duration as a Go duration string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration such as 3s or 1m30s",
	}
}

// Defaults.
const (
	DefaultBaseBranch   = "main"
	DefaultRemote       = "origin"
	DefaultBranchPrefix = "run-data"
	DefaultWatchRoot    = "results"
	DefaultManifest     = "run_metadata.json"
	DefaultDatePattern  = `^\d{2}\.\d{2}$`
	DefaultRunPattern   = `^run_\d+_\d{2}h\d{2}$`
	DefaultBatchDelay   = 3 * time.Second
	DefaultCLIPath      = "gh"
)

// DefaultRequiredFields are the run_info keys every manifest must carry.
var DefaultRequiredFields = []string{"run_type", "date", "furnace_setpoint"}

// DefaultIgnore keeps editor droppings and VCS metadata out of batches.
var DefaultIgnore = []string{".git", "**/.DS_Store", "**/*.swp", "**/*.tmp", "**/~$*"}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Repo.BaseBranch == "" {
		c.Repo.BaseBranch = DefaultBaseBranch
	}
	if c.Repo.Remote == "" {
		c.Repo.Remote = DefaultRemote
	}
	if c.Repo.BranchPrefix == "" {
		c.Repo.BranchPrefix = DefaultBranchPrefix
	}
	if c.Watch.Root == "" {
		c.Watch.Root = DefaultWatchRoot
	}
	if c.Watch.Manifest == "" {
		c.Watch.Manifest = DefaultManifest
	}
	if len(c.Watch.RequiredFields) == 0 {
		c.Watch.RequiredFields = append([]string(nil), DefaultRequiredFields...)
	}
	if c.Watch.DatePattern == "" {
		c.Watch.DatePattern = DefaultDatePattern
	}
	if c.Watch.RunPattern == "" {
		c.Watch.RunPattern = DefaultRunPattern
	}
	if c.Watch.BatchDelay == 0 {
		c.Watch.BatchDelay = Duration(DefaultBatchDelay)
	}
	if c.Watch.Ignore == nil {
		c.Watch.Ignore = append([]string(nil), DefaultIgnore...)
	}
	if c.Review.CLIPath == "" {
		c.Review.CLIPath = DefaultCLIPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format.Preset == "" {
		c.Logging.Format.Preset = "default"
	}
	if c.Logging.Format.StructuredToStderr == "" {
		c.Logging.Format.StructuredToStderr = "auto"
	}
}
