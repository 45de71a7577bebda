package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/git"
	"github.com/grovetools/runwatch/util/pathutil"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are searched in order in each directory.
var configNames = []string{
	"runwatch.yml",
	"runwatch.yaml",
	".runwatch.yml",
	".runwatch.yaml",
	"runwatch.toml",
}

// Load reads, layers and validates a configuration file. Paths in the result
// are not yet resolved; see ResolvePaths.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Local override next to the project file.
	for _, overridePath := range overrideFiles(path) {
		if _, err := os.Stat(overridePath); err == nil {
			if err := decodeFile(overridePath, &cfg); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.Path = path
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFrom finds the configuration for startDir. When no file exists the
// defaults are returned.
func LoadFrom(startDir string) (*Config, error) {
	path, err := FindConfigFile(startDir)
	if err != nil {
		if errors.Is(err, errors.ErrCodeConfigNotFound) {
			cfg := Default()
			return cfg, cfg.finish()
		}
		return nil, err
	}
	return Load(path)
}

// LoadFromBytes parses a YAML document.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := decode("runwatch.yml", data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	return ValidateSchema(c)
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ConfigNotFound(path)
		}
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	return decode(path, data, cfg)
}

// decode unmarshals on top of cfg, so later layers only replace the keys
// they set. Unknown keys are rejected.
func decode(path string, data []byte, cfg *Config) error {
	expanded := []byte(expandEnvVars(string(data)))

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(bytes.NewReader(expanded))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration").
				WithDetail("path", path)
		}
		return nil
	}

	if len(bytes.TrimSpace(expanded)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration").
			WithDetail("path", path)
	}
	return nil
}

func overrideFiles(projectPath string) []string {
	dir := filepath.Dir(projectPath)
	return []string{
		filepath.Join(dir, "runwatch.override.yml"),
		filepath.Join(dir, "runwatch.override.yaml"),
		filepath.Join(dir, ".runwatch.override.yml"),
	}
}

// FindConfigFile searches for a configuration file from startDir up to the
// filesystem root, then at the git repository root.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		if path := configIn(dir); path != "" {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if gitRoot, err := git.GetGitRoot(startDir); err == nil && gitRoot != "" {
		if path := configIn(gitRoot); path != "" {
			return path, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

func configIn(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// ResolvePaths makes Repo.Root and Watch.Root absolute. A relative repo root
// is taken relative to the config file (or baseDir when there is none); an
// empty one means the git root of baseDir.
func (c *Config) ResolvePaths(baseDir string) error {
	anchor := baseDir
	if c.Path != "" {
		anchor = filepath.Dir(c.Path)
	}

	if c.Repo.Root == "" {
		root, err := git.GetGitRoot(baseDir)
		if err != nil || root == "" {
			root = baseDir
		}
		c.Repo.Root = root
	}
	repoRoot, err := pathutil.Expand(c.Repo.Root, anchor)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "cannot resolve repo.root")
	}
	c.Repo.Root = repoRoot

	watchRoot, err := pathutil.Expand(c.Watch.Root, c.Repo.Root)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "cannot resolve watch.root")
	}
	c.Watch.Root = watchRoot

	if !pathutil.Within(c.Repo.Root, c.Watch.Root) {
		return errors.New(errors.ErrCodeConfigValidation, "watch.root must be inside repo.root").
			WithDetail("watchRoot", c.Watch.Root).
			WithDetail("repoRoot", c.Repo.Root)
	}
	return nil
}
