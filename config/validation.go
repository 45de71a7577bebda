package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/grovetools/runwatch/command"
	"github.com/grovetools/runwatch/errors"
	"github.com/moby/patternmatcher"
)

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	sb := command.NewSafeBuilder()

	if err := sb.Validate("gitRef", c.Repo.BaseBranch); err != nil {
		return invalid("repo.base_branch", err)
	}
	if err := sb.Validate("gitRef", c.Repo.BranchPrefix); err != nil {
		return invalid("repo.branch_prefix", err)
	}
	if err := sb.Validate("remoteName", c.Repo.Remote); err != nil {
		return invalid("repo.remote", err)
	}

	if strings.ContainsAny(c.Watch.Manifest, `/\`) {
		return invalid("watch.manifest", fmt.Errorf("must be a file name, got %q", c.Watch.Manifest))
	}
	if c.Watch.BatchDelay.Std() <= 0 {
		return invalid("watch.batch_delay", fmt.Errorf("must be positive, got %s", c.Watch.BatchDelay.Std()))
	}
	for _, f := range c.Watch.RequiredFields {
		if strings.TrimSpace(f) == "" {
			return invalid("watch.required_fields", fmt.Errorf("field names cannot be empty"))
		}
	}
	if _, err := regexp.Compile(c.Watch.DatePattern); err != nil {
		return invalid("watch.date_pattern", err)
	}
	if _, err := regexp.Compile(c.Watch.RunPattern); err != nil {
		return invalid("watch.run_pattern", err)
	}
	if _, err := patternmatcher.New(c.Watch.Ignore); err != nil {
		return invalid("watch.ignore", err)
	}

	for _, label := range c.Review.Labels {
		if strings.TrimSpace(label) == "" {
			return invalid("review.labels", fmt.Errorf("labels cannot be empty"))
		}
	}

	return nil
}

func invalid(field string, err error) error {
	return errors.Wrap(err, errors.ErrCodeConfigValidation, fmt.Sprintf("invalid %s", field)).
		WithDetail("field", field)
}
