package cli

import (
	"github.com/grovetools/runwatch/config"
	"github.com/grovetools/runwatch/logging"
	"github.com/grovetools/runwatch/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ConfigureLogging installs cfg's logging section, raised to debug by
// --verbose and switched to JSON by --json.
func ConfigureLogging(cmd *cobra.Command, cfg *config.Config) {
	logCfg := cfg.Logging
	opts := GetOptions(cmd)
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	if opts.JSONOutput {
		logCfg.Format.Preset = "json"
	}
	logging.Configure(logCfg, paths.LogDir())
}

// GetLogger returns the CLI component logger.
func GetLogger() *logrus.Entry {
	return logging.NewLogger("cli")
}
