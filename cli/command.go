package cli

import (
	"os"

	"github.com/grovetools/runwatch/config"
	"github.com/spf13/cobra"
)

// CommandOptions holds the flags every runwatch command accepts.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a root command with the standard flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to runwatch.yml config file")

	SetStyledHelp(cmd)
	return cmd
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig reads the file named by --config, or searches from the working
// directory, applies overrides and resolves paths.
func LoadConfig(cmd *cobra.Command, overrides ...func(*config.Config)) (*config.Config, error) {
	opts := GetOptions(cmd)
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if opts.ConfigFile != "" {
		cfg, err = config.Load(opts.ConfigFile)
	} else {
		cfg, err = config.LoadFrom(cwd)
	}
	if err != nil {
		return nil, err
	}

	if len(overrides) > 0 {
		for _, apply := range overrides {
			apply(cfg)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	if err := cfg.ResolvePaths(cwd); err != nil {
		return nil, err
	}
	return cfg, nil
}
