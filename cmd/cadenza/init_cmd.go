package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dorcha-inc/cadenza/internal/config"
	"github.com/dorcha-inc/cadenza/internal/core"
)

// newInitCmd creates a command that writes a default cadenza.yaml into the
// current directory
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default cadenza.yaml config file",
		Long: `Write a cadenza.yaml with the default configuration into the current
directory. Fill in device_base_url before serving; it must include an
explicit scheme, e.g. http://192.168.1.42.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeDefaultConfig(config.ProjectConfigFileName, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	// #nosec G306 -- config file permissions 0644 are acceptable for user config files
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	core.MustFprintf(os.Stdout, "Wrote %s\n", path)
	return nil
}
