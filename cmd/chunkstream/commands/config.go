// ABOUTME: Config command prints the effective configuration
// ABOUTME: Output is YAML that can be saved and passed back with --config
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration as YAML.

Defaults are overlaid with the --config file (or $CHUNKSTREAM_CONFIG) and
then with environment variables. The OpenAI API key is never printed.`,
		Example: `  chunkstream config > chunkstream.yaml
  chunkstream --config chunkstream.yaml run meeting.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			out, err := cfg.YAML()
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	return cmd
}
