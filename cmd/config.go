package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/a11ytabs/internal/config"
	"github.com/conneroisu/a11ytabs/internal/errors"
)

func (a *app) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Display the configuration after merging the config file, A11YTABS_*
environment variables, flags and defaults, as YAML.

Examples:
  a11ytabs config                       # Show the effective configuration
  a11ytabs config --rtl true            # See how flags override it
  a11ytabs config validate              # Report errors and warnings`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return errors.WrapIO(err, errors.ErrCodeInternal, "failed to encode configuration")
			}
			return enc.Close()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Decode(a.v)
			if err != nil {
				return err
			}
			result := config.ValidateConfigWithDetails(cfg)
			out := cmd.OutOrStdout()
			if !result.HasErrors() && !result.HasWarnings() {
				fmt.Fprintln(out, "✅ Configuration is valid")
				return nil
			}
			fmt.Fprint(out, result.String())
			if result.HasErrors() {
				return errors.NewConfigError(errors.ErrCodeConfigInvalid,
					fmt.Sprintf("%d configuration errors", len(result.Errors)))
			}
			return nil
		},
	})
	return cmd
}
