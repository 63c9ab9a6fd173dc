package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/a11ytabs/internal/accessibility"
	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/tabs"
)

func (a *app) newAuditCommand() *cobra.Command {
	var (
		format   = formatValue{format: accessibility.FormatConsole}
		annotate bool
		noFail   bool
		rules    bool
	)

	cmd := &cobra.Command{
		Use:   "audit <file.html>",
		Short: "Check tab markup against the ARIA tab contract",
		Long: `Audit every tab container in an HTML file: tablist and tab roles, a single
selected tab, roving tabindex, aria-controls pairing, tabpanel roles and
visibility. The command fails when violations are found.

Examples:
  a11ytabs audit page.html                  # Audit the markup as written
  a11ytabs audit page.html --annotate       # Audit after mounting widgets
  a11ytabs audit page.html --format json    # Machine-readable report
  a11ytabs audit --rules                    # List the rules checked`,
		Args: func(cmd *cobra.Command, args []string) error {
			if rules {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}

			engine := accessibility.NewEngine(logger)
			if rules {
				return accessibility.WriteRules(cmd.OutOrStdout(), engine.Rules(), format.format)
			}

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if annotate {
				if _, err := tabs.Mount(doc, cfg.MountOptions(logger)); err != nil {
					return err
				}
			}

			report, err := engine.CheckDocument(cmd.Context(), doc, accessibility.AuditConfiguration{
				ContainerSelector: cfg.Widget.Container,
				TablistSelector:   cfg.Widget.Tablist,
				TabpanelSelector:  cfg.Widget.Tabpanel,
				Target:            args[0],
			})
			if err != nil {
				return err
			}

			if err := accessibility.WriteReport(cmd.OutOrStdout(), report, format.format); err != nil {
				return errors.WrapIO(err, errors.ErrCodeInternal, "failed to write report")
			}
			if !report.Passed() && !noFail {
				return errors.NewValidationError(errors.ErrCodeValidationFailed,
					fmt.Sprintf("%d accessibility violations found", report.Summary.TotalViolations))
			}
			return nil
		},
	}

	cmd.Flags().VarP(&format, "format", "f", "report format (console, json, yaml)")
	cmd.Flags().BoolVar(&annotate, "annotate", false, "mount widgets before auditing")
	cmd.Flags().BoolVar(&noFail, "no-fail", false, "exit successfully even when violations are found")
	cmd.Flags().BoolVar(&rules, "rules", false, "list the rules checked instead of auditing")
	return cmd
}
