package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/tabs"
)

func (a *app) newAnnotateCommand() *cobra.Command {
	var (
		output  string
		useUUID bool
	)

	cmd := &cobra.Command{
		Use:   "annotate <file.html>",
		Short: "Write tab markup with ARIA attributes applied",
		Long: `Mount a tab widget on every container in an HTML file and write the
resulting markup: roles, tabindex, aria-selected, aria-controls, aria-hidden
and any generated panel ids.

Examples:
  a11ytabs annotate page.html                 # Write to stdout
  a11ytabs annotate page.html -o out.html     # Write to a file
  a11ytabs annotate page.html --active 2      # Select the third tab
  a11ytabs annotate page.html --rtl true      # Mount right-to-left`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			opts := cfg.MountOptions(logger)
			if !useUUID {
				opts.Config.IDs = tabs.SequentialIDs("tabpanel")
			}
			widgets, err := tabs.Mount(doc, opts)
			if err != nil {
				return err
			}
			logger.Info(cmd.Context(), "Annotated tab containers", "file", args[0], "widgets", len(widgets))

			var buf bytes.Buffer
			if err := doc.Render(&buf, dom.RenderOptions{}); err != nil {
				return errors.NewInternalError(errors.ErrCodeInternal, "failed to render document", err)
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return errors.WrapIO(err, errors.ErrCodeInternal, fmt.Sprintf("failed to write %s", output))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if not specified)")
	cmd.Flags().BoolVar(&useUUID, "uuid", false, "generate random panel ids instead of sequential ones")
	return cmd
}

// readDocument parses an HTML file.
func readDocument(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "failed to open "+path, err).
			WithContext("path", path)
	}
	defer f.Close()
	return dom.Parse(f)
}
