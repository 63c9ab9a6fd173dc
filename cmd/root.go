// Package cmd provides the command-line interface for a11ytabs.
//
// Configuration System:
//
//	The CLI reads configuration from several sources with clear precedence:
//	1. Command-line flags (--rtl, --tablist, --port, ...) - highest priority
//	2. Environment variables (A11YTABS_WIDGET_RTL, A11YTABS_SERVER_PORT, ...)
//	3. The configuration file: --config, else A11YTABS_CONFIG_FILE, else
//	   .a11ytabs.yml in the current directory - lowest priority
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/a11ytabs/internal/config"
	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/logging"
)

// ConfigFileEnv names the environment variable holding a config file path.
const ConfigFileEnv = "A11YTABS_CONFIG_FILE"

// app carries the state shared by the commands of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	rtl     rtlValue
}

// NewRootCommand builds the command tree over v. Flags are bound to v, so
// tests use a fresh viper instance per invocation.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	a := &app{v: v, rtl: rtlValue{mode: config.DefaultRTL}}

	root := &cobra.Command{
		Use:   "a11ytabs",
		Short: "Accessible tab widgets for plain HTML",
		Long: `a11ytabs turns plain HTML tab markup into accessible tab widgets.

A tab container holds a list whose items each contain a link or button, and
one panel per item. a11ytabs writes the ARIA roles and states, keeps exactly one
tab selected and wires arrow-key navigation.

Quick Start:
  a11ytabs annotate page.html -o out.html   Write the annotated markup
  a11ytabs audit page.html                  Check the ARIA contract
  a11ytabs serve page.html                  Preview with live widgets
  a11ytabs config                           Show the effective configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .a11ytabs.yml, can also use "+ConfigFileEnv+" env var)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.Var(&a.rtl, "rtl", "arrow key direction (auto, true, false)")
	flags.String("container", "", "selector for tab containers (default [data-a11y-tabs])")
	flags.String("tablist", "", "selector for the tablist inside a container (default ul)")
	flags.String("tabpanel", "", "selector for tabpanels inside a container (default section)")
	flags.Int("active", 0, "index of the tab selected on init")

	bindFlags(v, flags, map[string]string{
		"log.level":        "log-level",
		"widget.rtl":       "rtl",
		"widget.container": "container",
		"widget.tablist":   "tablist",
		"widget.tabpanel":  "tabpanel",
		"widget.active":    "active",
	})

	root.AddCommand(
		a.newAnnotateCommand(),
		a.newAuditCommand(),
		a.newServeCommand(),
		a.newConfigCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI against the global viper instance.
func Execute() error {
	return NewRootCommand(viper.GetViper()).Execute()
}

// initConfig locates and reads the configuration file and enables
// environment overrides. A missing default file is not an error.
func (a *app) initConfig() error {
	switch {
	case a.cfgFile != "":
		a.v.SetConfigFile(a.cfgFile)
	case os.Getenv(ConfigFileEnv) != "":
		a.v.SetConfigFile(os.Getenv(ConfigFileEnv))
	default:
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".a11ytabs")
	}

	if err := config.BindEnv(a.v); err != nil {
		return err
	}

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to read config file")
	}
	return nil
}

// load returns the effective configuration and a logger writing to the
// command's error stream.
func (a *app) load(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return nil, nil, err
	}
	logCfg := cfg.LoggerConfig()
	logCfg.Output = cmd.ErrOrStderr()
	logger := logging.NewLogger(logCfg)
	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug(cmd.Context(), "Using config file", "path", used)
	}
	return cfg, logger, nil
}
