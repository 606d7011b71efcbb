// Package main is the entry point for the keybind command line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/keybind/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// errSilent makes the process exit with status 1 without printing.
var errSilent = errors.New("")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// cli holds the settings shared by every command.
type cli struct {
	v   *viper.Viper
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "keybind",
		Short: "Inspect and resolve key bindings",
		Long: `keybind loads a keymap (the built-in one, layered with an optional
TOML, YAML or JSON file) and answers questions about it: which command a
key sequence runs in a set of active contexts, which bindings conflict,
and how the context tree is shaped.

Settings come from flags, KEYBIND_* environment variables and an optional
keybind.yaml in the working directory or ~/.config/keybind.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "settings file (default keybind.yaml)")
	flags.StringP("keymap", "k", "", "keymap file layered over the built-in keymap")
	flags.Bool("no-defaults", false, "skip the built-in keymap")
	flags.String("locale", "", "locale used to filter bindings, e.g. de_CH")
	flags.String("platform", "", "platform used to filter bindings (default: this system)")
	flags.StringSlice("scheme", nil, "active schemes, most preferred first")
	flags.StringSliceP("context", "c", nil, "active contexts")
	flags.StringP("output", "o", outputAuto, "output format: auto, table, plain or yaml")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("log-format", app.LogFormatText, "log format: text or json")

	root.AddCommand(
		newCheckCmd(c),
		newResolveCmd(c),
		newListCmd(c),
		newContextsCmd(c),
		newConflictsCmd(c),
		newWatchCmd(c),
		newRunCmd(c),
	)

	return root
}

// init reads settings and builds the logger.
func (c *cli) init(cmd *cobra.Command) error {
	if err := c.v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	c.v.SetEnvPrefix("KEYBIND")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if path := c.v.GetString("config"); path != "" {
		c.v.SetConfigFile(path)
	} else {
		c.v.SetConfigName("keybind")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			c.v.AddConfigPath(filepath.Join(dir, "keybind"))
		}
	}
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading settings: %w", err)
		}
	}

	log, err := app.NewLogger(app.LoggerConfig{
		Level:  c.v.GetString("log-level"),
		Format: c.v.GetString("log-format"),
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	c.log = log

	if f := c.v.ConfigFileUsed(); f != "" {
		log.WithField("path", f).Debug("settings loaded")
	}
	return nil
}

// engineOptions builds engine options from the settings.
func (c *cli) engineOptions() app.Options {
	return app.Options{
		Path:       c.v.GetString("keymap"),
		NoDefaults: c.v.GetBool("no-defaults"),
		Locale:     c.v.GetString("locale"),
		Platform:   c.v.GetString("platform"),
		Schemes:    c.v.GetStringSlice("scheme"),
		Active:     c.v.GetStringSlice("context"),
		Logger:     c.log,
	}
}

// engine loads the keymap.
func (c *cli) engine() (*app.Engine, error) {
	return app.New(c.engineOptions())
}

// printer returns the output printer for cmd.
func (c *cli) printer(cmd *cobra.Command) (*printer, error) {
	return newPrinter(cmd.OutOrStdout(), c.v.GetString("output"))
}
