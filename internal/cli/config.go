package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/podscribe/internal/config"
	"github.com/alnah/podscribe/internal/lang"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/podscribe/config.
Settings can also be provided via environment variables.

Supported settings:
  output-dir    Default directory for output files (env: PODSCRIBE_OUTPUT_DIR)
  provider      Generation provider: anthropic, openai (env: PODSCRIBE_PROVIDER)
  language      Default translation target (env: PODSCRIBE_LANGUAGE)
  model         Default model name (env: PODSCRIBE_MODEL)`,
		Example: `  podscribe config set output-dir ~/Documents/podcasts
  podscribe config set language en
  podscribe config get provider
  podscribe config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Example: `  podscribe config set output-dir ~/Documents/podcasts
  podscribe config set provider openai`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Long:    `Prints the value to stdout, or nothing if not set.`,
		Example: `  podscribe config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Long:    `Shows values from the config file and environment variable fallbacks.`,
		Example: `  podscribe config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet validates and stores a value.
func runConfigSet(env *Env, key, value string) error {
	if !config.IsKey(key) {
		return unknownKey(key)
	}

	switch key {
	case config.KeyOutputDir:
		value = config.ExpandPath(value)
		if err := config.EnsureOutputDir(value); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
	case config.KeyProvider:
		p, err := ParseProvider(value)
		if err != nil {
			return err
		}
		value = p.OrDefault().String()
	case config.KeyLanguage:
		l, err := lang.Parse(value)
		if err != nil {
			return err
		}
		value = l.String()
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet prints a value, falling back to its environment variable.
func runConfigGet(env *Env, key string) error {
	if !config.IsKey(key) {
		return unknownKey(key)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		value = env.Getenv(config.EnvFor(key))
	}
	if value != "" {
		_, _ = fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList prints every set value in key order.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	printed := 0
	for _, key := range config.Keys {
		value, ok := data[key]
		if !ok || value == "" {
			if v := env.Getenv(config.EnvFor(key)); v != "" {
				value = v + " (from env)"
			}
		}
		if value == "" {
			continue
		}
		_, _ = fmt.Fprintf(env.Stdout, "%s=%s\n", key, value)
		printed++
	}

	if printed == 0 {
		_, _ = fmt.Fprintln(env.Stdout, "No configuration set.")
		_, _ = fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys {
			_, _ = fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
	}
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("%q (valid keys: %v): %w", key, config.Keys, ErrUnknownConfigKey)
}
