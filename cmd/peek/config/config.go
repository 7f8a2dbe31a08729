// Package configcmder provides the config command for managing persistent
// peek configuration stored in the .peek/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent peek configuration.

Configuration is stored as config.toml in the .peek/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  proxy.listen, proxy.upstream,
  format.raw, format.tools,
  log.debug

The format.* keys are applied live to a running "peek serve", so you can
toggle raw output or tool display without restarting the proxy.

Use subcommands to get, set, or list configuration values:
  peek config set <key> <value>    Set a configuration value
  peek config get <key>            Get a configuration value
  peek config list                 List all configuration values

Examples:
  peek config set proxy.upstream https://api.openai.com
  peek config set format.tools name
  peek config get format.tools
  peek config list`

const configShortDesc string = "Manage persistent peek configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
