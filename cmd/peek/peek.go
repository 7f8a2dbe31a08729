// Package peekcmder
package peekcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/peekproxy/peek/cmd/peek/config"
	servecmder "github.com/peekproxy/peek/cmd/peek/serve"
	versioncmder "github.com/peekproxy/peek/cmd/version"
)

const peekLongDesc string = `Peek is a transparent debugging proxy for chat-completion traffic.

Point your client at peek instead of the upstream API and every exchange is
printed to the console in a readable form: streamed responses are merged back
into whole messages, JSON bodies are pretty-printed, and tool calls are
reassembled from their deltas.

  peek serve           Run the proxy
  peek config          Manage persistent configuration
  peek version         Show version information`

const peekShortDesc string = "Peek - chat-completion debugging proxy"

func NewPeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peek",
		Short: peekShortDesc,
		Long:  peekLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .peek/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
