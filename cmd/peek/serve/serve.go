// Package servecmder provides the proxy server command.
package servecmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekproxy/peek/pkg/config"
	"github.com/peekproxy/peek/pkg/format"
	"github.com/peekproxy/peek/pkg/logger"
	"github.com/peekproxy/peek/proxy"
)

type serveCommander struct {
	listen    string
	upstream  string
	raw       bool
	tools     string
	debug     bool
	configDir string

	logger *zap.Logger
}

const serveLongDesc string = `Run the proxy server.

The proxy intercepts all requests and transparently forwards them to the
configured upstream URL, printing each request/response exchange to the
console. Streamed responses are relayed to the client chunk by chunk and
merged back into whole messages for display.

Display options:
  --raw            print bodies exactly as captured, no normalization
  --tools <mode>   how much of the request "tools" array to show:
                   none, name, or all (default all)

Edits to the config.toml in the .peek/ directory take effect live, without
restarting the proxy.`

const serveShortDesc string = "Run the peek proxy server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.configDir = configDir

			// Flags not set on the command line fall back to the viper
			// precedence chain: env (PEEK_*) > config.toml > defaults.
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("listen") {
				cmder.listen = v.GetString("proxy.listen")
			}
			if !cmd.Flags().Changed("upstream") {
				cmder.upstream = v.GetString("proxy.upstream")
			}
			if !cmd.Flags().Changed("raw") {
				cmder.raw = v.GetBool("format.raw")
			}
			if !cmd.Flags().Changed("tools") {
				cmder.tools = v.GetString("format.tools")
			}
			if !cmd.Flags().Changed("debug") {
				cmder.debug = v.GetBool("log.debug")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("debug") {
				var err error
				cmder.debug, err = cmd.Flags().GetBool("debug")
				if err != nil {
					return fmt.Errorf("could not get debug flag: %w", err)
				}
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", defaults.Proxy.Listen, "Address for proxy to listen on")
	cmd.Flags().StringVarP(&cmder.upstream, "upstream", "u", defaults.Proxy.Upstream, "Upstream chat-completion API URL")
	cmd.Flags().BoolVar(&cmder.raw, "raw", defaults.Format.Raw, "Print captured bodies without normalization")
	cmd.Flags().StringVarP(&cmder.tools, "tools", "t", defaults.Format.Tools, "Request tools display mode (none, name, all)")

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	toolsMode, err := format.ParseToolsMode(c.tools)
	if err != nil {
		return err
	}

	sink := newConsoleSink(os.Stdout)

	p, err := proxy.New(
		proxy.Config{
			ListenAddr:  c.listen,
			UpstreamURL: c.upstream,
			Options:     format.Options{Raw: c.raw, Tools: toolsMode},
		},
		sink,
		c.logger,
	)
	if err != nil {
		return fmt.Errorf("creating proxy: %w", err)
	}
	defer p.Close()

	stop, err := c.watchConfig(p)
	if err != nil {
		// Hot reload is a convenience; the proxy still runs without it.
		c.logger.Warn("config watch disabled", zap.Error(err))
	} else {
		defer stop()
	}

	c.logger.Info("starting proxy server",
		zap.String("listen", c.listen),
		zap.String("upstream", c.upstream),
		zap.String("tools", c.tools),
		zap.Bool("raw", c.raw),
	)

	return p.Run()
}

// watchConfig applies config file edits to the running proxy's display
// options. Listen and upstream changes still require a restart.
func (c *serveCommander) watchConfig(p *proxy.Proxy) (func(), error) {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		return nil, err
	}

	return cfger.Watch(c.logger, func(cfg *config.Config) {
		opts, err := cfg.Options()
		if err != nil {
			c.logger.Warn("ignoring config change", zap.Error(err))
			return
		}

		p.SetOptions(opts)
		c.logger.Info("display options reloaded",
			zap.String("tools", cfg.Format.Tools),
			zap.Bool("raw", cfg.Format.Raw),
		)
	})
}
