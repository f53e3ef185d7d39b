// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// chatserver relays bytes between standard input/output and a single TCP peer.

package main

import (
	"context"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ra5c0/ChatServer/api"
	"github.com/Ra5c0/ChatServer/internal/config"
	"github.com/Ra5c0/ChatServer/internal/log"
	"github.com/Ra5c0/ChatServer/reactor"
)

var logger = log.NewLogger("chatserver")

type runFunc func(ctx context.Context, cfg reactor.Config) error

func main() {
	command, err := newCommand(serve)
	if err != nil {
		logger.Fatal(err)
	}
	if err := command.Execute(); err != nil {
		logger.Fatal(err)
	}
}

// newCommand builds the root command. Flag defaults are taken from the
// environment so that flags given on the command line win.
func newCommand(run runFunc) (*cobra.Command, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	var verbose bool

	command := &cobra.Command{
		Use:           "chatserver",
		Short:         "single-peer TCP chat relay",
		Long:          "chatserver accepts one TCP peer, sends it standard input and prints what it sends back.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				cfg.LogLevel = "debug"
			}
			rc, err := cfg.Reactor()
			if err != nil {
				return err
			}
			if err := log.Configure(cfg.LogLevel, nil); err != nil {
				return err
			}
			return run(cmd.Context(), rc)
		},
	}
	command.CompletionOptions.DisableDefaultCmd = true

	command.Flags().StringVarP(&cfg.Address, "address", "a", cfg.Address, "IPv4 address to listen on.")
	command.Flags().Uint16VarP(&cfg.Port, "port", "p", cfg.Port, "TCP port to listen on.")
	command.Flags().IntVar(&cfg.Backlog, "backlog", cfg.Backlog, "Pending connection queue depth.")
	command.Flags().DurationVar(&cfg.PollTimeout, "poll-timeout", cfg.PollTimeout, "Upper bound of a single readiness wait.")
	command.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (panic, fatal, error, warn, info, debug, trace).")
	command.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
	return command, nil
}

func serve(ctx context.Context, cfg reactor.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(noticeSignals) > 0 {
		notices := make(chan os.Signal, 1)
		signal.Notify(notices, noticeSignals...)
		defer signal.Stop(notices)
		go func() {
			for {
				select {
				case sig := <-notices:
					logger.Infof("signal %s received", sig)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	r, err := reactor.New(api.StdIO(),
		reactor.WithConfig(cfg),
		reactor.WithListenHook(func(addr netip.AddrPort) {
			logger.Infof("waiting for a peer on %s", addr)
		}),
	)
	if err != nil {
		return err
	}
	return r.Run(ctx)
}
