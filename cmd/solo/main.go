// Command solo is a small program that keeps a single instance of itself
// running. Start it twice: the second copy tells the first to come to the
// front and exits, or, with --replace, takes its place.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/inconshreveable/log15"
	"github.com/ngrok/solo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errSteppedDown = errors.New("stepped down for a duplicate")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "solo: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "solo",
		Short:         "Run a single instance of a program per machine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var (
		configPath string
		port       int
		message    string
		replace    bool
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Become the original instance, or hand over to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := defaultRunConfig()
			if configPath != "" {
				var err error
				if cfg, err = loadRunConfig(configPath); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Negotiation.Port = port
			}
			if flags.Changed("message") {
				cfg.Message = message
			}
			if flags.Changed("replace") {
				cfg.Replace = replace
			}

			lvl := log15.LvlInfo
			if verbose {
				lvl = log15.LvlDebug
			}
			l := log15.New("cmd", "solo", "pid", os.Getpid())
			l.SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(os.Stderr, log15.LogfmtFormat())))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, l, cmd.OutOrStdout(), cfg)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a toml config file")
	flags.IntVar(&port, "port", defaultPort, "loopback port all instances agree on")
	flags.StringVar(&message, "message", unminimizeMessage, "message a duplicate sends to the original")
	flags.BoolVar(&replace, "replace", false, "as a duplicate, make the original step down and take over")
	flags.BoolVar(&verbose, "verbose", false, "log every bind attempt")
	return cmd
}

// run negotiates and, if this process ends up as the original, keeps running
// until it is interrupted or a duplicate asks it to step down.
func run(ctx context.Context, l log15.Logger, out io.Writer, cfg runConfig) error {
	p := newPolicy(out, cfg)
	n, role, err := solo.Acquire(ctx, cfg.Negotiation, p, solo.WithLogger(l))
	if err != nil {
		return errors.Wrap(err, "negotiating with other instances")
	}
	if role == solo.RoleDuplicate {
		return nil
	}
	defer func() {
		n.Stop()
		<-n.ListenerDone()
	}()
	fmt.Fprintf(out, "Running as the original instance on %v.\n", n.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-p.StepDown():
			return errSteppedDown
		}
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-n.ListenerDone():
			// keep holding the port so no second original can start
			if err := n.ListenerErr(); err != nil {
				l.Warn("duplicates can no longer reach this instance", "err", err)
			}
			<-gctx.Done()
			return nil
		}
	})
	if err := g.Wait(); err != nil && err != errSteppedDown {
		return err
	}
	fmt.Fprintln(out, "Exiting.")
	return nil
}
