// Command incsat solves SAT problems incrementally, with any registered engine.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	_ "github.com/crillab/incsat/ginisat"
	"github.com/crillab/incsat/ipasir"
	_ "github.com/crillab/incsat/solver"
)

// exitCode is set by commands that follow the SAT competition conventions.
var exitCode int

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "c error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

type options struct {
	engine      string
	engineOpts  string
	configPath  string
	verbose     bool
	metricsAddr string

	cfg ipasir.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "incsat",
		Short:         "Incremental SAT solving toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.engine, "engine", "", "engine to solve with (see the engines command); overrides "+ipasir.EnvEngine)
	flags.StringVar(&o.engineOpts, "options", "", "engine options, such as restart=luby,verbose; overrides "+ipasir.EnvConfig)
	flags.StringVar(&o.configPath, "config", "", "YAML configuration file")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "log debug information on stderr")
	flags.StringVar(&o.metricsAddr, "metrics-addr", "", "address to expose prometheus metrics on, such as :9090")

	cmd.AddCommand(newSolveCmd(o), newICNFCmd(o), newMUSCmd(o), newCheckCmd(o), newEnginesCmd(o))
	return cmd
}

// setup builds the session configuration: the config file first, then the
// environment, then the command line flags.
func (o *options) setup(cmd *cobra.Command) error {
	o.log = logrus.New()
	o.log.SetOutput(os.Stderr)
	if o.verbose {
		o.log.SetLevel(logrus.DebugLevel)
	}
	var cfg ipasir.Config
	if o.configPath != "" {
		var err error
		if cfg, err = ipasir.LoadConfig(o.configPath); err != nil {
			return err
		}
	}
	cfg = ipasir.ConfigFromEnv(cfg)
	if cmd.Flags().Changed("engine") {
		cfg.Engine = o.engine
	}
	if cmd.Flags().Changed("options") {
		cfg.Options = o.engineOpts
	}
	if cfg.Engine == "" {
		cfg.Engine = ipasir.DefaultEngine
	}
	cfg.Logger = o.log
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		cfg.Metrics = ipasir.NewMetrics(reg)
		o.serveMetrics(cmd.Context(), reg)
	}
	o.cfg = cfg
	o.log.WithFields(logrus.Fields{"engine": cfg.Engine, "options": cfg.Options}).Debug("configuration loaded")
	return nil
}

func (o *options) serveMetrics(ctx context.Context, reg *prometheus.Registry) {
	srv := &http.Server{
		Addr:              o.metricsAddr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.log.WithError(err).Error("metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	o.log.WithField("addr", o.metricsAddr).Info("serving metrics")
}

func newEnginesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the registered engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range ipasir.Engines() {
				cfg := o.cfg
				cfg.Engine = name
				s, err := ipasir.New(cfg)
				if err != nil {
					return err
				}
				sig, err := s.Signature()
				_ = s.Release()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, sig)
			}
			return nil
		},
	}
}
