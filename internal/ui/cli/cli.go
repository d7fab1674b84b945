package cli

import (
	"bytes"
	"context"
	"extcheck/internal/core/config"
	"extcheck/internal/shared/observability"
	"extcheck/internal/shared/util"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const versionString = "1.0.0"
const defaultConfigPath = "./extcheck.toml"

type cliOptions struct {
	configPath  string
	root        string
	format      string
	metricsAddr string
	outPath     string
	verbose     bool

	cfg         *config.Config
	metrics     *ObservabilityServer
	stopTracing func(context.Context) error
	out         io.Writer
	logOut      io.Writer
}

// Execute runs the extcheck command line.
func Execute() error {
	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background())
}

// NewRootCmd builds the command tree writing results to out and logs to logOut.
func NewRootCmd(out, logOut io.Writer) *cobra.Command {
	opts := &cliOptions{out: out, logOut: logOut}

	root := &cobra.Command{
		Use:           "extcheck",
		Short:         "Cross-check module composer.json requirements against the code",
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(opts.logOut, opts.verbose)

			cfg, err := loadConfig(opts, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			opts.cfg = cfg

			if endpoint := cfg.Metrics.OTLPEndpoint; endpoint != "" {
				stop, err := observability.SetupTracing(cmd.Context(), endpoint)
				if err != nil {
					return fmt.Errorf("setup tracing: %w", err)
				}
				opts.stopTracing = stop
			}

			addr := opts.metricsAddr
			if addr == "" {
				addr = cfg.Metrics.Address
			}
			if addr != "" {
				opts.metrics = NewObservabilityServer(addr)
				return opts.metrics.Start(cmd.Context())
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if opts.stopTracing != nil {
				if err := opts.stopTracing(ctx); err != nil {
					slog.Warn("failed to flush traces", "error", err)
				}
			}
			if opts.metrics == nil {
				return nil
			}
			return opts.metrics.Stop(ctx)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	flags.StringVar(&opts.root, "root", "", "Project root (overrides project_root)")
	flags.StringVar(&opts.format, "format", "", "Output format: text, json, tsv or dot")
	flags.StringVarP(&opts.outPath, "out", "o", "", "Write results to this file instead of stdout")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newScanCmd(opts))
	root.AddCommand(newInspectCmd(opts))
	root.AddCommand(newModulesCmd(opts))
	root.AddCommand(newHistoryCmd(opts))

	return root
}

// emit runs write against stdout, or against a buffer that then replaces the
// --out file.
func (o *cliOptions) emit(write func(io.Writer) error) error {
	if o.outPath == "" {
		return write(o.out)
	}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	return util.WriteFileWithDirs(o.outPath, buf.Bytes(), 0o644)
}

func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// loadConfig reads the config file, falling back to defaults when the default
// path does not exist, then applies flag overrides.
func loadConfig(opts *cliOptions, explicit bool) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(opts.configPath); err == nil || explicit {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", opts.configPath, err)
		}
		cfg = loaded
	} else {
		slog.Debug("no config file, using defaults", "path", opts.configPath)
		cfg = config.Default()
	}

	if opts.root != "" {
		cfg.ProjectRoot = opts.root
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
