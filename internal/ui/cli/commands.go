package cli

import (
	"context"
	"extcheck/internal/core/app"
	"extcheck/internal/data/history"
	"extcheck/internal/shared/util"
	"extcheck/internal/ui/report"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func loadApp(ctx context.Context, opts *cliOptions) (*app.App, error) {
	a, err := app.New(opts.cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Load(ctx); err != nil {
		return nil, err
	}
	slog.Debug("index ready",
		"types", a.Index.Len(),
		"modules", len(a.Modules.Modules()),
		"heap_mb", util.GetHeapAllocMB())
	return a, nil
}

func newScanCmd(opts *cliOptions) *cobra.Command {
	var (
		failOnMissing bool
		watch         bool
		record        bool
	)

	cmd := &cobra.Command{
		Use:   "scan [module|dir ...]",
		Short: "Compare module composer.json requirements with the dependencies of their code",
		Long: `Scan each module (by name such as Acme_Shop, or by directory) and report
components the code depends on, requirements missing from composer.json and
requirements nothing uses. With no arguments every module outside the vendor
dir is scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}

			targets := args
			if len(targets) == 0 {
				targets = a.LocalModules()
				if len(targets) == 0 {
					return fmt.Errorf("no modules found under %s", strings.Join(opts.cfg.Paths.CodeDirs, ", "))
				}
			}

			var store *history.Store
			if record || opts.cfg.History.Enabled {
				store, err = history.Open(opts.cfg.ResolvePath(opts.cfg.History.Path))
				if err != nil {
					return err
				}
				defer store.Close()
			}

			reports, failed := a.ScanAll(ctx, targets)
			recordScans(store, reports)
			if err := opts.emit(func(w io.Writer) error { return writeReports(w, opts, reports, failed) }); err != nil {
				return err
			}

			if watch {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
				defer stop()
				slog.Info("watching for changes", "modules", len(targets))
				return a.Watch(ctx, targets, func(reports []*app.Report, failed map[string]error) {
					recordScans(store, reports)
					if err := opts.emit(func(w io.Writer) error { return writeReports(w, opts, reports, failed) }); err != nil {
						slog.Error("write report failed", "error", err)
					}
				})
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d of %d modules failed", len(failed), len(targets))
			}
			if failOnMissing {
				if n := countMissing(reports); n > 0 {
					return fmt.Errorf("%d modules have missing requirements", n)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnMissing, "fail-on-missing", false, "Exit non-zero when a module has missing requirements")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rescan when sources or manifests change")
	cmd.Flags().BoolVar(&record, "record", false, "Record scan summaries in the history database")
	return cmd
}

func recordScans(store *history.Store, reports []*app.Report) {
	if store == nil {
		return
	}
	for _, r := range reports {
		if err := store.SaveScan(r.Snapshot()); err != nil {
			slog.Warn("failed to record scan", "module", r.Module, "error", err)
		}
	}
}

func writeReports(w io.Writer, opts *cliOptions, reports []*app.Report, failed map[string]error) error {
	for _, target := range util.SortedStringKeys(failed) {
		slog.Error("scan failed", "module", target, "error", failed[target])
	}

	for _, r := range reports {
		if err := report.Write(w, opts.cfg.Output.Format, r); err != nil {
			return err
		}
	}
	return nil
}

func countMissing(reports []*app.Report) int {
	n := 0
	for _, r := range reports {
		if len(r.Missing) > 0 {
			n++
		}
	}
	return n
}

func newInspectCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <type> [type ...]",
		Short: "Show the dependencies and owning component of a type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return opts.emit(func(w io.Writer) error {
				for _, name := range args {
					r, err := a.Inspect(cmd.Context(), name)
					if err != nil {
						return err
					}
					if err := report.Write(w, opts.cfg.Output.Format, r); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newModulesCmd(opts *cliOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules found in registration files and config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			names := a.Modules.Modules()
			if local {
				names = a.LocalModules()
			}
			return opts.emit(func(w io.Writer) error {
				return report.Write(w, opts.cfg.Output.Format, names)
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Only list modules outside the vendor dir")
	return cmd
}

func newHistoryCmd(opts *cliOptions) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "history [module]",
		Short: "Show recorded scan summaries and how they changed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(opts.cfg.ResolvePath(opts.cfg.History.Path))
			if err != nil {
				return err
			}
			defer store.Close()

			module := ""
			if len(args) == 1 {
				module = args[0]
			}
			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			snapshots, err := store.LoadScans(module, from)
			if err != nil {
				return err
			}
			return opts.emit(func(w io.Writer) error {
				return report.Write(w, opts.cfg.Output.Format, trendsByModule(snapshots))
			})
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "Only show scans newer than this (e.g. 168h)")
	return cmd
}

// trendsByModule computes deltas within each module, keeping time order.
func trendsByModule(snapshots []history.Snapshot) []history.Trend {
	byModule := make(map[string][]history.Snapshot)
	for _, s := range snapshots {
		byModule[s.Module] = append(byModule[s.Module], s)
	}
	trends := make([]history.Trend, 0, len(snapshots))
	for _, module := range util.SortedStringKeys(byModule) {
		trends = append(trends, history.Trends(byModule[module])...)
	}
	return trends
}
