package app

import (
	"context"
	"extcheck/internal/core/watcher"
	"log/slog"
	"os"
)

// ScanAll scans every target, collecting per-target errors instead of stopping.
func (a *App) ScanAll(ctx context.Context, targets []string) ([]*Report, map[string]error) {
	reports := make([]*Report, 0, len(targets))
	failed := make(map[string]error)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			failed[target] = err
			continue
		}
		report, err := a.ScanModule(ctx, target)
		if err != nil {
			failed[target] = err
			continue
		}
		reports = append(reports, report)
	}
	return reports, failed
}

// Watch rescans targets whenever PHP sources, DI files or manifests under the
// code dirs change. It blocks until ctx is done.
func (a *App) Watch(ctx context.Context, targets []string, onScan func([]*Report, map[string]error)) error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(paths []string) {
			slog.Info("changes detected", "files", len(paths))
			if err := a.reload(ctx); err != nil {
				slog.Error("reload failed", "error", err)
				return
			}
			reports, failed := a.ScanAll(ctx, targets)
			onScan(reports, failed)
		},
	)
	if err != nil {
		return err
	}
	defer w.Close()

	var roots []string
	for _, root := range a.codeRoots() {
		if _, err := os.Stat(root); err == nil {
			roots = append(roots, root)
		}
	}
	if err := w.Watch(roots); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (a *App) reload(ctx context.Context) error {
	a.packageCache.Reset()
	a.attributor.Reset()
	return a.Load(ctx)
}
