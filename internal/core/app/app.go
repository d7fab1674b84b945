package app

import (
	"context"
	"extcheck/internal/core/config"
	"extcheck/internal/core/ports"
	"extcheck/internal/engine/component"
	"extcheck/internal/engine/composer"
	"extcheck/internal/engine/detectors"
	"extcheck/internal/engine/imports"
	"extcheck/internal/engine/index"
	"extcheck/internal/engine/inspector"
	"extcheck/internal/engine/modules"
	"extcheck/internal/engine/parser"
	"extcheck/internal/engine/source"
	"extcheck/internal/shared/util"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// App wires the engine for one project. Load must run before any analysis.
type App struct {
	Config    *config.Config
	Parser    *parser.Parser
	Index     *index.Index
	Modules   *modules.Registry
	Packages  ports.PackageMetadataSource
	Manifests ports.ManifestReader
	Detectors *detectors.Set

	attributor   *component.Attributor
	walker       *source.Walker
	packageCache *composer.PackageCache
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	walker, err := source.NewWalker(cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}

	patterns := make([]detectors.PatternConfig, 0, len(cfg.Detectors.Patterns))
	for _, p := range cfg.Detectors.Patterns {
		patterns = append(patterns, detectors.PatternConfig{Name: p.Name, Regex: p.Regex})
	}
	detectorSet, err := detectors.Build(cfg.Detectors.Disabled, patterns)
	if err != nil {
		return nil, err
	}

	var opts []composer.Option
	if cfg.Composer.UseCLI {
		opts = append(opts, composer.WithCLI(composer.CLI{
			Binary: cfg.Composer.Binary,
			Dir:    cfg.ResolvePath("."),
		}))
	}
	cache := composer.NewPackageCache()
	packages := composer.NewInstalledSource(cfg.ResolvePath(cfg.Paths.InstalledJSON), cache, opts...)
	registry := modules.NewRegistry(cfg.Modules.Known...)

	return &App{
		Config:       cfg,
		Parser:       parser.NewParser(),
		Index:        index.New(),
		Modules:      registry,
		Packages:     packages,
		Manifests:    composer.NewReader(),
		Detectors:    detectorSet,
		attributor:   component.NewAttributor(registry, packages),
		walker:       walker,
		packageCache: cache,
	}, nil
}

// Load discovers modules and builds the type index over the configured code dirs.
func (a *App) Load(ctx context.Context) error {
	roots := a.codeRoots()

	if a.Config.Modules.ScanRegistrations == nil || *a.Config.Modules.ScanRegistrations {
		n, err := a.Modules.Discover(a.walker, roots)
		if err != nil {
			return err
		}
		slog.Debug("modules discovered", "count", n)
	}

	builder, err := index.NewBuilder(a.Parser, a.walker, index.Options{
		Root:       a.Config.ResolvePath("."),
		DIPatterns: a.Config.Paths.DIFiles,
		Workers:    a.Config.Inspector.Workers,
	})
	if err != nil {
		return err
	}
	ix, err := builder.Build(ctx, roots)
	if err != nil {
		return fmt.Errorf("build type index: %w", err)
	}
	a.Index = ix
	return nil
}

// LocalModules returns the discovered modules that live outside the vendor dir.
func (a *App) LocalModules() []string {
	vendor := a.Config.ResolvePath(a.Config.Paths.VendorDir)
	var local []string
	for _, name := range a.Modules.Modules() {
		dir, ok := a.Modules.ModuleDir(name)
		if !ok || util.HasPathPrefix(dir, vendor) {
			continue
		}
		local = append(local, name)
	}
	return local
}

func (a *App) codeRoots() []string {
	roots := make([]string, 0, len(a.Config.Paths.CodeDirs))
	for _, dir := range a.Config.Paths.CodeDirs {
		roots = append(roots, a.Config.ResolvePath(dir))
	}
	return roots
}

// run is the state of one analysis: its id, logger and per-run caches.
type run struct {
	id        string
	logger    *slog.Logger
	inspector *inspector.Inspector
	start     time.Time
}

func (a *App) newRun() (*run, error) {
	reader, err := source.NewReader(a.Config.Cache.SourceEntries)
	if err != nil {
		return nil, err
	}
	ins, err := inspector.New(inspector.Deps{
		Probe:      a.Index,
		Types:      a.Index,
		Modules:    a.Modules,
		Components: a.attributor,
		Imports:    imports.NewScanner(a.Parser, reader),
		Detectors:  a.Detectors,
		Files:      reader,
	}, inspector.Options{
		FactorySuffix:        a.Config.Inspector.FactorySuffix,
		DeprecationMarker:    a.Config.Inspector.DeprecationMarker,
		ArrayAccessInterface: a.Config.Inspector.ArrayAccessInterface,
		BuiltinInterfaces:    a.Config.Inspector.BuiltinInterfaces,
		UntypedContainers:    a.Config.Inspector.UntypedContainers,
		DependencyRoot:       filepath.Base(a.Config.Paths.VendorDir),
	})
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &run{
		id:        id,
		logger:    slog.Default().With("run_id", id),
		inspector: ins,
		start:     time.Now(),
	}, nil
}
