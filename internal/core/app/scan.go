package app

import (
	"context"
	"extcheck/internal/core/errors"
	"extcheck/internal/data/history"
	"extcheck/internal/engine/component"
	"extcheck/internal/engine/composer"
	"extcheck/internal/shared/observability"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ComponentUsage is one component the scanned code depends on.
type ComponentUsage struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	PackageName    string   `json:"package_name,omitempty"`
	PackageVersion string   `json:"package_version,omitempty"`
	Types          []string `json:"types,omitempty"`
}

// Requirement is a package used by the code but absent from composer.json.
type Requirement struct {
	Package   string `json:"package"`
	Component string `json:"component"`
	Installed string `json:"installed,omitempty"`
	Suggested string `json:"suggested"`
}

type Failure struct {
	Type  string `json:"type"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// Report is the outcome of scanning one module.
type Report struct {
	RunID      string           `json:"run_id"`
	ScannedAt  time.Time        `json:"scanned_at"`
	Module     string           `json:"module"`
	Dir        string           `json:"dir"`
	Manifest   string           `json:"manifest"`
	Types      int              `json:"types"`
	Components []ComponentUsage `json:"components"`
	Missing    []Requirement    `json:"missing"`
	Unused     []string         `json:"unused"`
	Deprecated []string         `json:"deprecated"`
	Unresolved []string         `json:"unresolved"`
	Failures   []Failure        `json:"failures"`
}

// Snapshot summarizes the report for the scan history.
func (r *Report) Snapshot() history.Snapshot {
	return history.Snapshot{
		RunID:           r.RunID,
		Module:          r.Module,
		Timestamp:       r.ScannedAt,
		TypeCount:       r.Types,
		ComponentCount:  len(r.Components),
		MissingCount:    len(r.Missing),
		UnusedCount:     len(r.Unused),
		DeprecatedCount: len(r.Deprecated),
		UnresolvedCount: len(r.Unresolved),
		FailureCount:    len(r.Failures),
	}
}

// ScanModule checks one module's composer.json against the dependencies of the
// types it declares. target is a module name or a module directory.
func (a *App) ScanModule(ctx context.Context, target string) (*Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.ScanModule",
		trace.WithAttributes(attribute.String("module.target", target)))
	defer span.End()

	r, err := a.newRun()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("run.id", r.id))
	defer func() {
		observability.AnalysisDuration.WithLabelValues("module_scan").Observe(time.Since(r.start).Seconds())
	}()

	name, dir, err := a.locateModule(target)
	if err != nil {
		return nil, err
	}
	logger := r.logger.With("module", name)

	manifest := filepath.Join(dir, composer.ManifestFile)
	requirements, err := a.Manifests.ReadRequirements(manifest)
	if err != nil {
		return nil, err
	}

	self := a.attributor.FromModuleName(name)
	report := &Report{
		RunID:      r.id,
		ScannedAt:  r.start.UTC(),
		Module:     name,
		Dir:        dir,
		Manifest:   manifest,
		Components: []ComponentUsage{},
		Missing:    []Requirement{},
		Unused:     []string{},
		Deprecated: []string{},
		Unresolved: []string{},
		Failures:   []Failure{},
	}

	types := a.Index.TypesUnder(dir)
	report.Types = len(types)
	logger.Info("scanning module", "dir", dir, "types", len(types))

	var deps []string
	seen := make(map[string]bool)
	for _, typ := range types {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := a.dependenciesOf(r, typ)
		if err != nil {
			logger.Warn("failed to inspect type", "type", typ, "error", err)
			report.Failures = append(report.Failures, failureOf(typ, err))
			continue
		}
		for _, dep := range found {
			if !seen[dep] {
				seen[dep] = true
				deps = append(deps, dep)
			}
		}
	}

	usage := make(map[string]*ComponentUsage)
	for _, dep := range deps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, deprecated, err := a.attribute(r, dep)
		if err != nil {
			logger.Debug("dependency not attributed", "type", dep, "error", err)
			report.Unresolved = append(report.Unresolved, dep)
			continue
		}
		if deprecated {
			report.Deprecated = append(report.Deprecated, dep)
		}
		if c.Name() == self.Name() {
			continue
		}
		u, ok := usage[c.Name()]
		if !ok {
			u = &ComponentUsage{
				Name:           c.Name(),
				Type:           string(c.Type()),
				PackageName:    c.PackageName(),
				PackageVersion: c.PackageVersion(),
			}
			usage[c.Name()] = u
		}
		u.Types = append(u.Types, dep)
	}

	used := make(map[string]bool)
	for _, u := range usage {
		sort.Strings(u.Types)
		report.Components = append(report.Components, *u)
		if u.PackageName == "" || u.PackageName == self.PackageName() {
			continue
		}
		used[u.PackageName] = true
		if _, ok := requirements[u.PackageName]; !ok {
			installed := u.PackageVersion
			if installed == "" {
				installed = a.Packages.VersionByPackage(u.PackageName)
			}
			report.Missing = append(report.Missing, Requirement{
				Package:   u.PackageName,
				Component: u.Name,
				Installed: installed,
				Suggested: composer.SuggestConstraint(installed),
			})
		}
	}
	for pkg := range requirements {
		if !used[pkg] && !composer.IsPlatformRequirement(pkg) {
			report.Unused = append(report.Unused, pkg)
		}
	}

	sort.Slice(report.Components, func(i, j int) bool { return report.Components[i].Name < report.Components[j].Name })
	sort.Slice(report.Missing, func(i, j int) bool { return report.Missing[i].Package < report.Missing[j].Package })
	sort.Strings(report.Unused)
	sort.Strings(report.Deprecated)
	sort.Strings(report.Unresolved)

	logger.Info("module scanned",
		"components", len(report.Components),
		"missing", len(report.Missing),
		"unused", len(report.Unused),
		"failures", len(report.Failures))
	return report, nil
}

func (a *App) dependenciesOf(r *run, typ string) ([]string, error) {
	if err := r.inspector.SetTarget(typ); err != nil {
		return nil, err
	}
	return r.inspector.Dependencies()
}

func (a *App) attribute(r *run, typ string) (component.Component, bool, error) {
	if err := r.inspector.SetTarget(typ); err != nil {
		return component.Component{}, false, err
	}
	c, err := r.inspector.ComponentByClass()
	if err != nil {
		return component.Component{}, false, err
	}
	return c, r.inspector.IsDeprecated(), nil
}

// locateModule accepts a module name known to the registry or a directory
// holding a registration.php.
func (a *App) locateModule(target string) (string, string, error) {
	if dir, ok := a.Modules.ModuleDir(target); ok {
		return target, dir, nil
	}

	dir := target
	if !filepath.IsAbs(dir) {
		dir = a.Config.ResolvePath(dir)
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		if name, ok := a.Modules.ModuleForPath(dir); ok {
			if modDir, _ := a.Modules.ModuleDir(name); modDir == filepath.Clean(dir) {
				return name, modDir, nil
			}
		}
	}

	return "", "", errors.AddContext(
		errors.New(errors.CodeComponentNotFound, "module is not registered"),
		errors.CtxPath, target)
}

func failureOf(typ string, err error) Failure {
	code := string(errors.CodeOf(err))
	if code == "" {
		code = string(errors.CodeInternal)
	}
	observability.InspectionFailures.WithLabelValues(code).Inc()
	return Failure{Type: typ, Code: code, Error: err.Error()}
}
