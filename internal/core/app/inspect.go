package app

import (
	"context"
	"extcheck/internal/shared/observability"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TypeReport describes one type: where it lives, who owns it and what it uses.
type TypeReport struct {
	RunID        string          `json:"run_id"`
	Type         string          `json:"type"`
	File         string          `json:"file,omitempty"`
	Package      string          `json:"package,omitempty"`
	Component    *ComponentUsage `json:"component,omitempty"`
	ComponentErr string          `json:"component_error,omitempty"`
	Deprecated   bool            `json:"deprecated"`
	Dependencies []string        `json:"dependencies"`
}

// Inspect reports on a single type. A missing type is an error; attribution
// failures are recorded in the report.
func (a *App) Inspect(ctx context.Context, typeName string) (*TypeReport, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Inspect",
		trace.WithAttributes(attribute.String("type.name", typeName)))
	defer span.End()

	r, err := a.newRun()
	if err != nil {
		return nil, err
	}
	defer func() {
		observability.AnalysisDuration.WithLabelValues("inspect").Observe(time.Since(r.start).Seconds())
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ins := r.inspector
	if err := ins.SetTarget(typeName); err != nil {
		return nil, err
	}
	deps, err := ins.Dependencies()
	if err != nil {
		return nil, err
	}

	report := &TypeReport{
		RunID:        r.id,
		Type:         ins.Target(),
		File:         ins.Filename(),
		Deprecated:   ins.IsDeprecated(),
		Dependencies: deps,
	}
	if pkg, err := ins.PackageByClass(); err == nil {
		report.Package = pkg
	}
	c, err := ins.ComponentByClass()
	if err != nil {
		report.ComponentErr = err.Error()
	} else {
		report.Component = &ComponentUsage{
			Name:           c.Name(),
			Type:           string(c.Type()),
			PackageName:    c.PackageName(),
			PackageVersion: c.PackageVersion(),
		}
	}

	r.logger.Debug("type inspected", "type", report.Type, "dependencies", len(deps))
	return report, nil
}
