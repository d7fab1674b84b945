package inspector

import (
	"extcheck/internal/core/ports"
	"extcheck/internal/engine/parser"
	"log/slog"
	"strings"
)

const DefaultFactorySuffix = "Factory"

// Oracle validates type names against a probe. A name ending in the factory
// suffix also exists when its unsuffixed base does.
type Oracle struct {
	probe  ports.TypeExistenceProbe
	suffix string
}

func NewOracle(probe ports.TypeExistenceProbe, factorySuffix string) *Oracle {
	return &Oracle{probe: probe, suffix: factorySuffix}
}

func (o *Oracle) Exists(name string) bool {
	_, ok := o.Resolve(name)
	return ok
}

// Resolve returns the name that actually exists: name itself, or its base
// with the factory suffix stripped.
func (o *Oracle) Resolve(name string) (string, bool) {
	name = parser.TrimName(name)
	if name == "" {
		return "", false
	}
	if o.exists(name) {
		return name, true
	}
	if o.suffix != "" && strings.HasSuffix(name, o.suffix) {
		base := strings.TrimSuffix(name, o.suffix)
		if base != "" && o.exists(base) {
			return base, true
		}
	}
	return "", false
}

// exists never panics; a failing probe counts as a missing type.
func (o *Oracle) exists(name string) (found bool) {
	if o.probe == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("existence probe failed", "type", name, "panic", r)
			found = false
		}
	}()
	return o.probe.Exists(name)
}
