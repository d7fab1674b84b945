package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateGlobs(cfg); err != nil {
		return err
	}
	if err := validateInspector(cfg); err != nil {
		return err
	}
	if err := validateDetectors(cfg); err != nil {
		return err
	}
	return validateOutput(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateGlobs(cfg *Config) error {
	check := func(field string, patterns []string) error {
		for i, p := range patterns {
			if _, err := glob.Compile(p, '/'); err != nil {
				return fmt.Errorf("%s[%d]: invalid pattern %q: %w", field, i, p, err)
			}
		}
		return nil
	}
	if err := check("exclude.dirs", cfg.Exclude.Dirs); err != nil {
		return err
	}
	if err := check("exclude.files", cfg.Exclude.Files); err != nil {
		return err
	}
	return check("paths.di_files", cfg.Paths.DIFiles)
}

func validateInspector(cfg *Config) error {
	if strings.ContainsAny(cfg.Inspector.FactorySuffix, `\ `) {
		return fmt.Errorf("inspector.factory_suffix must be a plain identifier suffix, got %q", cfg.Inspector.FactorySuffix)
	}
	if len(cfg.Paths.CodeDirs) == 0 {
		return fmt.Errorf("paths.code_dirs must not be empty")
	}
	return nil
}

func validateDetectors(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Detectors.Patterns))
	for i, p := range cfg.Detectors.Patterns {
		ref := fmt.Sprintf("detectors.patterns[%d]", i)
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("%s.name must not be empty", ref)
		}
		if seen[name] {
			return fmt.Errorf("duplicate detector name %q", name)
		}
		seen[name] = true
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return fmt.Errorf("%s.regex: %w", ref, err)
		}
		if re.NumSubexp() == 0 {
			return fmt.Errorf("%s.regex must contain a capture group", ref)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Output.Format)) {
	case "text", "json", "tsv", "dot":
		return nil
	default:
		return fmt.Errorf("output.format must be one of: text, json, tsv, dot")
	}
}
