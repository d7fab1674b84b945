package composer

import (
	"strings"

	"golang.org/x/mod/semver"
)

// SuggestConstraint returns a caret constraint on the major and minor version
// of an installed version, or "*" when the version is not semantic.
func SuggestConstraint(version string) string {
	norm := strings.TrimSpace(version)
	if norm == "" {
		return "*"
	}
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) {
		return "*"
	}
	return "^" + strings.TrimPrefix(semver.MajorMinor(norm), "v")
}
