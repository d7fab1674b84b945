// Package composer reads Composer manifests and the set of installed packages.
package composer

import (
	"encoding/json"
	"extcheck/internal/core/errors"
	"os"
	"strings"
)

const ManifestFile = "composer.json"

type Manifest struct {
	Name       string       `json:"name"`
	Version    string       `json:"version"`
	Type       string       `json:"type"`
	Require    Requirements `json:"require"`
	RequireDev Requirements `json:"require-dev"`
}

// Requirements maps package names to version constraints. An empty JSON
// array decodes as an empty mapping, the form PHP writes for an empty list.
type Requirements map[string]string

func (r *Requirements) UnmarshalJSON(data []byte) error {
	if isEmptyArray(data) {
		*r = Requirements{}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = m
	return nil
}

func isEmptyArray(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return false
	}
	return strings.TrimSpace(trimmed[1:len(trimmed)-1]) == ""
}

// Reader reads composer.json files.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadManifest decodes the manifest at path. It fails with MANIFEST_NOT_FOUND
// when path is empty or missing and MANIFEST_MALFORMED when decoding yields no data.
func (r *Reader) ReadManifest(path string) (*Manifest, error) {
	content, _, err := r.decode(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, malformed(path, "unexpected manifest layout", err)
	}
	return &m, nil
}

// ReadRequirements returns the require section of the manifest at path.
func (r *Reader) ReadRequirements(path string) (map[string]string, error) {
	_, fields, err := r.decode(path)
	if err != nil {
		return nil, err
	}
	raw, ok := fields["require"]
	if !ok || string(raw) == "null" {
		return nil, malformed(path, "manifest has no require section", nil)
	}
	var require Requirements
	if err := json.Unmarshal(raw, &require); err != nil {
		return nil, malformed(path, "require section is not a name to constraint mapping", err)
	}
	if require == nil {
		require = map[string]string{}
	}
	return require, nil
}

func (r *Reader) decode(path string) ([]byte, map[string]json.RawMessage, error) {
	if path == "" {
		return nil, nil, errors.New(errors.CodeManifestNotFound, "manifest path is empty")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.AddContext(
				errors.Wrap(err, errors.CodeManifestNotFound, "manifest does not exist"),
				errors.CtxPath, path)
		}
		return nil, nil, errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "read manifest"),
			errors.CtxPath, path)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(content, &fields); err != nil {
		return nil, nil, malformed(path, "manifest is not a JSON object", err)
	}
	if len(fields) == 0 {
		return nil, nil, malformed(path, "manifest decoded to no data", nil)
	}
	return content, fields, nil
}

func malformed(path, msg string, cause error) error {
	var err error
	if cause != nil {
		err = errors.Wrap(cause, errors.CodeManifestMalformed, msg)
	} else {
		err = errors.New(errors.CodeManifestMalformed, msg)
	}
	return errors.AddContext(err, errors.CtxPath, path)
}

// IsPlatformRequirement reports whether name is satisfied by the platform
// (PHP itself, extensions, system libraries, Composer) rather than a package.
func IsPlatformRequirement(name string) bool {
	name = strings.ToLower(name)
	switch {
	case name == "php", name == "composer", name == "hhvm":
		return true
	case strings.HasPrefix(name, "php-"),
		strings.HasPrefix(name, "ext-"),
		strings.HasPrefix(name, "lib-"),
		strings.HasPrefix(name, "composer-"):
		return true
	}
	return false
}
