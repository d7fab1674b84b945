package composer

import (
	stderrors "errors"
	"extcheck/internal/core/errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ManifestFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReader_ReadRequirements(t *testing.T) {
	path := writeManifest(t, `{"require": {"acme/widgets": "^1.0"}}`)

	reqs, err := NewReader().ReadRequirements(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"acme/widgets": "^1.0"}, reqs)

	for _, body := range []string{
		`{"name": "acme/module-shop", "require": []}`,
		`{"name": "acme/module-shop", "require": [ ]}`,
		`{"name": "acme/module-shop", "require": {}}`,
	} {
		reqs, err := NewReader().ReadRequirements(writeManifest(t, body))
		require.NoError(t, err, body)
		assert.NotNil(t, reqs, body)
		assert.Empty(t, reqs, body)
	}

	_, err = NewReader().ReadRequirements(writeManifest(t, `{"require": ["acme/widgets"]}`))
	assert.True(t, errors.IsCode(err, errors.CodeManifestMalformed), "got %v", err)
}

func TestReader_ReadManifestEmptyRequireArray(t *testing.T) {
	path := writeManifest(t, `{"name": "acme/module-shop", "version": "1.0.0", "require": [], "require-dev": []}`)

	m, err := NewReader().ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "acme/module-shop", m.Name)
	assert.Empty(t, m.Require)
	assert.Empty(t, m.RequireDev)
}

func TestReader_ReadRequirementsErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		code    errors.ErrorCode
		matches error
	}{
		{
			name:    "missing require section",
			path:    func(t *testing.T) string { return writeManifest(t, `{"name": "acme/shop"}`) },
			code:    errors.CodeManifestMalformed,
			matches: errors.ErrManifestMalformed,
		},
		{
			name:    "null require section",
			path:    func(t *testing.T) string { return writeManifest(t, `{"require": null}`) },
			code:    errors.CodeManifestMalformed,
			matches: errors.ErrManifestMalformed,
		},
		{
			name:    "empty object",
			path:    func(t *testing.T) string { return writeManifest(t, `{}`) },
			code:    errors.CodeManifestMalformed,
			matches: errors.ErrManifestMalformed,
		},
		{
			name:    "not json",
			path:    func(t *testing.T) string { return writeManifest(t, `require: x`) },
			code:    errors.CodeManifestMalformed,
			matches: errors.ErrManifestMalformed,
		},
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), ManifestFile) },
			code:    errors.CodeManifestNotFound,
			matches: errors.ErrManifestNotFound,
		},
		{
			name:    "empty path",
			path:    func(t *testing.T) string { return "" },
			code:    errors.CodeManifestNotFound,
			matches: errors.ErrManifestNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader().ReadRequirements(tt.path(t))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
			assert.True(t, stderrors.Is(err, tt.matches))
		})
	}
}

func TestReader_ReadManifest(t *testing.T) {
	path := writeManifest(t, `{
  "name": "acme/module-shop",
  "version": "1.4.0",
  "type": "magento2-module",
  "require": {"php": "^8.1", "acme/widgets": "^1.0"},
  "require-dev": {"phpunit/phpunit": "^10.0"}
}`)

	m, err := NewReader().ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "acme/module-shop", m.Name)
	assert.Equal(t, "1.4.0", m.Version)
	assert.Equal(t, "magento2-module", m.Type)
	assert.Len(t, m.Require, 2)
	assert.Equal(t, "^10.0", m.RequireDev["phpunit/phpunit"])
}

func TestIsPlatformRequirement(t *testing.T) {
	for _, name := range []string{"php", "PHP", "ext-json", "lib-icu", "composer-plugin-api", "php-64bit"} {
		assert.True(t, IsPlatformRequirement(name), name)
	}
	for _, name := range []string{"acme/widgets", "phpunit/phpunit", "magento/framework"} {
		assert.False(t, IsPlatformRequirement(name), name)
	}
}

func TestReadInstalled_Layouts(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"composer 1", `[{"name": "acme/widgets", "version": "1.2.3"}]`},
		{"composer 2", `{"packages": [{"name": "acme/widgets", "version": "1.2.3", "install-path": "../acme/widgets"}], "dev": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "installed.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			packages, err := ReadInstalled(path)
			require.NoError(t, err)
			require.Len(t, packages, 1)
			assert.Equal(t, "acme/widgets", packages[0].Name)
			assert.Equal(t, "1.2.3", packages[0].Version)
		})
	}
}

func TestInstalledSource_VersionByPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"packages": [{"name": "acme/widgets", "version": "v2.0.1"}]}`), 0o644))

	src := NewInstalledSource(path, NewPackageCache())
	assert.Equal(t, "v2.0.1", src.VersionByPackage("acme/widgets"))
	assert.Equal(t, "v2.0.1", src.VersionByPackage("Acme/Widgets"))
	assert.Equal(t, "", src.VersionByPackage("acme/gadgets"))
}

func TestInstalledSource_UsesCallerCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "acme/widgets", "version": "1.0.0"}]`), 0o644))

	cache := NewPackageCache()
	src := NewInstalledSource(path, cache)
	_, err := src.InstalledPackages()
	require.NoError(t, err)

	// The list is served from the cache once loaded.
	require.NoError(t, os.Remove(path))
	packages, err := NewInstalledSource(path, cache).InstalledPackages()
	require.NoError(t, err)
	assert.Len(t, packages, 1)

	cache.Reset()
	_, err = src.InstalledPackages()
	assert.Error(t, err)
}

func TestInstalledSource_MissingFileYieldsEmptyVersion(t *testing.T) {
	src := NewInstalledSource(filepath.Join(t.TempDir(), "installed.json"), nil)
	assert.Equal(t, "", src.VersionByPackage("acme/widgets"))
}

func TestSuggestConstraint(t *testing.T) {
	tests := map[string]string{
		"1.2.3":    "^1.2",
		"v2.4.6":   "^2.4",
		"3":        "^3.0",
		"2.4.6-p3": "^2.4",
		"dev-main": "*",
		"":         "*",
		"1.2.3.4":  "*",
	}
	for in, want := range tests {
		assert.Equal(t, want, SuggestConstraint(in), in)
	}
}
