package imports

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"extcheck/internal/engine/parser"
	"extcheck/internal/engine/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScanner(t *testing.T) *Scanner {
	t.Helper()
	r, err := source.NewReader(8)
	require.NoError(t, err)
	return NewScanner(parser.NewParser(), r)
}

func TestScanner_Scan(t *testing.T) {
	s := newScanner(t)
	code := `<?php
namespace Acme\Shop\Model;

use Acme\Catalog\Api\ProductRepositoryInterface;
use Magento\Framework\Event\ManagerInterface as EventManager, Magento\Store\Model\StoreManager;
use function Acme\Shop\helper;
use const Acme\Shop\VERSION;

// use Not\Imported;
class Cart
{
    public function run()
    {
        $s = "use Not\Imported\Either;";
    }
}
`
	seq := s.Scan([]byte(code))
	want := []string{
		"Acme\\Catalog\\Api\\ProductRepositoryInterface",
		"Magento\\Framework\\Event\\ManagerInterface",
		"Magento\\Store\\Model\\StoreManager",
	}
	assert.Equal(t, want, slices.Collect(seq))
	// Restartable.
	assert.Equal(t, want, slices.Collect(seq))
}

func TestScanner_ScanStopsEarly(t *testing.T) {
	s := newScanner(t)
	code := `<?php
use A\One;
use A\Two;
use A\Three;
`
	var got []string
	for name := range s.Scan([]byte(code)) {
		got = append(got, name)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"A\\One", "A\\Two"}, got)
}

func TestScanner_ScanFile(t *testing.T) {
	s := newScanner(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "Thing.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php\nuse Vendor\\Lib\\Client;\nclass Thing {}\n"), 0o644))

	seq, err := s.ScanFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vendor\\Lib\\Client"}, slices.Collect(seq))

	empty, err := s.ScanFile("")
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(empty))

	_, err = s.ScanFile(filepath.Join(dir, "missing.php"))
	assert.Error(t, err)
}
