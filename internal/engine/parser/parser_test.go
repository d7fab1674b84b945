package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogSource = `<?php
declare(strict_types=1);

namespace Acme\Catalog\Model;

use Acme\Catalog\Api\ProductRepositoryInterface;
use Magento\Framework\App\Config\ScopeConfigInterface as ScopeConfig;
use Psr\Log\{LoggerInterface, NullLogger as Silent};
use function sprintf;

/**
 * Loads products.
 *
 * @deprecated use ProductLoader instead
 */
abstract class Loader extends AbstractLoader implements \Countable, LoaderInterface
{
    use CacheTrait;

    public function __construct(
        ProductRepositoryInterface $repository,
        ScopeConfig $config,
        ?LoggerInterface $logger,
        array $data = [],
        $untyped = null,
        private readonly \Acme\Catalog\Helper\Data $helper
    ) {
        $cb = function () use ($data) {
            return $data;
        };
    }

    public function count(): int
    {
        return 0;
    }
}
`

func TestPHPExtraction_ImportsAndDeclarations(t *testing.T) {
	p := NewParser()

	file, err := p.ParseFile("Loader.php", []byte(catalogSource))
	require.NoError(t, err)

	require.Equal(t, []string{"Acme\\Catalog\\Model"}, file.Namespaces)

	var classImports []string
	for _, imp := range file.Imports {
		if imp.Kind == ImportClass {
			classImports = append(classImports, imp.Name)
		}
	}
	assert.Equal(t, []string{
		"Acme\\Catalog\\Api\\ProductRepositoryInterface",
		"Magento\\Framework\\App\\Config\\ScopeConfigInterface",
		"Psr\\Log\\LoggerInterface",
		"Psr\\Log\\NullLogger",
	}, classImports)

	require.Len(t, file.Types, 1)
	decl := file.Types[0]
	assert.Equal(t, "Loader", decl.Name)
	assert.Equal(t, "Acme\\Catalog\\Model\\Loader", decl.FullName)
	assert.Equal(t, KindClass, decl.Kind)
	assert.True(t, decl.Abstract)
	assert.Equal(t, []string{"Acme\\Catalog\\Model\\AbstractLoader"}, decl.Extends)
	assert.Equal(t, []string{"Countable", "Acme\\Catalog\\Model\\LoaderInterface"}, decl.Implements)
	assert.Equal(t, []string{"Acme\\Catalog\\Model\\CacheTrait"}, decl.Traits)
	assert.Contains(t, decl.DocComment, "@deprecated")

	require.NotNil(t, decl.Constructor)
	params := decl.Constructor.Params
	require.Len(t, params, 6)
	assert.Equal(t, "repository", params[0].Name)
	assert.Equal(t, "Acme\\Catalog\\Api\\ProductRepositoryInterface", params[0].Type)
	assert.Equal(t, "Magento\\Framework\\App\\Config\\ScopeConfigInterface", params[1].Type)
	assert.Equal(t, "Psr\\Log\\LoggerInterface", params[2].Type)
	assert.True(t, params[2].Nullable)
	assert.Equal(t, "array", params[3].Type)
	assert.Equal(t, "", params[4].Type)
	assert.Equal(t, "Acme\\Catalog\\Helper\\Data", params[5].Type)
	assert.True(t, params[5].Promoted)
}

func TestPHPExtraction_InterfacesAndTraits(t *testing.T) {
	p := NewParser()
	code := `<?php
namespace Acme\Shop;

interface CartInterface extends \IteratorAggregate, Api\Countable
{
}

trait Discountable
{
}

final class Cart implements CartInterface
{
}
`
	file, err := p.ParseFile("Cart.php", []byte(code))
	require.NoError(t, err)
	require.Len(t, file.Types, 3)

	assert.Equal(t, KindInterface, file.Types[0].Kind)
	assert.Equal(t, []string{"IteratorAggregate", "Acme\\Shop\\Api\\Countable"}, file.Types[0].Extends)

	assert.Equal(t, KindTrait, file.Types[1].Kind)
	assert.Equal(t, "Acme\\Shop\\Discountable", file.Types[1].FullName)

	assert.Equal(t, KindClass, file.Types[2].Kind)
	assert.True(t, file.Types[2].Final)
	assert.False(t, file.Types[2].Abstract)
	assert.Nil(t, file.Types[2].Constructor)
	assert.Equal(t, []string{"Acme\\Shop\\CartInterface"}, file.Types[2].Implements)
}

func TestPHPExtraction_IgnoresLookalikes(t *testing.T) {
	p := NewParser()
	code := `<?php
namespace Acme\Shop;

// use Fake\Commented;
/* use Fake\Block; */
$text = 'use Fake\InString;';
$heredoc = <<<EOT
use Fake\InHeredoc;
EOT;

class Basket
{
    use Fake\TraitUse;
}
`
	file, err := p.ParseFile("Basket.php", []byte(code))
	require.NoError(t, err)
	assert.Empty(t, file.Imports)
}

func TestParser_IsSupportedPath(t *testing.T) {
	p := NewParser()
	assert.True(t, p.IsSupportedPath("app/code/Acme/Shop/Model/Cart.php"))
	assert.True(t, p.IsSupportedPath("view/frontend/templates/cart.PHTML"))
	assert.False(t, p.IsSupportedPath("composer.json"))
}
