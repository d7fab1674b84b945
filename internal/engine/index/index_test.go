package index

import (
	"context"
	"extcheck/internal/core/errors"
	"extcheck/internal/engine/parser"
	"extcheck/internal/engine/source"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func buildIndex(t *testing.T, root string) *Index {
	t.Helper()
	w, err := source.NewWalker([]string{"Test"}, nil)
	require.NoError(t, err)
	b, err := NewBuilder(parser.NewParser(), w, Options{
		Root:       root,
		DIPatterns: []string{"**/etc/di.xml"},
		Workers:    2,
	})
	require.NoError(t, err)
	ix, err := b.Build(context.Background(), []string{root})
	require.NoError(t, err)
	return ix
}

func TestBuilder_Build(t *testing.T) {
	root := t.TempDir()
	cartFile := writeFile(t, root, "app/code/Acme/Shop/Model/Cart.php", `<?php
namespace Acme\Shop\Model;

use Acme\Shop\Api\CartInterface;

/** @deprecated */
class Cart extends AbstractCart implements CartInterface
{
}
`)
	writeFile(t, root, "app/code/Acme/Shop/Model/AbstractCart.php", `<?php
namespace Acme\Shop\Model;

abstract class AbstractCart implements \Countable
{
    public function __construct(\Psr\Log\LoggerInterface $logger, array $items = [])
    {
    }
}
`)
	writeFile(t, root, "app/code/Acme/Shop/Api/CartInterface.php", `<?php
namespace Acme\Shop\Api;

interface CartInterface extends \IteratorAggregate
{
}
`)
	writeFile(t, root, "app/code/Acme/Shop/Model/PricingTrait.php", `<?php
namespace Acme\Shop\Model;

trait PricingTrait
{
}
`)
	writeFile(t, root, "app/code/Acme/Shop/Test/Unit/CartTest.php", `<?php
namespace Acme\Shop\Test\Unit;

class CartTest
{
}
`)
	writeFile(t, root, "app/code/Acme/Shop/etc/di.xml", `<?xml version="1.0"?>
<config xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
    <preference for="Acme\Shop\Api\CartInterface" type="\Acme\Shop\Model\Cart"/>
</config>
`)

	ix := buildIndex(t, root)

	assert.True(t, ix.Exists(`Acme\Shop\Model\Cart`))
	assert.True(t, ix.Exists(`\acme\shop\model\cart`))
	assert.False(t, ix.Exists(`Acme\Shop\Test\Unit\CartTest`))
	assert.True(t, ix.Exists("ArrayAccess"))

	info, err := ix.Introspect(`Acme\Shop\Model\Cart`)
	require.NoError(t, err)
	assert.Equal(t, `Acme\Shop\Model\Cart`, info.Name)
	assert.Equal(t, cartFile, info.File)
	assert.Equal(t, `Acme\Shop\Model\AbstractCart`, info.Parent)
	assert.Contains(t, info.DocComment, "@deprecated")
	assert.Equal(t, []string{
		`Acme\Shop\Api\CartInterface`,
		"IteratorAggregate",
		"Traversable",
		"Countable",
	}, info.Interfaces)
	assert.Equal(t, []Param{
		{Name: "logger", Type: `Psr\Log\LoggerInterface`},
		{Name: "items", Type: "array"},
	}, info.ConstructorParams)

	assert.Equal(t, `Acme\Shop\Model\Cart`, ix.ResolveSubstitution(`Acme\Shop\Api\CartInterface`))
	assert.Equal(t, "", ix.ResolveSubstitution(`Acme\Shop\Model\Cart`))

	assert.True(t, ix.IsAbstract(`Acme\Shop\Model\AbstractCart`))
	assert.False(t, ix.IsInstantiable(`Acme\Shop\Model\AbstractCart`))
	assert.True(t, ix.IsInstantiable(`Acme\Shop\Model\Cart`))
	assert.True(t, ix.IsInterface(`Acme\Shop\Api\CartInterface`))
	assert.True(t, ix.IsTrait(`Acme\Shop\Model\PricingTrait`))
	assert.False(t, ix.IsInstantiable(`Acme\Shop\Model\PricingTrait`))

	assert.Equal(t, []string{
		`Acme\Shop\Model\AbstractCart`,
		`Acme\Shop\Model\Cart`,
		`Acme\Shop\Model\PricingTrait`,
	}, ix.TypesUnder(filepath.Join(root, "app/code/Acme/Shop/Model")))
}

func TestIndex_IntrospectUnknown(t *testing.T) {
	ix := New()
	_, err := ix.Introspect(`Acme\Missing`)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeIntrospection))
}

func TestIndex_DuplicateKeepsFirst(t *testing.T) {
	ix := New()
	first := &parser.File{Path: "a.php", Types: []parser.TypeDecl{{FullName: `Acme\Dup`, Kind: parser.KindClass}}}
	second := &parser.File{Path: "b.php", Types: []parser.TypeDecl{{FullName: `Acme\Dup`, Kind: parser.KindInterface}}}

	assert.Empty(t, ix.AddFile(first))
	assert.Equal(t, []string{`Acme\Dup`}, ix.AddFile(second))

	info, err := ix.Introspect(`Acme\Dup`)
	require.NoError(t, err)
	assert.Equal(t, "a.php", info.File)
	assert.Equal(t, parser.KindClass, info.Kind)
}

func TestIndex_InheritanceCycleTerminates(t *testing.T) {
	ix := New()
	ix.AddFile(&parser.File{Path: "cycle.php", Types: []parser.TypeDecl{
		{FullName: `Acme\A`, Kind: parser.KindClass, Extends: []string{`Acme\B`}},
		{FullName: `Acme\B`, Kind: parser.KindClass, Extends: []string{`Acme\A`}},
	}})

	info, err := ix.Introspect(`Acme\A`)
	require.NoError(t, err)
	assert.Empty(t, info.ConstructorParams)
	assert.Empty(t, info.Interfaces)
}

func TestIndex_PrivateConstructorNotInstantiable(t *testing.T) {
	ix := New()
	ix.AddFile(&parser.File{Path: "s.php", Types: []parser.TypeDecl{
		{FullName: `Acme\Singleton`, Kind: parser.KindClass, Constructor: &parser.Constructor{Public: false}},
	}})
	assert.False(t, ix.IsInstantiable(`Acme\Singleton`))
	assert.True(t, ix.Exists(`Acme\Singleton`))
}

func TestIndex_EnumsImplementUnitEnum(t *testing.T) {
	ix := New()
	ix.AddFile(&parser.File{Path: "e.php", Types: []parser.TypeDecl{
		{FullName: `Acme\Status`, Kind: parser.KindEnum},
	}})
	info, err := ix.Introspect(`Acme\Status`)
	require.NoError(t, err)
	assert.Equal(t, []string{"UnitEnum"}, info.Interfaces)
	assert.False(t, ix.IsInstantiable(`Acme\Status`))
}
