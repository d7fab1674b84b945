package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PHPExtractor turns a PHP syntax tree into a File summary. Only declaration
// level constructs are read: namespaces, use imports and type declarations.
type PHPExtractor struct{}

func (e *PHPExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:     filePath,
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file, Scope: NewNameScope()}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"namespace_definition":      e.extractNamespace,
		"namespace_use_declaration": e.extractUse,
		"class_declaration":         e.extractTypeDecl,
		"interface_declaration":     e.extractTypeDecl,
		"trait_declaration":         e.extractTypeDecl,
		"enum_declaration":          e.extractTypeDecl,
		// Bodies of functions never hold imports or declarations we index.
		"function_definition": skipNode,
		"anonymous_function":  skipNode,
		"arrow_function":      skipNode,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func skipNode(_ *ExtractionContext, _ *sitter.Node) bool {
	return true
}

func (e *PHPExtractor) extractNamespace(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = ctx.Text(nameNode)
	} else if nameNode := ChildOfKind(node, "namespace_name"); nameNode != nil {
		name = ctx.Text(nameNode)
	}
	ctx.Scope.EnterNamespace(name)
	ctx.File.Namespaces = append(ctx.File.Namespaces, ctx.Scope.Namespace)
	return false // braced namespaces carry their declarations as children
}

func (e *PHPExtractor) extractUse(ctx *ExtractionContext, node *sitter.Node) bool {
	kind := importKindOf(node, ImportClass)

	if group := ChildOfKind(node, "namespace_use_group"); group != nil {
		prefix := ""
		if p := ChildOfKind(node, "namespace_name", "qualified_name", "name"); p != nil {
			prefix = TrimName(ctx.Text(p))
		}
		for _, clause := range ChildrenOfKind(group, "namespace_use_clause", "namespace_use_group_clause") {
			e.addUseClause(ctx, clause, prefix, kind)
		}
		return true
	}

	for _, clause := range ChildrenOfKind(node, "namespace_use_clause") {
		e.addUseClause(ctx, clause, "", kind)
	}
	return true
}

func (e *PHPExtractor) addUseClause(ctx *ExtractionContext, clause *sitter.Node, prefix string, kind ImportKind) {
	kind = importKindOf(clause, kind)

	nameNode := ChildOfKind(clause, "qualified_name", "namespace_name", "name")
	if nameNode == nil {
		return
	}
	name := TrimName(ctx.Text(nameNode))
	if prefix != "" {
		name = prefix + NamespaceSeparator + name
	}
	if name == "" {
		return
	}

	imp := Import{
		Name:     name,
		Alias:    aliasOf(ctx, clause, nameNode),
		Kind:     kind,
		Location: ctx.Location(clause),
	}
	ctx.File.Imports = append(ctx.File.Imports, imp)
	ctx.Scope.AddImport(imp)
}

func importKindOf(node *sitter.Node, fallback ImportKind) ImportKind {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		switch strings.ToLower(child.Kind()) {
		case "function":
			return ImportFunction
		case "const":
			return ImportConst
		}
	}
	return fallback
}

func aliasOf(ctx *ExtractionContext, clause, nameNode *sitter.Node) string {
	if alias := clause.ChildByFieldName("alias"); alias != nil {
		return ctx.Text(alias)
	}
	if aliasing := ChildOfKind(clause, "namespace_aliasing_clause"); aliasing != nil {
		return ctx.Text(ChildOfKind(aliasing, "name"))
	}
	seenAs := false
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() && strings.EqualFold(child.Kind(), "as") {
			seenAs = true
			continue
		}
		if seenAs && child.Kind() == "name" && child.StartByte() != nameNode.StartByte() {
			return ctx.Text(child)
		}
	}
	return ""
}

func (e *PHPExtractor) extractTypeDecl(ctx *ExtractionContext, node *sitter.Node) bool {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = ChildOfKind(node, "name")
	}
	if nameNode == nil {
		return true
	}
	name := ctx.Text(nameNode)

	decl := TypeDecl{
		Name:       name,
		FullName:   qualifyIn(ctx.Scope.Namespace, name),
		DocComment: docCommentOf(ctx, node),
		Location:   ctx.Location(node),
	}

	switch node.Kind() {
	case "interface_declaration":
		decl.Kind = KindInterface
	case "trait_declaration":
		decl.Kind = KindTrait
	case "enum_declaration":
		decl.Kind = KindEnum
	default:
		decl.Kind = KindClass
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch strings.ToLower(child.Kind()) {
		case "abstract_modifier", "abstract":
			decl.Abstract = true
		case "final_modifier", "final":
			decl.Final = true
		}
	}

	decl.Extends = e.clauseNames(ctx, ChildOfKind(node, "base_clause"))
	decl.Implements = e.clauseNames(ctx, ChildOfKind(node, "class_interface_clause"))

	prevClass, prevParent := ctx.Scope.Class, ctx.Scope.Parent
	ctx.Scope.Class = decl.FullName
	if decl.Kind == KindClass && len(decl.Extends) > 0 {
		ctx.Scope.Parent = decl.Extends[0]
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		body = ChildOfKind(node, "declaration_list", "enum_declaration_list")
	}
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			member := body.Child(i)
			if member == nil {
				continue
			}
			switch member.Kind() {
			case "use_declaration":
				decl.Traits = append(decl.Traits, e.clauseNames(ctx, member)...)
			case "method_declaration":
				if ctor := e.extractConstructor(ctx, member); ctor != nil {
					decl.Constructor = ctor
				}
			}
		}
	}

	ctx.Scope.Class, ctx.Scope.Parent = prevClass, prevParent
	ctx.File.Types = append(ctx.File.Types, decl)
	return true
}

func qualifyIn(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + NamespaceSeparator + name
}

func (e *PHPExtractor) clauseNames(ctx *ExtractionContext, clause *sitter.Node) []string {
	if clause == nil {
		return nil
	}
	var names []string
	for _, n := range ChildrenOfKind(clause, "name", "qualified_name") {
		if resolved := ctx.Scope.Resolve(ctx.Text(n)); resolved != "" {
			names = append(names, resolved)
		}
	}
	return names
}

func docCommentOf(ctx *ExtractionContext, node *sitter.Node) string {
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if prev.Kind() != "comment" {
			return ""
		}
		text := ctx.Text(prev)
		if strings.HasPrefix(text, "/**") {
			return text
		}
	}
	return ""
}

func (e *PHPExtractor) extractConstructor(ctx *ExtractionContext, method *sitter.Node) *Constructor {
	nameNode := method.ChildByFieldName("name")
	if nameNode == nil || !strings.EqualFold(ctx.Text(nameNode), "__construct") {
		return nil
	}

	ctor := &Constructor{Public: true}
	for _, mod := range ChildrenOfKind(method, "visibility_modifier") {
		if !strings.EqualFold(ctx.Text(mod), "public") {
			ctor.Public = false
		}
	}

	params := method.ChildByFieldName("parameters")
	if params == nil {
		params = ChildOfKind(method, "formal_parameters")
	}
	for _, p := range ChildrenOfKind(params, "simple_parameter", "property_promotion_parameter", "variadic_parameter") {
		param := Param{
			Name:     strings.TrimPrefix(ctx.Text(p.ChildByFieldName("name")), "$"),
			Variadic: p.Kind() == "variadic_parameter",
			Promoted: p.Kind() == "property_promotion_parameter",
		}
		if typeNode := p.ChildByFieldName("type"); typeNode != nil {
			param.Type, param.Union, param.Nullable = e.normalizeType(ctx, typeNode)
		}
		ctor.Params = append(ctor.Params, param)
	}
	return ctor
}

// normalizeType reduces a declared type to a single name. Unions with more than
// one non-null member return the members and an empty name.
func (e *PHPExtractor) normalizeType(ctx *ExtractionContext, node *sitter.Node) (string, []string, bool) {
	kind := node.Kind()
	switch {
	case kind == "optional_type":
		inner := firstNamedChild(node)
		if inner == nil {
			return ctx.Scope.Resolve(strings.TrimPrefix(ctx.Text(node), "?")), nil, true
		}
		name, union, _ := e.normalizeType(ctx, inner)
		return name, union, true
	case kind == "primitive_type":
		return strings.ToLower(ctx.Text(node)), nil, false
	case kind == "named_type":
		if inner := firstNamedChild(node); inner != nil {
			return ctx.Scope.Resolve(ctx.Text(inner)), nil, false
		}
		return ctx.Scope.Resolve(ctx.Text(node)), nil, false
	case strings.Contains(kind, "union") || strings.Contains(kind, "intersection") || strings.Contains(kind, "disjunctive"):
		var members []string
		nullable := false
		for i := uint(0); i < node.NamedChildCount(); i++ {
			member, nested, _ := e.normalizeType(ctx, node.NamedChild(i))
			if member == "null" {
				nullable = true
				continue
			}
			if member != "" {
				members = append(members, member)
			}
			members = append(members, nested...)
		}
		if len(members) == 1 && nullable && !strings.Contains(kind, "intersection") {
			return members[0], nil, true
		}
		return "", members, nullable
	default:
		text := ctx.Text(node)
		nullable := strings.HasPrefix(text, "?")
		return ctx.Scope.Resolve(strings.TrimPrefix(text, "?")), nil, nullable
	}
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	if node == nil || node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(0)
}
