package enumvalidator

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "enumvalidator",
	Doc:  "checks that enum values are written with their named constants, not integer literals",
	Run:  run,
}

// enumTypes are integer enums whose raw values travel on the wire.
var enumTypes = map[string]bool{
	"UserRole": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		// Tests build out-of-range values on purpose.
		if strings.HasSuffix(pass.Fset.Position(file.Pos()).Filename, "_test.go") {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			switch node := n.(type) {
			case *ast.GenDecl:
				// Constant blocks are where the enum values are defined.
				return node.Tok != token.CONST

			case *ast.CallExpr:
				if name, ok := enumConversion(pass, node); ok && len(node.Args) == 1 {
					if lit, ok := intLiteral(node.Args[0]); ok {
						pass.Reportf(node.Pos(),
							"%s conversion of integer literal %s; use a named constant instead",
							name, lit.Value)
						return false
					}
				}

			case *ast.BasicLit:
				if node.Kind != token.INT {
					return true
				}
				if name, ok := enumName(pass.TypesInfo.TypeOf(node)); ok {
					pass.Reportf(node.Pos(),
						"%s set from integer literal %s; use a named constant instead",
						name, node.Value)
				}
			}
			return true
		})
	}
	return nil, nil
}

func enumConversion(pass *analysis.Pass, call *ast.CallExpr) (string, bool) {
	tv, ok := pass.TypesInfo.Types[call.Fun]
	if !ok || !tv.IsType() {
		return "", false
	}
	return enumName(tv.Type)
}

func enumName(t types.Type) (string, bool) {
	named, ok := t.(*types.Named)
	if !ok {
		return "", false
	}
	name := named.Obj().Name()
	return name, enumTypes[name]
}

func intLiteral(expr ast.Expr) (*ast.BasicLit, bool) {
	if paren, ok := expr.(*ast.ParenExpr); ok {
		expr = paren.X
	}
	lit, ok := expr.(*ast.BasicLit)
	return lit, ok && lit.Kind == token.INT
}
