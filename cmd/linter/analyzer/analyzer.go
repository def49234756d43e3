package analyzer

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const (
	analyzerName = "forbiddencalls"
	analyzerDoc  = "reports panic, log.Fatal, os.Exit and zerolog Fatal/Panic events outside the main function"

	zerologPath    = "github.com/rs/zerolog"
	zerologLogPath = "github.com/rs/zerolog/log"
)

// Analyzer checks for calls that terminate the process outside main.
var Analyzer = &analysis.Analyzer{
	Name:     analyzerName,
	Doc:      analyzerDoc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// forbidden maps package paths to the functions that may only be called from main.
var forbidden = map[string]map[string]bool{
	"log":          {"Fatal": true, "Fatalf": true, "Fatalln": true, "Panic": true, "Panicf": true, "Panicln": true},
	"os":           {"Exit": true},
	zerologLogPath: {"Fatal": true, "Panic": true},
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	insp.WithStack(nodeFilter, func(node ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}
		checkCall(pass, node.(*ast.CallExpr), inMain(stack))
		return true
	})

	return nil, nil
}

// inMain reports whether the innermost function declaration on the
// stack is func main. Closures inside main count as main.
func inMain(stack []ast.Node) bool {
	for i := len(stack) - 1; i >= 0; i-- {
		if funcDecl, ok := stack[i].(*ast.FuncDecl); ok {
			return funcDecl.Recv == nil && funcDecl.Name.Name == "main"
		}
	}
	return false
}

func checkCall(pass *analysis.Pass, callExpr *ast.CallExpr, allowed bool) {
	switch fn := callExpr.Fun.(type) {
	case *ast.Ident:
		if fn.Name == "panic" && isBuiltin(pass, fn) {
			pass.Reportf(callExpr.Pos(), "panic is forbidden")
		}
	case *ast.SelectorExpr:
		if allowed {
			return
		}
		if name, ok := forbiddenSelector(pass, fn); ok {
			pass.Reportf(callExpr.Pos(), "%s is forbidden outside main function", name)
		}
	}
}

func isBuiltin(pass *analysis.Pass, ident *ast.Ident) bool {
	if pass.TypesInfo == nil {
		return true
	}
	_, ok := pass.TypesInfo.Uses[ident].(*types.Builtin)
	return ok
}

// forbiddenSelector recognises package functions such as log.Fatal and
// methods of zerolog.Logger such as logger.Fatal.
func forbiddenSelector(pass *analysis.Pass, selectorExpr *ast.SelectorExpr) (string, bool) {
	if pass.TypesInfo == nil {
		return "", false
	}
	fn := selectorExpr.Sel.Name

	if ident, ok := selectorExpr.X.(*ast.Ident); ok {
		if pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName); ok {
			pkgPath := pkgName.Imported().Path()
			if forbidden[pkgPath][fn] {
				return pkgName.Imported().Name() + "." + fn, true
			}
			return "", false
		}
	}

	selection, ok := pass.TypesInfo.Selections[selectorExpr]
	if !ok || selection.Kind() != types.MethodVal {
		return "", false
	}
	if fn != "Fatal" && fn != "Panic" {
		return "", false
	}

	recv := selection.Recv()
	if ptr, ok := recv.(*types.Pointer); ok {
		recv = ptr.Elem()
	}
	named, ok := recv.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return "", false
	}
	if named.Obj().Pkg().Path() == zerologPath && named.Obj().Name() == "Logger" {
		return "zerolog.Logger." + fn, true
	}
	return "", false
}
