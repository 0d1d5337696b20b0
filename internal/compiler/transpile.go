// transpile.go defines the black-box script transpiler boundary and the
// default syntax-checking implementation.
package compiler

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// ScriptTranspiler turns plugin code into a widely-executable script
// dialect. A returned error marks the block broken; the markup compiler
// converts it to an inert error marker instead of failing the bake.
type ScriptTranspiler interface {
	Transpile(source string) (string, error)
}

// SyntaxCheckedTranspiler validates plugin code with a JavaScript
// grammar and passes it through unchanged. Modern runtimes execute the
// source directly; the value here is catching broken blocks at bake
// time so one bad plugin never ships an executing script.
type SyntaxCheckedTranspiler struct{}

// Transpile implements ScriptTranspiler.
func (SyntaxCheckedTranspiler) Transpile(source string) (string, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	if err != nil {
		return "", fmt.Errorf("parse plugin code: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return source, nil
	}

	if bad := firstErrorNode(root); bad != nil {
		point := bad.StartPoint()
		return "", fmt.Errorf("syntax error at line %d, column %d", point.Row+1, point.Column+1)
	}
	return "", fmt.Errorf("syntax error in plugin code")
}

// firstErrorNode finds the shallowest error or missing node.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
