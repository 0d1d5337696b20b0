// precompile.go defines the black-box template precompiler boundary and
// the default implementation that defers compilation to the client
// runtime.
package compiler

import (
	"encoding/json"
	"fmt"
)

// TemplatePrecompiler turns template source into a JavaScript
// expression that evaluates to an executable template. Raw mode covers
// template names carrying the reserved .raw suffix.
type TemplatePrecompiler interface {
	Precompile(source string) (string, error)
	PrecompileRaw(source string) (string, error)
}

// RuntimePrecompiler emits an expression that hands the quoted source
// to the client-side compiler. It never fails; an ahead-of-time
// precompiler can be swapped in without touching the markup compiler.
type RuntimePrecompiler struct{}

// Precompile implements TemplatePrecompiler.
func (RuntimePrecompiler) Precompile(source string) (string, error) {
	quoted, err := json.Marshal(source)
	if err != nil {
		return "", fmt.Errorf("quote template source: %w", err)
	}
	return fmt.Sprintf("Themepress.compile(%s)", quoted), nil
}

// PrecompileRaw implements TemplatePrecompiler.
func (RuntimePrecompiler) PrecompileRaw(source string) (string, error) {
	quoted, err := json.Marshal(source)
	if err != nil {
		return "", fmt.Errorf("quote template source: %w", err)
	}
	return fmt.Sprintf("Themepress.compileRaw(%s)", quoted), nil
}
