// dartsass.go wires the dart-sass embedded compiler in as the
// production StyleBackend.
package compiler

import (
	"fmt"

	"github.com/bep/godartsass/v2"
)

// DartSassBackend compiles SCSS through a long-lived dart-sass embedded
// process. It is safe for concurrent use.
type DartSassBackend struct {
	transpiler *godartsass.Transpiler
	assetRoot  string
}

// NewDartSassBackend starts the dart-sass process. binPath may be empty
// to use the binary from PATH; assetRoot is the load path for plain
// file imports.
func NewDartSassBackend(binPath, assetRoot string) (*DartSassBackend, error) {
	transpiler, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: binPath,
	})
	if err != nil {
		return nil, fmt.Errorf("start dart-sass: %w", err)
	}
	return &DartSassBackend{transpiler: transpiler, assetRoot: assetRoot}, nil
}

// Compile implements StyleBackend.
func (b *DartSassBackend) Compile(req StyleRequest) (StyleResult, error) {
	args := godartsass.Args{
		Source:                  req.Source,
		OutputStyle:             godartsass.OutputStyleCompressed,
		SourceSyntax:            godartsass.SourceSyntaxSCSS,
		EnableSourceMap:         req.SourceMap,
		SourceMapIncludeSources: true,
	}
	if b.assetRoot != "" {
		args.IncludePaths = []string{b.assetRoot}
	}
	if req.Imports != nil {
		args.ImportResolver = importAdapter{imports: req.Imports}
	}

	result, err := b.transpiler.Execute(args)
	if err != nil {
		return StyleResult{}, fmt.Errorf("compile %s: %w", req.Filename, err)
	}
	return StyleResult{CSS: result.CSS, SourceMap: result.SourceMap}, nil
}

// Close shuts the dart-sass process down.
func (b *DartSassBackend) Close() error {
	return b.transpiler.Close()
}

// importAdapter exposes Imports through the dart-sass resolver
// interface. Names it does not recognize fall back to the load path.
type importAdapter struct {
	imports *Imports
}

const importScheme = "themepress:"

func (a importAdapter) CanonicalizeURL(url string) (string, error) {
	if _, ok := a.imports.Resolve(url); ok {
		return importScheme + url, nil
	}
	return "", nil
}

func (a importAdapter) Load(canonicalizedURL string) (godartsass.Import, error) {
	name := canonicalizedURL[len(importScheme):]
	content, ok := a.imports.Resolve(name)
	if !ok {
		return godartsass.Import{}, fmt.Errorf("unknown import %q", name)
	}
	return godartsass.Import{Content: content, SourceSyntax: godartsass.SourceSyntaxSCSS}, nil
}
