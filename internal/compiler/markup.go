// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// markup.go is the markup half of the field compiler. Theme markup
// fragments may embed template blocks and versioned plugin code blocks
// inside <script> markers; baking precompiles each block in place and
// re-serializes the fragment, which also corrects malformed markup.
package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	templateScriptType = "text/x-handlebars"
	pluginScriptType   = "text/themepress-plugin"
	errorScriptType    = "text/themepress-js-error"

	rawTemplateSuffix = ".raw"
)

// MarkupCompiler rewrites markup fragments. Both collaborators are
// black boxes: the precompiler turns template source into a JS
// expression, the transpiler turns plugin code into a widely-executable
// dialect.
type MarkupCompiler struct {
	precompiler TemplatePrecompiler
	transpiler  ScriptTranspiler
}

// NewMarkupCompiler creates a markup compiler.
func NewMarkupCompiler(precompiler TemplatePrecompiler, transpiler ScriptTranspiler) *MarkupCompiler {
	return &MarkupCompiler{precompiler: precompiler, transpiler: transpiler}
}

// CompileFragment bakes one markup fragment. It never fails: a block
// that cannot be compiled is replaced with an inert, clearly tagged
// error marker and its siblings still process. Unparseable input is
// returned unchanged.
func (c *MarkupCompiler) CompileFragment(fragment string) string {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return fragment
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	for _, script := range collectScripts(body) {
		switch attr(script, "type") {
		case templateScriptType:
			c.replaceTemplateBlock(script)
		case pluginScriptType:
			c.replacePluginBlock(script)
		}
	}

	var b strings.Builder
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&b, n); err != nil {
			return fragment
		}
	}
	return b.String()
}

// replaceTemplateBlock precompiles one named template block into a
// self-installing script.
func (c *MarkupCompiler) replaceTemplateBlock(script *html.Node) {
	name := attr(script, "name")
	if name == "" {
		name = attr(script, "data-template-name")
	}
	if name == "" {
		name = "broken"
	}

	source := innerText(script)

	var compiled string
	var err error
	var install string
	if strings.HasSuffix(name, rawTemplateSuffix) {
		compiled, err = c.precompiler.PrecompileRaw(source)
		install = fmt.Sprintf("Themepress.rawTemplates[%q] = %s;", strings.TrimSuffix(name, rawTemplateSuffix), compiled)
	} else {
		compiled, err = c.precompiler.Precompile(source)
		install = fmt.Sprintf("Themepress.templates[%q] = %s;", name, compiled)
	}
	if err != nil {
		replaceWithError(script, err)
		return
	}

	js := fmt.Sprintf("\n(function() {\n%s\n})();\n", install)
	replaceNode(script, scriptNode(js, nil))
}

// replacePluginBlock wraps versioned plugin code in its registration
// call and transpiles it. Blocks without a version attribute are left
// untouched, matching the marker contract.
func (c *MarkupCompiler) replacePluginBlock(script *html.Node) {
	version := attr(script, "version")
	if version == "" {
		return
	}

	wrapped := fmt.Sprintf("Themepress._registerPluginCode('%s', api => {\n%s\n});", version, innerText(script))
	code, err := c.transpiler.Transpile(wrapped)
	if err != nil {
		replaceWithError(script, err)
		return
	}
	replaceNode(script, scriptNode(code, nil))
}

// replaceWithError swaps a block for a marker the browser will never
// execute, carrying the failure message as its body.
func replaceWithError(script *html.Node, err error) {
	msg := strings.ReplaceAll(err.Error(), "</", "<\\/")
	replaceNode(script, scriptNode(msg, []html.Attribute{{Key: "type", Val: errorScriptType}}))
}

// collectScripts gathers script elements up front so replacements do
// not disturb the walk.
func collectScripts(root *html.Node) []*html.Node {
	var scripts []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			scripts = append(scripts, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return scripts
}

// scriptNode builds a <script> element with the given body and attributes.
func scriptNode(body string, attrs []html.Attribute) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr:     attrs,
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: body})
	return n
}

// replaceNode swaps old for replacement under old's parent.
func replaceNode(old, replacement *html.Node) {
	if old.Parent == nil {
		return
	}
	old.Parent.InsertBefore(replacement, old)
	old.Parent.RemoveChild(old)
}

// attr returns the value of a named attribute, or empty.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// innerText concatenates the text children of a node.
func innerText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
