// Package printer renders declaration trees in a source-like form for
// debugging and the CLI's dump output.
package printer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/declbridge/declbridge/internal/decltree"
)

type Printer struct {
	buf    bytes.Buffer
	indent int

	// ShowLocations appends each declaration's resolved location and
	// runtime placement as a trailing comment.
	ShowLocations bool
}

func New() *Printer {
	return &Printer{}
}

// Print renders one declaration tree.
func (p *Printer) Print(d decltree.Declaration) string {
	p.buf.Reset()
	p.printDecl(d)
	return p.buf.String()
}

// Print renders a tree with the default settings.
func Print(d decltree.Declaration) string {
	return New().Print(d)
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

func (p *Printer) line(format string, args ...interface{}) {
	p.writeIndent()
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteString("\n")
}

func (p *Printer) printComments(comments []string) {
	for _, c := range comments {
		p.line("// %s", c)
	}
}

func (p *Printer) locationSuffix(d decltree.Declaration) string {
	if !p.ShowLocations {
		return ""
	}
	info := d.Info()
	if !info.Location.IsPresent() {
		return " /* <unlocated> */"
	}
	return fmt.Sprintf(" /* %s [%s] */", info.Location, info.Runtime)
}

func (p *Printer) printDecl(d decltree.Declaration) {
	p.printComments(d.Info().Comments)
	switch dd := d.(type) {
	case *decltree.SourceFile:
		for _, dir := range dd.Directives {
			p.line("/// <%s>", dir)
		}
		p.printDecls(dd.Members)

	case *decltree.Class:
		head := "class"
		if dd.Abstract {
			head = "abstract class"
		}
		head += " " + dd.Name + typeParams(dd.TypeParams)
		if len(dd.Extends) > 0 {
			head += " extends " + joinTypes(dd.Extends)
		}
		if len(dd.Implements) > 0 {
			head += " implements " + joinTypes(dd.Implements)
		}
		p.line("%s {%s", head, p.locationSuffix(dd))
		p.printMembers(dd.Members)
		p.line("}")

	case *decltree.Interface:
		head := "interface " + dd.Name + typeParams(dd.TypeParams)
		if len(dd.Extends) > 0 {
			head += " extends " + joinTypes(dd.Extends)
		}
		p.line("%s {%s", head, p.locationSuffix(dd))
		p.printMembers(dd.Members)
		p.line("}")

	case *decltree.TypeAlias:
		p.line("type %s%s = %s;%s", dd.Name, typeParams(dd.TypeParams), dd.Target, p.locationSuffix(dd))

	case *decltree.Enum:
		head := "enum"
		if dd.Const {
			head = "const enum"
		}
		p.line("%s %s {%s", head, dd.Name, p.locationSuffix(dd))
		p.indent++
		for _, e := range dd.Entries {
			if e.Value != nil {
				p.line("%s = %s,", e.Name, e.Value)
			} else {
				p.line("%s,", e.Name)
			}
		}
		p.indent--
		p.line("}")

	case *decltree.Function:
		p.line("function %s%s;%s", dd.Name, dd.Signature, p.locationSuffix(dd))

	case *decltree.Variable:
		kw := "var"
		if dd.Const {
			kw = "const"
		}
		t := "any"
		if dd.Type != nil {
			t = dd.Type.String()
		}
		p.line("%s %s: %s;%s", kw, dd.Name, t, p.locationSuffix(dd))

	case *decltree.Namespace:
		p.line("namespace %s {%s", dd.Name, p.locationSuffix(dd))
		p.printDeclsIndented(dd.Members)
		p.line("}")

	case *decltree.Module:
		p.line("module %q {%s", dd.Name, p.locationSuffix(dd))
		p.printDeclsIndented(dd.Members)
		p.line("}")

	case *decltree.AugmentedModule:
		p.line("declare module %q {%s", dd.Name, p.locationSuffix(dd))
		p.printDeclsIndented(dd.Members)
		p.line("}")

	case *decltree.GlobalBlock:
		p.line("declare global {")
		p.printDeclsIndented(dd.Members)
		p.line("}")

	case *decltree.Import:
		p.line("import %s from %q;", importClause(dd), dd.From)

	case *decltree.Export:
		p.printExport(dd)

	default:
		p.line("/* unknown declaration %T */", d)
	}
}

func (p *Printer) printDecls(decls []decltree.Declaration) {
	for _, d := range decls {
		p.printDecl(d)
	}
}

func (p *Printer) printDeclsIndented(decls []decltree.Declaration) {
	p.indent++
	p.printDecls(decls)
	p.indent--
}

func (p *Printer) printMembers(members []decltree.Member) {
	p.indent++
	for _, m := range members {
		p.line("%s;", m)
	}
	p.indent--
}

func (p *Printer) printExport(e *decltree.Export) {
	switch {
	case e.Decl != nil:
		p.writeIndent()
		p.buf.WriteString("export ")
		if e.Default {
			p.buf.WriteString("default ")
		}
		p.buf.WriteString("\n")
		p.printDecl(e.Decl)
	case e.NamespaceAlias != "":
		p.line("export * as %s from %q;", e.NamespaceAlias, e.From)
	case e.Wildcard:
		p.line("export * from %q;", e.From)
	case e.Default:
		name := ""
		if len(e.Bindings) > 0 {
			name = e.Bindings[0].Name
		}
		p.line("export default %s;", name)
	case e.From != "":
		p.line("export { %s } from %q;", exportBindings(e.Bindings), e.From)
	default:
		p.line("export { %s };", exportBindings(e.Bindings))
	}
}

func importClause(i *decltree.Import) string {
	switch {
	case i.NamespaceAlias != "":
		return "* as " + i.NamespaceAlias
	case i.DefaultAlias != "":
		return i.DefaultAlias
	default:
		parts := make([]string, len(i.Bindings))
		for n, b := range i.Bindings {
			parts[n] = b.Name
			if b.Alias != "" {
				parts[n] += " as " + b.Alias
			}
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
}

func exportBindings(bindings []decltree.ExportBinding) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = b.Name
		if b.Alias != "" {
			parts[i] += " as " + b.Alias
		}
	}
	return strings.Join(parts, ", ")
}

func typeParams(tps []decltree.TypeParam) string {
	if len(tps) == 0 {
		return ""
	}
	parts := make([]string, len(tps))
	for i, tp := range tps {
		parts[i] = tp.Name
		if tp.Constraint != nil {
			parts[i] += " extends " + tp.Constraint.String()
		}
		if tp.Default != nil {
			parts[i] += " = " + tp.Default.String()
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func joinTypes(ts []decltree.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
