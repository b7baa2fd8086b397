package model

import (
	"fmt"
	"io"

	"github.com/mandelsoft/concepts/pkg/metamodel"
)

// Visitor is the traversal contract offered to code generators and
// other external consumers of a resolved model set. The traversal
// order is deterministic: namespaces in registration order, within
// a namespace declarations in source order, within a declaration
// the flattened property set.
type Visitor interface {
	VisitModelFile(f *ModelFile) error
	VisitDeclaration(d *ClassDeclaration) error
	VisitProperty(d *ClassDeclaration, p *Property) error
}

// Walk drives a visitor over the complete model set. A visitor
// error aborts the traversal.
func (m *ModelManager) Walk(v Visitor) error {
	for _, ns := range m.Namespaces() {
		f := m.ModelFile(ns)
		if err := v.VisitModelFile(f); err != nil {
			return err
		}
		for _, n := range f.DeclarationNames() {
			d, err := m.ResolveType(ns, n)
			if err != nil {
				return err
			}
			if err := v.VisitDeclaration(d); err != nil {
				return err
			}
			for _, p := range d.AllProperties() {
				if err := v.VisitProperty(d, p); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Dump writes a human readable rendering of the resolved model
// set.
func (m *ModelManager) Dump(w io.Writer) {
	m.Walk(&dumper{w: w})
}

type dumper struct {
	w io.Writer
}

var _ Visitor = (*dumper)(nil)

func (d *dumper) VisitModelFile(f *ModelFile) error {
	fmt.Fprintf(d.w, "Namespace %s:\n", f.Namespace())
	for _, i := range f.Imports() {
		if i.URI != "" {
			fmt.Fprintf(d.w, "  import %s (%s)\n", i.Namespace, i.URI)
		} else {
			fmt.Fprintf(d.w, "  import %s\n", i.Namespace)
		}
	}
	return nil
}

func (d *dumper) VisitDeclaration(c *ClassDeclaration) error {
	flags := ""
	if c.IsAbstract() {
		flags = " (abstract)"
	}
	fmt.Fprintf(d.w, "- %s [%s]%s\n", c.Name(), c.Kind(), flags)
	if s := c.ResolvedSuper(); s != nil {
		fmt.Fprintf(d.w, "  extends %s\n", s.FullyQualifiedName())
	}
	if i := c.IdentifyingField(); i != nil {
		fmt.Fprintf(d.w, "  identified by %s\n", i.Name())
	}
	return nil
}

func (d *dumper) VisitProperty(c *ClassDeclaration, p *Property) error {
	typ := ""
	switch p.Kind() {
	case metamodel.FieldKindPrimitive:
		typ = string(p.Primitive())
	case metamodel.FieldKindObject:
		typ = p.ResolvedType().FullyQualifiedName()
	case metamodel.FieldKindRelationship:
		typ = "-> " + p.ResolvedType().FullyQualifiedName()
	case metamodel.FieldKindEnumValue:
		fmt.Fprintf(d.w, "  - %s\n", p.Name())
		return nil
	}
	if p.IsArray() {
		typ += "[]"
	}
	opts := ""
	if p.IsOptional() {
		opts += " optional"
	}
	if v := p.Default(); v != nil {
		opts += fmt.Sprintf(" default=%q", *v)
	}
	if p.Owner() != c {
		opts += fmt.Sprintf(" (from %s)", p.Owner().FullyQualifiedName())
	}
	fmt.Fprintf(d.w, "  - %s: %s%s\n", p.Name(), typ, opts)
	return nil
}
