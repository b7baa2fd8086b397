// Package convert maps parsed syntax trees to the canonical
// metamodel form. It classifies declarations and properties by
// discriminator tag and checks everything that can be checked
// without cross-file resolution.
package convert

import (
	"fmt"
	"strings"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/metamodel/ast"
)

// ReservedSigil is reserved for the keys of runtime metadata in the
// generic serialized instance form. User-declared property names
// must not start with it.
const ReservedSigil = "$"

// MalformedSourceError reports a construct the converter cannot
// map: an unrecognized kind or a reserved name.
type MalformedSourceError struct {
	Namespace string
	Construct string
	Location  *ast.Location
	Message   string
}

func (e *MalformedSourceError) Error() string {
	loc := ""
	if e.Location != nil {
		loc = fmt.Sprintf(" at %d:%d", e.Location.Line, e.Location.Column)
	}
	return fmt.Sprintf("namespace %q: %s%s: %s", e.Namespace, e.Construct, loc, e.Message)
}

func malformed(ns, construct string, loc *ast.Location, msg string, args ...interface{}) error {
	return &MalformedSourceError{
		Namespace: ns,
		Construct: construct,
		Location:  loc,
		Message:   fmt.Sprintf(msg, args...),
	}
}

// Convert maps the syntax tree of one model source file to its
// canonical metamodel. It fails with a MalformedSourceError for the
// first construct it cannot classify.
func Convert(m *ast.Model) (*metamodel.ModelFile, error) {
	if m.Namespace == "" {
		return nil, malformed("", "model", nil, "namespace missing")
	}

	file := metamodel.NewModelFile(m.Namespace)
	for _, i := range m.Imports {
		file.Imports = append(file.Imports, metamodel.NewImport(i.Namespace, i.URI))
	}

	for _, d := range m.Body {
		decl, err := convertDeclaration(m.Namespace, &d)
		if err != nil {
			return nil, err
		}
		file.AddDeclaration(decl)
	}
	return file, nil
}

func convertDeclaration(ns string, d *ast.Declaration) (metamodel.Declaration, error) {
	var kind metamodel.DeclarationKind

	switch d.Kind {
	case ast.KindConceptDeclaration:
		kind = metamodel.KindConcept
	case ast.KindAssetDeclaration:
		kind = metamodel.KindAsset
	case ast.KindTransactionDeclaration:
		kind = metamodel.KindTransaction
	case ast.KindParticipantDeclaration:
		kind = metamodel.KindParticipant
	case ast.KindEventDeclaration:
		kind = metamodel.KindEvent
	case ast.KindEnumDeclaration:
		return convertEnum(ns, d)
	default:
		return nil, malformed(ns, fmt.Sprintf("declaration %q", d.ID.Name), d.Location,
			"unrecognized declaration kind %q", d.Kind)
	}

	decl := metamodel.NewObjectDeclaration(kind, d.ID.Name)
	decl.Abstract = d.Abstract
	decl.IdentifiedBy = d.IdentifiedBy
	decl.Location = location(d.Location)
	if d.SuperType != nil {
		decl.SuperType = metamodel.NewTypeIdentifier(d.SuperType.Namespace, d.SuperType.Name)
	}

	for _, p := range d.Body {
		f, err := convertProperty(ns, d.ID.Name, &p)
		if err != nil {
			return nil, err
		}
		decl.Fields = append(decl.Fields, f)
	}
	return decl, nil
}

func convertEnum(ns string, d *ast.Declaration) (metamodel.Declaration, error) {
	if d.SuperType != nil {
		return nil, malformed(ns, fmt.Sprintf("enum %q", d.ID.Name), d.Location,
			"enumerations cannot declare a super type")
	}

	decl := metamodel.NewEnumDeclaration(d.ID.Name)
	decl.Location = location(d.Location)
	for _, p := range d.Body {
		if p.Kind != ast.KindEnumPropertyDeclaration {
			return nil, malformed(ns, fmt.Sprintf("enum %q", d.ID.Name), p.Location,
				"unexpected property kind %q in enumeration", p.Kind)
		}
		if err := checkName(ns, d.ID.Name, &p); err != nil {
			return nil, err
		}
		v := metamodel.NewEnumValueField(p.ID.Name)
		v.Location = location(p.Location)
		decl.Fields = append(decl.Fields, v)
	}
	return decl, nil
}

func convertProperty(ns, decl string, p *ast.Property) (metamodel.Field, error) {
	if err := checkName(ns, decl, p); err != nil {
		return nil, err
	}

	var f metamodel.Field
	switch p.Kind {
	case ast.KindFieldDeclaration:
		if p.PropertyType == nil {
			return nil, malformed(ns, construct(decl, p), p.Location, "field without type")
		}
		if k, ok := metamodel.PrimitiveKindFor(p.PropertyType.Name); ok && p.PropertyType.Namespace == "" {
			pf := metamodel.NewPrimitiveField(k, p.ID.Name)
			pf.Default = p.Default
			f = pf
		} else {
			of := metamodel.NewObjectField(p.ID.Name,
				metamodel.NewTypeIdentifier(p.PropertyType.Namespace, p.PropertyType.Name))
			of.Default = p.Default
			f = of
		}
	case ast.KindRelationshipDeclaration:
		if p.PropertyType == nil {
			return nil, malformed(ns, construct(decl, p), p.Location, "relationship without type")
		}
		f = metamodel.NewRelationshipField(p.ID.Name,
			metamodel.NewTypeIdentifier(p.PropertyType.Namespace, p.PropertyType.Name))
	case ast.KindEnumPropertyDeclaration:
		return nil, malformed(ns, construct(decl, p), p.Location,
			"enum property outside of an enumeration")
	default:
		return nil, malformed(ns, construct(decl, p), p.Location,
			"unrecognized property kind %q", p.Kind)
	}

	setFlags(f, p)
	return f, nil
}

func checkName(ns, decl string, p *ast.Property) error {
	if strings.HasPrefix(p.ID.Name, ReservedSigil) {
		return malformed(ns, construct(decl, p), p.Location,
			"property name %q uses the reserved prefix %q", p.ID.Name, ReservedSigil)
	}
	return nil
}

func construct(decl string, p *ast.Property) string {
	return fmt.Sprintf("property %q of %q", p.ID.Name, decl)
}

func setFlags(f metamodel.Field, p *ast.Property) {
	switch t := f.(type) {
	case *metamodel.PrimitiveField:
		t.Array = p.Array
		t.Optional = p.Optional
		t.Location = location(p.Location)
	case *metamodel.ObjectField:
		t.Array = p.Array
		t.Optional = p.Optional
		t.Location = location(p.Location)
	case *metamodel.RelationshipField:
		t.Array = p.Array
		t.Optional = p.Optional
		t.Location = location(p.Location)
	}
}

func location(l *ast.Location) *metamodel.Location {
	if l == nil {
		return nil
	}
	return &metamodel.Location{Line: l.Line, Column: l.Column}
}
