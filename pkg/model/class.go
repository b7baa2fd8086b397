package model

import (
	"slices"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/concepts/pkg/metamodel"
)

// ClassDeclaration is the resolved semantic view of a declaration
// linked into a model manager. It can answer inheritance and
// property questions across namespaces. The back references to the
// manager and the declaring file are lookup relations, not
// ownership.
type ClassDeclaration struct {
	manager *ModelManager
	file    *ModelFile
	decl    metamodel.Declaration

	lock sync.Mutex
	all  []*Property
}

func newClassDeclaration(m *ModelManager, f *ModelFile, d metamodel.Declaration) *ClassDeclaration {
	return &ClassDeclaration{manager: m, file: f, decl: d}
}

func (c *ClassDeclaration) Name() string {
	return c.decl.GetName()
}

func (c *ClassDeclaration) Namespace() string {
	return c.file.Namespace()
}

func (c *ClassDeclaration) FullyQualifiedName() string {
	return c.file.Namespace() + "." + c.decl.GetName()
}

func (c *ClassDeclaration) Kind() metamodel.DeclarationKind {
	return c.decl.Kind()
}

func (c *ClassDeclaration) IsAbstract() bool {
	return c.decl.IsAbstract()
}

func (c *ClassDeclaration) IsEnum() bool {
	return c.decl.Kind() == metamodel.KindEnum
}

// Declaration provides the underlying canonical metamodel node.
func (c *ClassDeclaration) Declaration() metamodel.Declaration {
	return c.decl
}

func (c *ClassDeclaration) ModelFile() *ModelFile {
	return c.file
}

// ResolvedSuper returns the linked super type declaration or nil.
// Resolution failures surface during Validate; afterwards a
// declared super type always resolves.
func (c *ClassDeclaration) ResolvedSuper() *ClassDeclaration {
	s := c.decl.GetSuperType()
	if s == nil {
		return nil
	}
	super, err := c.manager.resolveRef(c.file, s)
	if err != nil {
		return nil
	}
	return super
}

// OwnProperties lists the properties declared by this declaration
// itself, in declaration order.
func (c *ClassDeclaration) OwnProperties() []*Property {
	var r []*Property
	for _, f := range c.decl.GetFields() {
		r = append(r, &Property{owner: c, field: f})
	}
	return r
}

// AllProperties lists the full flattened property set: own
// properties first in declaration order, then inherited ones
// walking up the super type chain, skipping names already seen.
// The result is computed lazily and cached; declarations are
// immutable after validation, so the cache never invalidates.
func (c *ClassDeclaration) AllProperties() []*Property {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.all == nil {
		seen := sets.New[string]()
		visited := sets.New[string]()
		var all []*Property
		for d := c; d != nil && !visited.Has(d.FullyQualifiedName()); d = d.ResolvedSuper() {
			visited.Insert(d.FullyQualifiedName())
			for _, p := range d.OwnProperties() {
				if seen.Has(p.Name()) {
					continue
				}
				seen.Insert(p.Name())
				all = append(all, p)
			}
		}
		c.all = all
	}
	return slices.Clone(c.all)
}

// Property looks up a property by name through the inheritance
// chain.
func (c *ClassDeclaration) Property(name string) *Property {
	for _, p := range c.AllProperties() {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// InstanceOf reports whether the declaration is the named type or
// inherits from it. It tests chain membership, not structural
// compatibility.
func (c *ClassDeclaration) InstanceOf(fqn string) bool {
	for d := c; d != nil; d = d.ResolvedSuper() {
		if d.FullyQualifiedName() == fqn {
			return true
		}
	}
	return false
}

// IdentifyingField returns the resolved identifying property,
// searching the declaration and its super types, or nil for
// non-identified declarations.
func (c *ClassDeclaration) IdentifyingField() *Property {
	for d := c; d != nil; d = d.ResolvedSuper() {
		if n := d.decl.GetIdentifiedBy(); n != "" {
			return c.Property(n)
		}
	}
	return nil
}

// EnumValues lists the member names of an enumeration declaration.
func (c *ClassDeclaration) EnumValues() []string {
	if !c.IsEnum() {
		return nil
	}
	var r []string
	for _, f := range c.decl.GetFields() {
		r = append(r, f.GetName())
	}
	return r
}

////////////////////////////////////////////////////////////////////////////////

// Property is the resolved view of one property of a class
// declaration.
type Property struct {
	owner *ClassDeclaration
	field metamodel.Field
}

// Owner is the declaration the property is declared by, which for
// inherited properties is a super type of the queried declaration.
func (p *Property) Owner() *ClassDeclaration {
	return p.owner
}

func (p *Property) Field() metamodel.Field {
	return p.field
}

func (p *Property) Name() string {
	return p.field.GetName()
}

func (p *Property) Kind() metamodel.FieldKind {
	return p.field.Kind()
}

func (p *Property) IsArray() bool {
	return p.field.IsArray()
}

func (p *Property) IsOptional() bool {
	return p.field.IsOptional()
}

func (p *Property) Default() *string {
	return p.field.GetDefault()
}

func (p *Property) Primitive() metamodel.PrimitiveKind {
	return p.field.Primitive()
}

// ResolvedType returns the linked declaration for object and
// relationship properties and nil for primitive fields and enum
// members.
func (p *Property) ResolvedType() *ClassDeclaration {
	ref := p.field.TypeRef()
	if ref == nil {
		return nil
	}
	t, err := p.owner.manager.resolveRef(p.owner.file, ref)
	if err != nil {
		return nil
	}
	return t
}
