package model

import (
	"errors"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/utils"
)

// Validate checks the closed model set as a whole: imports must be
// backed by registered files, super types must resolve to
// compatible declarations without cycles, property type references
// must resolve, and identifying fields must name usable properties.
//
// Structural faults (unresolved import, unresolved or incompatible
// super type, inheritance cycle) abort validation immediately;
// property-level faults are collected per model set and reported
// together. After a successful run the manager is frozen.
func (m *ModelManager) Validate() error {
	for _, ns := range m.Namespaces() {
		f := m.ModelFile(ns)
		for _, i := range f.Imports() {
			if m.ModelFile(i.Namespace) == nil {
				return illegal(ns, "", "", nil,
					"imported namespace %q is not loaded", i.Namespace)
			}
		}
	}

	var errs []error
	for _, ns := range m.Namespaces() {
		f := m.ModelFile(ns)
		for _, n := range f.DeclarationNames() {
			c, _ := m.ResolveType(ns, n)
			if err := m.validateInheritance(c); err != nil {
				return err
			}
			errs = append(errs, m.validateProperties(c)...)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	m.lock.Lock()
	m.validated = true
	m.lock.Unlock()
	log.Info("validated model set with {{namespaces}} namespaces", "namespaces", len(m.Namespaces()))
	return nil
}

// validateInheritance checks the complete super type chain of a
// declaration: every link must resolve to a declaration of the same
// kind, must not close a cycle and enumerations cannot inherit.
func (m *ModelManager) validateInheritance(c *ClassDeclaration) error {
	var stack []string

	for d := c; ; {
		ref := d.decl.GetSuperType()
		if ref == nil {
			return nil
		}
		if d.IsEnum() {
			return illegal(d.Namespace(), d.Name(), "", d.decl.GetLocation(),
				"enumerations cannot declare a super type")
		}
		super, err := m.resolveRef(d.file, ref)
		if err != nil {
			return illegal(d.Namespace(), d.Name(), "", d.decl.GetLocation(),
				"super type %q cannot be resolved: %s", ref, err)
		}
		if super == d {
			return illegal(d.Namespace(), d.Name(), "", d.decl.GetLocation(),
				"declaration inherits from itself")
		}
		if super.Kind() != d.Kind() {
			return illegal(d.Namespace(), d.Name(), "", d.decl.GetLocation(),
				"super type %q is a %s, not a %s", ref, super.Kind(), d.Kind())
		}
		if cycle := utils.Cycle(super.FullyQualifiedName(), stack...); cycle != nil {
			return illegal(c.Namespace(), c.Name(), "", c.decl.GetLocation(),
				"inheritance cycle %s", utils.JoinFunc(cycle, " -> ", func(s string) string { return s }))
		}
		stack = append(stack, d.FullyQualifiedName())
		d = super
	}
}

// validateProperties collects the property-level faults of one
// declaration.
func (m *ModelManager) validateProperties(c *ClassDeclaration) []error {
	var errs []error

	ns := c.Namespace()
	own := map[string]bool{}
	for _, p := range c.OwnProperties() {
		f := p.Field()
		if own[p.Name()] {
			errs = append(errs, illegal(ns, c.Name(), p.Name(), f.GetLocation(),
				"duplicate property"))
			continue
		}
		own[p.Name()] = true

		if ref := f.TypeRef(); ref != nil {
			if _, err := m.resolveRef(c.file, ref); err != nil {
				errs = append(errs, illegal(ns, c.Name(), p.Name(), f.GetLocation(),
					"property type %q cannot be resolved: %s", ref, err))
			}
		}
	}

	// collisions with inherited properties
	if super := c.ResolvedSuper(); super != nil {
		for _, p := range super.AllProperties() {
			if own[p.Name()] {
				errs = append(errs, illegal(ns, c.Name(), p.Name(), nil,
					"property already declared by %q", p.Owner().FullyQualifiedName()))
			}
		}
	}

	if n := c.decl.GetIdentifiedBy(); n != "" {
		errs = append(errs, m.validateIdentifier(c, n)...)
	}
	return errs
}

func (m *ModelManager) validateIdentifier(c *ClassDeclaration, name string) []error {
	p := c.Property(name)
	if p == nil {
		return []error{illegal(c.Namespace(), c.Name(), name, c.decl.GetLocation(),
			"identifying field is not a property of the declaration")}
	}

	var errs []error
	if p.Kind() != metamodel.FieldKindPrimitive {
		errs = append(errs, illegal(c.Namespace(), c.Name(), name, p.Field().GetLocation(),
			"identifying field must be of a primitive type"))
	}
	if p.IsArray() {
		errs = append(errs, illegal(c.Namespace(), c.Name(), name, p.Field().GetLocation(),
			"identifying field cannot be an array"))
	}
	if p.IsOptional() {
		errs = append(errs, illegal(c.Namespace(), c.Name(), name, p.Field().GetLocation(),
			"identifying field cannot be optional"))
	}
	return errs
}
