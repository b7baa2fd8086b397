package ast

// Convenience constructors for assembling syntax trees in code,
// used by tests and by embedders driving the converter directly.

func NewModel(ns string, imports ...Import) *Model {
	return &Model{Namespace: ns, Imports: imports}
}

func (m *Model) Add(decls ...Declaration) *Model {
	m.Body = append(m.Body, decls...)
	return m
}

func Imp(ns string, uris ...string) Import {
	uri := ""
	if len(uris) > 0 {
		uri = uris[0]
	}
	return Import{Namespace: ns, URI: uri}
}

func Decl(kind, name string, props ...Property) Declaration {
	return Declaration{
		Kind: kind,
		ID:   Identifier{Name: name},
		Body: props,
	}
}

func (d Declaration) WithSuper(name string, ns ...string) Declaration {
	s := Identifier{Name: name}
	if len(ns) > 0 {
		s.Namespace = ns[0]
	}
	d.SuperType = &s
	return d
}

func (d Declaration) WithIdentifier(field string) Declaration {
	d.IdentifiedBy = field
	return d
}

func (d Declaration) AsAbstract() Declaration {
	d.Abstract = true
	return d
}

func Field(typ, name string) Property {
	return Property{
		Kind:         KindFieldDeclaration,
		ID:           Identifier{Name: name},
		PropertyType: &Identifier{Name: typ},
	}
}

func Relationship(typ, name string) Property {
	return Property{
		Kind:         KindRelationshipDeclaration,
		ID:           Identifier{Name: name},
		PropertyType: &Identifier{Name: typ},
	}
}

func EnumValue(name string) Property {
	return Property{
		Kind: KindEnumPropertyDeclaration,
		ID:   Identifier{Name: name},
	}
}

func (p Property) AsArray() Property {
	p.Array = true
	return p
}

func (p Property) AsOptional() Property {
	p.Optional = true
	return p
}

func (p Property) WithDefault(v string) Property {
	p.Default = &v
	return p
}
