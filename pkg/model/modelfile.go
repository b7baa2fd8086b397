package model

import (
	"slices"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/utils"
)

// ModelFile wraps the canonical metamodel of one namespace and
// provides declaration lookup within it. It is owned by a model
// manager once added and immutable from then on.
type ModelFile struct {
	meta  *metamodel.ModelFile
	decls map[string]metamodel.Declaration
	order []string
	hash  string
}

// NewModelFile wraps a canonical metamodel. It fails for duplicate
// declaration names within the namespace.
func NewModelFile(m *metamodel.ModelFile) (*ModelFile, error) {
	f := &ModelFile{
		meta:  m,
		decls: map[string]metamodel.Declaration{},
	}
	for _, d := range m.Declarations {
		if _, ok := f.decls[d.GetName()]; ok {
			return nil, illegal(m.Namespace, d.GetName(), "", d.GetLocation(),
				"duplicate declaration")
		}
		f.decls[d.GetName()] = d
		f.order = append(f.order, d.GetName())
	}
	return f, nil
}

func (f *ModelFile) Namespace() string {
	return f.meta.Namespace
}

func (f *ModelFile) MetaModel() *metamodel.ModelFile {
	return f.meta
}

func (f *ModelFile) Imports() []metamodel.Import {
	return slices.Clone(f.meta.Imports)
}

// DeclarationNames lists the declared type names in source order.
func (f *ModelFile) DeclarationNames() []string {
	return slices.Clone(f.order)
}

// LocalDeclaration looks up a declaration within this namespace,
// only. It does not follow imports.
func (f *ModelFile) LocalDeclaration(name string) metamodel.Declaration {
	return f.decls[name]
}

// Fingerprint is a stable content hash over the canonical metamodel
// form of this file.
func (f *ModelFile) Fingerprint() string {
	if f.hash == "" {
		f.hash = utils.HashData(f.meta)
	}
	return f.hash
}

// importsNamespace reports whether the file refers to the given
// namespace, either as its own or through an import.
func (f *ModelFile) importsNamespace(ns string) bool {
	if ns == f.meta.Namespace {
		return true
	}
	for _, i := range f.meta.Imports {
		if i.Namespace == ns {
			return true
		}
	}
	return false
}
