package model

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mandelsoft/concepts/pkg/metamodel"
)

// ExternalLoader resolves the URI of an import to the canonical
// metamodel document of the imported namespace. Fetching is the
// only suspending operation of the model layer; implementations
// must honor the given context.
type ExternalLoader interface {
	Load(ctx context.Context, imp metamodel.Import) ([]byte, error)
}

// ModelManager aggregates the model files of a closed model set,
// resolves cross-namespace references and validates the whole
// graph. Assembly is a synchronous build phase; after a successful
// Validate the manager is frozen and safe for concurrent readers.
type ModelManager struct {
	lock      sync.Mutex
	files     map[string]*ModelFile
	order     []string
	classes   map[string]*ClassDeclaration
	validated bool
}

func NewModelManager() *ModelManager {
	return &ModelManager{
		files:   map[string]*ModelFile{},
		classes: map[string]*ClassDeclaration{},
	}
}

// AddModelFile registers a model file under its namespace. A
// namespace can be registered once, only; on a duplicate the first
// registration stays effective.
func (m *ModelManager) AddModelFile(f *ModelFile) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.validated {
		return ErrFrozen
	}
	ns := f.Namespace()
	if _, ok := m.files[ns]; ok {
		return illegal(ns, "", "", nil, "namespace already registered")
	}
	m.files[ns] = f
	m.order = append(m.order, ns)
	for _, n := range f.DeclarationNames() {
		d := f.LocalDeclaration(n)
		m.classes[ns+"."+n] = newClassDeclaration(m, f, d)
	}
	log.Debug("registered model file {{namespace}} ({{declarations}} declarations)",
		"namespace", ns, "declarations", len(f.DeclarationNames()))
	return nil
}

// AddMetaModel is a convenience wrapping a canonical metamodel
// into a model file and registering it.
func (m *ModelManager) AddMetaModel(mm *metamodel.ModelFile) error {
	f, err := NewModelFile(mm)
	if err != nil {
		return err
	}
	return m.AddModelFile(f)
}

// Namespaces lists the registered namespaces in registration
// order.
func (m *ModelManager) Namespaces() []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return slices.Clone(m.order)
}

// ModelFile returns the model file registered for a namespace, or
// nil.
func (m *ModelManager) ModelFile(ns string) *ModelFile {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.files[ns]
}

// Validated reports whether the manager passed whole-graph
// validation and is frozen.
func (m *ModelManager) Validated() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.validated
}

// ResolveType resolves a declared type by namespace and local
// name.
func (m *ModelManager) ResolveType(ns, name string) (*ClassDeclaration, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	c := m.classes[ns+"."+name]
	if c == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrTypeNotFound, ns, name)
	}
	return c, nil
}

// LookupType resolves a fully-qualified type name of the form
// <namespace>.<name>.
func (m *ModelManager) LookupType(fqn string) (*ClassDeclaration, error) {
	i := strings.LastIndex(fqn, ".")
	if i <= 0 || i == len(fqn)-1 {
		return nil, fmt.Errorf("%w: %q is not a fully qualified name", ErrTypeNotFound, fqn)
	}
	return m.ResolveType(fqn[:i], fqn[i+1:])
}

// resolveRef resolves a type identifier relative to its declaring
// model file: an unqualified name is searched in the file's own
// namespace and then in its imports; a qualified name must refer to
// the own or an imported namespace.
func (m *ModelManager) resolveRef(f *ModelFile, ref *metamodel.TypeIdentifier) (*ClassDeclaration, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if ref.Namespace != "" {
		if !f.importsNamespace(ref.Namespace) {
			return nil, fmt.Errorf("%w: namespace %q not imported by %q",
				ErrTypeNotFound, ref.Namespace, f.Namespace())
		}
		if c := m.classes[ref.String()]; c != nil {
			return c, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, ref)
	}

	if c := m.classes[f.Namespace()+"."+ref.Name]; c != nil {
		return c, nil
	}
	for _, i := range f.Imports() {
		if c := m.classes[i.Namespace+"."+ref.Name]; c != nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (referenced from %q)", ErrTypeNotFound, ref.Name, f.Namespace())
}

// unresolvedImports lists imports whose namespace is not backed by
// a registered model file, yet.
func (m *ModelManager) unresolvedImports() []metamodel.Import {
	m.lock.Lock()
	defer m.lock.Unlock()

	var r []metamodel.Import
	seen := map[string]bool{}
	for _, ns := range m.order {
		for _, i := range m.files[ns].Imports() {
			if m.files[i.Namespace] == nil && !seen[i.Namespace] {
				seen[i.Namespace] = true
				r = append(r, i)
			}
		}
	}
	return r
}

// FetchExternal resolves all unresolved imports of the model set
// through the given loader, transitively. Fetches are independent:
// a failed import is reported but does not affect other imports or
// already registered model files. Validation requires all imports
// to be resolved, so a non-nil result means Validate will fail.
func (m *ModelManager) FetchExternal(ctx context.Context, loader ExternalLoader) error {
	var errs []error

	for {
		pending := m.unresolvedImports()
		if len(pending) == 0 {
			break
		}
		progress := false
		for _, imp := range pending {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := m.fetchImport(ctx, loader, imp); err != nil {
				errs = append(errs, err)
				continue
			}
			progress = true
		}
		if !progress {
			break
		}
		// fetched files may import further namespaces
	}
	return errors.Join(errs...)
}

func (m *ModelManager) fetchImport(ctx context.Context, loader ExternalLoader, imp metamodel.Import) error {
	log.Debug("fetching external model for {{namespace}} from {{uri}}",
		"namespace", imp.Namespace, "uri", imp.URI)

	data, err := loader.Load(ctx, imp)
	if err != nil {
		return &ImportResolutionError{Namespace: imp.Namespace, URI: imp.URI, Err: err}
	}
	mm, err := metamodel.Decode(data)
	if err != nil {
		return &ImportResolutionError{Namespace: imp.Namespace, URI: imp.URI, Err: err}
	}
	if mm.Namespace != imp.Namespace {
		return &ImportResolutionError{Namespace: imp.Namespace, URI: imp.URI,
			Err: fmt.Errorf("document declares namespace %q", mm.Namespace)}
	}
	return m.AddMetaModel(mm)
}
