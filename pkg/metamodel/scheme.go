package metamodel

import (
	"fmt"
	"reflect"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/concepts/pkg/utils"
)

// Encoding provides node decoding for registered node classes.
type Encoding[T Node] interface {
	KnownClasses() []string
	HasClass(c string) bool
	NewNode(c string) (T, error)
	Decode(data []byte) (T, error)
}

// Scheme is an encoding with registration.
type Scheme[T Node] interface {
	Encoding[T]

	Register(c string, proto T) error
}

type scheme[T Node] struct {
	lock  sync.Mutex
	types map[string]reflect.Type
}

var _ Scheme[Node] = (*scheme[Node])(nil)

func NewScheme[T Node]() Scheme[T] {
	return &scheme[T]{types: map[string]reflect.Type{}}
}

func (s *scheme[T]) Register(c string, proto T) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	t := reflect.TypeOf(proto)
	if t.Kind() != reflect.Pointer {
		return fmt.Errorf("proto type for %s must be pointer", c)
	}
	t = t.Elem()
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("proto type for %s must be pointer to struct", c)
	}

	s.types[c] = t
	return nil
}

func (s *scheme[T]) HasClass(c string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.types[c] != nil
}

func (s *scheme[T]) KnownClasses() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return utils.OrderedMapKeys(s.types)
}

func (s *scheme[T]) NewNode(c string) (T, error) {
	var _nil T

	s.lock.Lock()
	defer s.lock.Unlock()

	t := s.types[c]
	if t == nil {
		return _nil, fmt.Errorf("unknown node class %q", c)
	}

	n := reflect.New(t).Interface().(T)
	n.SetClass(c)
	return n, nil
}

func (s *scheme[T]) Decode(data []byte) (T, error) {
	var _nil T

	var meta NodeMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return _nil, err
	}

	n, err := s.NewNode(meta.Class)
	if err != nil {
		return _nil, err
	}

	if err := yaml.Unmarshal(data, n); err != nil {
		return _nil, err
	}
	return n, nil
}

func MustRegister[T Node](s Scheme[T], c string, proto T) {
	if err := s.Register(c, proto); err != nil {
		panic(err)
	}
}

// DefaultDeclarationScheme decodes the declaration nodes of the
// canonical metamodel form.
var DefaultDeclarationScheme = NewScheme[Declaration]()

// DefaultFieldScheme decodes the property nodes of the canonical
// metamodel form.
var DefaultFieldScheme = NewScheme[Field]()

func init() {
	for _, k := range []DeclarationKind{KindConcept, KindAsset, KindTransaction, KindParticipant, KindEvent} {
		MustRegister[Declaration](DefaultDeclarationScheme, string(k), &ObjectDeclaration{})
	}
	MustRegister[Declaration](DefaultDeclarationScheme, ClassEnumDeclaration, &EnumDeclaration{})

	for _, c := range primitiveClasses {
		MustRegister[Field](DefaultFieldScheme, c, &PrimitiveField{})
	}
	MustRegister[Field](DefaultFieldScheme, ClassObjectField, &ObjectField{})
	MustRegister[Field](DefaultFieldScheme, ClassRelationshipField, &RelationshipField{})
	MustRegister[Field](DefaultFieldScheme, ClassEnumValueField, &EnumValueField{})
}

// Decode reads a canonical metamodel document (YAML or JSON) into
// its model file representation.
func Decode(data []byte) (*ModelFile, error) {
	var m ModelFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Namespace == "" {
		return nil, fmt.Errorf("model file without namespace")
	}
	m.Class = ClassModelFile
	return &m, nil
}

// Encode renders the canonical metamodel document for a model file.
func Encode(m *ModelFile) ([]byte, error) {
	return yaml.Marshal(m)
}
