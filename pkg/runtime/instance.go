package runtime

import (
	"fmt"
	"slices"
	"time"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/model"
	"github.com/mandelsoft/concepts/pkg/utils"
)

// ErrDirectSerialization guards typed instances against generic
// serialization. Instances must go through a Serializer, which
// validates against the model and handles relationships; a generic
// marshal would silently lose both.
var ErrDirectSerialization = fmt.Errorf("typed instances cannot be marshalled directly, use a serializer")

// Instance is a runtime value bound to a class declaration of a
// validated model set. Properties are kept in an ordered mapping
// restricted to the declared property set; runtime metadata (the
// bound declaration) lives outside of it. Instances are not
// thread-safe for concurrent mutation.
type Instance struct {
	decl  *model.ClassDeclaration
	props map[string]Value
	order []string
}

// NewInstance creates an unpopulated instance bound to the given
// declaration. Most callers should use a Factory instead, which
// applies model-declared defaults.
func NewInstance(decl *model.ClassDeclaration) *Instance {
	return &Instance{
		decl:  decl,
		props: map[string]Value{},
	}
}

// ClassDeclaration is the bound declaration.
func (i *Instance) ClassDeclaration() *model.ClassDeclaration {
	return i.decl
}

func (i *Instance) Namespace() string {
	return i.decl.Namespace()
}

func (i *Instance) TypeName() string {
	return i.decl.Name()
}

// FullyQualifiedType is the discriminator of the instance.
func (i *Instance) FullyQualifiedType() string {
	return i.decl.FullyQualifiedName()
}

// InstanceOf reports type membership across the inheritance chain.
func (i *Instance) InstanceOf(fqn string) bool {
	return i.decl.InstanceOf(fqn)
}

// PropertyNames lists the names of the set properties in set
// order.
func (i *Instance) PropertyNames() []string {
	return slices.Clone(i.order)
}

// GetProperty returns the value of a set property. Unset
// properties are reported as absent; absence is distinguishable
// from any set value.
func (i *Instance) GetProperty(name string) (Value, bool) {
	v, ok := i.props[name]
	return v, ok
}

// SetProperty sets a declared property after checking the value
// against the declared shape and type.
func (i *Instance) SetProperty(name string, value interface{}) error {
	p := i.decl.Property(name)
	if p == nil {
		return fmt.Errorf("no property %q declared for %s", name, i.FullyQualifiedType())
	}
	v, err := i.checkValue(p, value)
	if err != nil {
		return fmt.Errorf("property %q of %s: %w", name, i.FullyQualifiedType(), err)
	}
	i.set(name, v)
	return nil
}

// AppendProperty appends a value to an array property, creating a
// single-element sequence if the property is still unset.
func (i *Instance) AppendProperty(name string, value interface{}) error {
	p := i.decl.Property(name)
	if p == nil {
		return fmt.Errorf("no property %q declared for %s", name, i.FullyQualifiedType())
	}
	if !p.IsArray() {
		return fmt.Errorf("property %q of %s is no array", name, i.FullyQualifiedType())
	}
	v, err := i.checkElement(p, value)
	if err != nil {
		return fmt.Errorf("property %q of %s: %w", name, i.FullyQualifiedType(), err)
	}
	cur, ok := i.props[name]
	if !ok {
		i.set(name, []Value{v})
		return nil
	}
	i.props[name] = append(cur.([]Value), v)
	return nil
}

// Identifier returns the value of the identifying field, if the
// declaration is identified and the field is set.
func (i *Instance) Identifier() string {
	f := i.decl.IdentifyingField()
	if f == nil {
		return ""
	}
	if v, ok := i.props[f.Name()]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Reference creates the relationship reference form for an
// identified instance.
func (i *Instance) Reference() (*Relationship, error) {
	id := i.Identifier()
	if id == "" {
		return nil, fmt.Errorf("%s carries no identifier", i.FullyQualifiedType())
	}
	return NewRelationship(i.Namespace(), i.TypeName(), id), nil
}

// MarshalJSON intentionally fails; see ErrDirectSerialization.
func (i *Instance) MarshalJSON() ([]byte, error) {
	return nil, ErrDirectSerialization
}

func (i *Instance) set(name string, v Value) {
	if _, ok := i.props[name]; !ok {
		i.order = append(i.order, name)
	}
	i.props[name] = v
}

func (i *Instance) checkValue(p *model.Property, value interface{}) (Value, error) {
	if p.IsArray() {
		var elems []interface{}
		switch l := value.(type) {
		case []Value:
			elems = make([]interface{}, len(l))
			for idx, e := range l {
				elems[idx] = e
			}
		case []interface{}:
			elems = l
		default:
			return nil, fmt.Errorf("array value expected")
		}
		r := make([]Value, 0, len(elems))
		for idx, e := range elems {
			v, err := i.checkElement(p, e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", idx, err)
			}
			r = append(r, v)
		}
		return r, nil
	}
	return i.checkElement(p, value)
}

func (i *Instance) checkElement(p *model.Property, value interface{}) (Value, error) {
	switch p.Kind() {
	case metamodel.FieldKindPrimitive:
		return checkPrimitive(p.Primitive(), value)
	case metamodel.FieldKindObject:
		target := p.ResolvedType()
		if target.IsEnum() {
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("enum value expected")
			}
			if !slices.Contains(target.EnumValues(), s) {
				return nil, fmt.Errorf("%q is no value of enum %s", s, target.FullyQualifiedName())
			}
			return s, nil
		}
		sub, ok := value.(*Instance)
		if !ok {
			return nil, fmt.Errorf("typed instance expected")
		}
		if !sub.InstanceOf(target.FullyQualifiedName()) {
			return nil, fmt.Errorf("%s is no instance of %s",
				sub.FullyQualifiedType(), target.FullyQualifiedName())
		}
		return sub, nil
	case metamodel.FieldKindRelationship:
		switch r := value.(type) {
		case *Relationship:
			return r, nil
		case string:
			return ParseRelationship(r)
		}
		return nil, fmt.Errorf("relationship reference expected")
	}
	return nil, fmt.Errorf("property kind %s cannot be set", p.Kind())
}

func checkPrimitive(kind metamodel.PrimitiveKind, value interface{}) (Value, error) {
	switch kind {
	case metamodel.PrimitiveString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case metamodel.PrimitiveInteger, metamodel.PrimitiveLong:
		switch n := value.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case metamodel.PrimitiveDouble:
		switch n := value.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		}
	case metamodel.PrimitiveBoolean:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case metamodel.PrimitiveDateTime:
		switch t := value.(type) {
		case utils.Timestamp:
			return t, nil
		case time.Time:
			return utils.NewTimestampFor(t), nil
		}
	}
	return nil, fmt.Errorf("no valid %s value (%T)", kind, value)
}
