package runtime

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/model"
	"github.com/mandelsoft/concepts/pkg/utils"
)

// ClassKey is the discriminator key of the generic serialized
// instance form.
const ClassKey = "$class"

// ValidationError reports a mismatch between a serialized instance
// and the model. Path names the property chain leading to the
// offending value.
type ValidationError struct {
	Type    string
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	msg := "serialized instance"
	if e.Type != "" {
		msg += fmt.Sprintf(" of type %s", e.Type)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(": %s", e.Path)
	}
	return msg + ": " + e.Message
}

func ve(typ, path, msg string, args ...interface{}) error {
	return &ValidationError{Type: typ, Path: path, Message: fmt.Sprintf(msg, args...)}
}

func childPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// Options control the serialized rendering of an instance.
type Options struct {
	// EmitDefaults additionally renders declared defaults for unset
	// fields.
	EmitDefaults bool
	// ValidateOnSerialize checks required properties before
	// rendering.
	ValidateOnSerialize bool
}

// Serializer converts between typed instances and the generic
// tagged serialized form. It is stateless and safe for concurrent
// use on a validated model set.
type Serializer struct {
	manager *model.ModelManager
}

func NewSerializer(m *model.ModelManager) *Serializer {
	return &Serializer{manager: m}
}

// FromSerialized converts a tagged generic object into a typed
// instance, validating structure and value types against the
// model. Nested objects recurse; relationships are captured as
// references and never resolved.
func (s *Serializer) FromSerialized(data map[string]interface{}) (*Instance, error) {
	return s.fromObject("", data, nil)
}

func (s *Serializer) fromObject(path string, data map[string]interface{}, expect *model.ClassDeclaration) (*Instance, error) {
	raw, ok := data[ClassKey]
	if !ok {
		return nil, ve("", path, "missing %s discriminator", ClassKey)
	}
	fqn, ok := raw.(string)
	if !ok {
		return nil, ve("", path, "%s discriminator must be a string", ClassKey)
	}
	decl, err := s.manager.LookupType(fqn)
	if err != nil {
		return nil, ve(fqn, path, "unknown type")
	}
	if decl.IsAbstract() {
		return nil, ve(fqn, path, "abstract types cannot be instantiated")
	}
	if decl.IsEnum() {
		return nil, ve(fqn, path, "enumerations cannot be instantiated")
	}
	if expect != nil && !decl.InstanceOf(expect.FullyQualifiedName()) {
		return nil, ve(fqn, path, "no instance of expected type %s", expect.FullyQualifiedName())
	}

	inst := NewInstance(decl)
	declared := map[string]*model.Property{}
	for _, p := range decl.AllProperties() {
		declared[p.Name()] = p
	}
	for key := range data {
		if key == ClassKey {
			continue
		}
		if declared[key] == nil {
			return nil, ve(fqn, childPath(path, key), "property not declared by %s", fqn)
		}
	}

	for _, p := range decl.AllProperties() {
		raw, present := data[p.Name()]
		prop := childPath(path, p.Name())
		if !present {
			if d := p.Default(); d != nil {
				v, err := defaultValue(p, *d)
				if err != nil {
					return nil, ve(fqn, prop, "%s", err)
				}
				if p.IsArray() {
					inst.set(p.Name(), []Value{v})
				} else {
					inst.set(p.Name(), v)
				}
			} else if !p.IsOptional() {
				return nil, ve(fqn, prop, "missing required property %q", p.Name())
			}
			continue
		}
		v, err := s.fromValue(fqn, prop, p, raw)
		if err != nil {
			return nil, err
		}
		inst.set(p.Name(), v)
	}
	return inst, nil
}

func (s *Serializer) fromValue(typ, path string, p *model.Property, raw interface{}) (Value, error) {
	list, isList := raw.([]interface{})
	if p.IsArray() {
		if !isList {
			return nil, ve(typ, path, "array expected")
		}
		r := make([]Value, 0, len(list))
		for idx, e := range list {
			v, err := s.fromElement(typ, fmt.Sprintf("%s[%d]", path, idx), p, e)
			if err != nil {
				return nil, err
			}
			r = append(r, v)
		}
		return r, nil
	}
	if isList {
		return nil, ve(typ, path, "scalar expected, not an array")
	}
	return s.fromElement(typ, path, p, raw)
}

func (s *Serializer) fromElement(typ, path string, p *model.Property, raw interface{}) (Value, error) {
	switch p.Kind() {
	case metamodel.FieldKindPrimitive:
		return fromPrimitive(typ, path, p.Primitive(), raw)
	case metamodel.FieldKindObject:
		target := p.ResolvedType()
		if target.IsEnum() {
			name, ok := raw.(string)
			if !ok {
				return nil, ve(typ, path, "enum value expected")
			}
			for _, v := range target.EnumValues() {
				if v == name {
					return name, nil
				}
			}
			return nil, ve(typ, path, "%q is no value of enum %s", name, target.FullyQualifiedName())
		}
		sub, ok := raw.(map[string]interface{})
		if !ok {
			return nil, ve(typ, path, "nested object expected")
		}
		return s.fromObject(path, sub, target)
	case metamodel.FieldKindRelationship:
		ref, ok := raw.(string)
		if !ok {
			return nil, ve(typ, path, "relationship reference expected")
		}
		r, err := ParseRelationship(ref)
		if err != nil {
			return nil, ve(typ, path, "%s", err)
		}
		target := p.ResolvedType()
		if !s.isInstanceOf(r.FullyQualifiedType(), target) {
			return nil, ve(typ, path, "%s is no instance of %s",
				r.FullyQualifiedType(), target.FullyQualifiedName())
		}
		return r, nil
	}
	return nil, ve(typ, path, "property kind %s cannot carry a value", p.Kind())
}

func (s *Serializer) isInstanceOf(fqn string, target *model.ClassDeclaration) bool {
	decl, err := s.manager.LookupType(fqn)
	if err != nil {
		return false
	}
	return decl.InstanceOf(target.FullyQualifiedName())
}

func fromPrimitive(typ, path string, kind metamodel.PrimitiveKind, raw interface{}) (Value, error) {
	switch kind {
	case metamodel.PrimitiveString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case metamodel.PrimitiveInteger, metamodel.PrimitiveLong:
		switch n := raw.(type) {
		case float64:
			if math.Trunc(n) != n {
				return nil, ve(typ, path, "integer value expected")
			}
			return int64(n), nil
		case json.Number:
			v, err := n.Int64()
			if err != nil {
				return nil, ve(typ, path, "integer value expected")
			}
			return v, nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case metamodel.PrimitiveDouble:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case json.Number:
			v, err := n.Float64()
			if err != nil {
				return nil, ve(typ, path, "numeric value expected")
			}
			return v, nil
		case int:
			return float64(n), nil
		}
	case metamodel.PrimitiveBoolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case metamodel.PrimitiveDateTime:
		if s, ok := raw.(string); ok {
			v, err := coercePrimitive(metamodel.PrimitiveDateTime, s)
			if err != nil {
				return nil, ve(typ, path, "%s", err)
			}
			return v, nil
		}
	}
	return nil, ve(typ, path, "no valid %s value (%T)", kind, raw)
}

// ToSerialized converts a typed instance into the generic tagged
// serialized form, always emitting the discriminator. Only set
// properties are rendered unless Options.EmitDefaults is given;
// relationships render in their reference form. The property order
// follows the declared property order and is deterministic.
func (s *Serializer) ToSerialized(inst *Instance, opts ...Options) (map[string]interface{}, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	return s.toObject("", inst, o)
}

func (s *Serializer) toObject(path string, inst *Instance, o Options) (map[string]interface{}, error) {
	fqn := inst.FullyQualifiedType()
	r := map[string]interface{}{
		ClassKey: fqn,
	}
	for _, p := range inst.ClassDeclaration().AllProperties() {
		prop := childPath(path, p.Name())
		v, ok := inst.GetProperty(p.Name())
		if !ok {
			if o.EmitDefaults {
				if d := p.Default(); d != nil {
					dv, err := defaultValue(p, *d)
					if err != nil {
						return nil, ve(fqn, prop, "%s", err)
					}
					if p.IsArray() {
						dv = []Value{dv}
					}
					raw, err := s.toRaw(prop, dv, o)
					if err != nil {
						return nil, err
					}
					r[p.Name()] = raw
					continue
				}
			}
			if o.ValidateOnSerialize && !p.IsOptional() && p.Default() == nil {
				return nil, ve(fqn, prop, "missing required property %q", p.Name())
			}
			continue
		}
		raw, err := s.toRaw(prop, v, o)
		if err != nil {
			return nil, err
		}
		r[p.Name()] = raw
	}
	return r, nil
}

func (s *Serializer) toRaw(path string, v Value, o Options) (interface{}, error) {
	switch e := v.(type) {
	case int64, float64, bool, string:
		return e, nil
	case utils.Timestamp:
		return e.String(), nil
	case *Relationship:
		return e.String(), nil
	case *Instance:
		return s.toObject(path, e, o)
	case []Value:
		r := make([]interface{}, 0, len(e))
		for idx, elem := range e {
			raw, err := s.toRaw(fmt.Sprintf("%s[%d]", path, idx), elem, o)
			if err != nil {
				return nil, err
			}
			r = append(r, raw)
		}
		return r, nil
	}
	return nil, ve("", path, "unsupported value type %T", v)
}
