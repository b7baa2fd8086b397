// Package runtime provides the runtime type system on top of a
// validated model set: typed instances, a factory creating them
// with model-declared defaults and a serializer converting between
// instances and the generic tagged serialized form.
package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/utils"
)

// Value is a property value of a typed instance. The possible
// dynamic types are int64, float64, bool, string, utils.Timestamp,
// *Instance, []Value and *Relationship.
type Value interface{}

// RelationshipPrefix tags the string form of a relationship
// reference.
const RelationshipPrefix = "resource:"

// Relationship is a by-reference link to an instance of a declared
// type. It is never hydrated by the serializer.
type Relationship struct {
	Namespace string
	Type      string
	ID        string
}

func NewRelationship(ns, typ, id string) *Relationship {
	return &Relationship{Namespace: ns, Type: typ, ID: id}
}

func (r *Relationship) FullyQualifiedType() string {
	return r.Namespace + "." + r.Type
}

// String renders the reference form <prefix><namespace>.<type>#<id>.
func (r *Relationship) String() string {
	return RelationshipPrefix + r.FullyQualifiedType() + "#" + r.ID
}

// ParseRelationship parses the string form of a relationship
// reference.
func ParseRelationship(s string) (*Relationship, error) {
	if !strings.HasPrefix(s, RelationshipPrefix) {
		return nil, fmt.Errorf("relationship reference %q: missing %q prefix", s, RelationshipPrefix)
	}
	rest := s[len(RelationshipPrefix):]
	sep := strings.Index(rest, "#")
	if sep < 0 {
		return nil, fmt.Errorf("relationship reference %q: missing identifier separator", s)
	}
	fqn, id := rest[:sep], rest[sep+1:]
	dot := strings.LastIndex(fqn, ".")
	if dot <= 0 || id == "" {
		return nil, fmt.Errorf("relationship reference %q: malformed", s)
	}
	return NewRelationship(fqn[:dot], fqn[dot+1:], id), nil
}

// coercePrimitive converts the textual form of a primitive value
// according to its declared kind. It is used for model-declared
// defaults.
func coercePrimitive(kind metamodel.PrimitiveKind, text string) (Value, error) {
	switch kind {
	case metamodel.PrimitiveString:
		return text, nil
	case metamodel.PrimitiveInteger, metamodel.PrimitiveLong:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is no valid %s value", text, kind)
		}
		return v, nil
	case metamodel.PrimitiveDouble:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is no valid Double value", text)
		}
		return v, nil
	case metamodel.PrimitiveBoolean:
		return text == "true", nil
	case metamodel.PrimitiveDateTime:
		t, err := utils.ParseTimestamp(text)
		if err != nil {
			return nil, fmt.Errorf("%q is no valid DateTime value: %w", text, err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("no primitive kind for default %q", text)
}
