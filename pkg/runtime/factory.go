package runtime

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/model"
)

// Factory creates typed instances for declared types of a
// validated model set, populating model-declared defaults.
type Factory struct {
	manager *model.ModelManager
}

func NewFactory(m *model.ModelManager) *Factory {
	return &Factory{manager: m}
}

type factoryOptions struct {
	identifier string
	generate   bool
}

type Option func(*factoryOptions)

// WithIdentifier presets the identifying field of an identified
// declaration.
func WithIdentifier(id string) Option {
	return func(o *factoryOptions) {
		o.identifier = id
	}
}

// WithGeneratedIdentifier fills the identifying field with a fresh
// uuid.
func WithGeneratedIdentifier() Option {
	return func(o *factoryOptions) {
		o.generate = true
	}
}

// NewInstance creates an instance of the named concrete type. The
// textual form of declared field defaults is coerced according to
// the declared primitive kind; fields without a declared default
// stay unset.
func (f *Factory) NewInstance(fqn string, opts ...Option) (*Instance, error) {
	var o factoryOptions
	for _, opt := range opts {
		opt(&o)
	}

	decl, err := f.manager.LookupType(fqn)
	if err != nil {
		return nil, err
	}
	if decl.IsAbstract() {
		return nil, fmt.Errorf("cannot instantiate abstract type %s", fqn)
	}
	if decl.IsEnum() {
		return nil, fmt.Errorf("cannot instantiate enumeration %s", fqn)
	}

	inst := NewInstance(decl)
	for _, p := range decl.AllProperties() {
		d := p.Default()
		if d == nil {
			continue
		}
		v, err := defaultValue(p, *d)
		if err != nil {
			return nil, fmt.Errorf("default for property %q of %s: %w", p.Name(), fqn, err)
		}
		if p.IsArray() {
			inst.set(p.Name(), []Value{v})
		} else {
			inst.set(p.Name(), v)
		}
	}

	if id := decl.IdentifyingField(); id != nil {
		switch {
		case o.identifier != "":
			if err := inst.SetProperty(id.Name(), o.identifier); err != nil {
				return nil, err
			}
		case o.generate:
			if err := inst.SetProperty(id.Name(), uuid.NewString()); err != nil {
				return nil, err
			}
		}
	} else if o.identifier != "" || o.generate {
		return nil, fmt.Errorf("type %s is not identified", fqn)
	}
	return inst, nil
}

// defaultValue coerces the textual default of a field. Defaults of
// enum-typed object fields are copied verbatim after a membership
// check.
func defaultValue(p *model.Property, text string) (Value, error) {
	if p.Kind() == metamodel.FieldKindObject {
		t := p.ResolvedType()
		if t != nil && t.IsEnum() {
			for _, v := range t.EnumValues() {
				if v == text {
					return text, nil
				}
			}
			return nil, fmt.Errorf("%q is no value of enum %s", text, t.FullyQualifiedName())
		}
		return nil, fmt.Errorf("object fields cannot declare defaults")
	}
	return coercePrimitive(p.Primitive(), text)
}
