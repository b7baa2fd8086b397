package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/goombaio/namegenerator"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/model"
	"github.com/mandelsoft/concepts/pkg/runtime"
	"github.com/mandelsoft/concepts/pkg/utils"
)

var generator = namegenerator.NewNameGenerator(time.Now().UnixNano())

type Sample struct {
	cmd *cobra.Command

	mainopts *Options
	typ      string
}

// NewSample creates sample data instances for a declared type,
// filling required properties with generated values.
func NewSample(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample -t <type> <model file> ...",
		Short: "generate a sample instance for a declared type",
	}

	c := &Sample{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.StringVarP(&c.typ, "type", "t", "", "fully qualified type name")
	return cmd
}

func (c *Sample) Run(args []string) error {
	if c.typ == "" {
		return fmt.Errorf("type name required")
	}
	files, err := modelFileArgs(args)
	if err != nil {
		return err
	}
	mgr, err := c.mainopts.LoadModelSet(c.cmd.Context(), files)
	if err != nil {
		return err
	}

	factory := runtime.NewFactory(mgr)
	inst, err := c.populate(factory, c.typ)
	if err != nil {
		return err
	}

	ser := runtime.NewSerializer(mgr)
	data, err := ser.ToSerialized(inst, runtime.Options{EmitDefaults: true})
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "%s", string(out))
	return nil
}

// populate creates an instance with all required properties set to
// generated values.
func (c *Sample) populate(factory *runtime.Factory, fqn string) (*runtime.Instance, error) {
	inst, err := factory.NewInstance(fqn, runtime.WithGeneratedIdentifier())
	if err != nil {
		if inst, err = factory.NewInstance(fqn); err != nil {
			return nil, err
		}
	}

	for _, p := range inst.ClassDeclaration().AllProperties() {
		if _, ok := inst.GetProperty(p.Name()); ok {
			continue
		}
		if p.IsOptional() {
			continue
		}
		v, err := c.sampleValue(factory, p)
		if err != nil {
			return nil, err
		}
		if p.IsArray() {
			err = inst.AppendProperty(p.Name(), v)
		} else {
			err = inst.SetProperty(p.Name(), v)
		}
		if err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func (c *Sample) sampleValue(factory *runtime.Factory, p *model.Property) (interface{}, error) {
	switch p.Kind() {
	case metamodel.FieldKindPrimitive:
		switch p.Primitive() {
		case metamodel.PrimitiveString:
			return generator.Generate(), nil
		case metamodel.PrimitiveInteger, metamodel.PrimitiveLong:
			return int64(rand.Intn(100)), nil
		case metamodel.PrimitiveDouble:
			return rand.Float64() * 100, nil
		case metamodel.PrimitiveBoolean:
			return rand.Intn(2) == 1, nil
		case metamodel.PrimitiveDateTime:
			return utils.NewTimestamp(), nil
		}
	case metamodel.FieldKindObject:
		target := p.ResolvedType()
		if target.IsEnum() {
			values := target.EnumValues()
			if len(values) == 0 {
				return nil, fmt.Errorf("enum %s has no values", target.FullyQualifiedName())
			}
			return values[rand.Intn(len(values))], nil
		}
		return c.populate(factory, target.FullyQualifiedName())
	case metamodel.FieldKindRelationship:
		target := p.ResolvedType()
		return runtime.NewRelationship(target.Namespace(), target.Name(), generator.Generate()), nil
	}
	return nil, fmt.Errorf("no sample value for property %q", p.Name())
}
