package runtime_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/concepts/pkg/metamodel/ast"
	"github.com/mandelsoft/concepts/pkg/metamodel/convert"
	"github.com/mandelsoft/concepts/pkg/model"
	"github.com/mandelsoft/concepts/pkg/runtime"
	"github.com/mandelsoft/concepts/pkg/utils"
)

const (
	NS_BASE     = "org.example.base"
	NS_VEHICLES = "org.example.vehicles"
)

func testManager() *model.ModelManager {
	base := ast.NewModel(NS_BASE).Add(
		ast.Decl(ast.KindAssetDeclaration, "Resource",
			ast.Field("String", "id"),
		).AsAbstract().WithIdentifier("id"),
		ast.Decl(ast.KindConceptDeclaration, "Address",
			ast.Field("String", "street"),
			ast.Field("String", "city"),
			ast.Field("Integer", "zip").AsOptional(),
		),
		ast.Decl(ast.KindEnumDeclaration, "Color",
			ast.EnumValue("RED"),
			ast.EnumValue("GREEN"),
			ast.EnumValue("BLUE"),
		),
	)
	vehicles := ast.NewModel(NS_VEHICLES, ast.Imp(NS_BASE)).Add(
		ast.Decl(ast.KindParticipantDeclaration, "Person",
			ast.Field("String", "email"),
			ast.Field("String", "name").AsOptional(),
		).WithIdentifier("email"),
		ast.Decl(ast.KindAssetDeclaration, "Vehicle",
			ast.Field("String", "make").WithDefault("Unknown"),
			ast.Field("Integer", "wheels").WithDefault("4"),
			ast.Field("Boolean", "insured").WithDefault("true"),
			ast.Field("Double", "mileage").AsOptional(),
			ast.Field("Color", "color").WithDefault("GREEN"),
			ast.Field("Address", "garage").AsOptional(),
			ast.Field("DateTime", "registered").AsOptional(),
			ast.Field("String", "tags").AsArray().AsOptional(),
			ast.Relationship("Person", "owner").AsOptional(),
		).WithSuper("Resource", NS_BASE),
	)

	mgr := model.NewModelManager()
	for _, m := range []*ast.Model{base, vehicles} {
		mm, err := convert.Convert(m)
		ExpectWithOffset(1, err).To(Succeed())
		ExpectWithOffset(1, mgr.AddMetaModel(mm)).To(Succeed())
	}
	ExpectWithOffset(1, mgr.Validate()).To(Succeed())
	return mgr
}

var _ = Describe("Runtime Instance Test Environment", func() {
	var mgr *model.ModelManager
	var factory *runtime.Factory
	var ser *runtime.Serializer

	BeforeEach(func() {
		mgr = testManager()
		factory = runtime.NewFactory(mgr)
		ser = runtime.NewSerializer(mgr)
	})

	Context("factory", func() {
		It("populates coerced defaults", func() {
			inst, err := factory.NewInstance(NS_VEHICLES + ".Vehicle")
			Expect(err).To(Succeed())

			v, ok := inst.GetProperty("make")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal("Unknown"))

			v, ok = inst.GetProperty("wheels")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(int64(4)))

			v, ok = inst.GetProperty("insured")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(true))

			v, ok = inst.GetProperty("color")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal("GREEN"))

			_, ok = inst.GetProperty("mileage")
			Expect(ok).To(BeFalse())
		})

		It("rejects abstract types", func() {
			_, err := factory.NewInstance(NS_BASE + ".Resource")
			Expect(err).To(MatchError(ContainSubstring("abstract type")))
		})

		It("rejects enumerations", func() {
			_, err := factory.NewInstance(NS_BASE + ".Color")
			Expect(err).To(MatchError(ContainSubstring("enumeration")))
		})

		It("rejects unknown types", func() {
			_, err := factory.NewInstance(NS_BASE + ".Spaceship")
			Expect(err).To(MatchError(model.ErrTypeNotFound))
		})

		It("presets the identifying field", func() {
			inst, err := factory.NewInstance(NS_VEHICLES+".Person",
				runtime.WithIdentifier("alice@example.org"))
			Expect(err).To(Succeed())
			Expect(inst.Identifier()).To(Equal("alice@example.org"))

			ref, err := inst.Reference()
			Expect(err).To(Succeed())
			Expect(ref.String()).To(Equal("resource:" + NS_VEHICLES + ".Person#alice@example.org"))
		})

		It("generates identifiers on request", func() {
			a, err := factory.NewInstance(NS_VEHICLES+".Vehicle", runtime.WithGeneratedIdentifier())
			Expect(err).To(Succeed())
			b, err := factory.NewInstance(NS_VEHICLES+".Vehicle", runtime.WithGeneratedIdentifier())
			Expect(err).To(Succeed())

			Expect(a.Identifier()).NotTo(BeEmpty())
			Expect(a.Identifier()).NotTo(Equal(b.Identifier()))
		})

		It("rejects identifier options for non-identified types", func() {
			_, err := factory.NewInstance(NS_BASE+".Address",
				runtime.WithIdentifier("somewhere"))
			Expect(err).To(MatchError(ContainSubstring("not identified")))
		})
	})

	Context("instances", func() {
		var vehicle *runtime.Instance

		BeforeEach(func() {
			var err error
			vehicle, err = factory.NewInstance(NS_VEHICLES + ".Vehicle")
			Expect(err).To(Succeed())
		})

		It("accepts declared values", func() {
			Expect(vehicle.SetProperty("make", "Beetle")).To(Succeed())
			Expect(vehicle.SetProperty("wheels", 4)).To(Succeed())
			Expect(vehicle.SetProperty("mileage", 12345.6)).To(Succeed())
			Expect(vehicle.SetProperty("color", "RED")).To(Succeed())
			Expect(vehicle.SetProperty("owner", "resource:"+NS_VEHICLES+".Person#alice")).To(Succeed())

			v, _ := vehicle.GetProperty("wheels")
			Expect(v).To(Equal(int64(4)))
			v, _ = vehicle.GetProperty("owner")
			Expect(v).To(Equal(runtime.NewRelationship(NS_VEHICLES, "Person", "alice")))
		})

		It("rejects undeclared properties", func() {
			Expect(vehicle.SetProperty("horsepower", 90)).To(
				MatchError(ContainSubstring(`no property "horsepower" declared`)))
		})

		It("rejects values of the wrong primitive type", func() {
			Expect(vehicle.SetProperty("wheels", "four")).To(
				MatchError(ContainSubstring("no valid Integer value")))
			Expect(vehicle.SetProperty("make", 42)).To(
				MatchError(ContainSubstring("no valid String value")))
		})

		It("rejects unknown enum values", func() {
			Expect(vehicle.SetProperty("color", "PINK")).To(
				MatchError(ContainSubstring(`"PINK" is no value of enum ` + NS_BASE + ".Color")))
		})

		It("checks nested instances against the declared type", func() {
			addr, err := factory.NewInstance(NS_BASE + ".Address")
			Expect(err).To(Succeed())
			Expect(vehicle.SetProperty("garage", addr)).To(Succeed())

			person, err := factory.NewInstance(NS_VEHICLES + ".Person")
			Expect(err).To(Succeed())
			Expect(vehicle.SetProperty("garage", person)).To(
				MatchError(ContainSubstring("is no instance of " + NS_BASE + ".Address")))
		})

		It("appends to array properties", func() {
			Expect(vehicle.AppendProperty("tags", "vintage")).To(Succeed())
			Expect(vehicle.AppendProperty("tags", "red")).To(Succeed())

			v, ok := vehicle.GetProperty("tags")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal([]runtime.Value{"vintage", "red"}))

			Expect(vehicle.AppendProperty("make", "x")).To(
				MatchError(ContainSubstring("is no array")))
		})

		It("distinguishes scalars and arrays", func() {
			Expect(vehicle.SetProperty("tags", "vintage")).To(
				MatchError(ContainSubstring("array value expected")))
			Expect(vehicle.SetProperty("tags", []interface{}{"vintage"})).To(Succeed())
		})

		It("refuses direct marshalling", func() {
			_, err := json.Marshal(vehicle)
			Expect(err).To(MatchError(ContainSubstring(runtime.ErrDirectSerialization.Error())))
		})
	})

	Context("deserialization", func() {
		serialized := func() map[string]interface{} {
			return map[string]interface{}{
				"$class":     NS_VEHICLES + ".Vehicle",
				"id":         "v-1",
				"make":       "Beetle",
				"wheels":     float64(4),
				"insured":    true,
				"color":      "BLUE",
				"registered": "2024-05-01T10:00:00+02:00",
				"tags":       []interface{}{"vintage", "restored"},
				"garage": map[string]interface{}{
					"$class": NS_BASE + ".Address",
					"street": "Main St. 1",
					"city":   "Springfield",
				},
				"owner": "resource:" + NS_VEHICLES + ".Person#alice@example.org",
			}
		}

		It("builds a typed instance from the tagged form", func() {
			inst, err := ser.FromSerialized(serialized())
			Expect(err).To(Succeed())

			Expect(inst.FullyQualifiedType()).To(Equal(NS_VEHICLES + ".Vehicle"))
			Expect(inst.Identifier()).To(Equal("v-1"))

			v, _ := inst.GetProperty("wheels")
			Expect(v).To(Equal(int64(4)))

			v, _ = inst.GetProperty("garage")
			garage := v.(*runtime.Instance)
			Expect(garage.FullyQualifiedType()).To(Equal(NS_BASE + ".Address"))
			v, _ = garage.GetProperty("city")
			Expect(v).To(Equal("Springfield"))

			v, _ = inst.GetProperty("owner")
			Expect(v).To(Equal(runtime.NewRelationship(NS_VEHICLES, "Person", "alice@example.org")))

			v, _ = inst.GetProperty("registered")
			ts := v.(utils.Timestamp)
			Expect(ts.String()).To(Equal("2024-05-01T10:00:00+02:00"))
		})

		It("fills declared defaults for absent properties", func() {
			data := serialized()
			delete(data, "make")
			delete(data, "wheels")

			inst, err := ser.FromSerialized(data)
			Expect(err).To(Succeed())

			v, ok := inst.GetProperty("make")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal("Unknown"))
			v, ok = inst.GetProperty("wheels")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(int64(4)))
		})

		It("requires the discriminator", func() {
			data := serialized()
			delete(data, "$class")
			_, err := ser.FromSerialized(data)
			Expect(err).To(MatchError(ContainSubstring("missing $class discriminator")))
		})

		It("rejects unknown types", func() {
			data := serialized()
			data["$class"] = NS_VEHICLES + ".Spaceship"
			_, err := ser.FromSerialized(data)
			Expect(err).To(MatchError(ContainSubstring("unknown type")))
		})

		It("rejects abstract types", func() {
			_, err := ser.FromSerialized(map[string]interface{}{
				"$class": NS_BASE + ".Resource",
				"id":     "r-1",
			})
			Expect(err).To(MatchError(ContainSubstring("abstract types cannot be instantiated")))
		})

		It("rejects undeclared properties", func() {
			data := serialized()
			data["horsepower"] = 90
			_, err := ser.FromSerialized(data)
			Expect(err).To(MatchError(ContainSubstring("property not declared")))
		})

		It("reports missing required properties", func() {
			data := serialized()
			delete(data, "id")
			_, err := ser.FromSerialized(data)
			Expect(err).To(MatchError(ContainSubstring(`missing required property "id"`)))
		})

		It("checks the value shape", func() {
			data := serialized()
			data["tags"] = "vintage"
			_, err := ser.FromSerialized(data)
			Expect(err).To(MatchError(ContainSubstring("array expected")))

			data = serialized()
			data["make"] = []interface{}{"Beetle"}
			_, err = ser.FromSerialized(data)
			Expect(err).To(MatchError(ContainSubstring("scalar expected, not an array")))
		})

		It("rejects fractional values for integer properties", func() {
			data := serialized()
			data["wheels"] = 4.5
			_, err := ser.FromSerialized(data)
			Expect(err).To(MatchError(ContainSubstring("integer value expected")))
		})

		It("reports the path to the offending value", func() {
			data := serialized()
			data["garage"].(map[string]interface{})["city"] = 17
			_, err := ser.FromSerialized(data)

			var verr *runtime.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Path).To(Equal("garage.city"))
		})

		It("checks nested objects against the declared type", func() {
			data := serialized()
			data["garage"] = map[string]interface{}{
				"$class": NS_VEHICLES + ".Person",
				"email":  "alice@example.org",
			}
			_, err := ser.FromSerialized(data)
			Expect(err).To(MatchError(ContainSubstring("no instance of expected type " + NS_BASE + ".Address")))
		})

		It("checks relationship targets against the declared type", func() {
			data := serialized()
			data["owner"] = "resource:" + NS_BASE + ".Address#nowhere"
			_, err := ser.FromSerialized(data)
			Expect(err).To(MatchError(ContainSubstring("is no instance of " + NS_VEHICLES + ".Person")))
		})
	})

	Context("serialization", func() {
		It("round-trips an instance through the tagged form", func() {
			inst, err := factory.NewInstance(NS_VEHICLES+".Vehicle", runtime.WithIdentifier("v-1"))
			Expect(err).To(Succeed())
			Expect(inst.SetProperty("make", "Beetle")).To(Succeed())
			Expect(inst.SetProperty("registered", utils.MustParseTimestamp("2024-05-01T10:00:00+02:00"))).To(Succeed())
			Expect(inst.AppendProperty("tags", "vintage")).To(Succeed())
			Expect(inst.SetProperty("owner", "resource:"+NS_VEHICLES+".Person#alice@example.org")).To(Succeed())

			addr, err := factory.NewInstance(NS_BASE + ".Address")
			Expect(err).To(Succeed())
			Expect(addr.SetProperty("street", "Main St. 1")).To(Succeed())
			Expect(addr.SetProperty("city", "Springfield")).To(Succeed())
			Expect(inst.SetProperty("garage", addr)).To(Succeed())

			data, err := ser.ToSerialized(inst)
			Expect(err).To(Succeed())
			Expect(data["$class"]).To(Equal(NS_VEHICLES + ".Vehicle"))
			Expect(data["owner"]).To(Equal("resource:" + NS_VEHICLES + ".Person#alice@example.org"))
			Expect(data["registered"]).To(Equal("2024-05-01T10:00:00+02:00"))

			back, err := ser.FromSerialized(data)
			Expect(err).To(Succeed())

			again, err := ser.ToSerialized(back)
			Expect(err).To(Succeed())
			Expect(again).To(Equal(data))
		})

		It("renders only set properties by default", func() {
			decl, err := mgr.LookupType(NS_VEHICLES + ".Vehicle")
			Expect(err).To(Succeed())
			inst := runtime.NewInstance(decl)
			Expect(inst.SetProperty("id", "v-2")).To(Succeed())

			data, err := ser.ToSerialized(inst)
			Expect(err).To(Succeed())
			Expect(data).To(Equal(map[string]interface{}{
				"$class": NS_VEHICLES + ".Vehicle",
				"id":     "v-2",
			}))
		})

		It("emits defaults on request", func() {
			decl, err := mgr.LookupType(NS_VEHICLES + ".Vehicle")
			Expect(err).To(Succeed())
			inst := runtime.NewInstance(decl)
			Expect(inst.SetProperty("id", "v-3")).To(Succeed())

			data, err := ser.ToSerialized(inst, runtime.Options{EmitDefaults: true})
			Expect(err).To(Succeed())
			Expect(data["make"]).To(Equal("Unknown"))
			Expect(data["wheels"]).To(Equal(int64(4)))
			Expect(data["color"]).To(Equal("GREEN"))
		})

		It("validates required properties on request", func() {
			inst, err := factory.NewInstance(NS_VEHICLES + ".Vehicle")
			Expect(err).To(Succeed())

			_, err = ser.ToSerialized(inst, runtime.Options{ValidateOnSerialize: true})
			Expect(err).To(MatchError(ContainSubstring(`missing required property "id"`)))

			Expect(inst.SetProperty("id", "v-4")).To(Succeed())
			_, err = ser.ToSerialized(inst, runtime.Options{ValidateOnSerialize: true})
			Expect(err).To(Succeed())
		})
	})

	Context("relationship references", func() {
		It("parses the reference form", func() {
			r, err := runtime.ParseRelationship("resource:org.example.vehicles.Person#alice")
			Expect(err).To(Succeed())
			Expect(r.Namespace).To(Equal("org.example.vehicles"))
			Expect(r.Type).To(Equal("Person"))
			Expect(r.ID).To(Equal("alice"))
			Expect(r.String()).To(Equal("resource:org.example.vehicles.Person#alice"))
		})

		It("rejects malformed references", func() {
			for _, s := range []string{
				"org.example.vehicles.Person#alice",
				"resource:org.example.vehicles.Person",
				"resource:Person#alice",
				"resource:org.example.vehicles.Person#",
			} {
				_, err := runtime.ParseRelationship(s)
				Expect(err).To(HaveOccurred(), s)
			}
		})
	})
})
