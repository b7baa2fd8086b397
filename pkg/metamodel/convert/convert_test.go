package convert_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	me "github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/metamodel/ast"
	"github.com/mandelsoft/concepts/pkg/metamodel/convert"
)

var _ = Describe("converter", func() {
	It("converts a complete model", func() {
		m := ast.NewModel("org.example.vehicles", ast.Imp("org.example.base", "models/base.yaml")).
			Add(
				ast.Decl(ast.KindAssetDeclaration, "Vehicle",
					ast.Field("String", "make").WithDefault("Unknown"),
					ast.Field("Integer", "wheels").WithDefault("4"),
					ast.Field("Color", "color"),
					ast.Field("String", "tags").AsArray().AsOptional(),
					ast.Relationship("Person", "owner").AsOptional(),
				).WithSuper("Resource", "org.example.base"),
				ast.Decl(ast.KindEnumDeclaration, "Color",
					ast.EnumValue("RED"),
					ast.EnumValue("GREEN"),
				),
				ast.Decl(ast.KindParticipantDeclaration, "Person",
					ast.Field("String", "email"),
				).WithIdentifier("email"),
			)

		f, err := convert.Convert(m)
		Expect(err).To(Succeed())

		Expect(f.Namespace).To(Equal("org.example.vehicles"))
		Expect(f.Imports).To(HaveLen(1))
		Expect(f.Imports[0].URI).To(Equal("models/base.yaml"))
		Expect(f.Declarations).To(HaveLen(3))

		v := f.Declarations[0]
		Expect(v.Kind()).To(Equal(me.KindAsset))
		Expect(v.GetSuperType().String()).To(Equal("org.example.base.Resource"))
		fields := v.GetFields()
		Expect(fields).To(HaveLen(5))
		Expect(fields[0].Primitive()).To(Equal(me.PrimitiveString))
		Expect(*fields[0].GetDefault()).To(Equal("Unknown"))
		Expect(fields[1].Primitive()).To(Equal(me.PrimitiveInteger))
		Expect(fields[2].Kind()).To(Equal(me.FieldKindObject))
		Expect(fields[2].TypeRef().Name).To(Equal("Color"))
		Expect(fields[3].IsArray()).To(BeTrue())
		Expect(fields[3].IsOptional()).To(BeTrue())
		Expect(fields[4].Kind()).To(Equal(me.FieldKindRelationship))

		e := f.Declarations[1]
		Expect(e.Kind()).To(Equal(me.KindEnum))
		Expect(e.GetFields()[1].GetName()).To(Equal("GREEN"))

		p := f.Declarations[2]
		Expect(p.Kind()).To(Equal(me.KindParticipant))
		Expect(p.GetIdentifiedBy()).To(Equal("email"))
	})

	It("keeps qualified primitive type names as object references", func() {
		m := ast.NewModel("org.example").Add(
			ast.Decl(ast.KindConceptDeclaration, "X",
				ast.Property{
					Kind:         ast.KindFieldDeclaration,
					ID:           ast.Identifier{Name: "s"},
					PropertyType: &ast.Identifier{Name: "String", Namespace: "org.other"},
				},
			),
		)
		f, err := convert.Convert(m)
		Expect(err).To(Succeed())
		Expect(f.Declarations[0].GetFields()[0].Kind()).To(Equal(me.FieldKindObject))
	})

	It("rejects unrecognized declaration kinds", func() {
		m := ast.NewModel("org.example").Add(ast.Decl("TableDeclaration", "X"))

		_, err := convert.Convert(m)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unrecognized declaration kind \"TableDeclaration\""))

		var merr *convert.MalformedSourceError
		Expect(err).To(BeAssignableToTypeOf(merr))
	})

	It("rejects unrecognized property kinds", func() {
		m := ast.NewModel("org.example").Add(
			ast.Decl(ast.KindConceptDeclaration, "X",
				ast.Property{Kind: "MapDeclaration", ID: ast.Identifier{Name: "m"}},
			),
		)
		_, err := convert.Convert(m)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unrecognized property kind"))
	})

	It("rejects reserved property names", func() {
		m := ast.NewModel("org.example").Add(
			ast.Decl(ast.KindConceptDeclaration, "X",
				ast.Field("String", "$class"),
			),
		)
		_, err := convert.Convert(m)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("reserved prefix"))
	})

	It("rejects reserved enum member names", func() {
		m := ast.NewModel("org.example").Add(
			ast.Decl(ast.KindEnumDeclaration, "E", ast.EnumValue("$hidden")),
		)
		_, err := convert.Convert(m)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("reserved prefix"))
	})

	It("rejects enum members outside enumerations", func() {
		m := ast.NewModel("org.example").Add(
			ast.Decl(ast.KindConceptDeclaration, "X", ast.EnumValue("RED")),
		)
		_, err := convert.Convert(m)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("enum property outside"))
	})

	It("rejects non-member properties inside enumerations", func() {
		m := ast.NewModel("org.example").Add(
			ast.Decl(ast.KindEnumDeclaration, "E", ast.Field("String", "s")),
		)
		_, err := convert.Convert(m)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unexpected property kind"))
	})

	It("rejects enumerations with a super type", func() {
		m := ast.NewModel("org.example").Add(
			ast.Decl(ast.KindEnumDeclaration, "E").WithSuper("F"),
		)
		_, err := convert.Convert(m)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("cannot declare a super type"))
	})

	It("reports the source location of the offending construct", func() {
		m := ast.NewModel("org.example")
		d := ast.Decl("TableDeclaration", "X")
		d.Location = &ast.Location{Line: 12, Column: 3}
		m.Add(d)

		_, err := convert.Convert(m)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("12:3"))
	})
})
