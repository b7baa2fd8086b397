package metamodel

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Discriminator tags of the canonical metamodel form.
const (
	ClassModelFile       = "ModelFile"
	ClassNamespaceImport = "NamespaceImport"
	ClassTypeIdentifier  = "TypeIdentifier"

	ClassConceptDeclaration     = "ConceptDeclaration"
	ClassAssetDeclaration       = "AssetDeclaration"
	ClassTransactionDeclaration = "TransactionDeclaration"
	ClassParticipantDeclaration = "ParticipantDeclaration"
	ClassEventDeclaration       = "EventDeclaration"
	ClassEnumDeclaration        = "EnumDeclaration"

	ClassStringField       = "StringFieldDeclaration"
	ClassIntegerField      = "IntegerFieldDeclaration"
	ClassLongField         = "LongFieldDeclaration"
	ClassDoubleField       = "DoubleFieldDeclaration"
	ClassBooleanField      = "BooleanFieldDeclaration"
	ClassDateTimeField     = "DateTimeFieldDeclaration"
	ClassObjectField       = "ObjectFieldDeclaration"
	ClassRelationshipField = "RelationshipDeclaration"
	ClassEnumValueField    = "EnumFieldDeclaration"
)

// DeclarationKind classifies a declaration node.
type DeclarationKind string

const (
	KindConcept     = DeclarationKind(ClassConceptDeclaration)
	KindAsset       = DeclarationKind(ClassAssetDeclaration)
	KindTransaction = DeclarationKind(ClassTransactionDeclaration)
	KindParticipant = DeclarationKind(ClassParticipantDeclaration)
	KindEvent       = DeclarationKind(ClassEventDeclaration)
	KindEnum        = DeclarationKind(ClassEnumDeclaration)
)

// String provides the short human readable kind name, for example
// "asset" for an asset declaration.
func (k DeclarationKind) String() string {
	return strings.ToLower(strings.TrimSuffix(string(k), "Declaration"))
}

// FieldKind classifies a property node.
type FieldKind string

const (
	FieldKindPrimitive    FieldKind = "primitive"
	FieldKindObject       FieldKind = "object"
	FieldKindRelationship FieldKind = "relationship"
	FieldKindEnumValue    FieldKind = "enumvalue"
)

// PrimitiveKind enumerates the built-in scalar types.
type PrimitiveKind string

const (
	PrimitiveNone     PrimitiveKind = ""
	PrimitiveString   PrimitiveKind = "String"
	PrimitiveInteger  PrimitiveKind = "Integer"
	PrimitiveLong     PrimitiveKind = "Long"
	PrimitiveDouble   PrimitiveKind = "Double"
	PrimitiveBoolean  PrimitiveKind = "Boolean"
	PrimitiveDateTime PrimitiveKind = "DateTime"
)

var primitiveClasses = map[PrimitiveKind]string{
	PrimitiveString:   ClassStringField,
	PrimitiveInteger:  ClassIntegerField,
	PrimitiveLong:     ClassLongField,
	PrimitiveDouble:   ClassDoubleField,
	PrimitiveBoolean:  ClassBooleanField,
	PrimitiveDateTime: ClassDateTimeField,
}

var classPrimitives = map[string]PrimitiveKind{}

func init() {
	for k, c := range primitiveClasses {
		classPrimitives[c] = k
	}
}

// PrimitiveKindFor maps a primitive type name to its kind.
// It reports false for any non-primitive name.
func PrimitiveKindFor(name string) (PrimitiveKind, bool) {
	switch PrimitiveKind(name) {
	case PrimitiveString, PrimitiveInteger, PrimitiveLong,
		PrimitiveDouble, PrimitiveBoolean, PrimitiveDateTime:
		return PrimitiveKind(name), true
	}
	return PrimitiveNone, false
}

////////////////////////////////////////////////////////////////////////////////

// TypeIdentifier is a possibly namespace-qualified reference to a
// declared type. An empty namespace refers to the declaring model
// file's own namespace or one of its imports.
type TypeIdentifier struct {
	NodeMeta  `json:",inline"`
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

func NewTypeIdentifier(ns, name string) *TypeIdentifier {
	return &TypeIdentifier{NodeMeta{ClassTypeIdentifier}, name, ns}
}

func (t *TypeIdentifier) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Import refers to another namespace, optionally carrying a URI
// usable to fetch its model definition.
type Import struct {
	NodeMeta  `json:",inline"`
	Namespace string `json:"namespace"`
	URI       string `json:"uri,omitempty"`
}

func NewImport(ns string, uris ...string) Import {
	uri := ""
	if len(uris) > 0 {
		uri = uris[0]
	}
	return Import{NodeMeta{ClassNamespaceImport}, ns, uri}
}

////////////////////////////////////////////////////////////////////////////////

// Field is the closed interface over all property nodes of a
// declaration.
type Field interface {
	Node
	Kind() FieldKind
	GetName() string
	IsArray() bool
	IsOptional() bool
	GetDefault() *string
	// Primitive reports the scalar kind for primitive fields and
	// PrimitiveNone for all others.
	Primitive() PrimitiveKind
	// TypeRef reports the referenced named type for object fields and
	// relationships and nil for all others.
	TypeRef() *TypeIdentifier
	GetLocation() *Location
}

// FieldMeta carries the attributes common to all property nodes.
type FieldMeta struct {
	NodeMeta `json:",inline"`
	Name     string    `json:"name"`
	Array    bool      `json:"isArray,omitempty"`
	Optional bool      `json:"isOptional,omitempty"`
	Default  *string   `json:"defaultValue,omitempty"`
	Location *Location `json:"location,omitempty"`
}

func (f *FieldMeta) GetName() string {
	return f.Name
}

func (f *FieldMeta) IsArray() bool {
	return f.Array
}

func (f *FieldMeta) IsOptional() bool {
	return f.Optional
}

func (f *FieldMeta) GetDefault() *string {
	return f.Default
}

func (f *FieldMeta) GetLocation() *Location {
	return f.Location
}

// PrimitiveField is a field of one of the built-in scalar types.
// The concrete scalar kind is determined by the discriminator tag.
type PrimitiveField struct {
	FieldMeta `json:",inline"`
}

var _ Field = (*PrimitiveField)(nil)

func NewPrimitiveField(kind PrimitiveKind, name string) *PrimitiveField {
	return &PrimitiveField{FieldMeta{NodeMeta: NodeMeta{primitiveClasses[kind]}, Name: name}}
}

func (f *PrimitiveField) Kind() FieldKind {
	return FieldKindPrimitive
}

func (f *PrimitiveField) Primitive() PrimitiveKind {
	return classPrimitives[f.Class]
}

func (f *PrimitiveField) TypeRef() *TypeIdentifier {
	return nil
}

// ObjectField is a field referring to another declared type by
// value.
type ObjectField struct {
	FieldMeta `json:",inline"`
	Type      *TypeIdentifier `json:"type"`
}

var _ Field = (*ObjectField)(nil)

func NewObjectField(name string, typ *TypeIdentifier) *ObjectField {
	return &ObjectField{FieldMeta{NodeMeta: NodeMeta{ClassObjectField}, Name: name}, typ}
}

func (f *ObjectField) Kind() FieldKind {
	return FieldKindObject
}

func (f *ObjectField) Primitive() PrimitiveKind {
	return PrimitiveNone
}

func (f *ObjectField) TypeRef() *TypeIdentifier {
	return f.Type
}

// RelationshipField is a field referring to another declared type
// by reference.
type RelationshipField struct {
	FieldMeta `json:",inline"`
	Type      *TypeIdentifier `json:"type"`
}

var _ Field = (*RelationshipField)(nil)

func NewRelationshipField(name string, typ *TypeIdentifier) *RelationshipField {
	return &RelationshipField{FieldMeta{NodeMeta: NodeMeta{ClassRelationshipField}, Name: name}, typ}
}

func (f *RelationshipField) Kind() FieldKind {
	return FieldKindRelationship
}

func (f *RelationshipField) Primitive() PrimitiveKind {
	return PrimitiveNone
}

func (f *RelationshipField) TypeRef() *TypeIdentifier {
	return f.Type
}

// EnumValueField is a member of an enumeration. It carries a name,
// only.
type EnumValueField struct {
	FieldMeta `json:",inline"`
}

var _ Field = (*EnumValueField)(nil)

func NewEnumValueField(name string) *EnumValueField {
	return &EnumValueField{FieldMeta{NodeMeta: NodeMeta{ClassEnumValueField}, Name: name}}
}

func (f *EnumValueField) Kind() FieldKind {
	return FieldKindEnumValue
}

func (f *EnumValueField) Primitive() PrimitiveKind {
	return PrimitiveNone
}

func (f *EnumValueField) TypeRef() *TypeIdentifier {
	return nil
}

////////////////////////////////////////////////////////////////////////////////

// Declaration is the closed interface over all declaration nodes of
// a model file.
type Declaration interface {
	Node
	Kind() DeclarationKind
	GetName() string
	IsAbstract() bool
	GetSuperType() *TypeIdentifier
	GetIdentifiedBy() string
	GetFields() []Field
	GetLocation() *Location
}

// DeclarationMeta carries the attributes common to all declaration
// nodes.
type DeclarationMeta struct {
	NodeMeta     `json:",inline"`
	Name         string          `json:"name"`
	Abstract     bool            `json:"isAbstract,omitempty"`
	SuperType    *TypeIdentifier `json:"superType,omitempty"`
	IdentifiedBy string          `json:"identifiedByField,omitempty"`
	Location     *Location       `json:"location,omitempty"`
	Fields       []Field         `json:"fields,omitempty"`
}

func (d *DeclarationMeta) GetName() string {
	return d.Name
}

func (d *DeclarationMeta) IsAbstract() bool {
	return d.Abstract
}

func (d *DeclarationMeta) GetSuperType() *TypeIdentifier {
	return d.SuperType
}

func (d *DeclarationMeta) GetIdentifiedBy() string {
	return d.IdentifiedBy
}

func (d *DeclarationMeta) GetFields() []Field {
	return d.Fields
}

func (d *DeclarationMeta) GetLocation() *Location {
	return d.Location
}

// UnmarshalJSON decodes the tagged field list through the field
// scheme.
func (d *DeclarationMeta) UnmarshalJSON(data []byte) error {
	type raw struct {
		NodeMeta     `json:",inline"`
		Name         string            `json:"name"`
		Abstract     bool              `json:"isAbstract,omitempty"`
		SuperType    *TypeIdentifier   `json:"superType,omitempty"`
		IdentifiedBy string            `json:"identifiedByField,omitempty"`
		Location     *Location         `json:"location,omitempty"`
		Fields       []json.RawMessage `json:"fields,omitempty"`
	}
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	d.NodeMeta = r.NodeMeta
	d.Name = r.Name
	d.Abstract = r.Abstract
	d.SuperType = r.SuperType
	d.IdentifiedBy = r.IdentifiedBy
	d.Location = r.Location
	d.Fields = nil
	for i, raw := range r.Fields {
		f, err := DefaultFieldScheme.Decode(raw)
		if err != nil {
			return fmt.Errorf("declaration %q: field %d: %w", d.Name, i, err)
		}
		d.Fields = append(d.Fields, f)
	}
	return nil
}

// ObjectDeclaration is a declaration describing structured instances
// (concept, asset, transaction, participant or event). The concrete
// kind is determined by the discriminator tag.
type ObjectDeclaration struct {
	DeclarationMeta `json:",inline"`
}

var _ Declaration = (*ObjectDeclaration)(nil)

func NewObjectDeclaration(kind DeclarationKind, name string) *ObjectDeclaration {
	return &ObjectDeclaration{DeclarationMeta{NodeMeta: NodeMeta{string(kind)}, Name: name}}
}

func (d *ObjectDeclaration) Kind() DeclarationKind {
	return DeclarationKind(d.Class)
}

// EnumDeclaration is a declaration enumerating a closed set of
// named values.
type EnumDeclaration struct {
	DeclarationMeta `json:",inline"`
}

var _ Declaration = (*EnumDeclaration)(nil)

func NewEnumDeclaration(name string, values ...string) *EnumDeclaration {
	d := &EnumDeclaration{DeclarationMeta{NodeMeta: NodeMeta{ClassEnumDeclaration}, Name: name}}
	for _, v := range values {
		d.Fields = append(d.Fields, NewEnumValueField(v))
	}
	return d
}

func (d *EnumDeclaration) Kind() DeclarationKind {
	return KindEnum
}

////////////////////////////////////////////////////////////////////////////////

// ModelFile is the canonical metamodel of one model source file:
// a namespace with its imports and declarations. It is pure data
// without resolution behavior.
type ModelFile struct {
	NodeMeta     `json:",inline"`
	Namespace    string        `json:"namespace"`
	Imports      []Import      `json:"imports,omitempty"`
	Declarations []Declaration `json:"declarations,omitempty"`
}

func NewModelFile(ns string, imports ...Import) *ModelFile {
	return &ModelFile{NodeMeta: NodeMeta{ClassModelFile}, Namespace: ns, Imports: imports}
}

func (m *ModelFile) AddDeclaration(d Declaration) *ModelFile {
	m.Declarations = append(m.Declarations, d)
	return m
}

// UnmarshalJSON decodes the tagged declaration list through the
// declaration scheme.
func (m *ModelFile) UnmarshalJSON(data []byte) error {
	type raw struct {
		NodeMeta     `json:",inline"`
		Namespace    string            `json:"namespace"`
		Imports      []Import          `json:"imports,omitempty"`
		Declarations []json.RawMessage `json:"declarations,omitempty"`
	}
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Class != "" && r.Class != ClassModelFile {
		return fmt.Errorf("unexpected discriminator %q for model file", r.Class)
	}
	m.NodeMeta = r.NodeMeta
	m.Namespace = r.Namespace
	m.Imports = r.Imports
	m.Declarations = nil
	for i, raw := range r.Declarations {
		d, err := DefaultDeclarationScheme.Decode(raw)
		if err != nil {
			return fmt.Errorf("namespace %q: declaration %d: %w", m.Namespace, i, err)
		}
		m.Declarations = append(m.Declarations, d)
	}
	return nil
}
