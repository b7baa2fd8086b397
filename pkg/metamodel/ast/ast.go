// Package ast describes the abstract syntax tree handed over by the
// concrete-syntax parser. The parser itself is not part of this
// module; this package fixes the shape of its output, only.
package ast

// Construct kind tags as emitted by the parser.
const (
	KindConceptDeclaration     = "ConceptDeclaration"
	KindAssetDeclaration       = "AssetDeclaration"
	KindTransactionDeclaration = "TransactionDeclaration"
	KindParticipantDeclaration = "ParticipantDeclaration"
	KindEventDeclaration       = "EventDeclaration"
	KindEnumDeclaration        = "EnumDeclaration"

	KindFieldDeclaration        = "FieldDeclaration"
	KindRelationshipDeclaration = "RelationshipDeclaration"
	KindEnumPropertyDeclaration = "EnumPropertyDeclaration"
)

// Location is the source position of a construct.
type Location struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// Identifier is a possibly namespace-qualified name.
type Identifier struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

// Model is the parsed representation of one model source file.
type Model struct {
	Namespace string        `json:"namespace"`
	Imports   []Import      `json:"imports,omitempty"`
	Body      []Declaration `json:"body,omitempty"`
}

// Import refers to another namespace, optionally with a URI to
// fetch its definition from.
type Import struct {
	Namespace string `json:"namespace"`
	URI       string `json:"uri,omitempty"`
}

// Declaration is one parsed type declaration.
type Declaration struct {
	Kind         string      `json:"kind"`
	ID           Identifier  `json:"id"`
	Abstract     bool        `json:"abstract,omitempty"`
	SuperType    *Identifier `json:"superType,omitempty"`
	IdentifiedBy string      `json:"identifiedBy,omitempty"`
	Body         []Property  `json:"body,omitempty"`
	Location     *Location   `json:"location,omitempty"`
}

// Property is one parsed property of a declaration. For field
// declarations PropertyType carries the type name, either a
// primitive type or the name of a declared type.
type Property struct {
	Kind         string      `json:"kind"`
	ID           Identifier  `json:"id"`
	PropertyType *Identifier `json:"propertyType,omitempty"`
	Array        bool        `json:"array,omitempty"`
	Optional     bool        `json:"optional,omitempty"`
	Default      *string     `json:"default,omitempty"`
	Location     *Location   `json:"location,omitempty"`
}
