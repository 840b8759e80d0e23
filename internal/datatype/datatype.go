// Package datatype holds the QTI value model: cardinalities, base types,
// scalar values and the containers built from them.
//
// A nil Value is NULL. Multiple and Ordered values are Containers of one
// base type, Record values are ordered lists of independently typed fields.
package datatype

import (
	"bytes"
	"fmt"
	"reflect"
)

// Cardinality values are wire constants.
type Cardinality uint8

const (
	Single Cardinality = iota
	Multiple
	Ordered
	Record
)

func (c Cardinality) String() string {
	switch c {
	case Single:
		return "single"
	case Multiple:
		return "multiple"
	case Ordered:
		return "ordered"
	case Record:
		return "record"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// IsContainer reports whether values of this cardinality use the container form.
func (c Cardinality) IsContainer() bool {
	return c != Single
}

// BaseType values are wire constants: they are the type tags of record fields.
type BaseType uint8

const (
	TypeIdentifier BaseType = iota
	TypeBoolean
	TypeInteger
	TypeFloat
	TypeString
	TypePoint
	TypePair
	TypeDirectedPair
	TypeDuration
	TypeFile
	TypeURI
	TypeIntOrIdentifier
)

var baseTypeNames = map[BaseType]string{
	TypeIdentifier:      "identifier",
	TypeBoolean:         "boolean",
	TypeInteger:         "integer",
	TypeFloat:           "float",
	TypeString:          "string",
	TypePoint:           "point",
	TypePair:            "pair",
	TypeDirectedPair:    "directedPair",
	TypeDuration:        "duration",
	TypeFile:            "file",
	TypeURI:             "uri",
	TypeIntOrIdentifier: "intOrIdentifier",
}

func (b BaseType) String() string {
	if name, ok := baseTypeNames[b]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", b)
}

// Valid reports whether b is a known base type.
func (b BaseType) Valid() bool {
	_, ok := baseTypeNames[b]
	return ok
}

// ParseBaseType parses the QTI name of a base type.
func ParseBaseType(name string) (BaseType, error) {
	for b, n := range baseTypeNames {
		if n == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown base type: %q", name)
}

// Value is any QTI value: a Scalar, a Container or a RecordValue.
type Value interface {
	Cardinality() Cardinality
}

// Scalar is a single value of a base type.
type Scalar interface {
	Value
	BaseType() BaseType
}

// Equal reports whether a and b hold the same value. Two nil values are
// equal, and a nil element or field list equals an empty one.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Container:
		y, ok := b.(Container)
		if !ok || x.Card != y.Card || x.Base != y.Base || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !equalScalar(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case RecordValue:
		y, ok := b.(RecordValue)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Key != y.Fields[i].Key || !equalScalar(x.Fields[i].Value, y.Fields[i].Value) {
				return false
			}
		}
		return true
	case Scalar:
		y, ok := b.(Scalar)
		return ok && equalScalar(x, y)
	}
	return reflect.DeepEqual(a, b)
}

func equalScalar(a, b Scalar) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := a.(File); ok {
		y, ok := b.(File)
		return ok && x.ID == y.ID && x.Filename == y.Filename && x.MimeType == y.MimeType &&
			bytes.Equal(x.Data, y.Data)
	}
	if !reflect.TypeOf(a).Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}
