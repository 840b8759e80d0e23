// Package runtime holds the observable state of a running assessment test
// session: variables, the route, item sessions, pending responses and
// shuffling states. Scoring and response processing belong to the runtime
// engine; this package only carries what the engine leaves behind.
package runtime

import (
	"fmt"

	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/definition"
)

// VariableKind values are wire constants.
type VariableKind uint8

const (
	ResponseVariable VariableKind = iota
	OutcomeVariable
	TemplateVariable
)

func (k VariableKind) String() string {
	switch k {
	case ResponseVariable:
		return "response"
	case OutcomeVariable:
		return "outcome"
	case TemplateVariable:
		return "template"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// DeclarationClass returns the definition class declaring variables of kind k.
func (k VariableKind) DeclarationClass() string {
	switch k {
	case ResponseVariable:
		return definition.ClassResponseDeclaration
	case OutcomeVariable:
		return definition.ClassOutcomeDeclaration
	default:
		return definition.ClassTemplateDeclaration
	}
}

// Slot selects one of the three values of a Variable.
type Slot uint8

const (
	SlotValue Slot = iota
	SlotDefaultValue
	SlotCorrectResponse
)

func (s Slot) String() string {
	switch s {
	case SlotValue:
		return "value"
	case SlotDefaultValue:
		return "defaultValue"
	case SlotCorrectResponse:
		return "correctResponse"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Variable is a runtime value slot. BaseType is meaningless for Record
// variables: their fields carry their own types.
type Variable struct {
	Identifier      string
	Kind            VariableKind
	Cardinality     datatype.Cardinality
	BaseType        datatype.BaseType
	Value           datatype.Value
	DefaultValue    datatype.Value
	CorrectResponse datatype.Value
}

func NewVariable(identifier string, kind VariableKind, cardinality datatype.Cardinality, baseType datatype.BaseType) *Variable {
	return &Variable{
		Identifier:  identifier,
		Kind:        kind,
		Cardinality: cardinality,
		BaseType:    baseType,
	}
}

func newVariableFromDeclaration(d definition.VariableDeclaration, kind VariableKind) *Variable {
	v := NewVariable(d.ID, kind, d.Cardinality, d.BaseType)
	v.DefaultValue = d.DefaultValue
	v.Value = d.DefaultValue
	return v
}

// NewResponseVariable builds a variable holding the declared default and
// correct response.
func NewResponseVariable(d *definition.ResponseDeclaration) *Variable {
	v := newVariableFromDeclaration(d.VariableDeclaration, ResponseVariable)
	v.CorrectResponse = d.CorrectResponse
	return v
}

func NewOutcomeVariable(d *definition.OutcomeDeclaration) *Variable {
	return newVariableFromDeclaration(d.VariableDeclaration, OutcomeVariable)
}

func NewTemplateVariable(d *definition.TemplateDeclaration) *Variable {
	return newVariableFromDeclaration(d.VariableDeclaration, TemplateVariable)
}

// Get returns the value held in slot.
func (v *Variable) Get(slot Slot) datatype.Value {
	switch slot {
	case SlotDefaultValue:
		return v.DefaultValue
	case SlotCorrectResponse:
		return v.CorrectResponse
	default:
		return v.Value
	}
}

// Set stores value in slot.
func (v *Variable) Set(slot Slot, value datatype.Value) {
	switch slot {
	case SlotDefaultValue:
		v.DefaultValue = value
	case SlotCorrectResponse:
		v.CorrectResponse = value
	default:
		v.Value = value
	}
}

// IsNull reports whether the value slot is NULL.
func (v *Variable) IsNull() bool {
	return v.Value == nil
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s %s (%s %s) = %v", v.Kind, v.Identifier, v.Cardinality, v.BaseType, v.Value)
}
