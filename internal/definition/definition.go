// Package definition models the assessment test definition tree the session
// codec refers to. Building the tree (XML parsing) happens elsewhere: this
// package only gives the codec components it can walk and point at.
package definition

import (
	"github.com/S0me0neR0man/qtistate/internal/datatype"
)

// Class names of the components.
const (
	ClassAssessmentTest      = "assessmentTest"
	ClassTestPart            = "testPart"
	ClassAssessmentSection   = "assessmentSection"
	ClassAssessmentItemRef   = "assessmentItemRef"
	ClassOutcomeDeclaration  = "outcomeDeclaration"
	ClassResponseDeclaration = "responseDeclaration"
	ClassTemplateDeclaration = "templateDeclaration"
	ClassBranchRule          = "branchRule"
	ClassPreCondition        = "preCondition"
	ClassItemSessionControl  = "itemSessionControl"
)

// Component is a node of the definition tree.
type Component interface {
	ClassName() string
	Identifier() string
	// Components returns the direct children in document order.
	Components() []Component
}

type NavigationMode uint8

const (
	NavigationLinear NavigationMode = iota
	NavigationNonLinear
)

type SubmissionMode uint8

const (
	SubmissionIndividual SubmissionMode = iota
	SubmissionSimultaneous
)

type AssessmentTest struct {
	ID                  string
	Title               string
	OutcomeDeclarations []*OutcomeDeclaration
	TestParts           []*TestPart
}

func (t *AssessmentTest) ClassName() string  { return ClassAssessmentTest }
func (t *AssessmentTest) Identifier() string { return t.ID }

func (t *AssessmentTest) Components() []Component {
	var c []Component
	for _, o := range t.OutcomeDeclarations {
		c = append(c, o)
	}
	for _, p := range t.TestParts {
		c = append(c, p)
	}
	return c
}

type TestPart struct {
	ID                 string
	NavigationMode     NavigationMode
	SubmissionMode     SubmissionMode
	PreConditions      []*PreCondition
	BranchRules        []*BranchRule
	ItemSessionControl *ItemSessionControl
	Sections           []*AssessmentSection
}

func (p *TestPart) ClassName() string  { return ClassTestPart }
func (p *TestPart) Identifier() string { return p.ID }

func (p *TestPart) Components() []Component {
	var c []Component
	for _, pc := range p.PreConditions {
		c = append(c, pc)
	}
	for _, br := range p.BranchRules {
		c = append(c, br)
	}
	if p.ItemSessionControl != nil {
		c = append(c, p.ItemSessionControl)
	}
	for _, s := range p.Sections {
		c = append(c, s)
	}
	return c
}

// SectionPart is either an *AssessmentSection or an *AssessmentItemRef.
type SectionPart interface {
	Component
	sectionPart()
}

type AssessmentSection struct {
	ID                 string
	Title              string
	Visible            bool
	PreConditions      []*PreCondition
	BranchRules        []*BranchRule
	ItemSessionControl *ItemSessionControl
	Parts              []SectionPart
}

func (s *AssessmentSection) ClassName() string  { return ClassAssessmentSection }
func (s *AssessmentSection) Identifier() string { return s.ID }
func (s *AssessmentSection) sectionPart()       {}

func (s *AssessmentSection) Components() []Component {
	var c []Component
	for _, pc := range s.PreConditions {
		c = append(c, pc)
	}
	for _, br := range s.BranchRules {
		c = append(c, br)
	}
	if s.ItemSessionControl != nil {
		c = append(c, s.ItemSessionControl)
	}
	for _, p := range s.Parts {
		c = append(c, p)
	}
	return c
}

type AssessmentItemRef struct {
	ID                   string
	Href                 string
	Categories           []string
	PreConditions        []*PreCondition
	BranchRules          []*BranchRule
	ItemSessionControl   *ItemSessionControl
	ResponseDeclarations []*ResponseDeclaration
	OutcomeDeclarations  []*OutcomeDeclaration
	TemplateDeclarations []*TemplateDeclaration
}

func (i *AssessmentItemRef) ClassName() string  { return ClassAssessmentItemRef }
func (i *AssessmentItemRef) Identifier() string { return i.ID }
func (i *AssessmentItemRef) sectionPart()       {}

func (i *AssessmentItemRef) Components() []Component {
	var c []Component
	for _, pc := range i.PreConditions {
		c = append(c, pc)
	}
	for _, br := range i.BranchRules {
		c = append(c, br)
	}
	if i.ItemSessionControl != nil {
		c = append(c, i.ItemSessionControl)
	}
	for _, d := range i.ResponseDeclarations {
		c = append(c, d)
	}
	for _, d := range i.OutcomeDeclarations {
		c = append(c, d)
	}
	for _, d := range i.TemplateDeclarations {
		c = append(c, d)
	}
	return c
}

// ResponseDeclaration returns the response declaration with the given identifier.
func (i *AssessmentItemRef) ResponseDeclaration(id string) (*ResponseDeclaration, bool) {
	for _, d := range i.ResponseDeclarations {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// VariableDeclaration is the part shared by every variable declaration.
type VariableDeclaration struct {
	ID           string
	Cardinality  datatype.Cardinality
	BaseType     datatype.BaseType
	DefaultValue datatype.Value
}

type ResponseDeclaration struct {
	VariableDeclaration
	CorrectResponse datatype.Value
}

func (d *ResponseDeclaration) ClassName() string       { return ClassResponseDeclaration }
func (d *ResponseDeclaration) Identifier() string      { return d.ID }
func (d *ResponseDeclaration) Components() []Component { return nil }

type OutcomeDeclaration struct {
	VariableDeclaration
}

func (d *OutcomeDeclaration) ClassName() string       { return ClassOutcomeDeclaration }
func (d *OutcomeDeclaration) Identifier() string      { return d.ID }
func (d *OutcomeDeclaration) Components() []Component { return nil }

type TemplateDeclaration struct {
	VariableDeclaration
}

func (d *TemplateDeclaration) ClassName() string       { return ClassTemplateDeclaration }
func (d *TemplateDeclaration) Identifier() string      { return d.ID }
func (d *TemplateDeclaration) Components() []Component { return nil }

// BranchRule jumps to Target when its condition holds. Conditions are
// evaluated by the runtime engine and are not modelled here.
type BranchRule struct {
	Target string
}

func (b *BranchRule) ClassName() string       { return ClassBranchRule }
func (b *BranchRule) Identifier() string      { return "" }
func (b *BranchRule) Components() []Component { return nil }

type PreCondition struct {
	Expression string
}

func (p *PreCondition) ClassName() string       { return ClassPreCondition }
func (p *PreCondition) Identifier() string      { return "" }
func (p *PreCondition) Components() []Component { return nil }

type ItemSessionControl struct {
	MaxAttempts       int
	ShowFeedback      bool
	AllowReview       bool
	ShowSolution      bool
	AllowComment      bool
	AllowSkipping     bool
	ValidateResponses bool
}

func (c *ItemSessionControl) ClassName() string       { return ClassItemSessionControl }
func (c *ItemSessionControl) Identifier() string      { return "" }
func (c *ItemSessionControl) Components() []Component { return nil }

// Walk visits root and its descendants in pre-order. Returning false from
// fn skips the children of the visited component.
func Walk(root Component, fn func(Component) bool) {
	if root == nil || !fn(root) {
		return
	}
	for _, c := range root.Components() {
		Walk(c, fn)
	}
}
