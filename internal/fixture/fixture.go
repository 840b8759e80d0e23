// Package fixture builds sample definition trees for tests and for the
// sessioncheck tool.
package fixture

import (
	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/definition"
)

func response(id string, card datatype.Cardinality, base datatype.BaseType, correct datatype.Value) *definition.ResponseDeclaration {
	return &definition.ResponseDeclaration{
		VariableDeclaration: definition.VariableDeclaration{ID: id, Cardinality: card, BaseType: base},
		CorrectResponse:     correct,
	}
}

func outcome(id string, card datatype.Cardinality, base datatype.BaseType, def datatype.Value) *definition.OutcomeDeclaration {
	return &definition.OutcomeDeclaration{
		VariableDeclaration: definition.VariableDeclaration{ID: id, Cardinality: card, BaseType: base, DefaultValue: def},
	}
}

func template(id string, card datatype.Cardinality, base datatype.BaseType) *definition.TemplateDeclaration {
	return &definition.TemplateDeclaration{
		VariableDeclaration: definition.VariableDeclaration{ID: id, Cardinality: card, BaseType: base},
	}
}

func score() *definition.OutcomeDeclaration {
	return outcome("SCORE", datatype.Single, datatype.TypeFloat, datatype.Float(0))
}

// FlatTest has one linear test part with one section holding three items
// Q01..Q03, each with a single identifier RESPONSE and a float SCORE.
func FlatTest() *definition.AssessmentTest {
	var parts []definition.SectionPart
	for _, id := range []string{"Q01", "Q02", "Q03"} {
		parts = append(parts, &definition.AssessmentItemRef{
			ID:   id,
			Href: id + ".xml",
			ResponseDeclarations: []*definition.ResponseDeclaration{
				response("RESPONSE", datatype.Single, datatype.TypeIdentifier, datatype.Identifier("ChoiceA")),
			},
			OutcomeDeclarations: []*definition.OutcomeDeclaration{score()},
		})
	}
	return &definition.AssessmentTest{
		ID:                  "flat",
		Title:               "Flat test",
		OutcomeDeclarations: []*definition.OutcomeDeclaration{score()},
		TestParts: []*definition.TestPart{{
			ID:             "P01",
			NavigationMode: definition.NavigationLinear,
			SubmissionMode: definition.SubmissionIndividual,
			Sections: []*definition.AssessmentSection{{
				ID:      "S01",
				Title:   "Section 1",
				Visible: true,
				Parts:   parts,
			}},
		}},
	}
}

// NestedTest has two test parts, nested sections, branch rules,
// preconditions, item session controls and variables of every base type and
// cardinality.
//
//	P01 (nonlinear, individual)
//	  S01 > Q01, Q02, S02 > Q03
//	  S03 > Q04
//	P02 (linear, simultaneous)
//	  S04 > Q05, Q06
func NestedTest() *definition.AssessmentTest {
	q01 := &definition.AssessmentItemRef{
		ID:   "Q01",
		Href: "choice.xml",
		ResponseDeclarations: []*definition.ResponseDeclaration{
			response("RESPONSE", datatype.Single, datatype.TypeIdentifier, datatype.Identifier("ChoiceA")),
		},
		OutcomeDeclarations: []*definition.OutcomeDeclaration{score()},
	}
	q02 := &definition.AssessmentItemRef{
		ID:   "Q02",
		Href: "match.xml",
		ResponseDeclarations: []*definition.ResponseDeclaration{
			response("RESPONSE", datatype.Multiple, datatype.TypePair, datatype.NewMultiple(datatype.TypePair,
				datatype.Pair{First: "A", Second: "B"},
				datatype.Pair{First: "C", Second: "D"},
			)),
		},
		OutcomeDeclarations: []*definition.OutcomeDeclaration{score()},
		ItemSessionControl:  &definition.ItemSessionControl{MaxAttempts: 2, AllowReview: true},
	}
	q03 := &definition.AssessmentItemRef{
		ID:   "Q03",
		Href: "order.xml",
		ResponseDeclarations: []*definition.ResponseDeclaration{
			response("RESPONSE", datatype.Ordered, datatype.TypeIdentifier, nil),
		},
		OutcomeDeclarations: []*definition.OutcomeDeclaration{score()},
		BranchRules:         []*definition.BranchRule{{Target: "EXIT_TESTPART"}},
	}
	q04 := &definition.AssessmentItemRef{
		ID:   "Q04",
		Href: "hotspot.xml",
		ResponseDeclarations: []*definition.ResponseDeclaration{
			response("RESPONSE", datatype.Single, datatype.TypePoint, nil),
		},
		OutcomeDeclarations:  []*definition.OutcomeDeclaration{score()},
		TemplateDeclarations: []*definition.TemplateDeclaration{template("T", datatype.Single, datatype.TypeInteger)},
		PreConditions:        []*definition.PreCondition{{Expression: "gte(SCORE, 1)"}},
	}
	q05 := &definition.AssessmentItemRef{
		ID:   "Q05",
		Href: "essay.xml",
		ResponseDeclarations: []*definition.ResponseDeclaration{
			response("RESPONSE", datatype.Single, datatype.TypeString, nil),
			response("UPLOAD", datatype.Single, datatype.TypeFile, nil),
		},
		OutcomeDeclarations: []*definition.OutcomeDeclaration{
			score(),
			outcome("FEEDBACK", datatype.Record, datatype.TypeIdentifier, nil),
		},
	}
	q06 := &definition.AssessmentItemRef{
		ID:   "Q06",
		Href: "misc.xml",
		ResponseDeclarations: []*definition.ResponseDeclaration{
			response("RESPONSE", datatype.Single, datatype.TypeDuration, nil),
			response("LINK", datatype.Single, datatype.TypeURI, nil),
			response("SLOT", datatype.Multiple, datatype.TypeIntOrIdentifier, nil),
			response("GAP", datatype.Ordered, datatype.TypeDirectedPair, nil),
			response("AGREE", datatype.Single, datatype.TypeBoolean, nil),
			response("COUNT", datatype.Single, datatype.TypeInteger, nil),
		},
		OutcomeDeclarations: []*definition.OutcomeDeclaration{score()},
	}

	return &definition.AssessmentTest{
		ID:    "nested",
		Title: "Nested test",
		OutcomeDeclarations: []*definition.OutcomeDeclaration{
			score(),
			outcome("PASSED", datatype.Single, datatype.TypeBoolean, datatype.Boolean(false)),
		},
		TestParts: []*definition.TestPart{
			{
				ID:                 "P01",
				NavigationMode:     definition.NavigationNonLinear,
				SubmissionMode:     definition.SubmissionIndividual,
				ItemSessionControl: &definition.ItemSessionControl{MaxAttempts: 1, ShowFeedback: true},
				Sections: []*definition.AssessmentSection{
					{
						ID:      "S01",
						Visible: true,
						Parts: []definition.SectionPart{
							q01,
							q02,
							&definition.AssessmentSection{
								ID:          "S02",
								BranchRules: []*definition.BranchRule{{Target: "S03"}},
								Parts:       []definition.SectionPart{q03},
							},
						},
					},
					{
						ID:            "S03",
						Visible:       true,
						PreConditions: []*definition.PreCondition{{Expression: "true"}},
						Parts:         []definition.SectionPart{q04},
					},
				},
			},
			{
				ID:             "P02",
				NavigationMode: definition.NavigationLinear,
				SubmissionMode: definition.SubmissionSimultaneous,
				Sections: []*definition.AssessmentSection{{
					ID:      "S04",
					Visible: true,
					Parts:   []definition.SectionPart{q05, q06},
				}},
			},
		},
	}
}

// Item returns the item reference of test with the given identifier.
func Item(test *definition.AssessmentTest, id string) *definition.AssessmentItemRef {
	var found *definition.AssessmentItemRef
	definition.Walk(test, func(c definition.Component) bool {
		if item, ok := c.(*definition.AssessmentItemRef); ok && item.ID == id && found == nil {
			found = item
		}
		return found == nil
	})
	return found
}
