package runtime

import (
	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/definition"
)

// SessionFactory creates the empty sessions a reader fills in.
type SessionFactory interface {
	NewTestSession(test *definition.AssessmentTest, route *Route) *TestSession
	NewItemSession(item *definition.AssessmentItemRef, navigation definition.NavigationMode, submission definition.SubmissionMode) *ItemSession
}

// FileManager keeps the content of File values. Session streams only carry
// file identifiers.
type FileManager interface {
	Store(filename, mimeType string, data []byte) (datatype.File, error)
	Retrieve(id string) (datatype.File, error)
	Delete(file datatype.File) error
}

// DefaultFactory builds sessions with the declared test outcomes and item
// sessions in their initial state.
type DefaultFactory struct{}

func (DefaultFactory) NewTestSession(test *definition.AssessmentTest, route *Route) *TestSession {
	s := &TestSession{
		Test:         test,
		State:        TestInitial,
		Route:        route,
		ItemSessions: make(map[ItemKey]*ItemSession),
	}
	for _, d := range test.OutcomeDeclarations {
		s.Outcomes = append(s.Outcomes, NewOutcomeVariable(d))
	}
	return s
}

func (DefaultFactory) NewItemSession(item *definition.AssessmentItemRef, navigation definition.NavigationMode, submission definition.SubmissionMode) *ItemSession {
	return &ItemSession{
		ItemRef:            item,
		State:              ItemInitial,
		NavigationMode:     navigation,
		SubmissionMode:     submission,
		ItemSessionControl: item.ItemSessionControl,
		CompletionStatus:   CompletionNotAttempted,
	}
}

// NewSession builds a test session over test with a freshly built route and
// one item session per route item, variables initialised from declarations.
func NewSession(factory SessionFactory, test *definition.AssessmentTest) *TestSession {
	route := BuildRoute(test)
	s := factory.NewTestSession(test, route)
	for _, ri := range route.Items() {
		is := factory.NewItemSession(ri.ItemRef, ri.TestPart.NavigationMode, ri.TestPart.SubmissionMode)
		is.Occurrence = ri.Occurrence
		is.InitVariables()
		s.SetItemSession(is)
	}
	return s
}
