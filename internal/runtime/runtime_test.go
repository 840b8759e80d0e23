package runtime_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/fixture"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
)

func TestBuildRoute(t *testing.T) {
	test := fixture.NestedTest()
	route := runtime.BuildRoute(test)
	require.Equal(t, 6, route.Len())

	q03 := route.Items()[2]
	require.Equal(t, "Q03", q03.ItemRef.ID)
	require.Equal(t, "P01", q03.TestPart.ID)
	require.Len(t, q03.Sections, 2)
	require.Equal(t, "S01", q03.Sections[0].ID)
	require.Equal(t, "S02", q03.Section().ID)
	require.Len(t, q03.BranchRules, 1)

	q05 := route.Items()[4]
	require.Equal(t, "P02", q05.TestPart.ID)
	require.Equal(t, "S04", q05.Section().ID)
	require.Equal(t, 4, route.IndexOf(q05.ItemRef, 0))
	require.Equal(t, -1, route.IndexOf(q05.ItemRef, 1))
}

func TestRoute_Navigation(t *testing.T) {
	route := runtime.BuildRoute(fixture.FlatTest())
	require.Equal(t, 0, route.Position())
	require.Equal(t, "Q01", route.Current().ItemRef.ID)
	require.False(t, route.Previous())

	require.True(t, route.Next())
	require.True(t, route.Next())
	require.Equal(t, "Q03.0", route.Current().String())
	require.False(t, route.Next())
	require.Nil(t, route.Current())
	require.True(t, route.Previous())

	require.NoError(t, route.SetPosition(3))
	err := route.SetPosition(4)
	require.True(t, errors.Is(err, runtime.ErrRoutePosition))
}

func TestVariable_Slots(t *testing.T) {
	q01 := fixture.Item(fixture.FlatTest(), "Q01")
	v := runtime.NewResponseVariable(q01.ResponseDeclarations[0])
	require.Equal(t, "RESPONSE", v.Identifier)
	require.True(t, v.IsNull())
	require.Equal(t, datatype.Identifier("ChoiceA"), v.Get(runtime.SlotCorrectResponse))

	v.Set(runtime.SlotValue, datatype.Identifier("ChoiceB"))
	v.Set(runtime.SlotDefaultValue, datatype.Identifier("ChoiceC"))
	require.Equal(t, datatype.Identifier("ChoiceB"), v.Get(runtime.SlotValue))
	require.Equal(t, datatype.Identifier("ChoiceC"), v.Get(runtime.SlotDefaultValue))
	require.Equal(t, datatype.Identifier("ChoiceA"), v.CorrectResponse)
}

func TestNewSession(t *testing.T) {
	test := fixture.NestedTest()
	s := runtime.NewSession(runtime.DefaultFactory{}, test)
	require.Equal(t, runtime.TestInitial, s.State)
	require.Len(t, s.ItemSessions, 6)

	score, ok := s.Outcome("SCORE")
	require.True(t, ok)
	require.Equal(t, datatype.Float(0), score.Value)
	require.Equal(t, runtime.OutcomeVariable, score.Kind)

	q02 := fixture.Item(test, "Q02")
	is, ok := s.ItemSession(q02, 0)
	require.True(t, ok)
	require.Equal(t, runtime.ItemInitial, is.State)
	require.Equal(t, runtime.CompletionNotAttempted, is.CompletionStatus)
	require.Same(t, q02.ItemSessionControl, is.ItemSessionControl)

	resp, ok := is.Variable("RESPONSE")
	require.True(t, ok)
	require.Equal(t, runtime.ResponseVariable, resp.Kind)
	require.True(t, resp.IsNull())
	require.Equal(t, 2, resp.CorrectResponse.(datatype.Container).Len())

	_, ok = s.ItemSession(q02, 1)
	require.False(t, ok)
}

func TestTestSession_Bookkeeping(t *testing.T) {
	test := fixture.FlatTest()
	s := runtime.NewSession(runtime.DefaultFactory{}, test)
	q01 := fixture.Item(test, "Q01")

	s.SetDuration("flat", datatype.Duration(time.Minute))
	s.SetDuration("Q01.0", datatype.Duration(time.Second))
	s.SetDuration("flat", datatype.Duration(2*time.Minute))
	require.Equal(t, []runtime.DurationEntry{
		{Identifier: "flat", Value: datatype.Duration(2 * time.Minute)},
		{Identifier: "Q01.0", Value: datatype.Duration(time.Second)},
	}, s.Durations)
	d, ok := s.Duration("Q01.0")
	require.True(t, ok)
	require.Equal(t, datatype.Duration(time.Second), d)

	resp := runtime.NewVariable("RESPONSE", runtime.ResponseVariable, datatype.Single, datatype.TypeIdentifier)
	resp.Set(runtime.SlotValue, datatype.Identifier("ChoiceB"))
	s.AddPendingResponses(&runtime.PendingResponses{ItemRef: q01, Responses: []*runtime.Variable{resp}})
	s.AddPendingResponses(&runtime.PendingResponses{ItemRef: q01, Responses: []*runtime.Variable{resp, resp}})
	require.Len(t, s.PendingResponses, 1)
	p, ok := s.PendingResponsesFor(q01, 0)
	require.True(t, ok)
	require.Len(t, p.Responses, 2)

	require.NoError(t, s.Visit(1))
	require.NoError(t, s.Visit(0))
	require.Equal(t, []int{1, 0}, s.Path)
	require.Equal(t, 0, s.Route.Position())
	require.Error(t, s.Visit(9))
}

func TestStates(t *testing.T) {
	require.True(t, runtime.ItemNotSelected.Valid())
	require.False(t, runtime.ItemSessionState(7).Valid())
	require.Equal(t, "notSelected", runtime.ItemNotSelected.String())
	require.True(t, runtime.TestClosed.Valid())
	require.False(t, runtime.TestSessionState(5).Valid())
}
