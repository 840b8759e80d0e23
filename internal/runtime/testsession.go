package runtime

import (
	"fmt"
	"time"

	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/definition"
)

// TestSessionState values are wire constants.
type TestSessionState uint8

const (
	TestInitial TestSessionState = iota
	TestInteracting
	TestModalFeedback
	TestSuspended
	TestClosed
)

func (s TestSessionState) String() string {
	switch s {
	case TestInitial:
		return "initial"
	case TestInteracting:
		return "interacting"
	case TestModalFeedback:
		return "modalFeedback"
	case TestSuspended:
		return "suspended"
	case TestClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

func (s TestSessionState) Valid() bool {
	return s <= TestClosed
}

// ItemKey identifies an item occurrence within a session.
type ItemKey struct {
	Item       *definition.AssessmentItemRef
	Occurrence int
}

// DurationEntry is one accumulated duration. Identifier names the test,
// a test part, a section or an item occurrence ("Q01.0").
type DurationEntry struct {
	Identifier string
	Value      datatype.Duration
}

// TestSession is the whole observable state of a candidate's run through a test.
type TestSession struct {
	Test             *definition.AssessmentTest
	State            TestSessionState
	Route            *Route
	// ItemSessions and PendingResponses only hold occurrences on Route.
	ItemSessions     map[ItemKey]*ItemSession
	PendingResponses []*PendingResponses
	Outcomes         []*Variable
	Durations        []DurationEntry
	LastAction       *time.Time
	AlwaysAllowJumps bool
	// Path lists the route positions visited, in visiting order.
	Path []int
}

// ItemSession returns the session of the given item occurrence.
func (s *TestSession) ItemSession(item *definition.AssessmentItemRef, occurrence int) (*ItemSession, bool) {
	is, ok := s.ItemSessions[ItemKey{Item: item, Occurrence: occurrence}]
	return is, ok
}

// SetItemSession stores is under its item occurrence.
func (s *TestSession) SetItemSession(is *ItemSession) {
	if s.ItemSessions == nil {
		s.ItemSessions = make(map[ItemKey]*ItemSession)
	}
	s.ItemSessions[ItemKey{Item: is.ItemRef, Occurrence: is.Occurrence}] = is
}

// PendingResponsesFor returns the pending responses of the item occurrence.
func (s *TestSession) PendingResponsesFor(item *definition.AssessmentItemRef, occurrence int) (*PendingResponses, bool) {
	for _, p := range s.PendingResponses {
		if p.ItemRef == item && p.Occurrence == occurrence {
			return p, true
		}
	}
	return nil, false
}

// AddPendingResponses replaces the pending responses of the same item
// occurrence, or appends p.
func (s *TestSession) AddPendingResponses(p *PendingResponses) {
	for i, existing := range s.PendingResponses {
		if existing.ItemRef == p.ItemRef && existing.Occurrence == p.Occurrence {
			s.PendingResponses[i] = p
			return
		}
	}
	s.PendingResponses = append(s.PendingResponses, p)
}

// Outcome returns the test-level outcome variable declared as identifier.
func (s *TestSession) Outcome(identifier string) (*Variable, bool) {
	for _, v := range s.Outcomes {
		if v.Identifier == identifier {
			return v, true
		}
	}
	return nil, false
}

// Duration returns the accumulated duration recorded under identifier.
func (s *TestSession) Duration(identifier string) (datatype.Duration, bool) {
	for _, d := range s.Durations {
		if d.Identifier == identifier {
			return d.Value, true
		}
	}
	return 0, false
}

// SetDuration updates the duration recorded under identifier, keeping
// insertion order.
func (s *TestSession) SetDuration(identifier string, value datatype.Duration) {
	for i := range s.Durations {
		if s.Durations[i].Identifier == identifier {
			s.Durations[i].Value = value
			return
		}
	}
	s.Durations = append(s.Durations, DurationEntry{Identifier: identifier, Value: value})
}

// Visit moves the route to position and records it in the path.
func (s *TestSession) Visit(position int) error {
	if err := s.Route.SetPosition(position); err != nil {
		return err
	}
	s.Path = append(s.Path, position)
	return nil
}
