package runtime

import (
	"fmt"
	"time"

	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/definition"
)

// ItemSessionState values are wire constants.
type ItemSessionState uint8

const (
	ItemInitial ItemSessionState = iota
	ItemInteracting
	ItemModalFeedback
	ItemSuspended
	ItemClosed
	ItemSolution
	ItemReview
	ItemNotSelected ItemSessionState = 255
)

func (s ItemSessionState) String() string {
	switch s {
	case ItemInitial:
		return "initial"
	case ItemInteracting:
		return "interacting"
	case ItemModalFeedback:
		return "modalFeedback"
	case ItemSuspended:
		return "suspended"
	case ItemClosed:
		return "closed"
	case ItemSolution:
		return "solution"
	case ItemReview:
		return "review"
	case ItemNotSelected:
		return "notSelected"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

func (s ItemSessionState) Valid() bool {
	return s <= ItemReview || s == ItemNotSelected
}

// Completion statuses of an item session.
const (
	CompletionNotAttempted = "not_attempted"
	CompletionUnknown      = "unknown"
	CompletionIncomplete   = "incomplete"
	CompletionCompleted    = "completed"
)

// ShufflingGroup is the shuffled order of one group of choices. Fixed
// identifiers keep their place when the group is reshuffled.
type ShufflingGroup struct {
	Identifiers      []string
	FixedIdentifiers []string
}

// ShufflingState records the shuffled choice order of one interaction.
type ShufflingState struct {
	ResponseIdentifier string
	Groups             []ShufflingGroup
}

// ItemSession is the candidate's session on one occurrence of an item.
type ItemSession struct {
	ItemRef            *definition.AssessmentItemRef
	Occurrence         int
	State              ItemSessionState
	NavigationMode     definition.NavigationMode
	SubmissionMode     definition.SubmissionMode
	Attempting         bool
	ItemSessionControl *definition.ItemSessionControl
	NumAttempts        int
	Duration           datatype.Duration
	CompletionStatus   string
	TimeReference      *time.Time
	Variables          []*Variable
	ShufflingStates    []ShufflingState
}

// Variable returns the variable declared as identifier.
func (s *ItemSession) Variable(identifier string) (*Variable, bool) {
	for _, v := range s.Variables {
		if v.Identifier == identifier {
			return v, true
		}
	}
	return nil, false
}

// SetVariable replaces the variable with the same identifier, or appends v.
func (s *ItemSession) SetVariable(v *Variable) {
	for i, existing := range s.Variables {
		if existing.Identifier == v.Identifier {
			s.Variables[i] = v
			return
		}
	}
	s.Variables = append(s.Variables, v)
}

// InitVariables creates one variable per declaration of the item, holding
// the declared defaults. Variables already present are left alone.
func (s *ItemSession) InitVariables() {
	for _, d := range s.ItemRef.ResponseDeclarations {
		if _, ok := s.Variable(d.ID); !ok {
			s.Variables = append(s.Variables, NewResponseVariable(d))
		}
	}
	for _, d := range s.ItemRef.OutcomeDeclarations {
		if _, ok := s.Variable(d.ID); !ok {
			s.Variables = append(s.Variables, NewOutcomeVariable(d))
		}
	}
	for _, d := range s.ItemRef.TemplateDeclarations {
		if _, ok := s.Variable(d.ID); !ok {
			s.Variables = append(s.Variables, NewTemplateVariable(d))
		}
	}
}

// ShufflingState returns the shuffling state of the interaction bound to
// responseIdentifier.
func (s *ItemSession) ShufflingState(responseIdentifier string) (ShufflingState, bool) {
	for _, st := range s.ShufflingStates {
		if st.ResponseIdentifier == responseIdentifier {
			return st, true
		}
	}
	return ShufflingState{}, false
}

// PendingResponses are responses submitted in simultaneous submission mode
// and not processed yet.
type PendingResponses struct {
	ItemRef    *definition.AssessmentItemRef
	Occurrence int
	Responses  []*Variable
}
