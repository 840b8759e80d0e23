package runtime

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/S0me0neR0man/qtistate/internal/definition"
)

var ErrRoutePosition = errors.New("route position out of range")

// RouteItem is one step of the navigation sequence: an item occurrence with
// the structure enclosing it.
type RouteItem struct {
	ItemRef    *definition.AssessmentItemRef
	Occurrence int
	TestPart   *definition.TestPart
	// Sections lists the enclosing sections, outermost first.
	Sections      []*definition.AssessmentSection
	BranchRules   []*definition.BranchRule
	PreConditions []*definition.PreCondition
}

// Section returns the innermost enclosing section, or nil.
func (r *RouteItem) Section() *definition.AssessmentSection {
	if len(r.Sections) == 0 {
		return nil
	}
	return r.Sections[len(r.Sections)-1]
}

func (r *RouteItem) String() string {
	return fmt.Sprintf("%s.%d", r.ItemRef.ID, r.Occurrence)
}

// Route is the ordered sequence of route items plus the current position.
type Route struct {
	items    []*RouteItem
	position int
}

func NewRoute(items ...*RouteItem) *Route {
	return &Route{items: items}
}

// BuildRoute flattens test into one route item per item reference, in
// document order, each with occurrence 0. Branch rules and preconditions of
// an item are those declared on the item itself.
func BuildRoute(test *definition.AssessmentTest) *Route {
	r := &Route{}
	for _, part := range test.TestParts {
		for _, section := range part.Sections {
			r.appendSection(part, []*definition.AssessmentSection{section})
		}
	}
	return r
}

func (r *Route) appendSection(part *definition.TestPart, stack []*definition.AssessmentSection) {
	for _, p := range stack[len(stack)-1].Parts {
		switch p := p.(type) {
		case *definition.AssessmentSection:
			next := make([]*definition.AssessmentSection, len(stack), len(stack)+1)
			copy(next, stack)
			r.appendSection(part, append(next, p))
		case *definition.AssessmentItemRef:
			sections := make([]*definition.AssessmentSection, len(stack))
			copy(sections, stack)
			r.items = append(r.items, &RouteItem{
				ItemRef:       p,
				TestPart:      part,
				Sections:      sections,
				BranchRules:   p.BranchRules,
				PreConditions: p.PreConditions,
			})
		}
	}
}

func (r *Route) Append(item *RouteItem) {
	r.items = append(r.items, item)
}

func (r *Route) Items() []*RouteItem {
	return r.items
}

func (r *Route) Len() int {
	return len(r.items)
}

func (r *Route) Position() int {
	return r.position
}

// SetPosition moves the route to position. Len() is a valid position: it
// marks a route walked to its end.
func (r *Route) SetPosition(position int) error {
	if position < 0 || position > len(r.items) {
		return errors.Wrapf(ErrRoutePosition, "%d not in [0, %d]", position, len(r.items))
	}
	r.position = position
	return nil
}

// Current returns the route item at the current position, or nil at the end.
func (r *Route) Current() *RouteItem {
	if r.position >= len(r.items) {
		return nil
	}
	return r.items[r.position]
}

// Next moves one step forward and reports whether a route item is current.
func (r *Route) Next() bool {
	if r.position < len(r.items) {
		r.position++
	}
	return r.position < len(r.items)
}

// Previous moves one step backward and reports whether the position changed.
func (r *Route) Previous() bool {
	if r.position == 0 {
		return false
	}
	r.position--
	return true
}

// IndexOf returns the position of the route item for item and occurrence,
// or -1.
func (r *Route) IndexOf(item *definition.AssessmentItemRef, occurrence int) int {
	for i, ri := range r.items {
		if ri.ItemRef == item && ri.Occurrence == occurrence {
			return i
		}
	}
	return -1
}
