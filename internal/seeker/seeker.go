// Package seeker implements the position index of a definition tree: every
// component of an indexed class gets a dense, zero-based position in the
// pre-order traversal of the tree.
//
// Positions are foreign keys into the exact tree the Seeker was built from.
// Reading a stream against another tree resolves to the wrong components,
// or fails with ErrComponentNotFound.
package seeker

import (
	"github.com/pkg/errors"

	"github.com/S0me0neR0man/qtistate/internal/definition"
)

var (
	ErrUnknownComponent  = errors.New("seeker: component is not indexed")
	ErrComponentNotFound = errors.New("seeker: no component at position")
)

// Seeker is immutable once built and safe for concurrent use.
type Seeker struct {
	root       definition.Component
	classes    map[string][]definition.Component
	positions  map[definition.Component]int
	byIdentity map[string]map[string]int
}

// New indexes the components of root whose class is in classNames.
func New(root definition.Component, classNames []string) *Seeker {
	s := &Seeker{
		root:       root,
		classes:    make(map[string][]definition.Component, len(classNames)),
		positions:  make(map[definition.Component]int),
		byIdentity: make(map[string]map[string]int, len(classNames)),
	}
	for _, name := range classNames {
		s.classes[name] = nil
		s.byIdentity[name] = make(map[string]int)
	}

	definition.Walk(root, func(c definition.Component) bool {
		name := c.ClassName()
		list, indexed := s.classes[name]
		if !indexed {
			return true
		}
		if _, seen := s.positions[c]; seen {
			return true
		}
		position := len(list)
		s.classes[name] = append(list, c)
		s.positions[c] = position
		if id := c.Identifier(); id != "" {
			if _, dup := s.byIdentity[name][id]; !dup {
				s.byIdentity[name][id] = position
			}
		}
		return true
	})

	return s
}

// Root returns the tree the seeker was built from.
func (s *Seeker) Root() definition.Component {
	return s.root
}

// PositionOf returns the position of c within its class.
func (s *Seeker) PositionOf(c definition.Component) (int, error) {
	position, ok := s.positions[c]
	if !ok {
		if c == nil {
			return 0, errors.Wrap(ErrUnknownComponent, "nil component")
		}
		return 0, errors.Wrapf(ErrUnknownComponent, "%s %q", c.ClassName(), c.Identifier())
	}
	return position, nil
}

// ComponentAt returns the component of class at position.
func (s *Seeker) ComponentAt(class string, position int) (definition.Component, error) {
	list, indexed := s.classes[class]
	if !indexed {
		return nil, errors.Wrapf(ErrComponentNotFound, "class %q is not indexed", class)
	}
	if position < 0 || position >= len(list) {
		return nil, errors.Wrapf(ErrComponentNotFound, "%s #%d (%d indexed)", class, position, len(list))
	}
	return list[position], nil
}

// PositionOfIdentifier returns the position of the first component of class
// carrying identifier.
func (s *Seeker) PositionOfIdentifier(class, identifier string) (int, error) {
	ids, indexed := s.byIdentity[class]
	if !indexed {
		return 0, errors.Wrapf(ErrUnknownComponent, "class %q is not indexed", class)
	}
	position, ok := ids[identifier]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownComponent, "%s %q", class, identifier)
	}
	return position, nil
}

// Count returns the number of indexed components of class.
func (s *Seeker) Count(class string) int {
	return len(s.classes[class])
}
