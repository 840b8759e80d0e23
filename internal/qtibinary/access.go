// Package qtibinary persists and retrieves assessment test sessions in the
// QTI binary session format.
//
// A stream starts with a version marker. Everything after it is written
// and read through an Access bound to that version: structural references
// travel as positions from a seeker.Seeker built over the test definition,
// variables travel through the variable value codec.
package qtibinary

import (
	"math"

	"github.com/pkg/errors"

	"github.com/S0me0neR0man/qtistate/internal/binstream"
	"github.com/S0me0neR0man/qtistate/internal/definition"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
	"github.com/S0me0neR0man/qtistate/internal/seeker"
	"github.com/S0me0neR0man/qtistate/internal/stream"
)

var (
	ErrDatatypeMismatch   = errors.New("qtibinary: datatype mismatch")
	ErrNoFileManager      = errors.New("qtibinary: no file manager to resolve file values")
	ErrCountOverflow      = errors.New("qtibinary: value does not fit its wire width")
	ErrInvalidTag         = errors.New("qtibinary: invalid tag")
	ErrUndeclaredVariable = errors.New("qtibinary: variable has no declaration")
	ErrOrphanItemSession  = errors.New("qtibinary: item occurrence is not on the route")
)

// IndexedClasses lists the definition classes a session stream refers to.
var IndexedClasses = []string{
	definition.ClassAssessmentItemRef,
	definition.ClassAssessmentSection,
	definition.ClassTestPart,
	definition.ClassOutcomeDeclaration,
	definition.ClassResponseDeclaration,
	definition.ClassTemplateDeclaration,
	definition.ClassBranchRule,
	definition.ClassPreCondition,
	definition.ClassItemSessionControl,
}

// NewSeeker builds the position index session streams of test are written
// against.
func NewSeeker(test *definition.AssessmentTest) *seeker.Seeker {
	return seeker.New(test, IndexedClasses)
}

// Access is the primitive codec bound to a format version and, optionally,
// a file manager for File values.
type Access struct {
	*binstream.Access
	version Version
	files   runtime.FileManager
}

func NewAccess(s stream.Stream, version Version, files runtime.FileManager) *Access {
	return &Access{
		Access:  binstream.NewAccess(s),
		version: version,
		files:   files,
	}
}

func (a *Access) Version() Version {
	return a.version
}

func (a *Access) writeCount8(n int, what string) error {
	if n < 0 || n > math.MaxUint8 {
		return errors.Wrapf(ErrCountOverflow, "%s count %d", what, n)
	}
	return a.WriteByte(uint8(n))
}

func (a *Access) readCount8() (int, error) {
	n, err := a.ReadByte()
	return int(n), err
}

func (a *Access) writeCount16(n int, what string) error {
	if n < 0 || n > math.MaxUint16 {
		return errors.Wrapf(ErrCountOverflow, "%s count %d", what, n)
	}
	return a.WriteShort(uint16(n))
}

func (a *Access) readCount16() (int, error) {
	n, err := a.ReadShort()
	return int(n), err
}

// writeRoutePosition writes a route position or count: a short, or an
// integer when the version stores wide positions.
func (a *Access) writeRoutePosition(n int, what string) error {
	if a.version.StoresWidePositions() {
		if n < 0 || n > math.MaxInt32 {
			return errors.Wrapf(ErrCountOverflow, "%s %d", what, n)
		}
		return a.WriteInteger(int32(n))
	}
	return a.writeCount16(n, what)
}

func (a *Access) readRoutePosition() (int, error) {
	if a.version.StoresWidePositions() {
		n, err := a.ReadInteger()
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, errors.Wrapf(ErrCountOverflow, "negative route position %d", n)
		}
		return int(n), nil
	}
	return a.readCount16()
}

// writeComponent writes the position of c.
func (a *Access) writeComponent(sk *seeker.Seeker, c definition.Component) error {
	position, err := sk.PositionOf(c)
	if err != nil {
		return err
	}
	return a.writeCount16(position, c.ClassName()+" position")
}

// readComponent reads a position and resolves it to a component of class.
func (a *Access) readComponent(sk *seeker.Seeker, class string) (definition.Component, error) {
	position, err := a.ReadShort()
	if err != nil {
		return nil, errors.Wrap(err, class+" position")
	}
	return sk.ComponentAt(class, int(position))
}

func (a *Access) writeStrings(values []string, what string) error {
	if err := a.writeCount8(len(values), what); err != nil {
		return err
	}
	for _, v := range values {
		if err := a.WriteString(v); err != nil {
			return err
		}
	}
	return nil
}

func (a *Access) readStrings() ([]string, error) {
	n, err := a.readCount8()
	if err != nil {
		return nil, err
	}
	var values []string
	for i := 0; i < n; i++ {
		v, err := a.ReadString()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
