package qtibinary

import (
	"github.com/pkg/errors"

	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/definition"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
	"github.com/S0me0neR0man/qtistate/internal/seeker"
)

// WriteRouteItem writes the occurrence, the item, the test part, the
// enclosing sections, then the branch rules and preconditions of ri.
// Versions without multiple sections keep only the innermost section.
func (a *Access) WriteRouteItem(sk *seeker.Seeker, ri *runtime.RouteItem) error {
	const msg = "write route item"

	if err := a.writeOccurrence(ri.Occurrence); err != nil {
		return errors.Wrap(err, msg)
	}
	if err := a.writeComponent(sk, ri.ItemRef); err != nil {
		return errors.Wrap(err, msg)
	}
	if err := a.writeComponent(sk, ri.TestPart); err != nil {
		return errors.Wrap(err, msg)
	}

	if a.version.StoresMultipleSections() {
		if err := a.writeCount8(len(ri.Sections), "section"); err != nil {
			return errors.Wrap(err, msg)
		}
		for _, s := range ri.Sections {
			if err := a.writeComponent(sk, s); err != nil {
				return errors.Wrap(err, msg)
			}
		}
	} else {
		section := ri.Section()
		if section == nil {
			return errors.Wrapf(seeker.ErrUnknownComponent, "%s: %s has no section", msg, ri)
		}
		if err := a.writeComponent(sk, section); err != nil {
			return errors.Wrap(err, msg)
		}
	}

	if !a.version.StoresBranchRulesAndPreconditions() {
		return nil
	}
	if err := a.writeCount8(len(ri.BranchRules), "branch rule"); err != nil {
		return errors.Wrap(err, msg)
	}
	for _, br := range ri.BranchRules {
		if err := a.writeComponent(sk, br); err != nil {
			return errors.Wrap(err, msg)
		}
	}
	if err := a.writeCount8(len(ri.PreConditions), "precondition"); err != nil {
		return errors.Wrap(err, msg)
	}
	for _, pc := range ri.PreConditions {
		if err := a.writeComponent(sk, pc); err != nil {
			return errors.Wrap(err, msg)
		}
	}
	return nil
}

// ReadRouteItem is the mirror of WriteRouteItem.
func (a *Access) ReadRouteItem(sk *seeker.Seeker) (*runtime.RouteItem, error) {
	const msg = "read route item"

	occurrence, err := a.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	ri := &runtime.RouteItem{Occurrence: int(occurrence)}

	c, err := a.readComponent(sk, definition.ClassAssessmentItemRef)
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	ri.ItemRef = c.(*definition.AssessmentItemRef)

	c, err = a.readComponent(sk, definition.ClassTestPart)
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	ri.TestPart = c.(*definition.TestPart)

	sections := 1
	if a.version.StoresMultipleSections() {
		if sections, err = a.readCount8(); err != nil {
			return nil, errors.Wrap(err, msg)
		}
	}
	for i := 0; i < sections; i++ {
		c, err := a.readComponent(sk, definition.ClassAssessmentSection)
		if err != nil {
			return nil, errors.Wrap(err, msg)
		}
		ri.Sections = append(ri.Sections, c.(*definition.AssessmentSection))
	}

	if !a.version.StoresBranchRulesAndPreconditions() {
		return ri, nil
	}
	n, err := a.readCount8()
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	for i := 0; i < n; i++ {
		c, err := a.readComponent(sk, definition.ClassBranchRule)
		if err != nil {
			return nil, errors.Wrap(err, msg)
		}
		ri.BranchRules = append(ri.BranchRules, c.(*definition.BranchRule))
	}
	if n, err = a.readCount8(); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	for i := 0; i < n; i++ {
		c, err := a.readComponent(sk, definition.ClassPreCondition)
		if err != nil {
			return nil, errors.Wrap(err, msg)
		}
		ri.PreConditions = append(ri.PreConditions, c.(*definition.PreCondition))
	}
	return ri, nil
}

func (a *Access) writeOccurrence(occurrence int) error {
	return a.writeCount8(occurrence, "occurrence")
}

// WriteItemSession writes the session state, its variables and its
// shuffling states. The occurrence is carried by the route item.
func (a *Access) WriteItemSession(sk *seeker.Seeker, is *runtime.ItemSession) error {
	const msg = "write item session"

	if err := a.writeComponent(sk, is.ItemRef); err != nil {
		return errors.Wrap(err, msg)
	}
	for _, b := range []uint8{uint8(is.State), uint8(is.NavigationMode), uint8(is.SubmissionMode)} {
		if err := a.WriteByte(b); err != nil {
			return errors.Wrap(err, msg)
		}
	}
	if a.version.StoresAttempting() {
		if err := a.WriteBoolean(is.Attempting); err != nil {
			return errors.Wrap(err, msg)
		}
	}

	if err := a.WriteBoolean(is.ItemSessionControl != nil); err != nil {
		return errors.Wrap(err, msg)
	}
	if is.ItemSessionControl != nil {
		if err := a.writeComponent(sk, is.ItemSessionControl); err != nil {
			return errors.Wrap(err, msg)
		}
	}

	if err := a.writeCount16(is.NumAttempts, "attempt"); err != nil {
		return errors.Wrap(err, msg)
	}
	if err := a.WriteString(is.Duration.String()); err != nil {
		return errors.Wrap(err, msg)
	}
	if err := a.WriteString(is.CompletionStatus); err != nil {
		return errors.Wrap(err, msg)
	}
	if err := a.WriteBoolean(is.TimeReference != nil); err != nil {
		return errors.Wrap(err, msg)
	}
	if is.TimeReference != nil {
		if err := a.WriteDateTime(*is.TimeReference); err != nil {
			return errors.Wrap(err, msg)
		}
	}

	if err := a.writeCount8(len(is.Variables), "variable"); err != nil {
		return errors.Wrap(err, msg)
	}
	for _, v := range is.Variables {
		if err := a.writeItemVariable(sk, is.ItemRef, v); err != nil {
			return errors.Wrap(err, msg)
		}
	}

	if err := a.writeCount8(len(is.ShufflingStates), "shuffling state"); err != nil {
		return errors.Wrap(err, msg)
	}
	for _, st := range is.ShufflingStates {
		if err := a.WriteShufflingState(st); err != nil {
			return errors.Wrap(err, msg)
		}
	}
	return nil
}

// ReadItemSession is the mirror of WriteItemSession. The session shell
// comes from factory.
func (a *Access) ReadItemSession(sk *seeker.Seeker, factory runtime.SessionFactory) (*runtime.ItemSession, error) {
	const msg = "read item session"

	c, err := a.readComponent(sk, definition.ClassAssessmentItemRef)
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	item := c.(*definition.AssessmentItemRef)

	var tags [3]uint8
	for i := range tags {
		if tags[i], err = a.ReadByte(); err != nil {
			return nil, errors.Wrap(err, msg)
		}
	}
	state := runtime.ItemSessionState(tags[0])
	if !state.Valid() {
		return nil, errors.Wrapf(ErrInvalidTag, "%s: item session state %d", msg, tags[0])
	}
	if tags[1] > uint8(definition.NavigationNonLinear) {
		return nil, errors.Wrapf(ErrInvalidTag, "%s: navigation mode %d", msg, tags[1])
	}
	if tags[2] > uint8(definition.SubmissionSimultaneous) {
		return nil, errors.Wrapf(ErrInvalidTag, "%s: submission mode %d", msg, tags[2])
	}

	is := factory.NewItemSession(item, definition.NavigationMode(tags[1]), definition.SubmissionMode(tags[2]))
	is.State = state

	if a.version.StoresAttempting() {
		if is.Attempting, err = a.ReadBoolean(); err != nil {
			return nil, errors.Wrap(err, msg)
		}
	}

	hasControl, err := a.ReadBoolean()
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	is.ItemSessionControl = nil
	if hasControl {
		c, err := a.readComponent(sk, definition.ClassItemSessionControl)
		if err != nil {
			return nil, errors.Wrap(err, msg)
		}
		is.ItemSessionControl = c.(*definition.ItemSessionControl)
	}

	if is.NumAttempts, err = a.readCount16(); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	d, err := a.ReadString()
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	if is.Duration, err = datatype.ParseDuration(d); err != nil {
		return nil, errors.Wrapf(ErrDatatypeMismatch, "%s: duration: %s", msg, err)
	}
	if is.CompletionStatus, err = a.ReadString(); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	hasTimeRef, err := a.ReadBoolean()
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	if hasTimeRef {
		t, err := a.ReadDateTime()
		if err != nil {
			return nil, errors.Wrap(err, msg)
		}
		is.TimeReference = &t
	}

	n, err := a.readCount8()
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	is.Variables = nil
	for i := 0; i < n; i++ {
		v, err := a.readItemVariable(sk)
		if err != nil {
			return nil, errors.Wrap(err, msg)
		}
		is.Variables = append(is.Variables, v)
	}

	if n, err = a.readCount8(); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	for i := 0; i < n; i++ {
		st, err := a.ReadShufflingState()
		if err != nil {
			return nil, errors.Wrap(err, msg)
		}
		is.ShufflingStates = append(is.ShufflingStates, st)
	}
	return is, nil
}

// declarationOf returns the declaration of v within item.
func declarationOf(item *definition.AssessmentItemRef, v *runtime.Variable) (definition.Component, error) {
	switch v.Kind {
	case runtime.ResponseVariable:
		for _, d := range item.ResponseDeclarations {
			if d.ID == v.Identifier {
				return d, nil
			}
		}
	case runtime.OutcomeVariable:
		for _, d := range item.OutcomeDeclarations {
			if d.ID == v.Identifier {
				return d, nil
			}
		}
	case runtime.TemplateVariable:
		for _, d := range item.TemplateDeclarations {
			if d.ID == v.Identifier {
				return d, nil
			}
		}
	}
	return nil, errors.Wrapf(ErrUndeclaredVariable, "%s %q in item %q", v.Kind, v.Identifier, item.ID)
}

// variableFromDeclaration builds the variable declared by d.
func variableFromDeclaration(d definition.Component) (*runtime.Variable, error) {
	switch d := d.(type) {
	case *definition.ResponseDeclaration:
		return runtime.NewResponseVariable(d), nil
	case *definition.OutcomeDeclaration:
		return runtime.NewOutcomeVariable(d), nil
	case *definition.TemplateDeclaration:
		return runtime.NewTemplateVariable(d), nil
	default:
		return nil, errors.Wrapf(ErrUndeclaredVariable, "%s is not a declaration", d.ClassName())
	}
}

// writeItemVariable writes kind, declaration position, override flags and
// values of v. Default value and correct response are only written when
// they differ from the declaration.
func (a *Access) writeItemVariable(sk *seeker.Seeker, item *definition.AssessmentItemRef, v *runtime.Variable) error {
	decl, err := declarationOf(item, v)
	if err != nil {
		return err
	}
	declared, _ := variableFromDeclaration(decl)
	overrideDefault := !datatype.Equal(v.DefaultValue, declared.DefaultValue)
	overrideCorrect := !datatype.Equal(v.CorrectResponse, declared.CorrectResponse)

	if err := a.WriteByte(uint8(v.Kind)); err != nil {
		return err
	}
	if err := a.writeComponent(sk, decl); err != nil {
		return err
	}
	if err := a.WriteBoolean(overrideDefault); err != nil {
		return err
	}
	if err := a.WriteBoolean(overrideCorrect); err != nil {
		return err
	}
	if err := a.WriteVariableValue(v, runtime.SlotValue); err != nil {
		return err
	}
	if overrideDefault {
		if err := a.WriteVariableValue(v, runtime.SlotDefaultValue); err != nil {
			return err
		}
	}
	if overrideCorrect {
		if err := a.WriteVariableValue(v, runtime.SlotCorrectResponse); err != nil {
			return err
		}
	}
	return nil
}

func (a *Access) readItemVariable(sk *seeker.Seeker) (*runtime.Variable, error) {
	kind, err := a.ReadByte()
	if err != nil {
		return nil, err
	}
	if kind > uint8(runtime.TemplateVariable) {
		return nil, errors.Wrapf(ErrInvalidTag, "variable kind %d", kind)
	}
	decl, err := a.readComponent(sk, runtime.VariableKind(kind).DeclarationClass())
	if err != nil {
		return nil, err
	}
	v, err := variableFromDeclaration(decl)
	if err != nil {
		return nil, err
	}
	overrideDefault, err := a.ReadBoolean()
	if err != nil {
		return nil, err
	}
	overrideCorrect, err := a.ReadBoolean()
	if err != nil {
		return nil, err
	}
	if err := a.ReadVariableValue(v, runtime.SlotValue); err != nil {
		return nil, err
	}
	if overrideDefault {
		if err := a.ReadVariableValue(v, runtime.SlotDefaultValue); err != nil {
			return nil, err
		}
	}
	if overrideCorrect {
		if err := a.ReadVariableValue(v, runtime.SlotCorrectResponse); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// WritePendingResponses writes the responses, then the item and occurrence
// they belong to.
func (a *Access) WritePendingResponses(sk *seeker.Seeker, p *runtime.PendingResponses) error {
	const msg = "write pending responses"

	if err := a.writeCount8(len(p.Responses), "pending response"); err != nil {
		return errors.Wrap(err, msg)
	}
	for _, v := range p.Responses {
		decl, ok := p.ItemRef.ResponseDeclaration(v.Identifier)
		if !ok {
			return errors.Wrapf(ErrUndeclaredVariable, "%s: response %q in item %q", msg, v.Identifier, p.ItemRef.ID)
		}
		if err := a.writeComponent(sk, decl); err != nil {
			return errors.Wrap(err, msg)
		}
		if err := a.WriteVariableValue(v, runtime.SlotValue); err != nil {
			return errors.Wrap(err, msg)
		}
	}
	if err := a.writeComponent(sk, p.ItemRef); err != nil {
		return errors.Wrap(err, msg)
	}
	return errors.Wrap(a.writeOccurrence(p.Occurrence), msg)
}

// ReadPendingResponses is the mirror of WritePendingResponses.
func (a *Access) ReadPendingResponses(sk *seeker.Seeker) (*runtime.PendingResponses, error) {
	const msg = "read pending responses"

	n, err := a.readCount8()
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	p := &runtime.PendingResponses{}
	for i := 0; i < n; i++ {
		c, err := a.readComponent(sk, definition.ClassResponseDeclaration)
		if err != nil {
			return nil, errors.Wrap(err, msg)
		}
		v := runtime.NewResponseVariable(c.(*definition.ResponseDeclaration))
		if err := a.ReadVariableValue(v, runtime.SlotValue); err != nil {
			return nil, errors.Wrap(err, msg)
		}
		p.Responses = append(p.Responses, v)
	}
	c, err := a.readComponent(sk, definition.ClassAssessmentItemRef)
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	p.ItemRef = c.(*definition.AssessmentItemRef)
	occurrence, err := a.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	p.Occurrence = int(occurrence)
	return p, nil
}

func (a *Access) WriteShufflingGroup(g runtime.ShufflingGroup) error {
	if err := a.writeStrings(g.Identifiers, "shuffling identifier"); err != nil {
		return err
	}
	return a.writeStrings(g.FixedIdentifiers, "fixed shuffling identifier")
}

func (a *Access) ReadShufflingGroup() (runtime.ShufflingGroup, error) {
	var g runtime.ShufflingGroup
	var err error
	if g.Identifiers, err = a.readStrings(); err != nil {
		return runtime.ShufflingGroup{}, err
	}
	if g.FixedIdentifiers, err = a.readStrings(); err != nil {
		return runtime.ShufflingGroup{}, err
	}
	return g, nil
}

func (a *Access) WriteShufflingState(st runtime.ShufflingState) error {
	if err := a.WriteString(st.ResponseIdentifier); err != nil {
		return err
	}
	if err := a.writeCount8(len(st.Groups), "shuffling group"); err != nil {
		return err
	}
	for _, g := range st.Groups {
		if err := a.WriteShufflingGroup(g); err != nil {
			return errors.Wrapf(err, "shuffling state %q", st.ResponseIdentifier)
		}
	}
	return nil
}

func (a *Access) ReadShufflingState() (runtime.ShufflingState, error) {
	var st runtime.ShufflingState
	var err error
	if st.ResponseIdentifier, err = a.ReadString(); err != nil {
		return runtime.ShufflingState{}, err
	}
	n, err := a.readCount8()
	if err != nil {
		return runtime.ShufflingState{}, err
	}
	for i := 0; i < n; i++ {
		g, err := a.ReadShufflingGroup()
		if err != nil {
			return runtime.ShufflingState{}, errors.Wrapf(err, "shuffling state %q", st.ResponseIdentifier)
		}
		st.Groups = append(st.Groups, g)
	}
	return st, nil
}
