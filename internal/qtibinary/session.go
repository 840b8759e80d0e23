package qtibinary

import (
	"github.com/pkg/errors"

	"github.com/S0me0neR0man/qtistate/internal/binstream"
	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/definition"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
	"github.com/S0me0neR0man/qtistate/internal/seeker"
	"github.com/S0me0neR0man/qtistate/internal/stream"
)

type options struct {
	version Version
	files   runtime.FileManager
	factory runtime.SessionFactory
}

type Option func(*options)

// WithVersion selects the version Persist writes. Retrieve ignores it.
func WithVersion(v Version) Option {
	return func(o *options) {
		o.version = v
	}
}

// WithFileManager sets the file manager File values are stored in and
// resolved from.
func WithFileManager(files runtime.FileManager) Option {
	return func(o *options) {
		o.files = files
	}
}

// WithFactory sets the factory Retrieve builds sessions with.
func WithFactory(f runtime.SessionFactory) Option {
	return func(o *options) {
		o.factory = f
	}
}

func newOptions(opts []Option) options {
	o := options{
		version: Current(),
		factory: runtime.DefaultFactory{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Persist writes session to s, which must be open. sk must be built over
// the session's test definition.
//
// Writes are incremental: a failed Persist leaves a partial stream behind.
func Persist(s stream.Stream, sk *seeker.Seeker, session *runtime.TestSession, opts ...Option) error {
	o := newOptions(opts)
	if err := o.version.Persist(binstream.NewAccess(s)); err != nil {
		return errors.Wrap(err, "persist")
	}
	a := NewAccess(s, o.version, o.files)
	return errors.Wrap(a.writeTestSession(sk, session), "persist")
}

// Retrieve reads a session from s, which must be open and positioned at a
// version marker.
func Retrieve(s stream.Stream, sk *seeker.Seeker, opts ...Option) (*runtime.TestSession, error) {
	o := newOptions(opts)
	version, err := RetrieveVersion(binstream.NewAccess(s))
	if err != nil {
		return nil, errors.Wrap(err, "retrieve")
	}
	a := NewAccess(s, version, o.files)
	session, err := a.readTestSession(sk, o.factory)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieve (version %s)", version)
	}
	return session, nil
}

// checkOrphans fails when an item session or pending responses belong to an
// item occurrence the route does not hold: they would not be written.
func checkOrphans(session *runtime.TestSession) error {
	for key := range session.ItemSessions {
		if session.Route.IndexOf(key.Item, key.Occurrence) < 0 {
			return errors.Wrapf(ErrOrphanItemSession, "item session %s.%d", itemID(key.Item), key.Occurrence)
		}
	}
	for _, p := range session.PendingResponses {
		if session.Route.IndexOf(p.ItemRef, p.Occurrence) < 0 {
			return errors.Wrapf(ErrOrphanItemSession, "pending responses %s.%d", itemID(p.ItemRef), p.Occurrence)
		}
	}
	return nil
}

func itemID(item *definition.AssessmentItemRef) string {
	if item == nil {
		return "<nil>"
	}
	return item.ID
}

func (a *Access) writeTestSession(sk *seeker.Seeker, session *runtime.TestSession) error {
	if err := checkOrphans(session); err != nil {
		return err
	}
	if err := a.WriteByte(uint8(session.State)); err != nil {
		return errors.Wrap(err, "test session state")
	}

	route := session.Route
	if err := a.writeRoutePosition(route.Position(), "route position"); err != nil {
		return err
	}
	if err := a.writeRoutePosition(route.Len(), "route count"); err != nil {
		return err
	}
	for _, ri := range route.Items() {
		if err := a.WriteRouteItem(sk, ri); err != nil {
			return err
		}

		is, ok := session.ItemSession(ri.ItemRef, ri.Occurrence)
		if err := a.WriteBoolean(ok); err != nil {
			return err
		}
		if ok {
			if err := a.WriteItemSession(sk, is); err != nil {
				return errors.Wrapf(err, "route item %s", ri)
			}
		}

		p, ok := session.PendingResponsesFor(ri.ItemRef, ri.Occurrence)
		if err := a.WriteBoolean(ok); err != nil {
			return err
		}
		if ok {
			if err := a.WritePendingResponses(sk, p); err != nil {
				return errors.Wrapf(err, "route item %s", ri)
			}
		}
	}

	if err := a.writeCount16(len(session.Outcomes), "outcome"); err != nil {
		return err
	}
	for _, v := range session.Outcomes {
		decl := testOutcomeDeclaration(session.Test, v.Identifier)
		if decl == nil {
			return errors.Wrapf(ErrUndeclaredVariable, "test outcome %q", v.Identifier)
		}
		if err := a.writeComponent(sk, decl); err != nil {
			return errors.Wrapf(err, "test outcome %q", v.Identifier)
		}
		if err := a.WriteVariableValue(v, runtime.SlotValue); err != nil {
			return err
		}
	}

	if a.version.StoresDurations() {
		if err := a.writeCount16(len(session.Durations), "duration"); err != nil {
			return err
		}
		for _, d := range session.Durations {
			if err := a.WriteString(d.Identifier); err != nil {
				return errors.Wrap(err, "duration key")
			}
			if err := a.WriteString(d.Value.String()); err != nil {
				return errors.Wrapf(err, "duration %q", d.Identifier)
			}
		}
	}

	if a.version.StoresLastAction() {
		if err := a.WriteBoolean(session.LastAction != nil); err != nil {
			return errors.Wrap(err, "last action")
		}
		if session.LastAction != nil {
			if err := a.WriteDateTime(*session.LastAction); err != nil {
				return errors.Wrap(err, "last action")
			}
		}
	}

	if a.version.StoresAlwaysAllowJumps() {
		if err := a.WriteBoolean(session.AlwaysAllowJumps); err != nil {
			return errors.Wrap(err, "always allow jumps")
		}
	}

	if a.version.StoresPath() {
		if err := a.writeRoutePosition(len(session.Path), "path length"); err != nil {
			return err
		}
		for _, position := range session.Path {
			if err := a.writeRoutePosition(position, "path entry"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Access) readTestSession(sk *seeker.Seeker, factory runtime.SessionFactory) (*runtime.TestSession, error) {
	test, ok := sk.Root().(*definition.AssessmentTest)
	if !ok {
		return nil, errors.Wrapf(seeker.ErrUnknownComponent, "seeker root is a %s", sk.Root().ClassName())
	}

	stateTag, err := a.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "test session state")
	}
	state := runtime.TestSessionState(stateTag)
	if !state.Valid() {
		return nil, errors.Wrapf(ErrInvalidTag, "test session state %d", stateTag)
	}

	position, err := a.readRoutePosition()
	if err != nil {
		return nil, errors.Wrap(err, "route position")
	}
	count, err := a.readRoutePosition()
	if err != nil {
		return nil, errors.Wrap(err, "route count")
	}

	route := runtime.NewRoute()
	var itemSessions []*runtime.ItemSession
	var pending []*runtime.PendingResponses
	for i := 0; i < count; i++ {
		ri, err := a.ReadRouteItem(sk)
		if err != nil {
			return nil, err
		}
		route.Append(ri)

		hasSession, err := a.ReadBoolean()
		if err != nil {
			return nil, errors.Wrapf(err, "route item %s", ri)
		}
		if hasSession {
			is, err := a.ReadItemSession(sk, factory)
			if err != nil {
				return nil, errors.Wrapf(err, "route item %s", ri)
			}
			is.Occurrence = ri.Occurrence
			itemSessions = append(itemSessions, is)
		}

		hasPending, err := a.ReadBoolean()
		if err != nil {
			return nil, errors.Wrapf(err, "route item %s", ri)
		}
		if hasPending {
			p, err := a.ReadPendingResponses(sk)
			if err != nil {
				return nil, errors.Wrapf(err, "route item %s", ri)
			}
			pending = append(pending, p)
		}
	}
	if err := route.SetPosition(position); err != nil {
		return nil, err
	}

	session := factory.NewTestSession(test, route)
	session.State = state
	for _, is := range itemSessions {
		session.SetItemSession(is)
	}
	session.PendingResponses = pending

	n, err := a.readCount16()
	if err != nil {
		return nil, errors.Wrap(err, "outcome count")
	}
	session.Outcomes = nil
	for i := 0; i < n; i++ {
		c, err := a.readComponent(sk, definition.ClassOutcomeDeclaration)
		if err != nil {
			return nil, errors.Wrap(err, "test outcome")
		}
		v := runtime.NewOutcomeVariable(c.(*definition.OutcomeDeclaration))
		if err := a.ReadVariableValue(v, runtime.SlotValue); err != nil {
			return nil, err
		}
		session.Outcomes = append(session.Outcomes, v)
	}

	if a.version.StoresDurations() {
		n, err := a.readCount16()
		if err != nil {
			return nil, errors.Wrap(err, "duration count")
		}
		for i := 0; i < n; i++ {
			key, err := a.ReadString()
			if err != nil {
				return nil, errors.Wrap(err, "duration key")
			}
			raw, err := a.ReadString()
			if err != nil {
				return nil, errors.Wrapf(err, "duration %q", key)
			}
			d, err := datatype.ParseDuration(raw)
			if err != nil {
				return nil, errors.Wrapf(ErrDatatypeMismatch, "duration %q: %s", key, err)
			}
			session.SetDuration(key, d)
		}
	}

	if a.version.StoresLastAction() {
		has, err := a.ReadBoolean()
		if err != nil {
			return nil, errors.Wrap(err, "last action")
		}
		if has {
			t, err := a.ReadDateTime()
			if err != nil {
				return nil, errors.Wrap(err, "last action")
			}
			session.LastAction = &t
		}
	}

	if a.version.StoresAlwaysAllowJumps() {
		if session.AlwaysAllowJumps, err = a.ReadBoolean(); err != nil {
			return nil, errors.Wrap(err, "always allow jumps")
		}
	}

	if a.version.StoresPath() {
		n, err := a.readRoutePosition()
		if err != nil {
			return nil, errors.Wrap(err, "path length")
		}
		for i := 0; i < n; i++ {
			p, err := a.readRoutePosition()
			if err != nil {
				return nil, errors.Wrap(err, "path entry")
			}
			session.Path = append(session.Path, p)
		}
	}
	return session, nil
}

func testOutcomeDeclaration(test *definition.AssessmentTest, identifier string) *definition.OutcomeDeclaration {
	for _, d := range test.OutcomeDeclarations {
		if d.ID == identifier {
			return d
		}
	}
	return nil
}
