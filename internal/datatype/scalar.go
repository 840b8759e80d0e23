package datatype

import (
	"fmt"
	"time"

	"github.com/sosodev/duration"
)

type (
	Integer    int32
	Float      float64
	Boolean    bool
	String     string
	Identifier string
	URI        string
)

func (Integer) Cardinality() Cardinality    { return Single }
func (Float) Cardinality() Cardinality      { return Single }
func (Boolean) Cardinality() Cardinality    { return Single }
func (String) Cardinality() Cardinality     { return Single }
func (Identifier) Cardinality() Cardinality { return Single }
func (URI) Cardinality() Cardinality        { return Single }

func (Integer) BaseType() BaseType    { return TypeInteger }
func (Float) BaseType() BaseType      { return TypeFloat }
func (Boolean) BaseType() BaseType    { return TypeBoolean }
func (String) BaseType() BaseType     { return TypeString }
func (Identifier) BaseType() BaseType { return TypeIdentifier }
func (URI) BaseType() BaseType        { return TypeURI }

// Duration is a QTI duration. It travels as an ISO-8601 duration string.
type Duration time.Duration

func (Duration) Cardinality() Cardinality { return Single }
func (Duration) BaseType() BaseType       { return TypeDuration }

// String returns the ISO-8601 representation, e.g. PT1M30S. Only the
// fixed-length D, H, M and S designators are used, so 400 days is P400D.
func (d Duration) String() string {
	v := time.Duration(d)
	iso := &duration.Duration{}
	if v < 0 {
		v = -v
		iso.Negative = true
	}
	const day = 24 * time.Hour
	iso.Days = float64(v / day)
	v %= day
	iso.Hours = float64(v / time.Hour)
	v %= time.Hour
	iso.Minutes = float64(v / time.Minute)
	v %= time.Minute
	iso.Seconds = v.Seconds()
	return iso.String()
}

// ParseDuration parses an ISO-8601 duration.
func ParseDuration(s string) (Duration, error) {
	d, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return Duration(d.ToTimeDuration()), nil
}

// Pair is an unordered pair of identifiers. The order is kept as given.
type Pair struct {
	First  Identifier
	Second Identifier
}

func (Pair) Cardinality() Cardinality { return Single }
func (Pair) BaseType() BaseType       { return TypePair }

// DirectedPair is an ordered (source, target) pair of identifiers.
type DirectedPair struct {
	Source Identifier
	Target Identifier
}

func (DirectedPair) Cardinality() Cardinality { return Single }
func (DirectedPair) BaseType() BaseType       { return TypeDirectedPair }

type Point struct {
	X uint16
	Y uint16
}

func (Point) Cardinality() Cardinality { return Single }
func (Point) BaseType() BaseType       { return TypePoint }

// IntOrIdentifier holds either an integer or an identifier.
type IntOrIdentifier struct {
	Integer      int32
	Identifier   string
	IsIdentifier bool
}

func IntOrIdentifierFromInt(v int32) IntOrIdentifier {
	return IntOrIdentifier{Integer: v}
}

func IntOrIdentifierFromIdentifier(v string) IntOrIdentifier {
	return IntOrIdentifier{Identifier: v, IsIdentifier: true}
}

func (IntOrIdentifier) Cardinality() Cardinality { return Single }
func (IntOrIdentifier) BaseType() BaseType       { return TypeIntOrIdentifier }

func (v IntOrIdentifier) String() string {
	if v.IsIdentifier {
		return v.Identifier
	}
	return fmt.Sprintf("%d", v.Integer)
}

// File is a candidate-submitted file. Only ID travels in session streams,
// the content lives behind a file manager.
type File struct {
	ID       string
	Filename string
	MimeType string
	Data     []byte
}

func (File) Cardinality() Cardinality { return Single }
func (File) BaseType() BaseType       { return TypeFile }
