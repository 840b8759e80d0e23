package fixture

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/definition"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
)

var completions = []string{
	runtime.CompletionNotAttempted,
	runtime.CompletionUnknown,
	runtime.CompletionIncomplete,
	runtime.CompletionCompleted,
}

// RandomSession fills a session over test with random state. Values are
// chosen to survive a persist/retrieve round trip unchanged: durations and
// timestamps have whole seconds, File values are stored in files first and
// stay NULL when files is nil.
func RandomSession(rng *rand.Rand, test *definition.AssessmentTest, files runtime.FileManager) (*runtime.TestSession, error) {
	session := runtime.NewSession(runtime.DefaultFactory{}, test)
	session.State = runtime.TestSessionState(rng.Intn(int(runtime.TestClosed) + 1))

	n := session.Route.Len()
	for i, steps := 0, rng.Intn(n+1); i < steps; i++ {
		if err := session.Visit(rng.Intn(n + 1)); err != nil {
			return nil, err
		}
	}

	for _, ri := range session.Route.Items() {
		is, ok := session.ItemSession(ri.ItemRef, ri.Occurrence)
		if !ok {
			continue
		}
		is.State = runtime.ItemSessionState(rng.Intn(int(runtime.ItemReview) + 1))
		is.Attempting = rng.Intn(2) == 1
		is.NumAttempts = rng.Intn(4)
		is.Duration = datatype.Duration(time.Duration(rng.Intn(3600)) * time.Second)
		is.CompletionStatus = completions[rng.Intn(len(completions))]
		if rng.Intn(2) == 1 {
			ref := randomTime(rng)
			is.TimeReference = &ref
		}
		for _, v := range is.Variables {
			if rng.Intn(4) == 0 {
				continue
			}
			value, err := randomValue(rng, v.Cardinality, v.BaseType, files)
			if err != nil {
				return nil, err
			}
			v.Value = value
		}
		if rng.Intn(3) == 0 {
			var ids []string
			for _, p := range rng.Perm(4) {
				ids = append(ids, fmt.Sprintf("Choice%c", 'A'+p))
			}
			is.ShufflingStates = []runtime.ShufflingState{{
				ResponseIdentifier: "RESPONSE",
				Groups:             []runtime.ShufflingGroup{{Identifiers: ids}},
			}}
		}
	}

	for _, o := range session.Outcomes {
		value, err := randomValue(rng, o.Cardinality, o.BaseType, files)
		if err != nil {
			return nil, err
		}
		o.Value = value
	}

	session.SetDuration(test.ID, datatype.Duration(time.Duration(rng.Intn(7200))*time.Second))
	for _, part := range test.TestParts {
		session.SetDuration(part.ID, datatype.Duration(time.Duration(rng.Intn(3600))*time.Second))
	}
	if rng.Intn(2) == 1 {
		last := randomTime(rng)
		session.LastAction = &last
	}
	session.AlwaysAllowJumps = rng.Intn(2) == 1
	return session, nil
}

func randomTime(rng *rand.Rand) time.Time {
	return time.Unix(1700000000+rng.Int63n(100000000), 0).UTC()
}

func randomValue(rng *rand.Rand, card datatype.Cardinality, base datatype.BaseType, files runtime.FileManager) (datatype.Value, error) {
	switch card {
	case datatype.Single:
		s, err := randomScalar(rng, base, files)
		if err != nil || s == nil {
			return nil, err
		}
		return s, nil
	case datatype.Multiple, datatype.Ordered:
		var elements []datatype.Scalar
		for i, n := 0, rng.Intn(4); i < n; i++ {
			s, err := randomScalar(rng, base, files)
			if err != nil {
				return nil, err
			}
			elements = append(elements, s)
		}
		if card == datatype.Multiple {
			return datatype.NewMultiple(base, elements...), nil
		}
		return datatype.NewOrdered(base, elements...), nil
	case datatype.Record:
		var fields []datatype.RecordField
		for i, n := 0, rng.Intn(4); i < n; i++ {
			// every base type but file
			fieldBase := datatype.BaseType(rng.Intn(int(datatype.TypeIntOrIdentifier) + 1))
			if fieldBase == datatype.TypeFile {
				fieldBase = datatype.TypeString
			}
			var value datatype.Scalar
			if rng.Intn(5) != 0 {
				s, err := randomScalar(rng, fieldBase, nil)
				if err != nil {
					return nil, err
				}
				value = s
			}
			fields = append(fields, datatype.RecordField{Key: fmt.Sprintf("field%d", i), Value: value})
		}
		return datatype.NewRecord(fields...), nil
	default:
		return nil, errors.Errorf("cardinality %s", card)
	}
}

func randomIdentifier(rng *rand.Rand) string {
	return fmt.Sprintf("Choice%c", 'A'+rng.Intn(26))
}

func randomScalar(rng *rand.Rand, base datatype.BaseType, files runtime.FileManager) (datatype.Scalar, error) {
	switch base {
	case datatype.TypeIdentifier:
		return datatype.Identifier(randomIdentifier(rng)), nil
	case datatype.TypeBoolean:
		return datatype.Boolean(rng.Intn(2) == 1), nil
	case datatype.TypeInteger:
		return datatype.Integer(rng.Int31() - rng.Int31()), nil
	case datatype.TypeFloat:
		return datatype.Float(rng.NormFloat64() * 100), nil
	case datatype.TypeString:
		return datatype.String(fmt.Sprintf("answer %d", rng.Intn(1000))), nil
	case datatype.TypePoint:
		return datatype.Point{X: uint16(rng.Intn(1 << 16)), Y: uint16(rng.Intn(1 << 16))}, nil
	case datatype.TypePair:
		return datatype.Pair{First: datatype.Identifier(randomIdentifier(rng)), Second: datatype.Identifier(randomIdentifier(rng))}, nil
	case datatype.TypeDirectedPair:
		return datatype.DirectedPair{Source: datatype.Identifier(randomIdentifier(rng)), Target: datatype.Identifier(randomIdentifier(rng))}, nil
	case datatype.TypeDuration:
		return datatype.Duration(time.Duration(rng.Intn(86400)) * time.Second), nil
	case datatype.TypeFile:
		if files == nil {
			return nil, nil
		}
		data := make([]byte, 16+rng.Intn(64))
		_, _ = rng.Read(data)
		f, err := files.Store(fmt.Sprintf("upload-%d.bin", rng.Intn(1000)), "application/octet-stream", data)
		if err != nil {
			return nil, err
		}
		return f, nil
	case datatype.TypeURI:
		return datatype.URI(fmt.Sprintf("https://example.org/r/%d", rng.Intn(1000))), nil
	case datatype.TypeIntOrIdentifier:
		if rng.Intn(2) == 1 {
			return datatype.IntOrIdentifierFromIdentifier(randomIdentifier(rng)), nil
		}
		return datatype.IntOrIdentifierFromInt(rng.Int31n(1000)), nil
	default:
		return nil, errors.Errorf("base type %s", base)
	}
}
