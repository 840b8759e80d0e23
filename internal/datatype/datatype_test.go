package datatype

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDuration_ISO8601(t *testing.T) {
	d := Duration(90 * time.Second)
	require.Equal(t, "PT1M30S", d.String())

	back, err := ParseDuration(d.String())
	require.NoError(t, err)
	require.Equal(t, d, back)

	back, err = ParseDuration("PT2H")
	require.NoError(t, err)
	require.EqualValues(t, 2*time.Hour, back)

	_, err = ParseDuration("ninety seconds")
	require.Error(t, err)
}

func TestDuration_DayDesignators(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "PT0S"},
		{400 * 24 * time.Hour, "P400D"},
		{400*24*time.Hour + 14*time.Hour, "P400DT14H"},
		{45*24*time.Hour + 90*time.Second, "P45DT1M30S"},
		{1500 * time.Millisecond, "PT1.5S"},
		{-(26 * time.Hour), "-P1DT2H"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Duration(tt.d).String())
		back, err := ParseDuration(tt.want)
		require.NoError(t, err)
		require.Equal(t, Duration(tt.d), back)
	}
}

func TestBaseType_Parse(t *testing.T) {
	for b := TypeIdentifier; b <= TypeIntOrIdentifier; b++ {
		require.True(t, b.Valid())
		parsed, err := ParseBaseType(b.String())
		require.NoError(t, err)
		require.Equal(t, b, parsed)
	}
	require.False(t, BaseType(200).Valid())
	_, err := ParseBaseType("coords")
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(nil, nil))
	require.False(t, Equal(Integer(1), nil))
	require.True(t, Equal(Integer(1), Integer(1)))
	require.False(t, Equal(Integer(1), Float(1)))
	require.True(t, Equal(
		NewOrdered(TypeIdentifier, Identifier("A"), nil),
		NewOrdered(TypeIdentifier, Identifier("A"), nil),
	))
	require.False(t, Equal(
		NewOrdered(TypeIdentifier, Identifier("A")),
		NewMultiple(TypeIdentifier, Identifier("A")),
	))
}

func TestEqual_EmptyContainers(t *testing.T) {
	require.True(t, Equal(
		Container{Card: Multiple, Base: TypeInteger, Elements: []Scalar{}},
		Container{Card: Multiple, Base: TypeInteger},
	))
	require.False(t, Equal(
		Container{Card: Multiple, Base: TypeInteger, Elements: []Scalar{}},
		Container{Card: Multiple, Base: TypeFloat},
	))
	require.True(t, Equal(RecordValue{Fields: []RecordField{}}, RecordValue{}))
	require.False(t, Equal(RecordValue{}, Container{Card: Multiple}))
}

func TestEqual_Records(t *testing.T) {
	a := NewRecord(RecordField{Key: "a", Value: Integer(1)}, RecordField{Key: "b"})
	require.True(t, Equal(a, NewRecord(RecordField{Key: "a", Value: Integer(1)}, RecordField{Key: "b"})))
	require.False(t, Equal(a, NewRecord(RecordField{Key: "a", Value: Integer(1)}, RecordField{Key: "c"})))
	require.False(t, Equal(a, NewRecord(RecordField{Key: "a", Value: Integer(2)}, RecordField{Key: "b"})))
	require.False(t, Equal(a, NewRecord(RecordField{Key: "a", Value: Integer(1)})))
}

func TestEqual_File(t *testing.T) {
	require.True(t, Equal(File{Filename: "a.txt", Data: []byte{}}, File{Filename: "a.txt"}))
	require.False(t, Equal(File{Filename: "a.txt", Data: []byte("x")}, File{Filename: "a.txt"}))
	require.True(t, Equal(
		NewMultiple(TypeFile, File{ID: "1", Data: []byte("x")}),
		NewMultiple(TypeFile, File{ID: "1", Data: []byte("x")}),
	))
}

func TestRecordValue_Get(t *testing.T) {
	r := NewRecord(
		RecordField{Key: "a", Value: Integer(1)},
		RecordField{Key: "b"},
	)
	require.Equal(t, Record, r.Cardinality())
	require.EqualValues(t, 2, r.Len())

	v, ok := r.Get("a")
	require.True(t, ok)
	require.Equal(t, Integer(1), v)

	v, ok = r.Get("b")
	require.True(t, ok)
	require.Nil(t, v)

	_, ok = r.Get("c")
	require.False(t, ok)
}

func TestIntOrIdentifier(t *testing.T) {
	require.Equal(t, "42", IntOrIdentifierFromInt(42).String())
	require.Equal(t, "choiceA", IntOrIdentifierFromIdentifier("choiceA").String())
}
