package datatype

// Container is a Multiple or Ordered value. Elements share BaseType and
// may individually be nil.
type Container struct {
	Card     Cardinality
	Base     BaseType
	Elements []Scalar
}

func NewMultiple(base BaseType, elements ...Scalar) Container {
	return Container{Card: Multiple, Base: base, Elements: elements}
}

func NewOrdered(base BaseType, elements ...Scalar) Container {
	return Container{Card: Ordered, Base: base, Elements: elements}
}

func (c Container) Cardinality() Cardinality { return c.Card }

func (c Container) Len() int {
	return len(c.Elements)
}

// RecordField is one key of a RecordValue. A nil Value is a NULL field.
type RecordField struct {
	Key   string
	Value Scalar
}

// RecordValue is a record: ordered keys mapping to independently typed scalars.
type RecordValue struct {
	Fields []RecordField
}

func NewRecord(fields ...RecordField) RecordValue {
	return RecordValue{Fields: fields}
}

func (RecordValue) Cardinality() Cardinality { return Record }

func (r RecordValue) Len() int {
	return len(r.Fields)
}

// Get returns the value of key and whether key is present.
func (r RecordValue) Get(key string) (Scalar, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}
