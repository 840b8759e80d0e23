package qtibinary

import (
	"github.com/pkg/errors"

	"github.com/S0me0neR0man/qtistate/internal/binstream"
	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
)

func mismatch(format string, args ...interface{}) error {
	return errors.Wrapf(ErrDatatypeMismatch, format, args...)
}

// WriteVariableValue writes the value held in slot of v.
//
//	null:      01
//	scalar:    00 01 payload
//	container: 00 00 count:u16 (null:u8 [payload])*
//	record:    00 00 count:u16 (null:u8 key:string [tag:u8 payload])*
func (a *Access) WriteVariableValue(v *runtime.Variable, slot runtime.Slot) error {
	return errors.Wrapf(a.writeVariableValue(v, v.Get(slot)), "variable %q %s", v.Identifier, slot)
}

func (a *Access) writeVariableValue(v *runtime.Variable, value datatype.Value) error {
	if value == nil {
		return a.WriteBoolean(true)
	}
	if value.Cardinality() != v.Cardinality {
		return mismatch("%s value for a %s variable", value.Cardinality(), v.Cardinality)
	}
	if err := a.WriteBoolean(false); err != nil {
		return err
	}

	switch value := value.(type) {
	case datatype.Scalar:
		if value.BaseType() != v.BaseType {
			return mismatch("%s value for a %s variable", value.BaseType(), v.BaseType)
		}
		if err := a.WriteBoolean(true); err != nil {
			return err
		}
		return a.writeScalar(value)

	case datatype.Container:
		if value.Base != v.BaseType {
			return mismatch("%s container for a %s variable", value.Base, v.BaseType)
		}
		if err := a.WriteBoolean(false); err != nil {
			return err
		}
		if err := a.writeCount16(value.Len(), "element"); err != nil {
			return err
		}
		for i, e := range value.Elements {
			if e == nil {
				if err := a.WriteBoolean(true); err != nil {
					return err
				}
				continue
			}
			if e.BaseType() != v.BaseType {
				return mismatch("element #%d is %s, expected %s", i, e.BaseType(), v.BaseType)
			}
			if err := a.WriteBoolean(false); err != nil {
				return err
			}
			if err := a.writeScalar(e); err != nil {
				return err
			}
		}
		return nil

	case datatype.RecordValue:
		if err := a.WriteBoolean(false); err != nil {
			return err
		}
		if err := a.writeCount16(value.Len(), "record field"); err != nil {
			return err
		}
		for _, f := range value.Fields {
			if err := a.WriteBoolean(f.Value == nil); err != nil {
				return err
			}
			if err := a.WriteString(f.Key); err != nil {
				return err
			}
			if f.Value == nil {
				continue
			}
			if err := a.WriteByte(uint8(f.Value.BaseType())); err != nil {
				return err
			}
			if err := a.writeScalar(f.Value); err != nil {
				return errors.Wrapf(err, "record field %q", f.Key)
			}
		}
		return nil

	default:
		return mismatch("unsupported value %T", value)
	}
}

// ReadVariableValue reads a value into slot of v. The bytes are decoded
// against the cardinality and base type declared by v.
func (a *Access) ReadVariableValue(v *runtime.Variable, slot runtime.Slot) error {
	value, err := a.readVariableValue(v)
	if err != nil {
		return errors.Wrapf(err, "variable %q %s", v.Identifier, slot)
	}
	v.Set(slot, value)
	return nil
}

func (a *Access) readVariableValue(v *runtime.Variable) (datatype.Value, error) {
	isNull, err := a.ReadBoolean()
	if err != nil {
		return nil, err
	}
	if isNull {
		return nil, nil
	}
	isScalar, err := a.ReadBoolean()
	if err != nil {
		return nil, err
	}
	if isScalar != (v.Cardinality == datatype.Single) {
		return nil, mismatch("stream holds a %s, variable is %s", formName(isScalar), v.Cardinality)
	}

	switch v.Cardinality {
	case datatype.Single:
		return a.readScalar(v.BaseType)

	case datatype.Multiple, datatype.Ordered:
		n, err := a.readCount16()
		if err != nil {
			return nil, err
		}
		c := datatype.Container{Card: v.Cardinality, Base: v.BaseType}
		for i := 0; i < n; i++ {
			isNull, err := a.ReadBoolean()
			if err != nil {
				return nil, err
			}
			if isNull {
				c.Elements = append(c.Elements, nil)
				continue
			}
			e, err := a.readScalar(v.BaseType)
			if err != nil {
				return nil, err
			}
			c.Elements = append(c.Elements, e)
		}
		return c, nil

	case datatype.Record:
		n, err := a.readCount16()
		if err != nil {
			return nil, err
		}
		var r datatype.RecordValue
		for i := 0; i < n; i++ {
			isNull, err := a.ReadBoolean()
			if err != nil {
				return nil, err
			}
			key, err := a.ReadString()
			if err != nil {
				return nil, err
			}
			field := datatype.RecordField{Key: key}
			if !isNull {
				tag, err := a.ReadByte()
				if err != nil {
					return nil, errors.Wrapf(err, "record field %q", key)
				}
				field.Value, err = a.readScalar(datatype.BaseType(tag))
				if err != nil {
					return nil, errors.Wrapf(err, "record field %q", key)
				}
			}
			r.Fields = append(r.Fields, field)
		}
		return r, nil

	default:
		return nil, mismatch("unknown cardinality %s", v.Cardinality)
	}
}

func formName(isScalar bool) string {
	if isScalar {
		return "scalar"
	}
	return "container"
}

func (a *Access) writeScalar(s datatype.Scalar) error {
	switch s := s.(type) {
	case datatype.Identifier:
		return a.WriteString(string(s))
	case datatype.String:
		return a.WriteString(string(s))
	case datatype.URI:
		return a.WriteString(string(s))
	case datatype.Boolean:
		return a.WriteBoolean(bool(s))
	case datatype.Integer:
		return a.WriteInteger(int32(s))
	case datatype.Float:
		return a.WriteFloat(float64(s))
	case datatype.Duration:
		return a.WriteString(s.String())
	case datatype.Point:
		if err := a.WriteShort(s.X); err != nil {
			return err
		}
		return a.WriteShort(s.Y)
	case datatype.Pair:
		if err := a.WriteString(string(s.First)); err != nil {
			return err
		}
		return a.WriteString(string(s.Second))
	case datatype.DirectedPair:
		if err := a.WriteString(string(s.Source)); err != nil {
			return err
		}
		return a.WriteString(string(s.Target))
	case datatype.IntOrIdentifier:
		if err := a.WriteBoolean(!s.IsIdentifier); err != nil {
			return err
		}
		if s.IsIdentifier {
			return a.WriteString(s.Identifier)
		}
		return a.WriteInteger(s.Integer)
	case datatype.File:
		return a.writeFile(s)
	default:
		return errors.Wrapf(ErrDatatypeMismatch, "unsupported scalar %T", s)
	}
}

// writeFile writes the file identifier, storing the content first when the
// file has no identifier yet.
func (a *Access) writeFile(f datatype.File) error {
	if f.ID == "" {
		if a.files == nil {
			return ErrNoFileManager
		}
		stored, err := a.files.Store(f.Filename, f.MimeType, f.Data)
		if err != nil {
			return errors.Wrapf(err, "store file %q", f.Filename)
		}
		f = stored
	}
	return a.WriteString(f.ID)
}

func (a *Access) readScalar(base datatype.BaseType) (datatype.Scalar, error) {
	switch base {
	case datatype.TypeIdentifier:
		s, err := a.ReadString()
		return datatype.Identifier(s), err
	case datatype.TypeString:
		s, err := a.ReadString()
		return datatype.String(s), err
	case datatype.TypeURI:
		s, err := a.ReadString()
		return datatype.URI(s), err
	case datatype.TypeBoolean:
		b, err := a.ReadBoolean()
		if errors.Is(err, binstream.ErrInvalidBoolean) {
			return nil, mismatch("boolean payload: %s", err)
		}
		return datatype.Boolean(b), err
	case datatype.TypeInteger:
		i, err := a.ReadInteger()
		return datatype.Integer(i), err
	case datatype.TypeFloat:
		f, err := a.ReadFloat()
		return datatype.Float(f), err
	case datatype.TypeDuration:
		s, err := a.ReadString()
		if err != nil {
			return nil, err
		}
		d, err := datatype.ParseDuration(s)
		if err != nil {
			return nil, mismatch("duration payload: %s", err)
		}
		return d, nil
	case datatype.TypePoint:
		x, err := a.ReadShort()
		if err != nil {
			return nil, err
		}
		y, err := a.ReadShort()
		if err != nil {
			return nil, err
		}
		return datatype.Point{X: x, Y: y}, nil
	case datatype.TypePair:
		first, second, err := a.readIdentifierPair()
		if err != nil {
			return nil, err
		}
		return datatype.Pair{First: first, Second: second}, nil
	case datatype.TypeDirectedPair:
		source, target, err := a.readIdentifierPair()
		if err != nil {
			return nil, err
		}
		return datatype.DirectedPair{Source: source, Target: target}, nil
	case datatype.TypeIntOrIdentifier:
		isInt, err := a.ReadBoolean()
		if errors.Is(err, binstream.ErrInvalidBoolean) {
			return nil, mismatch("intOrIdentifier subtag: %s", err)
		}
		if err != nil {
			return nil, err
		}
		if isInt {
			i, err := a.ReadInteger()
			return datatype.IntOrIdentifierFromInt(i), err
		}
		s, err := a.ReadString()
		return datatype.IntOrIdentifierFromIdentifier(s), err
	case datatype.TypeFile:
		id, err := a.ReadString()
		if err != nil {
			return nil, err
		}
		if a.files == nil {
			return nil, ErrNoFileManager
		}
		f, err := a.files.Retrieve(id)
		if err != nil {
			return nil, errors.Wrapf(err, "retrieve file %q", id)
		}
		return f, nil
	default:
		return nil, mismatch("unknown base type %s", base)
	}
}

func (a *Access) readIdentifierPair() (datatype.Identifier, datatype.Identifier, error) {
	first, err := a.ReadString()
	if err != nil {
		return "", "", err
	}
	second, err := a.ReadString()
	if err != nil {
		return "", "", err
	}
	return datatype.Identifier(first), datatype.Identifier(second), nil
}
