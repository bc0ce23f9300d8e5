// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
//
// Package codec/binary is a compact wire codec. Every value starts with a tag
// byte; lengths and numbers follow in big-endian order. Unlike the JSON codec
// it round-trips unions and errors, both carry their own tags on the wire.
package binary

import (
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/codec"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"math"
	"sort"
)

type Type byte

const (
	TypeNull   Type = 0
	TypeBool   Type = 1
	TypeInt64  Type = 2
	TypeFloat  Type = 3
	TypeString Type = 4
	TypeList   Type = 5
	TypeStruct Type = 6
	TypeUnion  Type = 7
	TypeError  Type = 8
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt64:
		return "int64"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeStruct:
		return "struct"
	case TypeUnion:
		return "union"
	case TypeError:
		return "error"
	}
	return "unknown"
}

func init() {
	codec.Register("binary", func() codec.Interface { return BinaryCodec{} })
}

type BinaryCodec struct{}

func (dec BinaryCodec) Decode(data []byte) (val.Value, err.Error) {
	v, e := Decode(data)
	if e != nil {
		return nil, e
	}
	return v, nil
}

func (dec BinaryCodec) Encode(v val.Value) []byte {
	return Encode(v)
}

func Encode(value val.Value) []byte {
	return encode(value, make([]byte, 0, 1024))
}

func encode(value val.Value, buf []byte) []byte {

	if value == nil {
		panic("binary/codec.Encode: value == nil")
	}

	if value == val.Null {
		return append(buf, byte(TypeNull))
	}

	switch v := value.(type) {

	case val.Bool:
		buf = append(buf, byte(TypeBool))
		if v {
			return append(buf, 't')
		}
		return append(buf, 'f')

	case val.Int64:
		buf = append(buf, byte(TypeInt64))
		return writeUint64(uint64(v), buf)

	case val.Float:
		buf = append(buf, byte(TypeFloat))
		return writeUint64(math.Float64bits(float64(v)), buf)

	case val.String:
		buf = append(buf, byte(TypeString))
		return writeString(string(v), buf)

	case val.List:
		buf = append(buf, byte(TypeList))
		buf = writeLength(len(v), buf)
		for _, w := range v {
			buf = encode(w, buf)
		}
		return buf

	case val.Struct:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys) // deterministic output
		buf = append(buf, byte(TypeStruct))
		buf = writeLength(len(v), buf)
		for _, k := range keys {
			buf = writeString(k, buf)
			buf = encode(v[k], buf)
		}
		return buf

	case val.Union:
		buf = append(buf, byte(TypeUnion))
		buf = writeString(v.Case, buf)
		return encode(v.Value, buf)

	case val.Error:
		buf = append(buf, byte(TypeError))
		buf = writeString(v.Name, buf)
		return encode(v.Payload, buf)

	}
	panic(fmt.Sprintf(`binary/codec.Encode: unhandled value type: %T`, value))
}

func Decode(data []byte) (val.Value, err.OffsetError) {
	v, rest, e := decode(data)
	if e != nil {
		ipe := e.(err.InputParsingError)
		return nil, err.CodecError{"binary", len(data) - len(ipe.Input), ipe}
	}
	if len(rest) > 0 {
		return nil, err.CodecError{"binary", len(data) - len(rest), err.InputParsingError{
			Problem: `unexpected input after value`,
			Input:   rest,
		}}
	}
	return v, nil
}

// postcondition: returns intact input on error
func decode(data []byte) (val.Value, []byte, err.Error) {

	if len(data) == 0 {
		return nil, data, err.InputParsingError{`unexpected end of input`, data}
	}

	switch t := Type(data[0]); t {

	case TypeNull:
		return val.Null, data[1:], nil

	case TypeBool:
		bs, rest, e := readBytes(2, data)
		if e != nil {
			return nil, data, e
		}
		if bs[1] == 't' {
			return val.Bool(true), rest, nil
		}
		if bs[1] == 'f' {
			return val.Bool(false), rest, nil
		}
		return nil, data, err.InputParsingError{fmt.Sprintf(`invalid bool byte: %d`, bs[1]), data}

	case TypeInt64:
		n, rest, e := readUint64(data[1:])
		if e != nil {
			return nil, data, e
		}
		return val.Int64(int64(n)), rest, nil

	case TypeFloat:
		n, rest, e := readUint64(data[1:])
		if e != nil {
			return nil, data, e
		}
		return val.Float(math.Float64frombits(n)), rest, nil

	case TypeString:
		s, rest, e := readString(data[1:])
		if e != nil {
			return nil, data, e
		}
		return val.String(s), rest, nil

	case TypeList:
		l, rest, e := readLength(data[1:])
		if e != nil {
			return nil, data, e
		}
		v := make(val.List, l, l)
		for i := 0; i < l; i++ {
			w, r, e := decode(rest)
			if e != nil {
				return nil, data, e
			}
			v[i], rest = w, r
		}
		return v, rest, nil

	case TypeStruct:
		l, rest, e := readLength(data[1:])
		if e != nil {
			return nil, data, e
		}
		v := make(val.Struct, l)
		for i := 0; i < l; i++ {
			k, r, e := readString(rest)
			if e != nil {
				return nil, data, e
			}
			w, r, e := decode(r)
			if e != nil {
				return nil, data, e
			}
			v[k], rest = w, r
		}
		return v, rest, nil

	case TypeUnion:
		caze, rest, e := readString(data[1:])
		if e != nil {
			return nil, data, e
		}
		value, rest, e := decode(rest)
		if e != nil {
			return nil, data, e
		}
		return val.Union{caze, value}, rest, nil

	case TypeError:
		name, rest, e := readString(data[1:])
		if e != nil {
			return nil, data, e
		}
		payload, rest, e := decode(rest)
		if e != nil {
			return nil, data, e
		}
		return val.Error{name, payload}, rest, nil

	default:
		return nil, data, err.InputParsingError{fmt.Sprintf(`invalid type tag: %d`, data[0]), data}
	}
}

func readBytes(n int, data []byte) ([]byte, []byte, err.Error) {
	if len(data) < n {
		return nil, data, err.InputParsingError{`unexpected end of input`, data}
	}
	return data[:n], data[n:], nil
}

func readString(data []byte) (string, []byte, err.Error) {
	l, rest, e := readLength(data)
	if e != nil {
		return "", data, e
	}
	return string(rest[:l]), rest[l:], nil
}

func readLength(data []byte) (int, []byte, err.Error) {
	n, rest, e := readUint32(data)
	if e != nil {
		return 0, data, e
	}
	l := int(n)
	if l > len(rest) {
		return 0, data, err.InputParsingError{fmt.Sprintf(`length exceeds remaining input: %d`, l), data}
	}
	return l, rest, nil
}

func writeString(s string, buf []byte) []byte {
	return append(writeLength(len(s), buf), s...)
}

func writeLength(l int, buf []byte) []byte {
	return writeUint32(uint32(l), buf)
}

func writeUint64(u uint64, buf []byte) []byte {
	return append(buf,
		byte(u>>56), byte(u>>48), byte(u>>40), byte(u>>32),
		byte(u>>24), byte(u>>16), byte(u>>8), byte(u),
	)
}

func writeUint32(u uint32, buf []byte) []byte {
	return append(buf, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

func readUint64(data []byte) (uint64, []byte, err.Error) {
	bs, rest, e := readBytes(8, data)
	if e != nil {
		return 0, data, e
	}
	u := uint64(bs[0])<<56 | uint64(bs[1])<<48 | uint64(bs[2])<<40 | uint64(bs[3])<<32 |
		uint64(bs[4])<<24 | uint64(bs[5])<<16 | uint64(bs[6])<<8 | uint64(bs[7])
	return u, rest, nil
}

func readUint32(data []byte) (uint32, []byte, err.Error) {
	bs, rest, e := readBytes(4, data)
	if e != nil {
		return 0, data, e
	}
	u := uint32(bs[0])<<24 | uint32(bs[1])<<16 | uint32(bs[2])<<8 | uint32(bs[3])
	return u, rest, nil
}
