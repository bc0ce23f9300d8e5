// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"fmt"
	"strings"
)

type Type uint64

const (
	TypeError Type = 1 << iota
	TypeUnion
	TypeList
	TypeStruct
	TypeString
	TypeInt64
	TypeFloat
	TypeBool
	TypeNull
	lastType // internal marker
)

const AnyType = TypeError |
	TypeUnion |
	TypeList |
	TypeStruct |
	TypeString |
	TypeInt64 |
	TypeFloat |
	TypeBool |
	TypeNull

func (t Type) String() string {
	if t == 0 {
		return "unknown"
	}
	buf := make([]string, 0, 9)
	for i := Type(1); i < lastType; i <<= 1 {
		if t&i != 0 {
			buf = append(buf, typeToString(i))
		}
	}
	return strings.Join(buf, "|")
}

func typeToString(t Type) string {
	switch t {
	case TypeError:
		return "error"
	case TypeUnion:
		return "union"
	case TypeList:
		return "list"
	case TypeStruct:
		return "struct"
	case TypeString:
		return "string"
	case TypeInt64:
		return "int64"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeNull:
		return "null"
	}
	panic(fmt.Sprintf(`unhandled type: %d`, t))
}

func (v Error) Type() Type {
	return TypeError
}

func (v Union) Type() Type {
	return TypeUnion
}

func (v List) Type() Type {
	return TypeList
}

func (v Struct) Type() Type {
	return TypeStruct
}

func (v String) Type() Type {
	return TypeString
}

func (v Int64) Type() Type {
	return TypeInt64
}

func (v Float) Type() Type {
	return TypeFloat
}

func (v Bool) Type() Type {
	return TypeBool
}

func (v null) Type() Type {
	return TypeNull
}
