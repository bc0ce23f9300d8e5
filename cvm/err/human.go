// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package err

import (
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"sort"
	"strings"
)

type HumanReadableError struct {
	Error_ Error
}

func (e HumanReadableError) Value() val.Union {
	return val.Union{"humanReadableError", val.Struct{
		"human":   val.String(e.Error_.String()),
		"machine": e.Error_.Value(),
	}}
}
func (e HumanReadableError) Error() string {
	return e.String()
}
func (e HumanReadableError) String() string {
	out := "Human Readable Error\n"
	out += "====================\n"
	out += e.Error_.String() + "\n"
	return out
}
func (e HumanReadableError) Child() Error {
	return nil
}

// ValueToHuman renders a runtime value in the notation of the surface
// language, for error messages and log lines.
func ValueToHuman(v val.Value) string {
	if v == nil {
		return "(unknown)"
	}
	if v == val.Null {
		return `null`
	}
	switch v := v.(type) {
	case val.Error:
		if v.Payload == val.Null {
			return string(v.Name)
		}
		return fmt.Sprintf(`%s(%s)`, v.Name, ValueToHuman(v.Payload))
	case val.Union:
		return fmt.Sprintf(`%s(%s)`, v.Case, ValueToHuman(v.Value))
	case val.List:
		as := make([]string, 0, len(v))
		for _, w := range v {
			as = append(as, ValueToHuman(w))
		}
		return "[" + strings.Join(as, ", ") + "]"
	case val.Struct:
		ks := make([]string, 0, len(v))
		for k := range v {
			ks = append(ks, k)
		}
		sort.Strings(ks)
		as := make([]string, 0, len(ks))
		for _, k := range ks {
			as = append(as, k+": "+ValueToHuman(v[k]))
		}
		return "{" + strings.Join(as, ", ") + "}"
	case val.String:
		return fmt.Sprintf(`%q`, string(v))
	case val.Int64:
		return fmt.Sprintf(`%d`, v)
	case val.Float:
		return fmt.Sprintf(`%f`, v)
	case val.Bool:
		if v {
			return `true`
		}
		return `false`
	}
	panic(fmt.Sprintf(`unhandled value type: %T`, v))
}
