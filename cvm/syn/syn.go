// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
//
// Package syn parses catch programs from their textual form into cvm/ast trees.
// The parser consumes its input byte by byte and reports failures as
// err.SyntaxError values carrying the byte offset of the failure.
package syn

import (
	"bytes"
	ej "encoding/json"
	"fmt"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/ast"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/err"
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm/val"
	"strconv"
)

type Source []byte

var keywords = map[string]bool{
	"try":     true,
	"catch":   true,
	"finally": true,
	"throw":   true,
	"return":  true,
	"true":    true,
	"false":   true,
	"null":    true,
}

// Parse parses a complete program: a sequence of try, throw and return
// statements. An empty program is legal. Parse fails if anything but
// whitespace or comments follows the last statement.
func Parse(source []byte) (ast.Block, err.Error) {
	input := Source(source)
	block, rest, e := parseStmts(input)
	if e != nil {
		return nil, offsetted(e, input)
	}
	rest = skipWhiteSpace(rest)
	if len(rest) > 0 {
		return nil, offsetted(err.SyntaxError{
			Problem: `expected "try", "throw" or "return"`,
			Input:   rest,
		}, input)
	}
	return block, nil
}

// offsetted rewrites the Offset of a SyntaxError produced while consuming a
// suffix of input. Parse functions advance by reslicing only, so the length
// difference between input and the error's remainder is the failure offset.
func offsetted(e err.Error, input Source) err.Error {
	if se, ok := e.(err.SyntaxError); ok {
		se.Offset = len(input) - len(se.Input)
		return se
	}
	return e
}

func parseStmts(src Source) (ast.Block, Source, err.Error) {
	block := make(ast.Block, 0, 8)
	for {
		src = skipWhiteSpace(src)
		if len(src) == 0 || src[0] == '}' {
			return block, src, nil
		}
		node, rest, e := parseStmt(src)
		if e != nil {
			return nil, rest, e
		}
		block, src = append(block, node), rest
	}
}

func parseStmt(src Source) (ast.Node, Source, err.Error) {
	name, rest, e := readIdent(src)
	if e != nil {
		return nil, src, err.SyntaxError{
			Problem: `expected "try", "throw" or "return"`,
			Input:   src,
		}
	}
	switch name {
	case "try":
		return parseTry(rest)
	case "throw":
		return parseThrow(rest)
	case "return":
		return parseReturn(rest)
	}
	return nil, src, err.SyntaxError{
		Problem: fmt.Sprintf(`expected "try", "throw" or "return", found "%s"`, name),
		Input:   src,
	}
}

// parseTry continues after the "try" keyword.
func parseTry(src Source) (ast.Node, Source, err.Error) {
	body, src, e := parseBlock(skipWhiteSpace(src))
	if e != nil {
		return nil, src, e
	}
	try := ast.Try{Body: body}
	for {
		name, rest, e := readIdent(skipWhiteSpace(src))
		if e != nil || name != "catch" {
			break
		}
		clause, temp, e := parseClause(rest)
		if e != nil {
			return nil, temp, e
		}
		try.Clauses, src = append(try.Clauses, clause), temp
	}
	if name, rest, e := readIdent(skipWhiteSpace(src)); e == nil && name == "finally" {
		fin, temp, e := parseBlock(skipWhiteSpace(rest))
		if e != nil {
			return nil, temp, e
		}
		try.Finally, src = fin, temp
	}
	if len(try.Clauses) == 0 && try.Finally == nil {
		return nil, src, err.SyntaxError{
			Problem: `try statement requires at least one "catch" or "finally" clause`,
			Input:   src,
		}
	}
	return try, src, nil
}

// parseClause continues after the "catch" keyword. An absent type list means
// the clause catches everything.
func parseClause(src Source) (ast.Clause, Source, err.Error) {
	clause := ast.Clause{}
	src = skipWhiteSpace(src)
	if len(src) > 0 && src[0] != '(' {
		for {
			name, rest, e := readName(skipWhiteSpace(src))
			if e != nil {
				return clause, src, e
			}
			clause.Types, src = append(clause.Types, name), rest
			if rest, e := readLiteral(`,`, skipWhiteSpace(src)); e == nil {
				src = rest
				continue
			}
			break
		}
	}
	src, e := readLiteral(`(`, skipWhiteSpace(src))
	if e != nil {
		return clause, src, e
	}
	binding, src, e := readName(skipWhiteSpace(src))
	if e != nil {
		return clause, src, e
	}
	clause.Binding = binding
	src, e = readLiteral(`)`, skipWhiteSpace(src))
	if e != nil {
		return clause, src, e
	}
	body, src, e := parseBlock(skipWhiteSpace(src))
	if e != nil {
		return clause, src, e
	}
	clause.Body = body
	return clause, src, nil
}

// parseThrow continues after the "throw" keyword. Whether the named identifier
// rethrows a bound variable or constructs a fresh error is decided during
// compilation, not here.
func parseThrow(src Source) (ast.Node, Source, err.Error) {
	name, src, e := readName(skipWhiteSpace(src))
	if e != nil {
		return nil, src, e
	}
	throw := ast.Throw{Name: name}
	src = skipWhiteSpace(src)
	if temp, e := readLiteral(`(`, src); e == nil {
		lit, temp, e := parseLiteral(skipWhiteSpace(temp))
		if e != nil {
			return nil, temp, e
		}
		temp, e = readLiteral(`)`, skipWhiteSpace(temp))
		if e != nil {
			return nil, temp, e
		}
		throw.Payload, src = lit, temp
	}
	src, e = readLiteral(`;`, skipWhiteSpace(src))
	if e != nil {
		return nil, src, e
	}
	return throw, src, nil
}

// parseReturn continues after the "return" keyword.
func parseReturn(src Source) (ast.Node, Source, err.Error) {
	ret := ast.Return{}
	src = skipWhiteSpace(src)
	if temp, e := readLiteral(`;`, src); e == nil {
		return ret, temp, nil
	}
	arg, src, e := parseOperand(src)
	if e != nil {
		return nil, src, e
	}
	ret.Argument = arg
	src, e = readLiteral(`;`, skipWhiteSpace(src))
	if e != nil {
		return nil, src, e
	}
	return ret, src, nil
}

func parseBlock(src Source) (ast.Block, Source, err.Error) {
	src, e := readLiteral(`{`, src)
	if e != nil {
		return nil, src, e
	}
	block, src, e := parseStmts(src)
	if e != nil {
		return nil, src, e
	}
	src, e = readLiteral(`}`, skipWhiteSpace(src))
	if e != nil {
		return nil, src, e
	}
	return block, src, nil
}

// parseOperand parses a literal or a bound-variable reference.
func parseOperand(src Source) (ast.Node, Source, err.Error) {
	if e := assertNonEmpty(src); e != nil {
		return nil, src, e
	}
	if c := src[0]; c == '"' || c == '-' || (c >= '0' && c <= '9') {
		return parseLiteral(src)
	}
	name, rest, e := readIdent(src)
	if e != nil {
		return nil, src, err.SyntaxError{
			Problem: `expected literal or identifier`,
			Input:   src,
		}
	}
	switch name {
	case "true":
		return ast.Literal{val.Bool(true)}, rest, nil
	case "false":
		return ast.Literal{val.Bool(false)}, rest, nil
	case "null":
		return ast.Literal{val.Null}, rest, nil
	}
	if keywords[name] {
		return nil, src, err.SyntaxError{
			Problem: fmt.Sprintf(`"%s" is a reserved word`, name),
			Input:   src,
		}
	}
	return ast.Var(name), rest, nil
}

func parseLiteral(src Source) (ast.Node, Source, err.Error) {
	if e := assertNonEmpty(src); e != nil {
		return nil, src, e
	}
	switch c := src[0]; {
	case c == '"':
		s, rest, e := readString(src)
		if e != nil {
			return nil, rest, e
		}
		return ast.Literal{val.String(s)}, rest, nil
	case c == '-' || (c >= '0' && c <= '9'):
		return parseNumber(src)
	}
	name, rest, e := readIdent(src)
	if e == nil {
		switch name {
		case "true":
			return ast.Literal{val.Bool(true)}, rest, nil
		case "false":
			return ast.Literal{val.Bool(false)}, rest, nil
		case "null":
			return ast.Literal{val.Null}, rest, nil
		}
	}
	return nil, src, err.SyntaxError{
		Problem: `expected string, number, "true", "false" or "null"`,
		Input:   src,
	}
}

func parseNumber(src Source) (ast.Node, Source, err.Error) {
	n, rest, e := readNumber(src)
	if e != nil {
		return nil, rest, e
	}
	if bytes.ContainsAny(n, ".eE") {
		f, e_ := strconv.ParseFloat(string(n), 64)
		if e_ != nil {
			return nil, src, err.SyntaxError{
				Problem: fmt.Sprintf(`malformed number "%s"`, n),
				Input:   src,
			}
		}
		return ast.Literal{val.Float(f)}, rest, nil
	}
	i, e_ := strconv.ParseInt(string(n), 10, 64)
	if e_ != nil {
		ne := e_.(*strconv.NumError)
		if ne.Err == strconv.ErrRange {
			return nil, src, err.SyntaxError{
				Problem: fmt.Sprintf(`number "%s" overflows int64`, n),
				Input:   src,
			}
		}
		return nil, src, err.SyntaxError{
			Problem: fmt.Sprintf(`malformed number "%s"`, n),
			Input:   src,
		}
	}
	return ast.Literal{val.Int64(i)}, rest, nil
}

// readName reads an identifier naming a type or binding. Keywords are not
// permissible names.
func readName(src Source) (string, Source, err.Error) {
	name, rest, e := readIdent(src)
	if e != nil {
		return "", src, e
	}
	if keywords[name] {
		return "", src, err.SyntaxError{
			Problem: fmt.Sprintf(`"%s" is a reserved word`, name),
			Input:   src,
		}
	}
	return name, rest, nil
}

func readIdent(src Source) (string, Source, err.Error) {
	if e := assertNonEmpty(src); e != nil {
		return "", src, e
	}
	if c := src[0]; !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$') {
		return "", src, err.SyntaxError{
			Problem: fmt.Sprintf(`expected identifier, found "%s"`, string(c)),
			Input:   src,
		}
	}
	i := 1
	for i < len(src) {
		c := src[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '$' {
			i++
			continue
		}
		break
	}
	return string(src[:i]), src[i:], nil
}

func readString(src Source) (string, Source, err.Error) {
	input := src
	raw, src, e := readRawString(src)
	if e != nil {
		return "", input, e
	}
	value := ""
	if e := ej.Unmarshal(raw, &value); e != nil {
		return "", input, err.SyntaxError{
			Problem: `malformed string`,
			Input:   input,
		}
	}
	return value, src, nil
}

func readRawString(src Source) (Source, Source, err.Error) {
	input := src
	src, e := readLiteral(`"`, src)
	if e != nil {
		return nil, input, e
	}
	escape := false
	for {
		if e := assertNonEmpty(src); e != nil {
			return nil, input, e
		}
		if src[0] == '"' && !escape {
			src = src[1:]
			break
		}
		if src[0] == '\\' && !escape {
			escape = true
			src = src[1:]
			continue
		}
		escape = false
		src = src[1:]
	}
	return input[:len(input)-len(src)], src, nil
}

func readNumber(src Source) (Source, Source, err.Error) {
	input := src
	if e := assertNonEmpty(src); e != nil {
		return nil, input, e
	}
	if src[0] == '-' {
		src = src[1:]
		if e := assertNonEmpty(src); e != nil {
			return nil, input, e
		}
	}
	if src[0] == '0' {
		src = src[1:]
		if len(src) == 0 {
			return input[:len(input)-len(src)], src, nil
		}
		goto dotDecimals
	}
	if src[0] < '1' || src[0] > '9' {
		return nil, input, err.SyntaxError{
			Problem: fmt.Sprintf(`expected digit between 1 and 9, found "%s"`, string(src[0])),
			Input:   src,
		}
	}
	src = src[1:]
	if len(src) == 0 {
		return input[:len(input)-len(src)], src, nil
	}
	for src[0] >= '0' && src[0] <= '9' {
		src = src[1:]
		if len(src) == 0 {
			return input[:len(input)-len(src)], src, nil
		}
	}
dotDecimals:
	if src[0] != '.' {
		goto exponent
	}
	src = src[1:]
	if len(src) == 0 {
		return input[:len(input)-len(src)], src, nil
	}
	for src[0] >= '0' && src[0] <= '9' {
		src = src[1:]
		if len(src) == 0 {
			return input[:len(input)-len(src)], src, nil
		}
	}
exponent:
	if src[0] != 'e' && src[0] != 'E' {
		return input[:len(input)-len(src)], src, nil
	}
	src = src[1:]
	if len(src) == 0 {
		return input[:len(input)-len(src)], src, nil
	}
	if src[0] == '-' || src[0] == '+' {
		src = src[1:]
		if len(src) == 0 {
			return input[:len(input)-len(src)], src, nil
		}
	}
	for src[0] >= '0' && src[0] <= '9' {
		src = src[1:]
		if len(src) == 0 {
			return input[:len(input)-len(src)], src, nil
		}
	}
	return input[:len(input)-len(src)], src, nil
}

func skipWhiteSpace(src Source) Source {
	for len(src) > 0 && (src[0] == '\t' || src[0] == '\n' || src[0] == '\r' || src[0] == ' ') {
		src = src[1:]
	}
	if len(src) > 1 && src[0] == '/' && src[1] == '/' {
		src = src[2:]
		for len(src) > 0 && src[0] != '\n' {
			src = src[1:]
		}
		if len(src) > 0 {
			src = src[1:] // skip last \n if there is one
		}
		return skipWhiteSpace(src)
	}
	return src
}

// postcondition: returns intact source on error
func readLiteral(lit string, src Source) (Source, err.Error) {
	bs := Source(lit)
	if len(bs) > len(src) {
		return src, err.SyntaxError{
			Problem: fmt.Sprintf(`expected "%s", input too short`, bs),
			Input:   src,
		}
	}
	cs := src[:len(bs)]
	if !bytes.Equal(bs, cs) {
		return src, err.SyntaxError{
			Problem: fmt.Sprintf(`expected "%s" but found "%s"`, bs, cs),
			Input:   src,
		}
	}
	return src[len(bs):], nil
}

func assertNonEmpty(src Source) err.Error {
	if len(src) == 0 {
		return err.SyntaxError{
			Problem: `unexpected end of input`,
			Input:   src,
		}
	}
	return nil
}
