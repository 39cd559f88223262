package formula

import (
	"fmt"
	"strings"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokColon
)

type token struct {
	typ tokenType
	val string
	pos int
}

// twoCharOps are checked before single-character operators.
var twoCharOps = []string{"&&", "||", "==", "!=", "<>", "<=", ">="}

const singleCharOps = "+-*/%&=<>!"

// tokenize splits formula text into tokens. Characters outside the formula
// alphabet are dropped.
func tokenize(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					for j < len(src) && isDigit(src[j]) {
						j++
					}
					i = j
				}
			}
			tokens = append(tokens, token{typ: tokNumber, val: src[start:i], pos: start})

		case c == '"' || c == '\'':
			s, next, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{typ: tokString, val: s, pos: i})
			i = next

		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{typ: tokIdent, val: src[start:i], pos: start})

		case c == '(':
			tokens = append(tokens, token{typ: tokLParen, val: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{typ: tokRParen, val: ")", pos: i})
			i++
		case c == ',':
			tokens = append(tokens, token{typ: tokComma, val: ",", pos: i})
			i++
		case c == ':':
			tokens = append(tokens, token{typ: tokColon, val: ":", pos: i})
			i++

		default:
			if op := matchOp(src[i:]); op != "" {
				tokens = append(tokens, token{typ: tokOp, val: op, pos: i})
				i += len(op)
				continue
			}
			i++
		}
	}
	tokens = append(tokens, token{typ: tokEOF, pos: len(src)})
	return tokens, nil
}

func matchOp(s string) string {
	for _, op := range twoCharOps {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	if strings.IndexByte(singleCharOps, s[0]) >= 0 {
		return s[:1]
	}
	return ""
}

// scanString reads a quoted literal starting at src[start]. A doubled quote
// character inside the literal stands for one quote.
func scanString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		if src[i] == quote {
			if i+1 < len(src) && src[i+1] == quote {
				b.WriteByte(quote)
				i += 2
				continue
			}
			return b.String(), i + 1, nil
		}
		b.WriteByte(src[i])
		i++
	}
	return "", 0, fmt.Errorf("unterminated string at %d", start)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

func isIdentStart(c byte) bool { return isLetter(c) || c == '_' || c == '$' }

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
