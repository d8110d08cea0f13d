// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tottoto/protox/ast"
	"github.com/tottoto/protox/reporter"
)

// runeReader is a simple cursor over a file's raw bytes that supports the
// save/restore and mark/unread operations the scanner needs for lookahead.
type runeReader struct {
	data []byte
	pos  int
	err  error
	mark int

	savedPos int
	savedErr error
}

func (rr *runeReader) save() {
	rr.savedPos = rr.pos
	rr.savedErr = rr.err
}

func (rr *runeReader) restore() {
	rr.pos = rr.savedPos
	rr.err = rr.savedErr
}

func (rr *runeReader) readRune() (r rune, size int, err error) {
	if rr.err != nil {
		return 0, 0, rr.err
	}
	if rr.pos == len(rr.data) {
		rr.err = io.EOF
		return 0, 0, rr.err
	}
	r, sz := utf8.DecodeRune(rr.data[rr.pos:])
	rr.pos += sz
	return r, sz, nil
}

func (rr *runeReader) offset() int {
	return rr.pos
}

func (rr *runeReader) unreadRune(sz int) {
	newPos := rr.pos - sz
	if newPos < rr.mark {
		if rr.err == io.EOF {
			rr.err = nil
			return
		}
		panic("unread past mark")
	}
	rr.pos = newPos
}

func (rr *runeReader) setMark() {
	rr.mark = rr.pos
}

func (rr *runeReader) getMark() string {
	return string(rr.data[rr.mark:rr.pos])
}

// tokKind classifies a scanned token for the recursive-descent parser. Unlike
// the legacy yacc grammar, this scanner does not try to classify compound or
// extension identifiers itself; it hands the parser a stream of primitive
// tokens (identifiers, literals and single runes) and lets the grammar
// productions assemble compound constructs.
type tokKind int

const (
	tokEOF tokKind = iota
	tokError
	tokIdent
	tokInt
	tokFloat
	tokString
	tokRune
)

// token is a single scanned lexeme, carrying the concrete AST terminal node
// that was built for it (so position and comment information travels with
// every token the parser consumes).
type token struct {
	kind tokKind
	rn   rune // valid when kind == tokRune

	ident  *ast.IdentNode
	strLit *ast.StringLiteralNode
	uint   *ast.UintLiteralNode
	float  *ast.FloatLiteralNode
	rune_  *ast.RuneNode

	err error
}

func (t token) node() ast.TerminalNodeInterface {
	switch t.kind {
	case tokIdent:
		return t.ident
	case tokString:
		return t.strLit
	case tokInt:
		return t.uint
	case tokFloat:
		return t.float
	case tokRune, tokEOF:
		return t.rune_
	}
	return nil
}

// scanner turns a file's raw bytes into a stream of tokens. It owns comment
// accumulation/attachment, since that bookkeeping has nothing to do with the
// grammar and is identical regardless of how the parser consumes tokens.
type scanner struct {
	input   *runeReader
	info    *ast.FileInfo
	handler *reporter.Handler

	prevSym    ast.TerminalNodeInterface
	prevOffset int

	comments []ast.Token
}

var utf8Bom = []byte{0xEF, 0xBB, 0xBF}

func newScanner(in io.Reader, filename string, handler *reporter.Handler, version int32) (*scanner, error) {
	br := bufio.NewReader(in)

	marker, err := br.Peek(3)
	if err == nil && bytes.Equal(marker, utf8Bom) {
		_, _ = br.Discard(3)
	}

	contents, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	return &scanner{
		input:   &runeReader{data: contents},
		info:    ast.NewFileInfo(filename, contents, version),
		handler: handler,
	}, nil
}

func (l *scanner) maybeNewLine(r rune) {
	if r == '\n' {
		l.info.AddLine(l.input.offset())
	}
}

func (l *scanner) prev() ast.SourcePos {
	return l.info.SourcePos(l.prevOffset)
}

// next scans and returns the next token, skipping whitespace and attaching
// any intervening comments to whichever adjacent token they belong with.
func (l *scanner) next() token {
	if l.handler.ReporterError() != nil {
		return token{kind: tokEOF, rune_: ast.NewRuneNode(0, ast.TokenError)}
	}

	l.comments = nil

	for {
		l.input.setMark()
		l.prevOffset = l.input.offset()
		c, sz, err := l.input.readRune()
		if err == io.EOF {
			rn := ast.NewRuneNode(0, l.newToken())
			l.setPrev(rn)
			return token{kind: tokEOF, rune_: rn}
		}
		if err != nil {
			return l.errToken(err)
		}

		if strings.ContainsRune("\r\t\f\v ", c) {
			continue
		}
		if c == '\n' {
			l.info.AddLine(l.input.offset())
			continue
		}

		if c == '/' {
			cn, szn, err := l.input.readRune()
			if err == nil {
				if cn == '/' {
					l.skipToEndOfLineComment()
					l.comments = append(l.comments, l.newToken())
					continue
				}
				if cn == '*' {
					if err := l.skipToEndOfBlockComment(); err != nil {
						return l.errToken(err)
					}
					l.comments = append(l.comments, l.newToken())
					continue
				}
				l.input.unreadRune(szn)
			}
		}

		if c == '.' {
			cn, szn, err := l.input.readRune()
			if err == nil && cn >= '0' && cn <= '9' {
				l.readNumber()
				text := l.input.getMark()
				f, ferr := parseFloat(text)
				if ferr != nil {
					return l.errToken(numError(ferr, "float", text))
				}
				node := ast.NewFloatLiteralNode(f, l.newToken(), text)
				l.setPrev(node)
				return token{kind: tokFloat, float: node}
			}
			if err == nil {
				l.input.unreadRune(szn)
			}
			rn := ast.NewRuneNode(c, l.newToken())
			l.setPrev(rn)
			return token{kind: tokRune, rn: c, rune_: rn}
		}

		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			l.readIdentifier()
			str := l.input.getMark()
			node := ast.NewIdentNode(str, l.newToken())
			l.setPrev(node)
			return token{kind: tokIdent, ident: node}
		}

		if c >= '0' && c <= '9' {
			l.readNumber()
			text := l.input.getMark()
			if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
				ui, err := strconv.ParseUint(text[2:], 16, 64)
				if err != nil {
					return l.errToken(numError(err, "hexadecimal integer", text[2:]))
				}
				node := ast.NewUintLiteralNode(ui, l.newToken(), text)
				l.setPrev(node)
				return token{kind: tokInt, uint: node}
			}
			if strings.ContainsAny(text, ".eE") {
				f, err := parseFloat(text)
				if err != nil {
					return l.errToken(numError(err, "float", text))
				}
				node := ast.NewFloatLiteralNode(f, l.newToken(), text)
				l.setPrev(node)
				return token{kind: tokFloat, float: node}
			}
			base := 10
			if text[0] == '0' {
				base = 8
			}
			ui, err := strconv.ParseUint(text, base, 64)
			if err != nil {
				kind := "integer"
				if base == 8 {
					kind = "octal integer"
				} else if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
					f, ferr := parseFloat(text)
					if ferr == nil {
						node := ast.NewFloatLiteralNode(f, l.newToken(), text)
						l.setPrev(node)
						return token{kind: tokFloat, float: node}
					}
				}
				return l.errToken(numError(err, kind, text))
			}
			node := ast.NewUintLiteralNode(ui, l.newToken(), text)
			l.setPrev(node)
			return token{kind: tokInt, uint: node}
		}

		if c == '\'' || c == '"' {
			str, err := l.readStringLiteral(c)
			if err != nil {
				return l.errToken(err)
			}
			node := ast.NewStringLiteralNode(str, l.newToken())
			l.setPrev(node)
			return token{kind: tokString, strLit: node}
		}

		if c < 32 || c == 127 {
			return l.errToken(errors.New("invalid control character"))
		}
		if !strings.ContainsRune(";,.:=-+(){}[]<>/", c) {
			return l.errToken(errors.New("invalid character"))
		}

		_ = sz
		rn := ast.NewRuneNode(c, l.newToken())
		l.setPrev(rn)
		return token{kind: tokRune, rn: c, rune_: rn}
	}
}

func (l *scanner) errToken(err error) token {
	ewp, _ := l.addSourceError(err)
	return token{kind: tokError, err: ewp}
}

func parseFloat(text string) (float64, error) {
	if strings.ContainsRune(text, '_') {
		return 0, &strconv.NumError{Func: "parseFloat", Num: text, Err: strconv.ErrSyntax}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err == nil {
		return f, nil
	}
	if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange && math.IsInf(f, 1) {
		return f, nil
	}
	return f, err
}

func numError(err error, kind, s string) error {
	ne, ok := err.(*strconv.NumError)
	if !ok {
		return err
	}
	if ne.Err == strconv.ErrRange {
		return fmt.Errorf("value out of range for %s: %s", kind, s)
	}
	return fmt.Errorf("invalid syntax in %s value: %s", kind, s)
}

func (l *scanner) newToken() ast.Token {
	offset := l.input.mark
	length := l.input.pos - l.input.mark
	return l.info.AddToken(offset, length)
}

// setPrev associates any comments accumulated since the last token with
// either the previous token (as a trailing comment) or this one (as leading
// comments), then records n as the new previous token.
func (l *scanner) setPrev(n ast.TerminalNodeInterface) {
	comments := l.comments
	l.comments = nil
	var prevTrailingComments []ast.Token
	if l.prevSym != nil && len(comments) > 0 {
		prevEnd := l.info.NodeInfo(l.prevSym).End().Line
		info := l.info.NodeInfo(n)
		nStart := info.Start().Line
		if nStart == prevEnd {
			if rn, ok := n.(*ast.RuneNode); ok && rn.Rune == 0 {
				nStart++
			}
		}
		c := comments[0]
		commentInfo := l.info.TokenInfo(c)
		commentStart := commentInfo.Start().Line
		if nStart > prevEnd && commentStart == prevEnd {
			canDonate := strings.HasPrefix(commentInfo.RawText(), "//") ||
				len(comments) > 1 || commentInfo.End().Line < nStart
			if canDonate {
				prevTrailingComments = comments[:1]
				comments = comments[1:]
			}
		}
	}

	for _, c := range prevTrailingComments {
		l.info.AddComment(c, l.prevSym.Token())
	}
	for _, c := range comments {
		l.info.AddComment(c, n.Token())
	}

	l.prevSym = n
}

func (l *scanner) readNumber() {
	allowExpSign := false
	for {
		c, sz, err := l.input.readRune()
		if err != nil {
			break
		}
		if (c == '-' || c == '+') && !allowExpSign {
			l.input.unreadRune(sz)
			break
		}
		allowExpSign = false
		if c != '.' && c != '_' && (c < '0' || c > '9') &&
			(c < 'a' || c > 'z') && (c < 'A' || c > 'Z') &&
			c != '-' && c != '+' {
			l.input.unreadRune(sz)
			break
		}
		if c == 'e' || c == 'E' {
			allowExpSign = true
		}
	}
}

func (l *scanner) readIdentifier() {
	for {
		c, sz, err := l.input.readRune()
		if err != nil {
			break
		}
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			l.input.unreadRune(sz)
			break
		}
	}
}

func (l *scanner) readStringLiteral(quote rune) (string, error) {
	var buf bytes.Buffer
	for {
		c, _, err := l.input.readRune()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
		if c == '\n' {
			return "", errors.New("encountered end-of-line before end of string literal")
		}
		if c == quote {
			break
		}
		if c == 0 {
			return "", errors.New("null character ('\\0') not allowed in string literal")
		}
		if c == '\\' {
			c, _, err = l.input.readRune()
			if err != nil {
				return "", err
			}
			switch {
			case c == 'x' || c == 'X':
				c1, sz1, err := l.input.readRune()
				if err != nil {
					return "", err
				}
				if c1 == quote || c1 == '\\' {
					l.input.unreadRune(sz1)
					return "", fmt.Errorf("invalid hex escape: %s", "\\"+string(c))
				}
				c2, sz2, err := l.input.readRune()
				if err != nil {
					return "", err
				}
				var hex string
				if (c2 < '0' || c2 > '9') && (c2 < 'a' || c2 > 'f') && (c2 < 'A' || c2 > 'F') {
					l.input.unreadRune(sz2)
					hex = string(c1)
				} else {
					hex = string([]rune{c1, c2})
				}
				i, err := strconv.ParseInt(hex, 16, 32)
				if err != nil {
					return "", fmt.Errorf("invalid hex escape: %s", "\\"+string(c)+hex)
				}
				buf.WriteByte(byte(i))
			case c >= '0' && c <= '7':
				c2, sz2, err := l.input.readRune()
				if err != nil {
					return "", err
				}
				var octal string
				if c2 < '0' || c2 > '7' {
					l.input.unreadRune(sz2)
					octal = string(c)
				} else {
					c3, sz3, err := l.input.readRune()
					if err != nil {
						return "", err
					}
					if c3 < '0' || c3 > '7' {
						l.input.unreadRune(sz3)
						octal = string([]rune{c, c2})
					} else {
						octal = string([]rune{c, c2, c3})
					}
				}
				i, err := strconv.ParseInt(octal, 8, 32)
				if err != nil {
					return "", fmt.Errorf("invalid octal escape: %s", "\\"+octal)
				}
				if i > 0xff {
					return "", fmt.Errorf("octal escape is out range, must be between 0 and 377: %s", "\\"+octal)
				}
				buf.WriteByte(byte(i))
			case c == 'u':
				u := make([]rune, 4)
				for i := range u {
					c2, sz2, err := l.input.readRune()
					if err != nil {
						return "", err
					}
					if c2 == quote || c2 == '\\' {
						l.input.unreadRune(sz2)
						u = u[:i]
						break
					}
					u[i] = c2
				}
				codepointStr := string(u)
				if len(u) < 4 {
					return "", fmt.Errorf("invalid unicode escape: %s", "\\u"+codepointStr)
				}
				i, err := strconv.ParseInt(codepointStr, 16, 32)
				if err != nil {
					return "", fmt.Errorf("invalid unicode escape: %s", "\\u"+codepointStr)
				}
				buf.WriteRune(rune(i))
			case c == 'U':
				u := make([]rune, 8)
				for i := range u {
					c2, sz2, err := l.input.readRune()
					if err != nil {
						return "", err
					}
					if c2 == quote || c2 == '\\' {
						l.input.unreadRune(sz2)
						u = u[:i]
						break
					}
					u[i] = c2
				}
				codepointStr := string(u)
				if len(u) < 8 {
					return "", fmt.Errorf("invalid unicode escape: %s", "\\U"+codepointStr)
				}
				i, err := strconv.ParseInt(codepointStr, 16, 32)
				if err != nil {
					return "", fmt.Errorf("invalid unicode escape: %s", "\\U"+codepointStr)
				}
				if i > 0x10ffff || i < 0 {
					return "", fmt.Errorf("unicode escape is out of range, must be between 0 and 0x10ffff: %s", "\\U"+codepointStr)
				}
				buf.WriteRune(rune(i))
			case c == 'a':
				buf.WriteByte('\a')
			case c == 'b':
				buf.WriteByte('\b')
			case c == 'f':
				buf.WriteByte('\f')
			case c == 'n':
				buf.WriteByte('\n')
			case c == 'r':
				buf.WriteByte('\r')
			case c == 't':
				buf.WriteByte('\t')
			case c == 'v':
				buf.WriteByte('\v')
			case c == '\\':
				buf.WriteByte('\\')
			case c == '\'':
				buf.WriteByte('\'')
			case c == '"':
				buf.WriteByte('"')
			case c == '?':
				buf.WriteByte('?')
			default:
				return "", fmt.Errorf("invalid escape sequence: %s", "\\"+string(c))
			}
		} else {
			buf.WriteRune(c)
		}
	}
	return buf.String(), nil
}

func (l *scanner) skipToEndOfLineComment() {
	for {
		c, sz, err := l.input.readRune()
		if err != nil {
			return
		}
		if c == '\n' {
			l.input.unreadRune(sz)
			return
		}
	}
}

func (l *scanner) skipToEndOfBlockComment() error {
	for {
		c, _, err := l.input.readRune()
		if err != nil {
			return errors.New("block comment never terminates, unexpected EOF")
		}
		l.maybeNewLine(c)
		if c == '/' {
			cn, sz, err := l.input.readRune()
			if err == nil && cn == '*' {
				// a nested "/*" is rejected; the comment is not skipped.
				return errors.New("nested block comments are not allowed")
			}
			if err == nil {
				l.input.unreadRune(sz)
			}
		}
		if c == '*' {
			c, sz, err := l.input.readRune()
			if err != nil {
				return errors.New("block comment never terminates, unexpected EOF")
			}
			if c == '/' {
				return nil
			}
			l.input.unreadRune(sz)
		}
	}
}

func (l *scanner) matchNextRune(targets ...rune) (rune, bool) {
	l.input.save()
	defer l.input.restore()
	for {
		c, sz, err := l.input.readRune()
		if err != nil {
			return 0, false
		}
		switch c {
		case '\r', '\t', '\f', '\v', ' ', '\n':
			continue
		case '/':
			cn, _, err := l.input.readRune()
			if err != nil {
				return 0, false
			}
			if cn == '/' {
				for {
					c2, sz2, err := l.input.readRune()
					if err != nil || c2 == '\n' {
						l.input.unreadRune(sz2)
						break
					}
				}
				continue
			}
			if cn == '*' {
				for {
					c2, _, err := l.input.readRune()
					if err != nil {
						return 0, false
					}
					if c2 == '*' {
						c3, sz3, err := l.input.readRune()
						if err == nil && c3 == '/' {
							break
						}
						if err == nil {
							l.input.unreadRune(sz3)
						}
					}
				}
				continue
			}
			l.input.unreadRune(sz)
			for _, t := range targets {
				if t == c {
					return c, true
				}
			}
			return 0, false
		default:
			for _, t := range targets {
				if t == c {
					return c, true
				}
			}
			return 0, false
		}
	}
}

func (l *scanner) addSourceError(err error) (reporter.ErrorWithPos, bool) {
	ewp, ok := err.(reporter.ErrorWithPos)
	if !ok {
		ewp = reporter.Error(ast.NewSourceSpan(l.prev(), l.prev()), err)
	}
	handlerErr := l.handler.HandleError(ewp)
	return ewp, handlerErr == nil
}

func (l *scanner) errWithCurrentPos(err error, offset int) reporter.ErrorWithPos {
	if ewp, ok := err.(reporter.ErrorWithPos); ok {
		return ewp
	}
	pos := l.info.SourcePos(l.input.offset() + offset)
	return reporter.Error(ast.NewSourceSpan(pos, pos), err)
}
