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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tottoto/protox/reporter"
)

func newTestScanner(t *testing.T, src string) (*scanner, *reporter.Handler) {
	t.Helper()
	handler := reporter.NewHandler(nil)
	sc, err := newScanner(strings.NewReader(src), "test.proto", handler, 0)
	require.NoError(t, err)
	return sc, handler
}

func TestScannerIdentifiersAndKeywordText(t *testing.T) {
	t.Parallel()
	sc, handler := newTestScanner(t, `message Foo { optional string bar = 1; }`)

	var kinds []tokKind
	var idents []string
	for {
		tok := sc.next()
		require.NotEqual(t, tokError, tok.kind)
		kinds = append(kinds, tok.kind)
		if tok.kind == tokIdent {
			idents = append(idents, tok.ident.Val)
		}
		if tok.kind == tokEOF {
			break
		}
	}
	assert.NoError(t, handler.Error())
	assert.Equal(t, []string{"message", "Foo", "optional", "string", "bar"}, idents)
}

func TestScannerNumberLiterals(t *testing.T) {
	t.Parallel()
	sc, handler := newTestScanner(t, `1 0x1A 010 1.5 1e10 .5`)

	var kinds []tokKind
	for {
		tok := sc.next()
		require.NotEqual(t, tokError, tok.kind)
		if tok.kind == tokEOF {
			break
		}
		kinds = append(kinds, tok.kind)
	}
	assert.NoError(t, handler.Error())
	assert.Equal(t, []tokKind{tokInt, tokInt, tokInt, tokFloat, tokFloat, tokFloat}, kinds)
}

func TestScannerStringEscapes(t *testing.T) {
	t.Parallel()
	sc, handler := newTestScanner(t, `"foo\tbar\x41\101"`)

	tok := sc.next()
	require.Equal(t, tokString, tok.kind)
	assert.Equal(t, "foo\tbarAA", tok.strLit.Val)
	assert.NoError(t, handler.Error())
}

func TestScannerUnterminatedString(t *testing.T) {
	t.Parallel()
	sc, handler := newTestScanner(t, `"foo`)

	tok := sc.next()
	assert.Equal(t, tokError, tok.kind)
	assert.Error(t, handler.Error())
}

func TestScannerComments(t *testing.T) {
	t.Parallel()
	sc, handler := newTestScanner(t, "// leading\nfoo // trailing\nbar")

	foo := sc.next()
	require.Equal(t, tokIdent, foo.kind)
	require.Equal(t, "foo", foo.ident.Val)
	assert.Greater(t, sc.info.NodeInfo(foo.ident).LeadingComments().Len(), 0)

	bar := sc.next()
	require.Equal(t, tokIdent, bar.kind)
	assert.Equal(t, "bar", bar.ident.Val)
	assert.NoError(t, handler.Error())
}

func TestScannerRunePunctuation(t *testing.T) {
	t.Parallel()
	sc, handler := newTestScanner(t, `map<string,int32>`)

	var runes []rune
	for {
		tok := sc.next()
		require.NotEqual(t, tokError, tok.kind)
		if tok.kind == tokEOF {
			break
		}
		if tok.kind == tokRune {
			runes = append(runes, tok.rn)
		}
	}
	assert.NoError(t, handler.Error())
	assert.Equal(t, []rune{'<', ',', '>'}, runes)
}
