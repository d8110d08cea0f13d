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

package protointernal

import (
	"bytes"
	"fmt"
)

// WriteEscapedBytes writes b to buf using C-style escaping, for bytes default
// values: newline, carriage return and tab become \n, \r and \t, quotes and
// backslashes are backslash-escaped, other printable ASCII is copied as-is,
// and every remaining byte is emitted as a \xHH hex escape.
func WriteEscapedBytes(buf *bytes.Buffer, b []byte) {
	for _, c := range b {
		switch c {
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '"':
			buf.WriteString(`\"`)
		case '\'':
			buf.WriteString(`\'`)
		case '\\':
			buf.WriteString(`\\`)
		default:
			if c >= 0x20 && c < 0x7f {
				buf.WriteByte(c)
			} else {
				fmt.Fprintf(buf, `\x%02x`, c)
			}
		}
	}
}
