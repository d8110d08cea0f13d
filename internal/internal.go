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

// Package internal holds helpers shared by the parser and options packages
// that have no business being part of either one's public API.
package internal

import (
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tottoto/protox/ast"
	"github.com/tottoto/protox/reporter"
)

// AllowEditions controls whether the "edition" syntax keyword is accepted.
// Editions are not yet part of this compiler's supported surface; this is a
// var rather than a const so tests can flip it for a single run (see
// options_test.go's TestMain).
var AllowEditions = false

const (
	// MaxTag is the maximum allowed field tag number in a message that
	// uses the legacy messageset wire format.
	MaxTag = 2147483647 // 2^31 - 1

	// MaxNormalTag is the maximum allowed field tag number for ordinary
	// fields (those that don't opt into messageset wire format).
	MaxNormalTag = 536870911 // 2^29 - 1

	// SpecialReservedStart and SpecialReservedEnd bound the tag range
	// set aside for implementation use and therefore disallowed in
	// source files.
	SpecialReservedStart = 19000
	SpecialReservedEnd   = 19999
)

// JSONName computes the default json_name for a field named name: the
// underscore-delimited words of name are CamelCased together, with the
// first word left lowercase.
func JSONName(name string) string {
	var buf strings.Builder
	nextUpper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			nextUpper = true
			continue
		}
		if nextUpper {
			buf.WriteString(strings.ToUpper(string(c)))
			nextUpper = false
		} else {
			buf.WriteByte(c)
		}
	}
	return buf.String()
}

// InitCap returns s with its first rune upper-cased, for deriving
// synthetic type names (such as map-entry message names) from field names.
func InitCap(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type hasOptionNode interface {
	OptionNode(part *descriptorpb.UninterpretedOption) *ast.OptionNode
	FileNode() *ast.FileNode
}

// FindOption returns the index in opts of the uninterpreted option named
// name, or -1 if absent. It reports an error via handler if the option is
// defined more than once.
func FindOption(res hasOptionNode, handler *reporter.Handler, scope string, opts []*descriptorpb.UninterpretedOption, name string) (int, error) {
	found := -1
	for i, opt := range opts {
		if len(opt.Name) != 1 {
			continue
		}
		if opt.Name[0].GetIsExtension() || opt.Name[0].GetNamePart() != name {
			continue
		}
		if found >= 0 {
			optNode := res.OptionNode(opt)
			fn := res.FileNode()
			nodeInfo := fn.NodeInfo(optNode.GetName())
			return -1, handler.HandleErrorf(nodeInfo.Start(), "%s: option %s cannot be defined more than once", scope, name)
		}
		found = i
	}
	return found, nil
}
