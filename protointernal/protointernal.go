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

// Package protointernal holds helpers shared by the linker, options, and
// sourceinfo packages that have no business being part of any of their
// public APIs.
package protointernal

import (
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tottoto/protox/ast"
	"github.com/tottoto/protox/parser"
	"github.com/tottoto/protox/reporter"
)

// FieldTypes maps the scalar type keywords recognized in field declarations
// to their corresponding descriptor type.
var FieldTypes = map[string]descriptorpb.FieldDescriptorProto_Type{
	"double":   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	"float":    descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	"int32":    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	"int64":    descriptorpb.FieldDescriptorProto_TYPE_INT64,
	"uint32":   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	"uint64":   descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	"sint32":   descriptorpb.FieldDescriptorProto_TYPE_SINT32,
	"sint64":   descriptorpb.FieldDescriptorProto_TYPE_SINT64,
	"fixed32":  descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
	"fixed64":  descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
	"sfixed32": descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
	"sfixed64": descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
	"bool":     descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	"string":   descriptorpb.FieldDescriptorProto_TYPE_STRING,
	"bytes":    descriptorpb.FieldDescriptorProto_TYPE_BYTES,
}

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

// InitCap returns s with its first rune upper-cased, for deriving synthetic
// type names (such as map-entry message names) from field names.
func InitCap(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// MessageContext describes where, in the file being interpreted, an option
// value is being processed. It's threaded through the option interpreter so
// that error messages can describe the element and option being processed
// without every helper function needing its own set of parameters for that.
type MessageContext struct {
	File        parser.Result
	ElementName string
	ElementType string
	Option      *descriptorpb.UninterpretedOption
	// OptAggPath is the dotted/indexed path, within a message literal option
	// value, to the sub-field currently being validated.
	OptAggPath string
}

func (m *MessageContext) String() string {
	var buf strings.Builder
	buf.WriteString(m.ElementType)
	buf.WriteByte(' ')
	buf.WriteString(m.ElementName)
	if m.Option != nil && len(m.Option.Name) > 0 {
		buf.WriteString(", option ")
		for i, part := range m.Option.Name {
			if i > 0 {
				buf.WriteByte('.')
			}
			if part.GetIsExtension() {
				buf.WriteByte('(')
				buf.WriteString(part.GetNamePart())
				buf.WriteByte(')')
			} else {
				buf.WriteString(part.GetNamePart())
			}
		}
	}
	if m.OptAggPath != "" {
		buf.WriteString(", field ")
		buf.WriteString(m.OptAggPath)
	}
	return buf.String()
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

// RemoveOption returns opts with the element at indexToRemove removed.
func RemoveOption(opts []*descriptorpb.UninterpretedOption, indexToRemove int) []*descriptorpb.UninterpretedOption {
	switch {
	case indexToRemove == 0:
		return opts[1:]
	case indexToRemove == len(opts)-1:
		return opts[:len(opts)-1]
	default:
		return append(opts[:indexToRemove], opts[indexToRemove+1:]...)
	}
}
