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
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tottoto/protox/ast"
)

// Clone returns a copy of r whose descriptor proto is an independent deep
// copy of r's descriptor proto. The AST (if any) is shared with r, since the
// AST is never mutated once parsing completes. Only the descriptor proto is
// mutated during linking, so every caller that hands out a cached Result to
// more than one compile task must clone it first; otherwise two concurrent
// links would race on the same *descriptorpb.FileDescriptorProto.
//
// The returned Result's AST node lookups (Node, FieldNode, MessageNode, ...)
// keep working after the clone: the correspondence between the old and new
// descriptor proto trees is rebuilt by walking both in lockstep, since
// proto.Clone produces a structurally identical tree.
func Clone(r Result) Result {
	rr, ok := r.(*result)
	if !ok {
		// Result was built some other way (e.g. ResultWithoutAST over a
		// descriptor proto owned elsewhere); a defensive copy of just the
		// proto is enough since there are no AST node maps to carry over.
		return ResultWithoutAST(proto.Clone(r.FileDescriptorProto()).(*descriptorpb.FileDescriptorProto)) //nolint:errcheck
	}

	clonedProto, ok := proto.Clone(rr.proto).(*descriptorpb.FileDescriptorProto)
	if !ok {
		panic("bug: proto.Clone of FileDescriptorProto returned unexpected type")
	}

	corr := map[proto.Message]proto.Message{}
	correspond(rr.proto, clonedProto, corr)

	clone := &result{
		file:                 rr.file,
		proto:                clonedProto,
		importInsertionPoint: rr.importInsertionPoint,
		fieldExtendeeNodes:   rr.fieldExtendeeNodes,
	}
	if rr.nodes != nil {
		clone.nodes = make(map[proto.Message]ast.Node, len(rr.nodes))
		for oldMsg, node := range rr.nodes {
			if newMsg, ok := corr[oldMsg]; ok {
				clone.nodes[newMsg] = node
			}
		}
	}
	if rr.nodesInverse != nil {
		clone.nodesInverse = make(map[ast.Node]proto.Message, len(rr.nodesInverse))
		for node, oldMsg := range rr.nodesInverse {
			if newMsg, ok := corr[oldMsg]; ok {
				clone.nodesInverse[node] = newMsg
			}
		}
	}
	return clone
}

// correspond walks old and its structural twin clone together, recording in
// corr which message in clone stands in for each message in old. Both trees
// were produced from the same proto.Clone call, so every message field,
// including repeated ones, lines up index-for-index.
func correspond(old, clone proto.Message, corr map[proto.Message]proto.Message) {
	corr[old] = clone
	oldFields := old.ProtoReflect()
	cloneFields := clone.ProtoReflect()
	oldFields.Range(func(fd protoreflect.FieldDescriptor, ov protoreflect.Value) bool {
		if fd.Kind() != protoreflect.MessageKind && fd.Kind() != protoreflect.GroupKind {
			return true
		}
		cv := cloneFields.Get(fd)
		switch {
		case fd.IsList():
			ol, cl := ov.List(), cv.List()
			for i := 0; i < ol.Len(); i++ {
				correspond(ol.Get(i).Message().Interface(), cl.Get(i).Message().Interface(), corr)
			}
		case fd.IsMap():
			// No descriptor proto field is a map with message values, so
			// there is nothing to recurse into here.
		default:
			if ov.Message().IsValid() {
				correspond(ov.Message().Interface(), cv.Message().Interface(), corr)
			}
		}
		return true
	})
}
