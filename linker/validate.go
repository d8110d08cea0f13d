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

package linker

import (
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tottoto/protox/reporter"
)

// maxNormalTag is the highest field number allowed for an ordinary
// extension. maxTag is the highest allowed for an extension of a message
// that uses the legacy message-set wire format, which packs the tag into
// the full 32-bit range instead of reserving the top three bits.
const (
	maxNormalTag = 536870911
	maxTag       = 0x7fffffff
)

// ValidateOptions runs some validation checks on the result that can only be
// done after options are interpreted, since they require inspecting the
// extendee's resolved options.
//
// This walks the raw FileDescriptorProto rather than the built
// protoreflect.FileDescriptor: protodesc.NewFile round-trips through
// serialized bytes, so the built tree's field protos are not the same
// pointers the parser indexed for AST lookups. Finding each extension field
// by name in the built tree (via FindDescriptorByName) and its declaration
// by pointer in the raw tree keeps both FieldNode lookups and semantic
// checks (kind, cardinality, containing message options) valid.
func (r *result) ValidateOptions(handler *reporter.Handler) error {
	return walkDescriptorProtos(r.FileDescriptorProto(),
		func(fqn protoreflect.FullName, d proto.Message) error {
			fld, ok := d.(*descriptorpb.FieldDescriptorProto)
			if !ok || fld.GetExtendee() == "" {
				return nil
			}
			return r.validateExtension(handler, fqn, fld)
		},
		nil)
}

func (r *result) validateExtension(handler *reporter.Handler, fqn protoreflect.FullName, fld *descriptorpb.FieldDescriptorProto) error {
	dsc := r.FindDescriptorByName(fqn)
	extd, ok := dsc.(protoreflect.FieldDescriptor)
	if !ok {
		// Already reported during reference resolution.
		return nil
	}

	extendeeName := strings.TrimPrefix(fld.GetExtendee(), ".")
	extendee, ok := r.resolveElement(protoreflect.FullName(extendeeName)).(protoreflect.MessageDescriptor)
	if !ok {
		return nil
	}
	file := r.FileNode()
	node := r.FieldNode(fld)

	if extendee.Options().(*descriptorpb.MessageOptions).GetMessageSetWireFormat() {
		// Message set wire format requires that all extensions be messages
		// themselves (no scalar extensions).
		if extd.Kind() != protoreflect.MessageKind {
			return handler.HandleErrorf(file.NodeInfo(node.FieldType()), "messages with message-set wire format cannot contain scalar extensions, only messages")
		}
		if extd.Cardinality() == protoreflect.Repeated {
			return handler.HandleErrorf(file.NodeInfo(node.FieldLabel()), "messages with message-set wire format cannot contain repeated extensions, only optional")
		}
		if extd.Number() > maxTag {
			return handler.HandleErrorf(file.NodeInfo(node.FieldTag()), "tag number %d is higher than max allowed tag number (%d)", extd.Number(), maxTag)
		}
	} else if extd.Number() > maxNormalTag {
		return handler.HandleErrorf(file.NodeInfo(node.FieldTag()), "tag number %d is higher than max allowed tag number (%d)", extd.Number(), maxNormalTag)
	}

	return nil
}
