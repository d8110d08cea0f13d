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

import "google.golang.org/protobuf/reflect/protoreflect"

// Field tags for the various messages in descriptor.proto. These mirror the
// field numbers declared in google/protobuf/descriptor.proto and are used to
// build the repeated-int32 paths recorded in a FileDescriptorProto's
// SourceCodeInfo.

const (
	FilePackageTag          = 2
	FileDependencyTag       = 3
	FileMessagesTag         = 4
	FileEnumsTag            = 5
	FileServicesTag         = 6
	FileExtensionsTag       = 7
	FileOptionsTag          = 8
	FilePublicDependencyTag = 10
	FileWeakDependencyTag   = 11
	FileSyntaxTag           = 12
	FileEditionTag          = 13
)

const (
	MessageNameTag              = 1
	MessageFieldsTag            = 2
	MessageNestedMessagesTag    = 3
	MessageEnumsTag             = 4
	MessageExtensionRangesTag   = 5
	MessageExtensionsTag        = 6
	MessageOptionsTag           = 7
	MessageOneofsTag            = 8
	MessageReservedRangesTag    = 9
	MessageReservedNamesTag     = 10
)

const (
	FieldNameTag     = 1
	FieldExtendeeTag = 2
	FieldNumberTag   = 3
	FieldLabelTag    = 4
	FieldTypeTag     = 5
	FieldTypeNameTag = 6
	FieldDefaultTag  = 7
	FieldOptionsTag  = 8
	FieldJSONNameTag = 10
)

const (
	OneofNameTag    = 1
	OneofOptionsTag = 2
)

const (
	EnumNameTag             = 1
	EnumValuesTag           = 2
	EnumOptionsTag          = 3
	EnumReservedRangesTag   = 4
	EnumReservedNamesTag    = 5
)

const (
	EnumValNameTag    = 1
	EnumValNumberTag  = 2
	EnumValOptionsTag = 3
)

const (
	ServiceNameTag    = 1
	ServiceMethodsTag = 2
	ServiceOptionsTag = 3
)

const (
	MethodNameTag         = 1
	MethodInputTag        = 2
	MethodOutputTag       = 3
	MethodOptionsTag      = 4
	MethodInputStreamTag  = 5
	MethodOutputStreamTag = 6
)

const (
	ExtensionRangeStartTag   = 1
	ExtensionRangeEndTag     = 2
	ExtensionRangeOptionsTag = 3
)

const (
	ReservedRangeStartTag = 1
	ReservedRangeEndTag   = 2
)

// UninterpretedOptionsTag is the field number reserved for
// uninterpreted_option in every *Options message in descriptor.proto.
const UninterpretedOptionsTag = 999

const (
	UninterpretedNameTag       = 2
	UninterpretedIdentTag      = 3
	UninterpretedPosIntTag     = 4
	UninterpretedNegIntTag     = 5
	UninterpretedDoubleTag     = 6
	UninterpretedStringTag     = 7
	UninterpretedAggregateTag  = 8
	UninterpretedNameNameTag   = 1
)

const (
	AnyTypeURLTag = 1
	AnyValueTag   = 2
)

// ClonePath returns a copy of p, so that callers accumulating a path in a
// reused buffer can safely hand out a stable copy.
func ClonePath(p protoreflect.SourcePath) protoreflect.SourcePath {
	clone := make(protoreflect.SourcePath, len(p))
	copy(clone, p)
	return clone
}

// IsZeroSourceLocation reports whether loc is the zero value, which is what
// protoreflect.SourceLocations.ByPath returns when no matching location
// exists.
func IsZeroSourceLocation(loc protoreflect.SourceLocation) bool {
	return loc.Path == nil &&
		loc.StartLine == 0 && loc.StartColumn == 0 &&
		loc.EndLine == 0 && loc.EndColumn == 0
}

// ComputeSourcePath computes the SourceCodeInfo path that identifies d
// within its file, by walking the chain of parents from d up to the file
// and recording, at each step, the field tag of the containing collection
// plus d's index within it.
func ComputeSourcePath(d protoreflect.Descriptor) (protoreflect.SourcePath, bool) {
	var path protoreflect.SourcePath
	for {
		parent := d.Parent()
		if parent == nil {
			break
		}
		tag, ok := containerTag(d, parent)
		if !ok {
			return nil, false
		}
		path = append(path, tag, int32(d.Index()))
		d = parent
	}
	// path was built from the leaf upward; reverse it in place.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

func containerTag(d, parent protoreflect.Descriptor) (int32, bool) {
	switch d.(type) {
	case protoreflect.MessageDescriptor:
		if _, ok := parent.(protoreflect.FileDescriptor); ok {
			return FileMessagesTag, true
		}
		return MessageNestedMessagesTag, true
	case protoreflect.FieldDescriptor:
		if d.(protoreflect.FieldDescriptor).IsExtension() {
			if _, ok := parent.(protoreflect.FileDescriptor); ok {
				return FileExtensionsTag, true
			}
			return MessageExtensionsTag, true
		}
		return MessageFieldsTag, true
	case protoreflect.OneofDescriptor:
		return MessageOneofsTag, true
	case protoreflect.EnumDescriptor:
		if _, ok := parent.(protoreflect.FileDescriptor); ok {
			return FileEnumsTag, true
		}
		return MessageEnumsTag, true
	case protoreflect.EnumValueDescriptor:
		return EnumValuesTag, true
	case protoreflect.ServiceDescriptor:
		return FileServicesTag, true
	case protoreflect.MethodDescriptor:
		return ServiceMethodsTag, true
	default:
		return 0, false
	}
}
