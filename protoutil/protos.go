// Copyright 2020-2022 Buf Technologies, Inc.
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

// Package protoutil contains utility functions for converting between
// protoreflect descriptors and their corresponding descriptor protos.
package protoutil

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ProtoFromFileDescriptor extracts a descriptor proto from the given "rich"
// descriptor. For file descriptors generated by the compiler, this is an
// inexpensive and non-lossy operation. File descriptors from other sources
// however may be expensive (to re-create a proto) and even lossy.
func ProtoFromFileDescriptor(f protoreflect.FileDescriptor) *descriptorpb.FileDescriptorProto {
	type canProto interface {
		Proto() *descriptorpb.FileDescriptorProto
	}
	if res, ok := f.(canProto); ok {
		return res.Proto()
	}
	return protodesc.ToFileDescriptorProto(f)
}

// ProtoFromDescriptor extracts a descriptor proto from the given "rich"
// descriptor, regardless of what kind of element it describes. As with
// ProtoFromFileDescriptor, this is non-lossy and inexpensive for descriptors
// generated by this compiler, and falls back to protodesc for others.
func ProtoFromDescriptor(d protoreflect.Descriptor) proto.Message {
	type canProto interface {
		Proto() proto.Message
	}
	if res, ok := d.(canProto); ok {
		return res.Proto()
	}
	switch d := d.(type) {
	case protoreflect.FileDescriptor:
		return ProtoFromFileDescriptor(d)
	case protoreflect.MessageDescriptor:
		return protodesc.ToDescriptorProto(d)
	case protoreflect.FieldDescriptor:
		return protodesc.ToFieldDescriptorProto(d)
	case protoreflect.OneofDescriptor:
		return protodesc.ToOneofDescriptorProto(d)
	case protoreflect.EnumDescriptor:
		return protodesc.ToEnumDescriptorProto(d)
	case protoreflect.EnumValueDescriptor:
		return protodesc.ToEnumValueDescriptorProto(d)
	case protoreflect.ServiceDescriptor:
		return protodesc.ToServiceDescriptorProto(d)
	case protoreflect.MethodDescriptor:
		return protodesc.ToMethodDescriptorProto(d)
	default:
		panic("unexpected descriptor type")
	}
}
